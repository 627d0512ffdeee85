package server

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	obscontext "github.com/smallbiznis/reelgate/internal/observability/context"
	"go.uber.org/zap"
)

const (
	ctxUserIDKey    = "user_id"
	ctxUserEmailKey = "user_email"
)

// AuthRequired resolves the bearer token to an identity and stores it
// in the request context. Requests without a valid token never reach
// the handler.
func (s *Server) AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c.GetHeader("Authorization"))

		identity, err := s.verifier.Verify(c.Request.Context(), token)
		if err != nil {
			AbortWithError(c, err)
			return
		}

		c.Set(ctxUserIDKey, identity.Subject)
		c.Set(ctxUserEmailKey, identity.Email)
		c.Request = c.Request.WithContext(
			obscontext.WithUserID(c.Request.Context(), identity.Subject),
		)

		c.Next()
	}
}

// GenerateRateLimit throttles generation submissions per user. Runs
// after AuthRequired so the user id is always present.
func (s *Server) GenerateRateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetString(ctxUserIDKey)

		result, err := s.limiter.Allow(c.Request.Context(), userID)
		if err != nil {
			AbortWithError(c, err)
			return
		}

		if !result.Allowed {
			if s.obsMetrics != nil {
				s.obsMetrics.RecordRateLimitDenied(c.Request.Context(), "videos.generate", "token_bucket")
			}
			s.log.Warn("generation rate limited",
				zap.String("user_id", userID),
				zap.Duration("retry_after", result.RetryAfter),
			)
			retryAfter := int(result.RetryAfter.Seconds())
			if retryAfter < 1 {
				retryAfter = 1
			}
			c.Header("Retry-After", strconv.Itoa(retryAfter))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, errorResponse{
				Error: errorPayload{
					Type:    "rate_limited",
					Message: "too many generation requests",
				},
			})
			return
		}

		c.Next()
	}
}

func bearerToken(header string) string {
	header = strings.TrimSpace(header)
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
