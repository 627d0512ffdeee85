package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type checkoutRequest struct {
	Credits int64 `json:"credits"`
}

type checkoutResponse struct {
	SessionID   string `json:"sessionId"`
	CheckoutURL string `json:"checkoutUrl"`
}

func (s *Server) CreateCheckoutSession(c *gin.Context) {
	var req checkoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	session, err := s.paymentSvc.CreateCheckoutSession(
		c.Request.Context(),
		"stripe",
		c.GetString(ctxUserIDKey),
		c.GetString(ctxUserEmailKey),
		req.Credits,
	)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, checkoutResponse{
		SessionID:   session.ID,
		CheckoutURL: session.URL,
	})
}
