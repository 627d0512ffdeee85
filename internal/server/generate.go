package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	videogendomain "github.com/smallbiznis/reelgate/internal/videogen/domain"
)

type generateRequest struct {
	Prompt string `json:"prompt"`
	Seed   *int64 `json:"seed"`
}

type generateResponse struct {
	VideoURL         string `json:"videoUrl"`
	Seed             int64  `json:"seed"`
	RemainingBalance int64  `json:"remainingBalance"`
	DebitFailed      bool   `json:"debitFailed,omitempty"`
}

func (s *Server) GenerateVideo(c *gin.Context) {
	var req generateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	result, err := s.videogenSvc.Generate(c.Request.Context(), videogendomain.Request{
		UserID: c.GetString(ctxUserIDKey),
		Prompt: req.Prompt,
		Seed:   req.Seed,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, generateResponse{
		VideoURL:         result.ArtifactURL,
		Seed:             result.Seed,
		RemainingBalance: result.RemainingBalance,
		DebitFailed:      result.DebitFailed,
	})
}
