package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/reelgate/internal/ocr"
)

type ocrRequest struct {
	URL         string `json:"url"`
	Base64Image string `json:"base64Image"`
	Language    string `json:"language"`
}

type ocrResponse struct {
	Text string `json:"text"`
}

func (s *Server) ParseImage(c *gin.Context) {
	var req ocrRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	result, err := s.ocrSvc.Parse(c.Request.Context(), ocr.Input{
		URL:         req.URL,
		Base64Image: req.Base64Image,
		Language:    req.Language,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, ocrResponse{Text: result.Text})
}
