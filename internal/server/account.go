package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type accountResponse struct {
	UserID  string `json:"userId"`
	Email   string `json:"email,omitempty"`
	Credits int64  `json:"credits"`
}

func (s *Server) GetAccount(c *gin.Context) {
	userID := c.GetString(ctxUserIDKey)
	email := c.GetString(ctxUserEmailKey)

	account, err := s.ledgerSvc.GetOrCreate(c.Request.Context(), userID, email)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, accountResponse{
		UserID:  account.UserID,
		Email:   account.Email,
		Credits: account.Balance,
	})
}
