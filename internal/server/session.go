package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/churnlabs/churnguard/internal/session"
)

type sessionRequest struct {
	Token string `json:"token"`
}

// CreateSession resolves the business scope from a platform embed token so
// the dashboard iframe knows which business it is rendering.
func (s *Server) CreateSession(c *gin.Context) {
	var req sessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	sess, err := session.DecodeEmbedToken(req.Token, s.clk.Now())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.Set("business_id", sess.BusinessID)
	c.JSON(http.StatusOK, gin.H{
		"ok":         true,
		"businessId": sess.BusinessID,
	})
}
