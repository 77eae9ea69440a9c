package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

type messageActionRequest struct {
	WhopUserID string `json:"whopUserId"`
	Message    string `json:"message"`
}

type recoverActionRequest struct {
	WhopUserID string `json:"whopUserId"`
}

// SendMemberMessage sends a free-form direct message to one member.
func (s *Server) SendMemberMessage(c *gin.Context) {
	var req messageActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	if strings.TrimSpace(req.WhopUserID) == "" {
		AbortWithError(c, newValidationError("whopUserId", "invalid_whop_user_id", "whopUserId is required"))
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		AbortWithError(c, newValidationError("message", "invalid_message", "message is required"))
		return
	}

	if err := s.messenger.Send(c.Request.Context(), req.WhopUserID, req.Message); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// SendRecoveryMessage manually re-sends the payment recovery template, for
// operators nudging a member outside the automated dispatch.
func (s *Server) SendRecoveryMessage(c *gin.Context) {
	var req recoverActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	if strings.TrimSpace(req.WhopUserID) == "" {
		AbortWithError(c, newValidationError("whopUserId", "invalid_whop_user_id", "whopUserId is required"))
		return
	}

	message := s.retentionCfg.Get().Messages.PaymentRecovery
	if err := s.messenger.Send(c.Request.Context(), req.WhopUserID, message); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true})
}
