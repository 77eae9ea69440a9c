package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

type surveyRequest struct {
	WhopUserID string `json:"whopUserId"`
	Reason     string `json:"reason"`
	Feedback   string `json:"feedback"`
}

// SubmitSurvey records an exit survey response for a churned member.
func (s *Server) SubmitSurvey(c *gin.Context) {
	var req surveyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	if strings.TrimSpace(req.WhopUserID) == "" {
		AbortWithError(c, newValidationError("whopUserId", "invalid_whop_user_id", "whopUserId is required"))
		return
	}
	if strings.TrimSpace(req.Reason) == "" {
		AbortWithError(c, newValidationError("reason", "invalid_reason", "reason is required"))
		return
	}

	err := s.membersvc.CompleteSurvey(c.Request.Context(), req.WhopUserID, req.Reason, req.Feedback)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true})
}
