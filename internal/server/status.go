package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const recentEventsLimit = 10

type statusActionRequest struct {
	Action string `json:"action"`
}

// GetWebhookStatus reports integration health for the setup screen, with
// the latest event-log rows for debugging delivery issues.
func (s *Server) GetWebhookStatus(c *gin.Context) {
	report, err := s.membersvc.Status(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	recent, err := s.events.ListRecent(c.Request.Context(), s.db, recentEventsLimit)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":       report,
		"recentEvents": recent,
	})
}

// ManageWebhookStatus seeds or clears demo members. Both actions are
// rejected in production.
func (s *Server) ManageWebhookStatus(c *gin.Context) {
	var req statusActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	switch strings.ToLower(strings.TrimSpace(req.Action)) {
	case "seed":
		seeded, err := s.membersvc.SeedDemo(c.Request.Context())
		if err != nil {
			AbortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"ok": true, "seeded": seeded})
	case "clear":
		cleared, err := s.membersvc.ClearDemo(c.Request.Context())
		if err != nil {
			AbortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"ok": true, "cleared": cleared})
	default:
		AbortWithError(c, newValidationError("action", "invalid_action", "action must be seed or clear"))
	}
}
