package server

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

// businessRateLimit throttles dashboard reads per business identifier.
func (s *Server) businessRateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		businessID := strings.TrimSpace(c.Query("businessId"))
		if businessID != "" {
			c.Set("business_id", businessID)
		}

		if !s.limiter.AllowBusiness(c.Request.Context(), businessID) {
			s.obsMetrics.RecordRateLimitDenied(c.Request.Context(), c.FullPath(), "business")
			AbortWithError(c, ErrTooManyRequests)
			return
		}
		if s.limiter.Enabled() {
			s.obsMetrics.RecordRateLimitAllowed(c.Request.Context(), c.FullPath())
		}

		c.Next()
	}
}

func (s *Server) GetDashboard(c *gin.Context) {
	counts, err := s.membersvc.Dashboard(c.Request.Context(), c.Query("businessId"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, counts)
}

func (s *Server) ListAtRisk(c *gin.Context) {
	limit := 0
	if raw := strings.TrimSpace(c.Query("limit")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			AbortWithError(c, newValidationError("limit", "invalid_limit", "limit must be an integer"))
			return
		}
		limit = parsed
	}

	members, err := s.membersvc.AtRisk(c.Request.Context(), c.Query("businessId"), limit)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"members": members})
}

func (s *Server) ListRecentCancels(c *gin.Context) {
	members, err := s.membersvc.RecentCancels(c.Request.Context(), c.Query("businessId"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"members": members})
}
