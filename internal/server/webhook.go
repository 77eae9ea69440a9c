package server

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
)

const signatureHeader = "X-Whop-Signature"

// HandleWhopWebhook ingests one webhook delivery. Signature and payload
// failures map to 401 and 400 through the error middleware; only a
// persistence failure surfaces as a 5xx so the sender retries.
func (s *Server) HandleWhopWebhook(c *gin.Context) {
	if !s.limiter.AllowSource(c.Request.Context(), c.ClientIP()) {
		s.obsMetrics.RecordRateLimitDenied(c.Request.Context(), "webhook", "source")
		AbortWithError(c, ErrTooManyRequests)
		return
	}
	if s.limiter.Enabled() {
		s.obsMetrics.RecordRateLimitAllowed(c.Request.Context(), "webhook")
	}

	rawBody, err := io.ReadAll(c.Request.Body)
	if err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	result, err := s.webhooksvc.Process(c.Request.Context(), rawBody, c.GetHeader(signatureHeader))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.Set("business_id", result.Event.BusinessID)
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"outcome": result.Outcome,
	})
}
