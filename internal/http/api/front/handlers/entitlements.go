package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/memoirbase/memoirbase/internal/entitlement"
	"github.com/memoirbase/memoirbase/internal/metric"
	log "github.com/sirupsen/logrus"
)

// EntitlementHandler serves entitlement checks and usage summaries.
type EntitlementHandler struct {
	engine *entitlement.Engine
}

// NewEntitlementHandler constructs an EntitlementHandler.
func NewEntitlementHandler(engine *entitlement.Engine) *EntitlementHandler {
	return &EntitlementHandler{engine: engine}
}

// Check answers whether the current user may perform one more unit of the
// metric.
func (h *EntitlementHandler) Check(c *gin.Context) {
	m, errParse := metric.Parse(c.Param("metric"))
	if errParse != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown metric"})
		return
	}

	userID := UserIDFromContext(c)
	result, errCheck := h.engine.Check(c.Request.Context(), userID, m)
	if errCheck != nil {
		if errors.Is(errCheck, metric.ErrInvalidMetric) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown metric"})
			return
		}
		log.WithError(errCheck).Error("entitlement check failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "entitlement check failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"metric":  m,
		"allowed": result.Allowed,
		"limit":   result.Limit,
		"used":    result.Used,
		"source":  result.Source,
	})
}

// Summary reports per-metric consumption for the current user.
func (h *EntitlementHandler) Summary(c *gin.Context) {
	userID := UserIDFromContext(c)
	summaries, errSummary := h.engine.Summary(c.Request.Context(), userID)
	if errSummary != nil {
		log.WithError(errSummary).Error("usage summary failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "usage summary failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"period_start": entitlement.PeriodStart(time.Now()),
		"usage":        summaries,
	})
}
