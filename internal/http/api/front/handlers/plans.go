package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/memoirbase/memoirbase/internal/entitlement"
)

// PlanHandler serves the public plan catalog.
type PlanHandler struct {
	engine *entitlement.Engine
}

// NewPlanHandler constructs a PlanHandler.
func NewPlanHandler(engine *entitlement.Engine) *PlanHandler {
	return &PlanHandler{engine: engine}
}

// List returns enabled plans ascending by monthly price. Catalog failures
// degrade to an empty list here; only the metering engine treats them as
// fatal.
func (h *PlanHandler) List(c *gin.Context) {
	plans, errList := h.engine.Catalog().ListPlans(c.Request.Context())
	if errList != nil {
		c.JSON(http.StatusOK, gin.H{"plans": []gin.H{}})
		return
	}

	out := make([]gin.H, 0, len(plans))
	for _, plan := range plans {
		out = append(out, gin.H{
			"key":         plan.Key,
			"name":        plan.Name,
			"month_price": plan.MonthPrice,
			"description": plan.Description,
			"limits":      plan.Limits,
			"features":    plan.Features,
			"sort_order":  plan.SortOrder,
		})
	}

	c.JSON(http.StatusOK, gin.H{"plans": out})
}
