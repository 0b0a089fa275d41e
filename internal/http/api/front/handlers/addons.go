package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/memoirbase/memoirbase/internal/entitlement"
)

// AddonHandler serves the public addon catalog.
type AddonHandler struct {
	engine *entitlement.Engine
}

// NewAddonHandler constructs an AddonHandler.
func NewAddonHandler(engine *entitlement.Engine) *AddonHandler {
	return &AddonHandler{engine: engine}
}

// List returns enabled addon catalog entries. Failures degrade to an empty
// list on this display path.
func (h *AddonHandler) List(c *gin.Context) {
	addons, errList := h.engine.Catalog().ListAddons(c.Request.Context())
	if errList != nil {
		c.JSON(http.StatusOK, gin.H{"addons": []gin.H{}})
		return
	}

	out := make([]gin.H, 0, len(addons))
	for _, addon := range addons {
		out = append(out, gin.H{
			"key":         addon.Key,
			"name":        addon.Name,
			"price":       addon.Price,
			"type":        addon.Type,
			"description": addon.Description,
			"grants":      addon.Grants,
			"valid_days":  addon.ValidDays,
		})
	}

	c.JSON(http.StatusOK, gin.H{"addons": out})
}
