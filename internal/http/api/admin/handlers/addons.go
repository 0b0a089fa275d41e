package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/memoirbase/memoirbase/internal/models"
	"gorm.io/gorm"
)

// AddonHandler manages admin CRUD endpoints for addon definitions.
type AddonHandler struct {
	db *gorm.DB // Database handle for addon records.
}

// NewAddonHandler constructs an addon handler.
func NewAddonHandler(db *gorm.DB) *AddonHandler {
	return &AddonHandler{db: db}
}

// createAddonRequest captures the payload for creating an addon.
type createAddonRequest struct {
	Key         string           `json:"key"`         // Stable addon key.
	Name        string           `json:"name"`        // Display name.
	Price       float64          `json:"price"`       // One-off price.
	Type        string           `json:"type"`        // consumable or feature.
	Description string           `json:"description"` // Addon description.
	Grants      map[string]int64 `json:"grants"`      // Per-metric grant values.
	ValidDays   *int             `json:"valid_days"`  // Optional validity window in days.
	PriceRef    string           `json:"price_ref"`   // External price reference.
	IsEnabled   *bool            `json:"is_enabled"`  // Optional active flag.
}

// Create validates input and inserts a new addon definition.
func (h *AddonHandler) Create(c *gin.Context) {
	var body createAddonRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	key := strings.ToLower(strings.TrimSpace(body.Key))
	if key == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "key is required"})
		return
	}
	if strings.TrimSpace(body.Name) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name is required"})
		return
	}

	addonType := models.AddonType(strings.TrimSpace(body.Type))
	if addonType != models.AddonTypeConsumable && addonType != models.AddonTypeFeature {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid type"})
		return
	}

	grants, errGrants := normalizeMetricMap(body.Grants)
	if errGrants != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid grants"})
		return
	}
	if addonType == models.AddonTypeConsumable && len(grants) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "consumable addon requires grants"})
		return
	}

	if body.ValidDays != nil && *body.ValidDays <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "valid_days must be positive"})
		return
	}

	isEnabled := true
	if body.IsEnabled != nil {
		isEnabled = *body.IsEnabled
	}

	addon := models.Addon{
		Key:         key,
		Name:        strings.TrimSpace(body.Name),
		Price:       body.Price,
		Type:        addonType,
		Description: body.Description,
		Grants:      grants,
		ValidDays:   body.ValidDays,
		PriceRef:    strings.TrimSpace(body.PriceRef),
		IsEnabled:   isEnabled,
	}

	if errCreate := h.db.WithContext(c.Request.Context()).Create(&addon).Error; errCreate != nil {
		var existing models.Addon
		if errFind := h.db.WithContext(c.Request.Context()).Where("key = ?", key).First(&existing).Error; errFind == nil {
			c.JSON(http.StatusConflict, gin.H{"error": "addon key already exists"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "create addon failed"})
		return
	}
	c.JSON(http.StatusCreated, h.formatAddon(&addon))
}

// List returns all addon definitions, optionally filtered by enabled flag.
func (h *AddonHandler) List(c *gin.Context) {
	enabledQ := strings.TrimSpace(c.Query("is_enabled"))

	q := h.db.WithContext(c.Request.Context()).Model(&models.Addon{})
	if enabledQ != "" {
		if enabledQ == "true" || enabledQ == "1" {
			q = q.Where("is_enabled = ?", true)
		} else if enabledQ == "false" || enabledQ == "0" {
			q = q.Where("is_enabled = ?", false)
		}
	}

	var rows []models.Addon
	if errFind := q.Order("price ASC, id ASC").Find(&rows).Error; errFind != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list addons failed"})
		return
	}
	out := make([]gin.H, 0, len(rows))
	for _, row := range rows {
		out = append(out, h.formatAddon(&row))
	}
	c.JSON(http.StatusOK, gin.H{"addons": out})
}

// Get fetches an addon definition by ID.
func (h *AddonHandler) Get(c *gin.Context) {
	id, errParse := strconv.ParseUint(strings.TrimSpace(c.Param("id")), 10, 64)
	if errParse != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	var addon models.Addon
	if errFind := h.db.WithContext(c.Request.Context()).First(&addon, id).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	c.JSON(http.StatusOK, h.formatAddon(&addon))
}

// updateAddonRequest captures optional fields for addon updates.
type updateAddonRequest struct {
	Name        *string           `json:"name"`        // Optional name update.
	Price       *float64          `json:"price"`       // Optional price.
	Description *string           `json:"description"` // Optional description.
	Grants      *map[string]int64 `json:"grants"`      // Optional grant values.
	ValidDays   *int              `json:"valid_days"`  // Optional validity window.
	PriceRef    *string           `json:"price_ref"`   // Optional price reference.
	IsEnabled   *bool             `json:"is_enabled"`  // Optional active flag.
}

// Update validates and applies addon field updates.
func (h *AddonHandler) Update(c *gin.Context) {
	id, errParse := strconv.ParseUint(strings.TrimSpace(c.Param("id")), 10, 64)
	if errParse != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	var body updateAddonRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	var existing models.Addon
	if errFind := h.db.WithContext(c.Request.Context()).First(&existing, id).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}

	updates := map[string]any{
		"updated_at": time.Now().UTC(),
	}

	if body.Name != nil {
		n := strings.TrimSpace(*body.Name)
		if n == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "name cannot be empty"})
			return
		}
		updates["name"] = n
	}
	if body.Price != nil {
		updates["price"] = *body.Price
	}
	if body.Description != nil {
		updates["description"] = *body.Description
	}
	if body.Grants != nil {
		grants, errGrants := normalizeMetricMap(*body.Grants)
		if errGrants != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid grants"})
			return
		}
		updates["grants"] = grants
	}
	if body.ValidDays != nil {
		if *body.ValidDays <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "valid_days must be positive"})
			return
		}
		updates["valid_days"] = *body.ValidDays
	}
	if body.PriceRef != nil {
		updates["price_ref"] = strings.TrimSpace(*body.PriceRef)
	}
	if body.IsEnabled != nil {
		updates["is_enabled"] = *body.IsEnabled
	}

	res := h.db.WithContext(c.Request.Context()).Model(&models.Addon{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// Delete removes an addon definition by ID.
func (h *AddonHandler) Delete(c *gin.Context) {
	id, errParse := strconv.ParseUint(strings.TrimSpace(c.Param("id")), 10, 64)
	if errParse != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	res := h.db.WithContext(c.Request.Context()).Delete(&models.Addon{}, id)
	if res.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "delete failed"})
		return
	}
	if res.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	c.Status(http.StatusNoContent)
}

// Enable marks an addon as purchasable.
func (h *AddonHandler) Enable(c *gin.Context) {
	h.setEnabled(c, true)
}

// Disable removes an addon from sale. Already-granted instances keep working.
func (h *AddonHandler) Disable(c *gin.Context) {
	h.setEnabled(c, false)
}

func (h *AddonHandler) setEnabled(c *gin.Context, enabled bool) {
	id, errParse := strconv.ParseUint(strings.TrimSpace(c.Param("id")), 10, 64)
	if errParse != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	now := time.Now().UTC()
	res := h.db.WithContext(c.Request.Context()).Model(&models.Addon{}).Where("id = ?", id).
		Updates(map[string]any{"is_enabled": enabled, "updated_at": now})
	if res.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update failed"})
		return
	}
	if res.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// formatAddon converts an addon model into a response payload.
func (h *AddonHandler) formatAddon(a *models.Addon) gin.H {
	return gin.H{
		"id":          a.ID,
		"key":         a.Key,
		"name":        a.Name,
		"price":       a.Price,
		"type":        a.Type,
		"description": a.Description,
		"grants":      a.Grants,
		"valid_days":  a.ValidDays,
		"price_ref":   a.PriceRef,
		"is_enabled":  a.IsEnabled,
		"created_at":  a.CreatedAt,
		"updated_at":  a.UpdatedAt,
	}
}
