package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/memoirbase/memoirbase/internal/metric"
	"github.com/memoirbase/memoirbase/internal/models"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// PlanHandler manages admin CRUD endpoints for plans.
type PlanHandler struct {
	db *gorm.DB // Database handle for plan records.
}

// NewPlanHandler constructs a plan handler.
func NewPlanHandler(db *gorm.DB) *PlanHandler {
	return &PlanHandler{db: db}
}

// normalizeMetricMap validates metric keys and converts the payload into a
// JSON map. Values of -1 mean unlimited.
func normalizeMetricMap(raw map[string]int64) (datatypes.JSONMap, error) {
	out := datatypes.JSONMap{}
	for key, value := range raw {
		if _, errParse := metric.Parse(key); errParse != nil {
			return nil, errParse
		}
		if value < models.PlanLimitUnlimited {
			return nil, errors.New("invalid metric value")
		}
		out[key] = value
	}
	return out, nil
}

// normalizeFeatureMap converts a feature-flag payload into a JSON map.
func normalizeFeatureMap(raw map[string]bool) datatypes.JSONMap {
	out := datatypes.JSONMap{}
	for key, value := range raw {
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		out[key] = value
	}
	return out
}

// createPlanRequest captures the payload for creating a plan.
type createPlanRequest struct {
	Key         string           `json:"key"`         // Stable tier key.
	Name        string           `json:"name"`        // Plan name.
	MonthPrice  float64          `json:"month_price"` // Monthly price.
	Description string           `json:"description"` // Plan description.
	Limits      map[string]int64 `json:"limits"`      // Per-metric monthly limits.
	Features    map[string]bool  `json:"features"`    // Boolean feature flags.
	SortOrder   int              `json:"sort_order"`  // Display order.
	IsEnabled   *bool            `json:"is_enabled"`  // Optional active flag.
}

// Create validates input and inserts a new plan.
func (h *PlanHandler) Create(c *gin.Context) {
	var body createPlanRequest
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

	limits, errLimits := normalizeMetricMap(body.Limits)
	if errLimits != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limits"})
		return
	}

	isEnabled := true
	if body.IsEnabled != nil {
		isEnabled = *body.IsEnabled
	}

	plan := models.Plan{
		Key:         key,
		Name:        strings.TrimSpace(body.Name),
		MonthPrice:  body.MonthPrice,
		Description: body.Description,
		Limits:      limits,
		Features:    normalizeFeatureMap(body.Features),
		SortOrder:   body.SortOrder,
		IsEnabled:   isEnabled,
	}

	if errCreate := h.db.WithContext(c.Request.Context()).Create(&plan).Error; errCreate != nil {
		var existing models.Plan
		if errFind := h.db.WithContext(c.Request.Context()).Where("key = ?", key).First(&existing).Error; errFind == nil {
			c.JSON(http.StatusConflict, gin.H{"error": "plan key already exists"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "create plan failed"})
		return
	}
	c.JSON(http.StatusCreated, h.formatPlan(&plan))
}

// List returns all plans, optionally filtered by enabled flag.
func (h *PlanHandler) List(c *gin.Context) {
	enabledQ := strings.TrimSpace(c.Query("is_enabled"))

	q := h.db.WithContext(c.Request.Context()).Model(&models.Plan{})
	if enabledQ != "" {
		if enabledQ == "true" || enabledQ == "1" {
			q = q.Where("is_enabled = ?", true)
		} else if enabledQ == "false" || enabledQ == "0" {
			q = q.Where("is_enabled = ?", false)
		}
	}

	var rows []models.Plan
	if errFind := q.Order("sort_order ASC, month_price ASC").Find(&rows).Error; errFind != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list plans failed"})
		return
	}
	out := make([]gin.H, 0, len(rows))
	for _, row := range rows {
		out = append(out, h.formatPlan(&row))
	}
	c.JSON(http.StatusOK, gin.H{"plans": out})
}

// Get fetches a plan by ID.
func (h *PlanHandler) Get(c *gin.Context) {
	id, errParse := strconv.ParseUint(strings.TrimSpace(c.Param("id")), 10, 64)
	if errParse != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	var plan models.Plan
	if errFind := h.db.WithContext(c.Request.Context()).First(&plan, id).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	c.JSON(http.StatusOK, h.formatPlan(&plan))
}

// updatePlanRequest captures optional fields for plan updates.
type updatePlanRequest struct {
	Name        *string           `json:"name"`        // Optional name update.
	MonthPrice  *float64          `json:"month_price"` // Optional monthly price.
	Description *string           `json:"description"` // Optional description.
	Limits      *map[string]int64 `json:"limits"`      // Optional per-metric limits.
	Features    *map[string]bool  `json:"features"`    // Optional feature flags.
	SortOrder   *int              `json:"sort_order"`  // Optional display order.
	IsEnabled   *bool             `json:"is_enabled"`  // Optional active flag.
}

// Update validates and applies plan field updates.
func (h *PlanHandler) Update(c *gin.Context) {
	id, errParse := strconv.ParseUint(strings.TrimSpace(c.Param("id")), 10, 64)
	if errParse != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	var body updatePlanRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	var existing models.Plan
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
	if body.MonthPrice != nil {
		updates["month_price"] = *body.MonthPrice
	}
	if body.Description != nil {
		updates["description"] = *body.Description
	}
	if body.Limits != nil {
		limits, errLimits := normalizeMetricMap(*body.Limits)
		if errLimits != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limits"})
			return
		}
		updates["limits"] = limits
	}
	if body.Features != nil {
		updates["features"] = normalizeFeatureMap(*body.Features)
	}
	if body.SortOrder != nil {
		updates["sort_order"] = *body.SortOrder
	}
	if body.IsEnabled != nil {
		updates["is_enabled"] = *body.IsEnabled
	}

	res := h.db.WithContext(c.Request.Context()).Model(&models.Plan{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// Delete removes a plan by ID.
func (h *PlanHandler) Delete(c *gin.Context) {
	id, errParse := strconv.ParseUint(strings.TrimSpace(c.Param("id")), 10, 64)
	if errParse != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	res := h.db.WithContext(c.Request.Context()).Delete(&models.Plan{}, id)
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

// Enable marks a plan as enabled.
func (h *PlanHandler) Enable(c *gin.Context) {
	h.setEnabled(c, true)
}

// Disable marks a plan as disabled.
func (h *PlanHandler) Disable(c *gin.Context) {
	h.setEnabled(c, false)
}

// setEnabled toggles the enabled state for a plan.
func (h *PlanHandler) setEnabled(c *gin.Context, enabled bool) {
	id, errParse := strconv.ParseUint(strings.TrimSpace(c.Param("id")), 10, 64)
	if errParse != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	now := time.Now().UTC()
	res := h.db.WithContext(c.Request.Context()).Model(&models.Plan{}).Where("id = ?", id).
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

// formatPlan converts a plan model into a response payload.
func (h *PlanHandler) formatPlan(p *models.Plan) gin.H {
	return gin.H{
		"id":          p.ID,
		"key":         p.Key,
		"name":        p.Name,
		"month_price": p.MonthPrice,
		"description": p.Description,
		"limits":      p.Limits,
		"features":    p.Features,
		"sort_order":  p.SortOrder,
		"is_enabled":  p.IsEnabled,
		"created_at":  p.CreatedAt,
		"updated_at":  p.UpdatedAt,
	}
}
