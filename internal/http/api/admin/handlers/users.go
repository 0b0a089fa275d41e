package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	dbutil "github.com/memoirbase/memoirbase/internal/db"
	"github.com/memoirbase/memoirbase/internal/entitlement"
	"github.com/memoirbase/memoirbase/internal/models"
	"gorm.io/gorm"
)

// UserHandler handles admin user endpoints.
type UserHandler struct {
	db     *gorm.DB
	engine *entitlement.Engine
}

// NewUserHandler constructs a UserHandler.
func NewUserHandler(db *gorm.DB, engine *entitlement.Engine) *UserHandler {
	return &UserHandler{db: db, engine: engine}
}

// userListQuery defines filters for the user list view.
type userListQuery struct {
	Page  int    `form:"page,default=1"`   // Page number.
	Limit int    `form:"limit,default=20"` // Page size.
	Email string `form:"email"`            // Email search.
}

// List returns users with paging and email search.
func (h *UserHandler) List(c *gin.Context) {
	var q userListQuery
	if errBind := c.ShouldBindQuery(&q); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid query"})
		return
	}
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit < 1 || q.Limit > 100 {
		q.Limit = 20
	}

	base := h.db.WithContext(c.Request.Context()).Model(&models.User{})
	if emailQ := strings.TrimSpace(q.Email); emailQ != "" {
		pattern := dbutil.NormalizeLikePattern(h.db, "%"+emailQ+"%")
		base = base.Where(dbutil.CaseInsensitiveLikeExpr(h.db, "email"), pattern)
	}

	var total int64
	if errCount := base.Count(&total).Error; errCount != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "count users failed"})
		return
	}

	var rows []models.User
	errFind := base.
		Order("id ASC").
		Offset((q.Page - 1) * q.Limit).
		Limit(q.Limit).
		Find(&rows).Error
	if errFind != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list users failed"})
		return
	}

	out := make([]gin.H, 0, len(rows))
	for _, row := range rows {
		out = append(out, h.formatUser(&row))
	}
	c.JSON(http.StatusOK, gin.H{
		"users": out,
		"total": total,
		"page":  q.Page,
		"limit": q.Limit,
	})
}

// Get fetches a user with their resolved subscription.
func (h *UserHandler) Get(c *gin.Context) {
	id, errParse := strconv.ParseUint(strings.TrimSpace(c.Param("id")), 10, 64)
	if errParse != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	var user models.User
	if errFind := h.db.WithContext(c.Request.Context()).First(&user, id).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}

	payload := h.formatUser(&user)

	sub, errResolve := h.engine.Resolver().Resolve(c.Request.Context(), user.ID)
	if errResolve == nil {
		payload["subscription"] = gin.H{
			"plan_key":           sub.PlanKey,
			"status":             sub.Status,
			"cycle":              sub.Cycle,
			"current_period_end": sub.CurrentPeriodEnd,
			"is_lifetime":        sub.IsLifetime,
		}
	}

	c.JSON(http.StatusOK, payload)
}

// setSubscriptionRequest captures the payload for assigning a plan.
type setSubscriptionRequest struct {
	PlanKey          string     `json:"plan_key" binding:"required"` // Plan catalog key.
	Cycle            string     `json:"cycle"`                       // monthly, yearly or lifetime.
	CurrentPeriodEnd *time.Time `json:"current_period_end"`          // Optional paid-through date.
	IsLifetime       bool       `json:"is_lifetime"`                 // Lifetime purchase flag.
}

// SetSubscription assigns a plan to the user, creating or replacing their
// subscription row.
func (h *UserHandler) SetSubscription(c *gin.Context) {
	id, errParse := strconv.ParseUint(strings.TrimSpace(c.Param("id")), 10, 64)
	if errParse != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	var body setSubscriptionRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "plan_key is required"})
		return
	}

	var user models.User
	if errFind := h.db.WithContext(c.Request.Context()).Select("id").First(&user, id).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}

	planKey := strings.ToLower(strings.TrimSpace(body.PlanKey))
	plan, errPlan := h.engine.Catalog().PlanByKey(c.Request.Context(), planKey)
	if errPlan != nil {
		if errors.Is(errPlan, entitlement.ErrPlanNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "plan not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}

	cycle := models.BillingCycle(strings.TrimSpace(body.Cycle))
	if cycle == "" {
		cycle = models.BillingCycleMonthly
	}
	if body.IsLifetime {
		cycle = models.BillingCycleLifetime
	}
	switch cycle {
	case models.BillingCycleMonthly, models.BillingCycleYearly, models.BillingCycleLifetime:
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid cycle"})
		return
	}

	errAssign := h.engine.Resolver().Assign(c.Request.Context(), user.ID, plan.Key, cycle, body.CurrentPeriodEnd, body.IsLifetime)
	if errAssign != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "assign plan failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// Disable marks a user account as disabled.
func (h *UserHandler) Disable(c *gin.Context) {
	h.setDisabled(c, true)
}

// Enable re-activates a disabled user account.
func (h *UserHandler) Enable(c *gin.Context) {
	h.setDisabled(c, false)
}

func (h *UserHandler) setDisabled(c *gin.Context, disabled bool) {
	id, errParse := strconv.ParseUint(strings.TrimSpace(c.Param("id")), 10, 64)
	if errParse != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	now := time.Now().UTC()
	res := h.db.WithContext(c.Request.Context()).Model(&models.User{}).Where("id = ?", id).
		Updates(map[string]any{"disabled": disabled, "updated_at": now})
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

// formatUser converts a user model into a response payload.
func (h *UserHandler) formatUser(u *models.User) gin.H {
	return gin.H{
		"id":         u.ID,
		"email":      u.Email,
		"name":       u.Name,
		"is_admin":   u.IsAdmin,
		"active":     u.Active,
		"disabled":   u.Disabled,
		"created_at": u.CreatedAt,
	}
}
