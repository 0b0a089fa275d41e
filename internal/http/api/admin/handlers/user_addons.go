package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/memoirbase/memoirbase/internal/entitlement"
	"github.com/memoirbase/memoirbase/internal/models"
	"gorm.io/gorm"
)

// UserAddonHandler grants addon instances to users and lists what they own.
type UserAddonHandler struct {
	db     *gorm.DB
	engine *entitlement.Engine
}

// NewUserAddonHandler constructs a user addon handler.
func NewUserAddonHandler(db *gorm.DB, engine *entitlement.Engine) *UserAddonHandler {
	return &UserAddonHandler{db: db, engine: engine}
}

// grantAddonRequest captures the payload for granting an addon to a user.
type grantAddonRequest struct {
	AddonKey string `json:"addon_key" binding:"required"` // Addon catalog key to grant.
}

// Grant creates a fresh addon instance for the user. Each grant is an
// independent row; repeated grants of the same addon stack.
func (h *UserAddonHandler) Grant(c *gin.Context) {
	userID, errParse := strconv.ParseUint(strings.TrimSpace(c.Param("id")), 10, 64)
	if errParse != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	var body grantAddonRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "addon_key is required"})
		return
	}

	var user models.User
	if errFind := h.db.WithContext(c.Request.Context()).Select("id").First(&user, userID).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}

	addon, errAddon := h.engine.Catalog().AddonByKey(c.Request.Context(), strings.ToLower(strings.TrimSpace(body.AddonKey)))
	if errAddon != nil {
		if errors.Is(errAddon, entitlement.ErrAddonNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "addon not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	if !addon.IsEnabled {
		c.JSON(http.StatusConflict, gin.H{"error": "addon is disabled"})
		return
	}

	instance, errGrant := h.engine.Addons().Grant(c.Request.Context(), userID, addon, time.Now().UTC())
	if errGrant != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "grant failed"})
		return
	}

	c.JSON(http.StatusCreated, h.formatInstance(instance, addon))
}

// List returns the user's addon instances, including expired ones.
func (h *UserAddonHandler) List(c *gin.Context) {
	userID, errParse := strconv.ParseUint(strings.TrimSpace(c.Param("id")), 10, 64)
	if errParse != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	var instances []models.UserAddon
	errFind := h.db.WithContext(c.Request.Context()).
		Where("user_id = ?", userID).
		Order("granted_at DESC, id DESC").
		Find(&instances).Error
	if errFind != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list addons failed"})
		return
	}

	addonIDs := make([]uint64, 0, len(instances))
	for _, instance := range instances {
		addonIDs = append(addonIDs, instance.AddonID)
	}
	addonsByID := map[uint64]models.Addon{}
	if len(addonIDs) > 0 {
		var addons []models.Addon
		if errAddons := h.db.WithContext(c.Request.Context()).Where("id IN ?", addonIDs).Find(&addons).Error; errAddons != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "list addons failed"})
			return
		}
		for _, addon := range addons {
			addonsByID[addon.ID] = addon
		}
	}

	now := time.Now().UTC()
	out := make([]gin.H, 0, len(instances))
	for _, instance := range instances {
		addon, ok := addonsByID[instance.AddonID]
		var addonRef *models.Addon
		if ok {
			addonRef = &addon
		}
		entry := h.formatInstance(&instance, addonRef)
		entry["expired"] = instance.Expired(now)
		out = append(out, entry)
	}
	c.JSON(http.StatusOK, gin.H{"addons": out})
}

// formatInstance converts a user addon instance into a response payload.
func (h *UserAddonHandler) formatInstance(instance *models.UserAddon, addon *models.Addon) gin.H {
	entry := gin.H{
		"id":         instance.ID,
		"user_id":    instance.UserID,
		"addon_id":   instance.AddonID,
		"remaining":  instance.Remaining,
		"granted_at": instance.GrantedAt,
		"expires_at": instance.ExpiresAt,
	}
	if addon != nil {
		entry["addon_key"] = addon.Key
		entry["addon_name"] = addon.Name
	}
	return entry
}
