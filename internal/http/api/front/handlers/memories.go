package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/memoirbase/memoirbase/internal/entitlement"
	"github.com/memoirbase/memoirbase/internal/metric"
	"github.com/memoirbase/memoirbase/internal/models"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// MemoryHandler manages the user's memory entries. Creation is metered
// against the memories quota.
type MemoryHandler struct {
	db     *gorm.DB
	engine *entitlement.Engine
}

// NewMemoryHandler constructs a MemoryHandler.
func NewMemoryHandler(db *gorm.DB, engine *entitlement.Engine) *MemoryHandler {
	return &MemoryHandler{db: db, engine: engine}
}

type createMemoryRequest struct {
	Title string `json:"title" binding:"required"`
	Body  string `json:"body"`
	Kind  string `json:"kind"`
}

// Create records a new memory after verifying quota, then tracks the
// consumed unit.
func (h *MemoryHandler) Create(c *gin.Context) {
	var req createMemoryRequest
	if errBind := c.ShouldBindJSON(&req); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request payload"})
		return
	}

	kind := models.MemoryKind(strings.TrimSpace(req.Kind))
	if kind == "" {
		kind = models.MemoryKindText
	}
	if kind != models.MemoryKindText && kind != models.MemoryKindVoice {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid memory kind"})
		return
	}

	userID := UserIDFromContext(c)
	result, errCheck := h.engine.Check(c.Request.Context(), userID, metric.Memories)
	if errCheck != nil {
		log.WithError(errCheck).Error("memory quota check failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "quota check failed"})
		return
	}
	if !result.Allowed {
		c.JSON(http.StatusForbidden, gin.H{
			"error":            "plan limit reached",
			"upgrade_required": true,
			"limit":            result.Limit,
			"used":             result.Used,
		})
		return
	}

	memory := models.Memory{
		UserID: userID,
		Title:  strings.TrimSpace(req.Title),
		Body:   req.Body,
		Kind:   kind,
	}
	if errCreate := h.db.WithContext(c.Request.Context()).Create(&memory).Error; errCreate != nil {
		log.WithError(errCreate).Error("failed to create memory")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create memory"})
		return
	}

	if errTrack := h.engine.Track(c.Request.Context(), userID, metric.Memories, 1); errTrack != nil {
		// The memory exists; losing one usage tick is preferable to
		// failing the request after the write.
		log.WithError(errTrack).WithField("user_id", userID).Warn("failed to track memory usage")
	}

	c.JSON(http.StatusCreated, gin.H{
		"id":         memory.ID,
		"title":      memory.Title,
		"body":       memory.Body,
		"kind":       memory.Kind,
		"created_at": memory.CreatedAt,
	})
}

// List returns the current user's memories, newest first.
func (h *MemoryHandler) List(c *gin.Context) {
	userID := UserIDFromContext(c)

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	if page < 1 {
		page = 1
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if limit < 1 || limit > 100 {
		limit = 20
	}

	query := h.db.WithContext(c.Request.Context()).
		Model(&models.Memory{}).
		Where("user_id = ?", userID)

	var total int64
	if errCount := query.Count(&total).Error; errCount != nil {
		log.WithError(errCount).Error("failed to count memories")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list memories"})
		return
	}

	var memories []models.Memory
	errFind := query.
		Order("created_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&memories).Error
	if errFind != nil {
		log.WithError(errFind).Error("failed to list memories")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list memories"})
		return
	}

	items := make([]gin.H, 0, len(memories))
	for _, m := range memories {
		items = append(items, gin.H{
			"id":         m.ID,
			"title":      m.Title,
			"body":       m.Body,
			"kind":       m.Kind,
			"created_at": m.CreatedAt,
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"memories": items,
		"total":    total,
		"page":     page,
		"limit":    limit,
	})
}
