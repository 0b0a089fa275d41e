package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	dbutil "github.com/memoirbase/memoirbase/internal/db"
	"github.com/memoirbase/memoirbase/internal/entitlement"
	"github.com/memoirbase/memoirbase/internal/metric"
	"gorm.io/gorm"
)

// UsageHandler handles admin usage record endpoints.
type UsageHandler struct {
	db *gorm.DB
}

// NewUsageHandler constructs a UsageHandler.
func NewUsageHandler(db *gorm.DB) *UsageHandler {
	return &UsageHandler{db: db}
}

// usageListQuery defines filters for the usage list view.
type usageListQuery struct {
	Page   int    `form:"page,default=1"`   // Page number.
	Limit  int    `form:"limit,default=20"` // Page size.
	UserID string `form:"user_id"`          // User filter.
	Metric string `form:"metric"`           // Metric filter.
	Email  string `form:"email"`            // User email search.
	Period string `form:"period"`           // Billing period, YYYY-MM; empty = current.
}

// usageListRow defines the query result row for usage list.
type usageListRow struct {
	ID          uint64    `gorm:"column:id"`
	UserID      uint64    `gorm:"column:user_id"`
	UserEmail   string    `gorm:"column:user_email"`
	Metric      string    `gorm:"column:metric"`
	PeriodStart time.Time `gorm:"column:period_start"`
	Count       int64     `gorm:"column:count"`
	UpdatedAt   time.Time `gorm:"column:updated_at"`
}

// List returns usage records with paging and filters.
func (h *UsageHandler) List(c *gin.Context) {
	var q usageListQuery
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

	periodStart := entitlement.PeriodStart(time.Now())
	if periodQ := strings.TrimSpace(q.Period); periodQ != "" {
		parsed, errParse := time.Parse("2006-01", periodQ)
		if errParse != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid period"})
			return
		}
		periodStart = parsed.UTC()
	}

	ctx := c.Request.Context()

	base := h.db.WithContext(ctx).
		Table("usage_records").
		Joins("JOIN users ON users.id = usage_records.user_id").
		Where("usage_records.period_start = ?", periodStart)

	if userQ := strings.TrimSpace(q.UserID); userQ != "" {
		userID, errParse := strconv.ParseUint(userQ, 10, 64)
		if errParse != nil || userID == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user_id"})
			return
		}
		base = base.Where("usage_records.user_id = ?", userID)
	}
	if metricQ := strings.TrimSpace(q.Metric); metricQ != "" {
		m, errParse := metric.Parse(metricQ)
		if errParse != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid metric"})
			return
		}
		base = base.Where("usage_records.metric = ?", m.String())
	}
	if emailQ := strings.TrimSpace(q.Email); emailQ != "" {
		pattern := dbutil.NormalizeLikePattern(h.db, "%"+emailQ+"%")
		base = base.Where(dbutil.CaseInsensitiveLikeExpr(h.db, "users.email"), pattern)
	}

	var total int64
	if errCount := base.Count(&total).Error; errCount != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "count usage failed"})
		return
	}

	offset := (q.Page - 1) * q.Limit
	var rows []usageListRow
	errFind := base.
		Select("usage_records.id, usage_records.user_id, users.email AS user_email, usage_records.metric, usage_records.period_start, usage_records.count, usage_records.updated_at").
		Order("usage_records.count DESC, usage_records.user_id ASC").
		Offset(offset).
		Limit(q.Limit).
		Scan(&rows).Error
	if errFind != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list usage failed"})
		return
	}

	out := make([]gin.H, 0, len(rows))
	for _, row := range rows {
		out = append(out, gin.H{
			"id":           row.ID,
			"user_id":      row.UserID,
			"user_email":   row.UserEmail,
			"metric":       row.Metric,
			"period_start": row.PeriodStart,
			"count":        row.Count,
			"updated_at":   row.UpdatedAt,
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"usage":        out,
		"period_start": periodStart,
		"total":        total,
		"page":         q.Page,
		"limit":        q.Limit,
	})
}
