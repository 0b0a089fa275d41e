// Package front registers the end-user API surface.
package front

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/memoirbase/memoirbase/internal/config"
	"github.com/memoirbase/memoirbase/internal/entitlement"
	handlers "github.com/memoirbase/memoirbase/internal/http/api/front/handlers"
	"github.com/memoirbase/memoirbase/internal/models"
	"github.com/memoirbase/memoirbase/internal/ratelimit"
	"github.com/memoirbase/memoirbase/internal/security"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// RegisterFrontRoutes registers end-user routes, middleware, and handlers.
func RegisterFrontRoutes(r *gin.Engine, db *gorm.DB, engine *entitlement.Engine, jwtCfg config.JWTConfig, limiter *ratelimit.Manager) {
	if r == nil || db == nil || engine == nil {
		return
	}

	healthHandler := handlers.NewHealthHandler(db)
	r.GET("/healthz", healthHandler.Healthz)

	group := r.Group("/v0")

	authHandler := handlers.NewAuthHandler(db, jwtCfg)
	group.POST("/auth/register", authHandler.Register)
	group.POST("/auth/login", authHandler.Login)

	planHandler := handlers.NewPlanHandler(engine)
	group.GET("/plans", planHandler.List)

	addonHandler := handlers.NewAddonHandler(engine)
	group.GET("/addons", addonHandler.List)

	authed := group.Group("")
	authed.Use(userAuthMiddleware(db, jwtCfg))

	entitlementHandler := handlers.NewEntitlementHandler(engine)
	authed.GET("/entitlements/:metric", entitlementHandler.Check)
	authed.GET("/usage", entitlementHandler.Summary)

	metered := authed.Group("")
	metered.Use(rateLimitMiddleware(limiter))

	memoryHandler := handlers.NewMemoryHandler(db, engine)
	metered.POST("/memories", memoryHandler.Create)
	authed.GET("/memories", memoryHandler.List)
}

// userAuthMiddleware authenticates bearer tokens and loads the user row.
func userAuthMiddleware(db *gorm.DB, jwtCfg config.JWTConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
			return
		}

		claims, errJWT := security.ParseUserToken(jwtCfg.Secret, token)
		if errJWT != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		var user models.User
		errFind := db.WithContext(c.Request.Context()).
			Select("id", "active", "disabled").
			First(&user, claims.UserID).Error
		if errFind != nil {
			if errors.Is(errFind, gorm.ErrRecordNotFound) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unknown user"})
				return
			}
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "load user failed"})
			return
		}
		if !user.Active || user.Disabled {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "account disabled"})
			return
		}

		c.Set(handlers.ContextUserKey, user.ID)
		c.Next()
	}
}

// rateLimitMiddleware applies the per-user fixed-window limit to metered
// endpoints. Limiter failures allow the request rather than blocking it.
func rateLimitMiddleware(limiter *ratelimit.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limiter == nil {
			c.Next()
			return
		}
		userID := handlers.UserIDFromContext(c)
		limit := limiter.DefaultLimit()
		key := ratelimit.KeyForDecision(userID, ratelimit.Decision{Limit: limit, Scope: ratelimit.ScopeUser})
		if key == "" {
			c.Next()
			return
		}

		result, errAllow := limiter.Allow(c.Request.Context(), key, limit)
		if errAllow != nil {
			log.WithError(errAllow).Warn("rate limit check failed, allowing request")
			c.Next()
			return
		}
		if !result.Allowed {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			return
		}
		c.Next()
	}
}

// bearerToken extracts the bearer token from the Authorization header.
func bearerToken(c *gin.Context) string {
	header := strings.TrimSpace(c.GetHeader("Authorization"))
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
