// Package admin registers the operator API surface.
package admin

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/memoirbase/memoirbase/internal/config"
	"github.com/memoirbase/memoirbase/internal/entitlement"
	handlers "github.com/memoirbase/memoirbase/internal/http/api/admin/handlers"
	"github.com/memoirbase/memoirbase/internal/models"
	"github.com/memoirbase/memoirbase/internal/security"
	"gorm.io/gorm"
)

// RegisterAdminRoutes registers admin routes, middleware, and handlers.
func RegisterAdminRoutes(r *gin.Engine, db *gorm.DB, engine *entitlement.Engine, jwtCfg config.JWTConfig) {
	if r == nil || db == nil || engine == nil {
		return
	}

	authed := r.Group("/v0/admin")
	authed.Use(adminAuthMiddleware(db, jwtCfg))

	planHandler := handlers.NewPlanHandler(db)
	authed.POST("/plans", planHandler.Create)
	authed.GET("/plans", planHandler.List)
	authed.GET("/plans/:id", planHandler.Get)
	authed.PUT("/plans/:id", planHandler.Update)
	authed.DELETE("/plans/:id", planHandler.Delete)
	authed.POST("/plans/:id/enable", planHandler.Enable)
	authed.POST("/plans/:id/disable", planHandler.Disable)

	addonHandler := handlers.NewAddonHandler(db)
	authed.POST("/addons", addonHandler.Create)
	authed.GET("/addons", addonHandler.List)
	authed.GET("/addons/:id", addonHandler.Get)
	authed.PUT("/addons/:id", addonHandler.Update)
	authed.DELETE("/addons/:id", addonHandler.Delete)
	authed.POST("/addons/:id/enable", addonHandler.Enable)
	authed.POST("/addons/:id/disable", addonHandler.Disable)

	userHandler := handlers.NewUserHandler(db, engine)
	authed.GET("/users", userHandler.List)
	authed.GET("/users/:id", userHandler.Get)
	authed.PUT("/users/:id/subscription", userHandler.SetSubscription)
	authed.POST("/users/:id/disable", userHandler.Disable)
	authed.POST("/users/:id/enable", userHandler.Enable)

	userAddonHandler := handlers.NewUserAddonHandler(db, engine)
	authed.POST("/users/:id/addons", userAddonHandler.Grant)
	authed.GET("/users/:id/addons", userAddonHandler.List)

	usageHandler := handlers.NewUsageHandler(db)
	authed.GET("/usage", usageHandler.List)
}

// adminAuthMiddleware validates bearer tokens and requires the admin flag.
func adminAuthMiddleware(db *gorm.DB, jwtCfg config.JWTConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing authorization header"})
			return
		}

		token := strings.TrimPrefix(authHeader, "Bearer ")
		if token == authHeader {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization format"})
			return
		}
		token = strings.TrimSpace(token)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "empty token"})
			return
		}

		claims, errJWT := security.ParseUserToken(jwtCfg.Secret, token)
		if errJWT != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		if !claims.IsAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "admin access required"})
			return
		}

		var admin models.User
		if errFind := db.WithContext(c.Request.Context()).First(&admin, claims.UserID).Error; errFind != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "admin not found"})
			return
		}
		if !admin.IsAdmin || !admin.Active || admin.Disabled {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "admin access required"})
			return
		}

		c.Set("adminID", admin.ID)
		c.Next()
	}
}
