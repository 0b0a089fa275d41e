// Package app boots the API server and its database-backed components.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/memoirbase/memoirbase/internal/config"
	"github.com/memoirbase/memoirbase/internal/db"
	"github.com/memoirbase/memoirbase/internal/entitlement"
	"github.com/memoirbase/memoirbase/internal/http/api/admin"
	"github.com/memoirbase/memoirbase/internal/http/api/front"
	"github.com/memoirbase/memoirbase/internal/models"
	"github.com/memoirbase/memoirbase/internal/ratelimit"
	"github.com/memoirbase/memoirbase/internal/security"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// shutdownTimeout bounds graceful shutdown after the context is canceled.
const shutdownTimeout = 10 * time.Second

// Migrate opens the database and runs migrations.
func Migrate(ctx context.Context, cfg config.AppConfig) error {
	configPath := config.ResolveConfigPath(cfg.ConfigPath)
	dsn, err := config.LoadDatabaseDSN(configPath)
	if err != nil {
		return err
	}
	conn, err := db.Open(dsn)
	if err != nil {
		return err
	}
	return db.Migrate(conn)
}

// RunServer boots the API server with database-backed components.
func RunServer(ctx context.Context, cfg config.AppConfig, defaultPort int) error {
	configPath := config.ResolveConfigPath(cfg.ConfigPath)
	dsn, err := config.LoadDatabaseDSN(configPath)
	if err != nil {
		return err
	}
	conn, err := db.Open(dsn)
	if err != nil {
		return err
	}
	if errMigrate := db.Migrate(conn); errMigrate != nil {
		return errMigrate
	}

	if errAdmin := ensureAdminFromEnv(conn); errAdmin != nil {
		return errAdmin
	}

	jwtConfig, _ := config.LoadJWTConfig(configPath)
	if strings.TrimSpace(jwtConfig.Secret) == "" {
		return fmt.Errorf("missing jwt secret (set `jwt.secret` in config file or env %s)", config.EnvJWTSecret)
	}

	engine := entitlement.NewEngine(conn)
	limiter := ratelimit.NewManager(ratelimit.FileSettingsProvider(configPath), nil, nil)

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	front.RegisterFrontRoutes(router, conn, engine, jwtConfig, limiter)
	admin.RegisterAdminRoutes(router, conn, engine, jwtConfig)

	if defaultPort <= 0 {
		defaultPort = 8318
	}
	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", defaultPort),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Infof("starting server on %s with config=%s", server.Addr, cfg.ConfigPath)
		if errServe := server.ListenAndServe(); errServe != nil && !errors.Is(errServe, http.ErrServerClosed) {
			errCh <- errServe
			return
		}
		errCh <- nil
	}()

	select {
	case errServe := <-errCh:
		return errServe
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if errShutdown := server.Shutdown(shutdownCtx); errShutdown != nil {
		return errShutdown
	}
	return <-errCh
}

// ensureAdminFromEnv provisions an admin account when ADMIN_EMAIL and
// ADMIN_PASSWORD are set. An existing account with that email is promoted
// rather than recreated.
func ensureAdminFromEnv(conn *gorm.DB) error {
	email := strings.ToLower(strings.TrimSpace(os.Getenv(config.EnvAdminEmail)))
	password := os.Getenv(config.EnvAdminPassword)
	if email == "" || strings.TrimSpace(password) == "" {
		return nil
	}
	return EnsureAdminUser(conn, email, password)
}

// EnsureAdminUser creates or promotes an admin account with the given email.
func EnsureAdminUser(conn *gorm.DB, email, password string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return fmt.Errorf("admin email is required")
	}
	if len(password) < 8 {
		return fmt.Errorf("admin password must be at least 8 characters")
	}

	var existing models.User
	errFind := conn.Where("email = ?", email).First(&existing).Error
	if errFind == nil {
		if existing.IsAdmin {
			return nil
		}
		return conn.Model(&models.User{}).Where("id = ?", existing.ID).
			Updates(map[string]any{"is_admin": true, "updated_at": time.Now().UTC()}).Error
	}
	if !errors.Is(errFind, gorm.ErrRecordNotFound) {
		return errFind
	}

	hashed, errHash := security.HashPassword(password)
	if errHash != nil {
		return errHash
	}
	user := models.User{
		Email:    email,
		Password: hashed,
		IsAdmin:  true,
		Active:   true,
	}
	return conn.Create(&user).Error
}
