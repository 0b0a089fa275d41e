package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/memoirbase/memoirbase/internal/config"
	"github.com/memoirbase/memoirbase/internal/models"
	"github.com/memoirbase/memoirbase/internal/security"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// AuthHandler serves account registration and login.
type AuthHandler struct {
	db     *gorm.DB
	jwtCfg config.JWTConfig
}

// NewAuthHandler constructs an AuthHandler.
func NewAuthHandler(db *gorm.DB, jwtCfg config.JWTConfig) *AuthHandler {
	return &AuthHandler{db: db, jwtCfg: jwtCfg}
}

// registerRequest defines the registration payload.
type registerRequest struct {
	Email    string `json:"email" binding:"required,email"` // Login email.
	Name     string `json:"name"`                           // Display name.
	Password string `json:"password" binding:"required,min=8"` // Plaintext password.
}

// Register creates a new account and returns a bearer token.
func (h *AuthHandler) Register(c *gin.Context) {
	var req registerRequest
	if errBind := c.ShouldBindJSON(&req); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))

	hashed, errHash := security.HashPassword(req.Password)
	if errHash != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "register failed"})
		return
	}

	user := models.User{
		Email:    email,
		Name:     strings.TrimSpace(req.Name),
		Password: hashed,
		Active:   true,
	}
	if errCreate := h.db.WithContext(c.Request.Context()).Create(&user).Error; errCreate != nil {
		var existing models.User
		if errFind := h.db.WithContext(c.Request.Context()).Where("email = ?", email).First(&existing).Error; errFind == nil {
			c.JSON(http.StatusConflict, gin.H{"error": "email already registered"})
			return
		}
		log.WithError(errCreate).Error("register: create user failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "register failed"})
		return
	}

	h.respondWithToken(c, &user)
}

// loginRequest defines the login payload.
type loginRequest struct {
	Email    string `json:"email" binding:"required"`    // Login email.
	Password string `json:"password" binding:"required"` // Plaintext password.
}

// Login verifies credentials and returns a bearer token.
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if errBind := c.ShouldBindJSON(&req); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))

	var user models.User
	errFind := h.db.WithContext(c.Request.Context()).Where("email = ?", email).First(&user).Error
	if errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "login failed"})
		return
	}
	if !user.Active || user.Disabled {
		c.JSON(http.StatusForbidden, gin.H{"error": "account disabled"})
		return
	}
	if !security.VerifyPassword(user.Password, req.Password) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}

	h.respondWithToken(c, &user)
}

// respondWithToken issues a token and writes the auth response.
func (h *AuthHandler) respondWithToken(c *gin.Context, user *models.User) {
	token, errToken := security.IssueUserToken(h.jwtCfg.Secret, h.jwtCfg.Expiry, user.ID, user.IsAdmin)
	if errToken != nil {
		log.WithError(errToken).Error("issue token failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "token issuance failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"token": token,
		"user": gin.H{
			"id":    user.ID,
			"email": user.Email,
			"name":  user.Name,
		},
	})
}
