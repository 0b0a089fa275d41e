// Package handlers implements the end-user API endpoints.
package handlers

import "github.com/gin-gonic/gin"

// ContextUserKey is the gin context key holding the authenticated user ID.
const ContextUserKey = "userID"

// UserIDFromContext returns the authenticated user ID or zero.
func UserIDFromContext(c *gin.Context) uint64 {
	v, exists := c.Get(ContextUserKey)
	if !exists {
		return 0
	}
	id, ok := v.(uint64)
	if !ok {
		return 0
	}
	return id
}
