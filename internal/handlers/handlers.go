package handlers

import (
	"database/sql"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pharmacart/pharmacy-api/internal/cache"
	"github.com/pharmacart/pharmacy-api/internal/models"
	"github.com/pharmacart/pharmacy-api/internal/orders"
	"go.uber.org/zap"
)

// Handlers holds all dependencies for the HTTP layer.
type Handlers struct {
	DB     *sql.DB
	Log    *zap.Logger
	Cache  *cache.Cache
	Orders *orders.Service
}

// currentUser loads the authenticated user's row. AuthMiddleware guarantees
// "userID" is present on protected routes. On failure the error response is
// written here and false is returned.
func (h *Handlers) currentUser(c *gin.Context) (*models.User, bool) {
	userIDRaw, exists := c.Get("userID")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return nil, false
	}
	userID := userIDRaw.(int64)

	var u models.User
	err := h.DB.QueryRowContext(c, `
		SELECT id, role, name, email, password_hash, created_at, updated_at
		FROM users WHERE id = ?`, userID).Scan(
		&u.ID, &u.Role, &u.Name, &u.Email, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load user"})
		}
		return nil, false
	}
	return &u, true
}
