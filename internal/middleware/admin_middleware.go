package middleware

import (
	"database/sql"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pharmacart/pharmacy-api/internal/models"
)

// queryUserRole is a helper to get the user's role from the DB.
func queryUserRole(db *sql.DB, userID int64) (string, error) {
	var role string
	err := db.QueryRow("SELECT role FROM users WHERE id = ?", userID).Scan(&role)
	if err != nil {
		return "", err
	}
	return role, nil
}

// AdminMiddleware must run after AuthMiddleware. It reads the userID from the
// context, looks up the role, and rejects anyone who is not an admin.
func AdminMiddleware(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userIDRaw, exists := c.Get("userID")
		if !exists {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "User ID not found in context (AuthMiddleware must run first)"})
			c.Abort()
			return
		}
		userID := userIDRaw.(int64)

		role, err := queryUserRole(db, userID)
		if err != nil {
			if err == sql.ErrNoRows {
				c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid user"})
			} else {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error checking role"})
			}
			c.Abort()
			return
		}

		if role != models.RoleAdmin {
			c.JSON(http.StatusForbidden, gin.H{"error": "Access denied: Admin role required"})
			c.Abort()
			return
		}

		c.Set("userRole", role)
		c.Next()
	}
}
