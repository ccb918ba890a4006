package handlers

import (
	"database/sql"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-sql-driver/mysql"
	"github.com/pharmacart/pharmacy-api/internal/auth"
	"github.com/pharmacart/pharmacy-api/internal/models"
	"go.uber.org/zap"
)

// RegisterInput holds the registration payload. Separate from models.User so
// callers can never supply an id or role.
type RegisterInput struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}

// Register is the handler for POST /api/register. New accounts are customers.
func (h *Handlers) Register(c *gin.Context) {
	var input RegisterInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
		return
	}

	var password models.Password
	if err := password.Set(input.Password); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to hash password"})
		return
	}

	now := time.Now()
	result, err := h.DB.ExecContext(c, `
		INSERT INTO users (role, name, email, password_hash, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		models.RoleCustomer, input.Name, input.Email, password.Hash, now, now)
	if err != nil {
		var mysqlErr *mysql.MySQLError
		if errors.As(err, &mysqlErr) && mysqlErr.Number == 1062 {
			c.JSON(http.StatusConflict, gin.H{"error": "Email already registered"})
			return
		}
		h.Log.Error("failed to create user", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create user"})
		return
	}

	userID, err := result.LastInsertId()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create user"})
		return
	}

	token, err := auth.GenerateToken(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
		return
	}

	h.Log.Info("user registered", zap.Int64("user_id", userID))

	c.JSON(http.StatusCreated, gin.H{
		"user": models.User{
			ID:        userID,
			Role:      models.RoleCustomer,
			Name:      input.Name,
			Email:     input.Email,
			CreatedAt: now,
			UpdatedAt: now,
		},
		"token": token,
	})
}

type LoginInput struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// Login is the handler for POST /api/login.
func (h *Handlers) Login(c *gin.Context) {
	var input LoginInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
		return
	}

	var u models.User
	err := h.DB.QueryRowContext(c, `
		SELECT id, role, name, email, password_hash, created_at, updated_at
		FROM users WHERE email = ?`, input.Email).Scan(
		&u.ID, &u.Role, &u.Name, &u.Email, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// Same error as a bad password so emails can't be probed.
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to look up user"})
		return
	}

	password := models.Password{Hash: u.PasswordHash}
	matches, err := password.Matches(input.Password)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to verify password"})
		return
	}
	if !matches {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}

	token, err := auth.GenerateToken(u.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user":  u,
		"token": token,
	})
}

// Logout is the handler for POST /api/logout. Tokens are stateless JWTs, so
// logout is an acknowledgment; clients discard the token.
func (h *Handlers) Logout(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}
