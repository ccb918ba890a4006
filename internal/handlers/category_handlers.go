package handlers

import (
	"database/sql"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pharmacart/pharmacy-api/internal/cache"
	"github.com/pharmacart/pharmacy-api/internal/models"
	"go.uber.org/zap"
)

const categoryListCacheKey = "categories:list"

// ListCategories is the handler for GET /api/categories.
func (h *Handlers) ListCategories(c *gin.Context) {
	var cached []models.Category
	if err := h.Cache.GetJSON(c, categoryListCacheKey, &cached); err == nil {
		c.JSON(http.StatusOK, gin.H{"categories": cached})
		return
	} else if !errors.Is(err, cache.ErrMiss) {
		h.Log.Warn("category list cache read failed", zap.Error(err))
	}

	rows, err := h.DB.QueryContext(c, `
		SELECT id, name, description, created_at, updated_at
		FROM categories
		ORDER BY name`)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch categories"})
		return
	}
	defer rows.Close()

	categories := []models.Category{}
	for rows.Next() {
		var cat models.Category
		if err := rows.Scan(&cat.ID, &cat.Name, &cat.Description, &cat.CreatedAt, &cat.UpdatedAt); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to scan category"})
			return
		}
		categories = append(categories, cat)
	}
	if err := rows.Err(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error iterating categories"})
		return
	}

	if err := h.Cache.SetJSON(c, categoryListCacheKey, categories); err != nil {
		h.Log.Warn("category list cache write failed", zap.Error(err))
	}

	c.JSON(http.StatusOK, gin.H{"categories": categories})
}

// GetCategory is the handler for GET /api/categories/:id. The response
// includes the category's products.
func (h *Handlers) GetCategory(c *gin.Context) {
	categoryID := c.Param("id")

	var cat models.Category
	err := h.DB.QueryRowContext(c, `
		SELECT id, name, description, created_at, updated_at
		FROM categories WHERE id = ?`, categoryID).Scan(
		&cat.ID, &cat.Name, &cat.Description, &cat.CreatedAt, &cat.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Category not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch category"})
		return
	}

	rows, err := h.DB.QueryContext(c, `
		SELECT p.id, p.name, p.slug, p.description, p.price, p.stock, p.created_at, p.updated_at
		FROM products p
		JOIN category_product cp ON cp.product_id = p.id
		WHERE cp.category_id = ?
		ORDER BY p.name`, cat.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch category products"})
		return
	}
	defer rows.Close()

	products := []models.Product{}
	for rows.Next() {
		var p models.Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Slug, &p.Description, &p.Price, &p.Stock,
			&p.CreatedAt, &p.UpdatedAt); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to scan product"})
			return
		}
		products = append(products, p)
	}

	c.JSON(http.StatusOK, gin.H{
		"category": cat,
		"products": products,
	})
}

type CategoryInput struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}

// CreateCategory is the handler for POST /api/categories (admin only).
func (h *Handlers) CreateCategory(c *gin.Context) {
	var input CategoryInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
		return
	}

	now := time.Now()
	result, err := h.DB.ExecContext(c, `
		INSERT INTO categories (name, description, created_at, updated_at)
		VALUES (?, ?, ?, ?)`,
		input.Name, input.Description, now, now)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create category"})
		return
	}

	categoryID, _ := result.LastInsertId()
	h.Cache.Invalidate(c, categoryListCacheKey)

	c.JSON(http.StatusCreated, gin.H{
		"category": models.Category{
			ID:          categoryID,
			Name:        input.Name,
			Description: input.Description,
			CreatedAt:   now,
			UpdatedAt:   now,
		},
	})
}

// UpdateCategory is the handler for PUT /api/categories/:id (admin only).
func (h *Handlers) UpdateCategory(c *gin.Context) {
	categoryID := c.Param("id")

	var input CategoryInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
		return
	}

	result, err := h.DB.ExecContext(c, `
		UPDATE categories SET name = ?, description = ?, updated_at = ? WHERE id = ?`,
		input.Name, input.Description, time.Now(), categoryID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update category"})
		return
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Category not found"})
		return
	}

	h.Cache.Invalidate(c, categoryListCacheKey)
	c.JSON(http.StatusOK, gin.H{"message": "Category updated"})
}

// DeleteCategory is the handler for DELETE /api/categories/:id (admin only).
func (h *Handlers) DeleteCategory(c *gin.Context) {
	categoryID := c.Param("id")

	result, err := h.DB.ExecContext(c, "DELETE FROM categories WHERE id = ?", categoryID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete category"})
		return
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Category not found"})
		return
	}

	h.Cache.Invalidate(c, categoryListCacheKey)
	c.JSON(http.StatusOK, gin.H{"message": "Category deleted"})
}
