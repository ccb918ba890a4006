package handlers

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gosimple/slug"
	"github.com/pharmacart/pharmacy-api/internal/cache"
	"github.com/pharmacart/pharmacy-api/internal/models"
	"go.uber.org/zap"
)

const (
	productListCachePrefix = "products:list:"
	productCachePrefix     = "products:"
)

const (
	defaultPerPage = 15
	maxPerPage     = 100
)

// ProductListParams are the query parameters accepted by ListProducts.
type ProductListParams struct {
	CategoryID int64  `form:"category_id"`
	Search     string `form:"search"`
	Sort       string `form:"sort"`
	Order      string `form:"order"`
	Page       int    `form:"page"`
	PerPage    int    `form:"per_page"`
}

// normalize applies defaults and rejects unknown sort columns and orders so
// they can never reach the SQL.
func (p *ProductListParams) normalize() error {
	switch p.Sort {
	case "", "price", "name", "created_at":
	default:
		return fmt.Errorf("sort must be one of price, name, created_at")
	}
	switch p.Order {
	case "", "asc", "desc":
	default:
		return fmt.Errorf("order must be asc or desc")
	}
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PerPage < 1 {
		p.PerPage = defaultPerPage
	}
	if p.PerPage > maxPerPage {
		p.PerPage = maxPerPage
	}
	return nil
}

func (p ProductListParams) cacheKey() string {
	return fmt.Sprintf("%s%d:%s:%s:%s:%d:%d",
		productListCachePrefix, p.CategoryID, p.Search, p.Sort, p.Order, p.Page, p.PerPage)
}

// productListQuery builds the page and count statements for normalized
// params. Sort and order are whitelisted in normalize; only values are bound.
func productListQuery(p ProductListParams) (listSQL, countSQL string, listArgs, countArgs []any) {
	var where []string
	var args []any

	if p.CategoryID > 0 {
		where = append(where,
			"EXISTS (SELECT 1 FROM category_product cp WHERE cp.product_id = products.id AND cp.category_id = ?)")
		args = append(args, p.CategoryID)
	}
	if p.Search != "" {
		where = append(where, "(name LIKE ? OR description LIKE ?)")
		pattern := "%" + p.Search + "%"
		args = append(args, pattern, pattern)
	}

	whereSQL := ""
	if len(where) > 0 {
		whereSQL = " WHERE " + strings.Join(where, " AND ")
	}

	sortCol := p.Sort
	if sortCol == "" {
		sortCol = "name"
	}
	order := p.Order
	if order == "" {
		order = "asc"
	}

	listSQL = "SELECT id, name, slug, description, price, stock, created_at, updated_at FROM products" +
		whereSQL +
		fmt.Sprintf(" ORDER BY %s %s LIMIT ? OFFSET ?", sortCol, order)
	listArgs = append(append([]any{}, args...), p.PerPage, (p.Page-1)*p.PerPage)

	countSQL = "SELECT COUNT(*) FROM products" + whereSQL
	countArgs = args
	return listSQL, countSQL, listArgs, countArgs
}

type listMeta struct {
	Page     int `json:"page"`
	PerPage  int `json:"perPage"`
	Total    int `json:"total"`
	LastPage int `json:"lastPage"`
}

type productListResponse struct {
	Products []models.Product `json:"products"`
	Meta     listMeta         `json:"meta"`
}

// ListProducts is the handler for GET /api/products. Supports category
// filtering, name/description search, sorting, and pagination; each distinct
// filter set gets its own cache entry.
func (h *Handlers) ListProducts(c *gin.Context) {
	var params ProductListParams
	if err := c.ShouldBindQuery(&params); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid query parameters: " + err.Error()})
		return
	}
	if err := params.normalize(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	cacheKey := params.cacheKey()
	var cached productListResponse
	if err := h.Cache.GetJSON(c, cacheKey, &cached); err == nil {
		c.JSON(http.StatusOK, cached)
		return
	} else if !errors.Is(err, cache.ErrMiss) {
		h.Log.Warn("product list cache read failed", zap.Error(err))
	}

	listSQL, countSQL, listArgs, countArgs := productListQuery(params)

	var total int
	if err := h.DB.QueryRowContext(c, countSQL, countArgs...).Scan(&total); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to count products"})
		return
	}

	rows, err := h.DB.QueryContext(c, listSQL, listArgs...)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch products"})
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
	if err := rows.Err(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error iterating products"})
		return
	}

	lastPage := (total + params.PerPage - 1) / params.PerPage
	if lastPage < 1 {
		lastPage = 1
	}

	response := productListResponse{
		Products: products,
		Meta: listMeta{
			Page:     params.Page,
			PerPage:  params.PerPage,
			Total:    total,
			LastPage: lastPage,
		},
	}

	if err := h.Cache.SetJSON(c, cacheKey, response); err != nil {
		h.Log.Warn("product list cache write failed", zap.Error(err))
	}

	c.JSON(http.StatusOK, response)
}

// GetProduct is the handler for GET /api/products/:id.
func (h *Handlers) GetProduct(c *gin.Context) {
	productID := c.Param("id")
	cacheKey := productCachePrefix + productID

	var cached models.Product
	if err := h.Cache.GetJSON(c, cacheKey, &cached); err == nil {
		c.JSON(http.StatusOK, gin.H{"product": cached})
		return
	}

	var p models.Product
	err := h.DB.QueryRowContext(c, `
		SELECT id, name, slug, description, price, stock, created_at, updated_at
		FROM products WHERE id = ?`, productID).Scan(
		&p.ID, &p.Name, &p.Slug, &p.Description, &p.Price, &p.Stock, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch product"})
		return
	}

	categories, err := h.productCategories(c, p.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch product categories"})
		return
	}
	p.Categories = categories

	if err := h.Cache.SetJSON(c, cacheKey, p); err != nil {
		h.Log.Warn("product cache write failed", zap.Error(err))
	}

	c.JSON(http.StatusOK, gin.H{"product": p})
}

// ProductInput defines the JSON payload for creating or updating a product.
type ProductInput struct {
	Name        string  `json:"name" binding:"required"`
	Description string  `json:"description"`
	Price       float64 `json:"price" binding:"required,gt=0"`
	Stock       int     `json:"stock" binding:"gte=0"`
	CategoryIDs []int64 `json:"categoryIds"`
}

// CreateProduct is the handler for POST /api/products (admin only).
func (h *Handlers) CreateProduct(c *gin.Context) {
	var input ProductInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
		return
	}

	tx, err := h.DB.BeginTx(c, nil)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Transaction failed"})
		return
	}
	defer tx.Rollback()

	now := time.Now()
	result, err := tx.ExecContext(c, `
		INSERT INTO products (name, slug, description, price, stock, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		input.Name, slug.Make(input.Name), input.Description, input.Price, input.Stock, now, now)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create product"})
		return
	}

	productID, err := result.LastInsertId()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get new product ID"})
		return
	}

	for _, categoryID := range input.CategoryIDs {
		if _, err := tx.ExecContext(c,
			"INSERT INTO category_product (category_id, product_id) VALUES (?, ?)",
			categoryID, productID); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid category ID"})
			return
		}
	}

	if err := tx.Commit(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Commit failed"})
		return
	}

	h.invalidateProductCache(c)

	c.JSON(http.StatusCreated, gin.H{
		"product": models.Product{
			ID:          productID,
			Name:        input.Name,
			Slug:        slug.Make(input.Name),
			Description: input.Description,
			Price:       input.Price,
			Stock:       input.Stock,
			CreatedAt:   now,
			UpdatedAt:   now,
		},
	})
}

// UpdateProduct is the handler for PUT /api/products/:id (admin only).
// The slug follows the name, like at creation.
func (h *Handlers) UpdateProduct(c *gin.Context) {
	productID := c.Param("id")

	var input ProductInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
		return
	}

	result, err := h.DB.ExecContext(c, `
		UPDATE products
		SET name = ?, slug = ?, description = ?, price = ?, stock = ?, updated_at = ?
		WHERE id = ?`,
		input.Name, slug.Make(input.Name), input.Description, input.Price, input.Stock,
		time.Now(), productID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update product"})
		return
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
		return
	}

	h.invalidateProductCache(c)
	h.Cache.Invalidate(c, productCachePrefix+productID)

	c.JSON(http.StatusOK, gin.H{"message": "Product updated"})
}

// DeleteProduct is the handler for DELETE /api/products/:id (admin only).
func (h *Handlers) DeleteProduct(c *gin.Context) {
	productID := c.Param("id")

	result, err := h.DB.ExecContext(c, "DELETE FROM products WHERE id = ?", productID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete product"})
		return
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
		return
	}

	h.invalidateProductCache(c)
	h.Cache.Invalidate(c, productCachePrefix+productID)

	c.JSON(http.StatusOK, gin.H{"message": "Product deleted"})
}

func (h *Handlers) productCategories(c *gin.Context, productID int64) ([]models.Category, error) {
	rows, err := h.DB.QueryContext(c, `
		SELECT cat.id, cat.name, cat.description, cat.created_at, cat.updated_at
		FROM categories cat
		JOIN category_product cp ON cp.category_id = cat.id
		WHERE cp.product_id = ?`, productID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var categories []models.Category
	for rows.Next() {
		var cat models.Category
		if err := rows.Scan(&cat.ID, &cat.Name, &cat.Description, &cat.CreatedAt, &cat.UpdatedAt); err != nil {
			return nil, err
		}
		categories = append(categories, cat)
	}
	return categories, rows.Err()
}

// invalidateProductCache drops every cached list variant after a catalog
// write. Cache failures are logged, never surfaced.
func (h *Handlers) invalidateProductCache(c *gin.Context) {
	if err := h.Cache.InvalidatePrefix(c, productListCachePrefix); err != nil {
		h.Log.Warn("product cache invalidation failed", zap.Error(err))
	}
}
