package routes

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/pharmacart/pharmacy-api/internal/handlers"
	"github.com/pharmacart/pharmacy-api/internal/middleware"
)

// SetupRouter configures the Gin engine with all API routes and middleware.
func SetupRouter(h *handlers.Handlers) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestLogger(h.Log))
	r.Use(corsMiddleware())
	r.Use(middleware.RateLimit(60))

	api := r.Group("/api")
	{
		// --- Public Routes ---
		api.POST("/register", h.Register)
		api.POST("/login", h.Login)

		api.GET("/products", h.ListProducts)
		api.GET("/products/:id", h.GetProduct)
		api.GET("/categories", h.ListCategories)
		api.GET("/categories/:id", h.GetCategory)

		// --- Authenticated Routes ---
		auth := api.Group("/")
		auth.Use(middleware.AuthMiddleware())
		{
			auth.POST("/logout", h.Logout)

			auth.GET("/cart", h.GetCart)
			auth.DELETE("/cart", h.ClearCart)
			auth.POST("/cart/items", h.AddToCart)
			auth.PUT("/cart/items/:product_id", h.UpdateCartItem)
			auth.DELETE("/cart/items/:product_id", h.DeleteCartItem)

			auth.GET("/orders", h.ListOrders)
			auth.POST("/orders", h.CreateOrder)
			auth.GET("/orders/:id", h.GetOrder)
			auth.POST("/orders/:id/cancel", h.CancelOrder)
		}

		// --- Admin Routes ---
		admin := api.Group("/")
		admin.Use(middleware.AuthMiddleware(), middleware.AdminMiddleware(h.DB))
		{
			admin.POST("/products", h.CreateProduct)
			admin.PUT("/products/:id", h.UpdateProduct)
			admin.DELETE("/products/:id", h.DeleteProduct)

			admin.POST("/categories", h.CreateCategory)
			admin.PUT("/categories/:id", h.UpdateCategory)
			admin.DELETE("/categories/:id", h.DeleteCategory)

			admin.PUT("/orders/:id", h.UpdateOrderStatus)
		}
	}

	return r
}

// requestLogger logs one structured line per request.
func requestLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		log.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("clientIP", c.ClientIP()),
		)
	}
}

// corsMiddleware enables Cross-Origin Resource Sharing for the frontend.
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
