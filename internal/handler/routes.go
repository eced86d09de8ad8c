package handler

import (
	"github.com/labstack/echo/v4"
	echoSwagger "github.com/swaggo/echo-swagger"
	"github.com/vastra/storefront/internal/domain"
	"github.com/vastra/storefront/internal/middleware"
)

// Handlers groups the route handlers RegisterRoutes wires up
type Handlers struct {
	Health    *HealthHandler
	Auth      *AuthHandler
	Cart      *CartHandler
	Wishlist  *WishlistHandler
	Address   *AddressHandler
	Product   *ProductHandler
	Category  *CategoryHandler
	Image     *ImageHandler
	WebSocket *WebSocketHandler
}

// RegisterRoutes sets up all API routes
func RegisterRoutes(e *echo.Echo, authMiddleware *middleware.AuthMiddleware, authLimiter *middleware.RateLimiter, h Handlers) {
	e.GET("/health", h.Health.Health)
	e.GET("/swagger/*", echoSwagger.WrapHandler)
	e.GET("/openapi.json", ServeOpenAPI3Spec)

	// API version 1
	api := e.Group("/api/v1")
	authenticated := authMiddleware.Authenticate()

	// Auth routes (login and register are rate-limited per client IP)
	auth := api.Group("/auth")
	auth.POST("/register", h.Auth.Register, middleware.RateLimitMiddleware(authLimiter))
	auth.POST("/login", h.Auth.Login, middleware.RateLimitMiddleware(authLimiter))
	auth.POST("/refresh-token", h.Auth.RefreshToken)
	auth.POST("/logout", h.Auth.Logout)
	auth.GET("/me", h.Auth.Me, authenticated)

	// Catalog routes (public)
	api.GET("/products", h.Product.ListProducts)
	api.GET("/products/:id", h.Product.GetProduct)
	api.GET("/categories", h.Category.ListCategories)

	// Cart routes (protected)
	cart := api.Group("/cart")
	cart.Use(authenticated)
	cart.GET("", h.Cart.GetCart)
	cart.POST("/add", h.Cart.AddItem)
	cart.PUT("/update", h.Cart.UpdateItem)
	cart.DELETE("/remove/:productId", h.Cart.RemoveItem)
	cart.DELETE("", h.Cart.Clear)

	// Wishlist routes (protected)
	wishlist := api.Group("/wishlist")
	wishlist.Use(authenticated)
	wishlist.GET("", h.Wishlist.GetWishlist)
	wishlist.POST("/add", h.Wishlist.AddItem)
	wishlist.DELETE("/remove/:productId", h.Wishlist.RemoveItem)

	// Address routes (protected)
	address := api.Group("/address")
	address.Use(authenticated)
	address.GET("", h.Address.ListAddresses)
	address.POST("", h.Address.CreateAddress)
	address.PUT("/:id", h.Address.UpdateAddress)
	address.DELETE("/:id", h.Address.DeleteAddress)

	// Back-office routes (admin role)
	admin := api.Group("/admin")
	admin.Use(authenticated, middleware.RequireRole(domain.RoleAdmin))
	admin.GET("/products", h.Product.AdminListProducts)
	admin.POST("/products", h.Product.CreateProduct)
	admin.PUT("/products/:id", h.Product.UpdateProduct)
	admin.DELETE("/products/:id", h.Product.DeleteProduct)
	admin.POST("/products/:id/image", h.Image.UploadProductImage)
	admin.POST("/categories", h.Category.CreateCategory)
	admin.PUT("/categories/:id", h.Category.UpdateCategory)
	admin.DELETE("/categories/:id", h.Category.DeleteCategory)

	// Push events; the handler authenticates the handshake itself
	api.GET("/ws", h.WebSocket.HandleWS)
}
