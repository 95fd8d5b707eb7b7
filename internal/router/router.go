// internal/router/router.go
package router

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/javajoker/storefront-backend/internal/config"
	"github.com/javajoker/storefront-backend/internal/handlers"
	"github.com/javajoker/storefront-backend/internal/metrics"
	"github.com/javajoker/storefront-backend/internal/middleware"
	"github.com/javajoker/storefront-backend/internal/services"
	"github.com/javajoker/storefront-backend/internal/utils"
)

// Server is the HTTP engine and the background state it owns.
type Server struct {
	Engine       *gin.Engine
	RateLimiters *middleware.RateLimiters
}

// Stop releases the rate limiters' sweepers.
func (s *Server) Stop() {
	s.RateLimiters.Stop()
}

func Initialize(db *gorm.DB, cfg *config.Config, m *metrics.Metrics) (*Server, error) {
	// Initialize services
	tokens := utils.NewTokenManager(cfg.Session.SecretKey, cfg.Session.TTL)
	storageService, err := services.NewStorageService(cfg.AWS)
	if err != nil {
		return nil, err
	}
	paymentService := services.NewPaymentService(cfg.Payment)
	addressService := services.NewAddressService(db)

	identities, err := identityVerifier(cfg.SSO)
	if err != nil {
		return nil, err
	}
	authService := services.NewAuthService(db, tokens, identities, m)
	productService := services.NewProductService(db)
	catalogService := services.NewCatalogService(db)
	customerService := services.NewCustomerService(db)
	orderService := services.NewOrderService(db, addressService, paymentService, m)
	cartService := services.NewCartService(db)
	reviewService := services.NewReviewService(db)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authService, cfg.Session)
	productHandler := handlers.NewProductHandler(productService)
	catalogHandler := handlers.NewCatalogHandler(catalogService)
	customerHandler := handlers.NewCustomerHandler(customerService, storageService)
	orderHandler := handlers.NewOrderHandler(orderService)
	cartHandler := handlers.NewCartHandler(cartService)
	addressHandler := handlers.NewAddressHandler(addressService)
	reviewHandler := handlers.NewReviewHandler(reviewService)

	authenticator := middleware.NewAuthenticator(tokens, authService, cfg.Session.CookieName)
	limiters := middleware.NewRateLimiters(cfg.RateLimit)

	// Initialize Gin router
	r := gin.New()

	// Global middleware
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger())
	r.Use(middleware.Metrics(m))
	r.Use(middleware.CORS(cfg.Server.AllowedOrigins))
	r.Use(middleware.ErrorHandler())
	r.NoRoute(middleware.NotFound())

	// Health check
	r.GET("/health", health(db))
	r.GET("/metrics", gin.WrapH(m.Handler()))

	if storageService.UsesLocalDisk() {
		r.Static("/uploads", cfg.AWS.LocalUploadDir)
	}

	api := r.Group("/api")
	api.Use(limiters.General.Middleware())

	customerOwner := middleware.ParamOwner("id")
	authLimit := limiters.Auth.Middleware()

	Register(api, authenticator, []Route{
		// Authentication routes
		{Method: http.MethodPost, Path: "/signup", Access: Public,
			Before:   []gin.HandlerFunc{authLimit},
			Handlers: []gin.HandlerFunc{middleware.RequireFields(middleware.SignupRules), authHandler.Signup}},
		{Method: http.MethodPost, Path: "/login", Access: Public,
			Before:   []gin.HandlerFunc{authLimit},
			Handlers: []gin.HandlerFunc{middleware.RequireFields(middleware.LoginRules), authHandler.Login}},
		{Method: http.MethodPost, Path: "/sso", Access: Public,
			Before:   []gin.HandlerFunc{authLimit},
			Handlers: []gin.HandlerFunc{middleware.RequireFields(middleware.SSORules), authHandler.SSO}},
		{Method: http.MethodPost, Path: "/logout", Access: Authenticated,
			Handlers: []gin.HandlerFunc{authHandler.Logout}},

		// Catalog routes
		{Method: http.MethodGet, Path: "/products", Access: Public,
			Handlers: []gin.HandlerFunc{productHandler.GetProducts}},
		{Method: http.MethodGet, Path: "/products/bestsellers", Access: Public,
			Handlers: []gin.HandlerFunc{productHandler.GetBestsellers}},
		{Method: http.MethodGet, Path: "/products/:id", Access: Public,
			Handlers: []gin.HandlerFunc{productHandler.GetProduct}},
		{Method: http.MethodGet, Path: "/products/:id/reviews", Access: Public,
			Handlers: []gin.HandlerFunc{productHandler.GetProductReviews}},
		{Method: http.MethodGet, Path: "/categories", Access: Public,
			Handlers: []gin.HandlerFunc{catalogHandler.GetCategories}},
		{Method: http.MethodGet, Path: "/suppliers", Access: Public,
			Handlers: []gin.HandlerFunc{catalogHandler.GetSuppliers}},

		// Customer routes
		{Method: http.MethodGet, Path: "/customers/:id", Access: OwnerOnly, Owner: customerOwner,
			Handlers: []gin.HandlerFunc{customerHandler.GetCustomer}},
		{Method: http.MethodPut, Path: "/customers/:id", Access: OwnerOnly, Owner: customerOwner,
			Handlers: []gin.HandlerFunc{middleware.RequireFields(middleware.CustomerUpdateRules), customerHandler.UpdateCustomer}},
		{Method: http.MethodDelete, Path: "/customers/:id", Access: OwnerOnly, Owner: customerOwner,
			Handlers: []gin.HandlerFunc{customerHandler.DeleteCustomer}},
		{Method: http.MethodPost, Path: "/customers/:id/avatar", Access: OwnerOnly, Owner: customerOwner,
			Handlers: []gin.HandlerFunc{customerHandler.UploadAvatar}},
		{Method: http.MethodGet, Path: "/customers/:id/reviews", Access: PublicRead,
			Handlers: []gin.HandlerFunc{reviewHandler.GetCustomerReviews}},
		{Method: http.MethodGet, Path: "/customers/:id/favorites", Access: OwnerOnly, Owner: customerOwner,
			Handlers: []gin.HandlerFunc{reviewHandler.GetFavorites}},

		// Order routes
		{Method: http.MethodGet, Path: "/customers/:id/orders", Access: OwnerOnly, Owner: customerOwner,
			Handlers: []gin.HandlerFunc{orderHandler.GetOrders}},
		{Method: http.MethodPost, Path: "/customers/:id/orders", Access: OwnerOnly, Owner: customerOwner,
			Handlers: []gin.HandlerFunc{middleware.ValidateNewOrder(productService), orderHandler.CreateOrder}},
		{Method: http.MethodGet, Path: "/customers/:id/orders/:orderId", Access: OwnerOnly, Owner: customerOwner,
			Handlers: []gin.HandlerFunc{orderHandler.GetOrder}},
		{Method: http.MethodGet, Path: "/customers/:id/orders/products/:productId", Access: OwnerOnly, Owner: customerOwner,
			Handlers: []gin.HandlerFunc{orderHandler.GetOrderHistory}},

		// Cart and wishlist routes
		{Method: http.MethodGet, Path: "/customers/:id/cart", Access: OwnerOnly, Owner: customerOwner,
			Handlers: []gin.HandlerFunc{cartHandler.GetCart}},
		{Method: http.MethodPut, Path: "/customers/:id/cart", Access: OwnerOnly, Owner: customerOwner,
			Handlers: []gin.HandlerFunc{cartHandler.UpdateCart}},
		{Method: http.MethodGet, Path: "/customers/:id/wishlist", Access: OwnerOnly, Owner: customerOwner,
			Handlers: []gin.HandlerFunc{cartHandler.GetWishlist}},
		{Method: http.MethodPut, Path: "/customers/:id/wishlist", Access: OwnerOnly, Owner: customerOwner,
			Handlers: []gin.HandlerFunc{cartHandler.ToggleWishlist}},

		// Address routes
		{Method: http.MethodPost, Path: "/customers/:id/addresses", Access: OwnerOnly, Owner: customerOwner,
			Handlers: []gin.HandlerFunc{middleware.ValidateAddresses(middleware.AtLeastOneAddress), addressHandler.AddAddresses}},
		{Method: http.MethodDelete, Path: "/customers/:id/addresses/:addressId", Access: OwnerOnly, Owner: customerOwner,
			Handlers: []gin.HandlerFunc{addressHandler.RemoveAddress}},

		// Review routes
		{Method: http.MethodPost, Path: "/reviews", Access: Authenticated,
			Handlers: []gin.HandlerFunc{reviewHandler.CreateReview}},
		{Method: http.MethodPut, Path: "/reviews/:id", Access: OwnerOnly, Owner: middleware.ReviewOwner(),
			Load:     []gin.HandlerFunc{middleware.LoadReview(reviewService)},
			Handlers: []gin.HandlerFunc{reviewHandler.UpdateReview}},
		{Method: http.MethodDelete, Path: "/reviews/:id", Access: OwnerOnly, Owner: middleware.ReviewOwner(),
			Load:     []gin.HandlerFunc{middleware.LoadReview(reviewService)},
			Handlers: []gin.HandlerFunc{reviewHandler.DeleteReview}},
	})

	return &Server{Engine: r, RateLimiters: limiters}, nil
}

// identityVerifier loads the public keys of the configured SSO providers.
func identityVerifier(cfg config.SSOConfig) (*utils.IdentityVerifier, error) {
	providers := make(map[string]utils.IdentityProvider, len(cfg.Providers))
	for name, p := range cfg.Providers {
		key, err := utils.LoadPublicKey(p.PublicKeyFile)
		if err != nil {
			return nil, fmt.Errorf("sso provider %s: %w", name, err)
		}
		providers[name] = utils.IdentityProvider{Issuer: p.Issuer, Audience: p.Audience, Key: key}
	}
	return utils.NewIdentityVerifier(providers), nil
}

func health(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		status, code := "healthy", http.StatusOK
		if sqlDB, err := db.DB(); err != nil || sqlDB.PingContext(ctx) != nil {
			status, code = "unhealthy", http.StatusServiceUnavailable
		}

		c.JSON(code, gin.H{
			"status":  status,
			"version": "1.0.0",
		})
	}
}
