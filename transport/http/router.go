package http

import (
	"github.com/gin-gonic/gin"
	"github.com/layer-3/walletauth/ports"
	"github.com/layer-3/walletauth/service"
)

// SetupRouter sets up the Gin router. Challenge endpoints are rate limited when limiter is not nil.
func SetupRouter(authService *service.AuthService, limiter ports.RateLimiter) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), RequestLogger())

	// Create handlers
	handlers := NewAuthHandlers(authService)
	wallets := NewWalletHandlers(authService)

	limited := func(h gin.HandlerFunc) []gin.HandlerFunc {
		if limiter == nil {
			return []gin.HandlerFunc{h}
		}
		return []gin.HandlerFunc{RateLimit(limiter), h}
	}

	// Auth routes
	auth := router.Group("/auth")
	{
		auth.GET("/wallet/auth-message", limited(handlers.Challenge)...)
		auth.POST("/wallet/login", handlers.Login)
		auth.POST("/refresh", handlers.Refresh)
		auth.POST("/logout", handlers.Logout)
		auth.GET("/check-admin", handlers.CheckAdmin)
	}

	// Protected API routes
	api := router.Group("/api")
	api.Use(AuthMiddleware(authService))
	{
		api.GET("/me", handlers.Me)
	}

	walletRoutes := router.Group("/wallets")
	walletRoutes.Use(AuthMiddleware(authService))
	{
		walletRoutes.POST("/connect", wallets.Connect)
		walletRoutes.GET("/my-wallets", wallets.List)
		walletRoutes.GET("/verification-message/:id", limited(wallets.VerificationMessage)...)
		walletRoutes.POST("/verify", wallets.Verify)
	}

	return router
}
