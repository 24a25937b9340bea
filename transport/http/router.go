package http

import (
	"github.com/gin-gonic/gin"

	"github.com/layer-3/karat/service"
)

// SetupRouter sets up the Gin router
func SetupRouter(authService *service.AuthService, mintService *service.MintService, rewardService *service.RewardService) *gin.Engine {
	router := gin.Default()

	authHandlers := NewAuthHandlers(authService)
	mintHandlers := NewMintHandlers(mintService, rewardService)

	// Auth routes
	auth := router.Group("/auth")
	{
		auth.POST("/challenge", authHandlers.Challenge)
		auth.POST("/login", authHandlers.Login)
		auth.POST("/refresh", authHandlers.Refresh)
		auth.POST("/logout", authHandlers.Logout)
	}

	// Protected API routes
	api := router.Group("/api")
	api.Use(AuthMiddleware(authService))
	{
		api.GET("/me", authHandlers.Me)
		api.POST("/mint", mintHandlers.Mint)
		api.POST("/rewards/claim", mintHandlers.ClaimReward)
		api.GET("/rewards", mintHandlers.ListIssuances)
	}

	return router
}
