package rest

import (
	"github.com/gin-gonic/gin"

	"github.com/jessedh/t3-ledger/internal/api/middleware"
)

// SetupRoutes configures all REST API routes
func SetupRoutes(router *gin.Engine, handler Handler, authCfg middleware.AuthConfig) {
	// Health check endpoint (no auth, no version prefix)
	router.GET("/health", handler.HealthCheck)

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		// Transfer pipeline and reversal/expiry state machine
		v1.POST("/transfers", handler.Transfer)
		v1.POST("/reversals", handler.Reverse)
		v1.POST("/expiries/:wallet", handler.FinalizeExpiry)

		// Read-only probes (public)
		v1.GET("/wallets/:wallet/credits", handler.GetCredits)
		v1.GET("/wallets/:wallet/risk", handler.GetRiskFactor)
		v1.GET("/wallets/:wallet/balance", handler.GetBalance)
		v1.GET("/fees", handler.GetTieredFee)

		// Administrative capability (API key required)
		admin := v1.Group("/admin", middleware.AdminAuth(authCfg))
		{
			admin.POST("/wallets/:wallet/flag", handler.FlagAbnormal)
			admin.POST("/liabilities", handler.RecordLiability)
			admin.POST("/liabilities/clear", handler.ClearLiability)
			admin.GET("/liabilities/:debtor/:creditor", handler.GetLiability)
			admin.POST("/pause", handler.Pause)
			admin.POST("/unpause", handler.Unpause)
			admin.POST("/mint", handler.Mint)
		}
	}
}
