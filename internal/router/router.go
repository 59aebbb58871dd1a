package router

import (
	"fmt"
	"strings"

	"github.com/voyago-next/internal/cache"
	"github.com/voyago-next/internal/config"
	adminhandlers "github.com/voyago-next/internal/http/handlers/admin"
	publichandlers "github.com/voyago-next/internal/http/handlers/public"
	"github.com/voyago-next/internal/logger"
	"github.com/voyago-next/internal/provider"

	"github.com/gin-gonic/gin"
)

// SetupRouter 初始化路由
func SetupRouter(cfg *config.Config, c *provider.Container) *gin.Engine {
	log := logger.L
	if log == nil {
		log = logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	}
	r := gin.New()

	// 初始化 Handler（按顾问侧/后台分组）
	publicHandler := publichandlers.New(c)
	adminHandler := adminhandlers.New(c)
	redisPrefix := strings.TrimSpace(cfg.Redis.Prefix)
	if redisPrefix == "" {
		redisPrefix = "vg"
	}
	redisClient := cache.Client()
	confirmRule := RateLimitRule{
		Prefix:        fmt.Sprintf("%s:rate:confirm", redisPrefix),
		WindowSeconds: cfg.Security.ConfirmRateLimit.WindowSeconds,
		MaxRequests:   cfg.Security.ConfirmRateLimit.MaxRequests,
	}
	uploadRule := RateLimitRule{
		Prefix:        fmt.Sprintf("%s:rate:rate_upload", redisPrefix),
		WindowSeconds: cfg.Security.UploadRateLimit.WindowSeconds,
		MaxRequests:   cfg.Security.UploadRateLimit.MaxRequests,
	}

	// 中间件
	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(LoggerMiddleware(log))
	r.Use(CORSMiddleware(cfg.CORS))

	// API 路由组
	apiV1 := r.Group("/api/v1")
	{
		quotes := apiV1.Group("/quotes")
		{
			quotes.POST("", publicHandler.CreateQuote)
			quotes.GET("", publicHandler.ListQuotes)
			quotes.GET("/:quote", publicHandler.GetQuote)
			quotes.POST("/:quote/accept", publicHandler.AcceptQuote)
			quotes.POST("/:quote/reprice", publicHandler.RepriceQuote)
			quotes.POST("/:quote/confirm-payment",
				RateLimitMiddleware(redisClient, confirmRule, KeyByIP),
				publicHandler.ConfirmPayment)
			quotes.POST("/:quote/dispatch", publicHandler.DispatchBooking)
			quotes.GET("/:quote/refund-preview", publicHandler.PreviewRefund)
			quotes.POST("/:quote/cancel", publicHandler.CancelQuote)
		}

		admin := apiV1.Group("/admin")
		{
			admin.POST("/agents", adminHandler.CreateAgent)
			admin.GET("/agents/:id", adminHandler.GetAgent)

			admin.POST("/rates",
				RateLimitMiddleware(redisClient, uploadRule, KeyByIP),
				adminHandler.UploadRate)
			admin.GET("/rates", adminHandler.ListRates)

			admin.GET("/allocations", adminHandler.ListQuoteAllocations)
			admin.GET("/allocations/:id", adminHandler.GetAllocation)

			admin.GET("/commissions", adminHandler.ListCommissions)
			admin.POST("/commissions/:id/approve", adminHandler.ApproveCommission)
			admin.POST("/commissions/:id/pay", adminHandler.PayCommission)
			admin.POST("/commissions/:id/dispute", adminHandler.DisputeCommission)

			admin.GET("/booking-tasks", adminHandler.ListBookingTasks)
			admin.POST("/booking-tasks/:id/start", adminHandler.StartBookingTask)
			admin.POST("/booking-tasks/:id/complete", adminHandler.CompleteBookingTask)
			admin.POST("/booking-tasks/:id/cancel", adminHandler.CancelBookingTask)
		}
	}

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	return r
}
