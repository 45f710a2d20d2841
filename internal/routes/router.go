package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"satdesk-manager/internal/alerts"
	"satdesk-manager/internal/config"
	"satdesk-manager/internal/delivery/http/handler"
	domainAlert "satdesk-manager/internal/domain/alert"
	domainDevice "satdesk-manager/internal/domain/device"
	domainOrder "satdesk-manager/internal/domain/order"
	domainSatDesk "satdesk-manager/internal/domain/satdesk"
	"satdesk-manager/internal/logger"
	"satdesk-manager/internal/middleware"
	"satdesk-manager/internal/usecase/allocation"
	"satdesk-manager/internal/usecase/device"
	"satdesk-manager/internal/usecase/order"
	"satdesk-manager/internal/usecase/satdesk"
)

// Stores bundles the repository implementations selected at startup. The
// router only sees the domain interfaces; whether they are backed by postgres
// or memory is decided once in main.
type Stores struct {
	Devices    domainDevice.Repository
	Orders     domainOrder.Repository
	Desks      domainSatDesk.Repository
	Dismissals domainAlert.DismissalStore

	// Health reports backend reachability for the health endpoint. Nil means
	// always healthy (the in-memory store).
	Health func() error
}

func SetupRoutes(cfg *config.Config, stores *Stores, engine *alerts.Engine) *gin.Engine {
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.LoggingMiddleware())
	router.Use(middleware.SecurityHeadersMiddleware())
	router.Use(middleware.CORSMiddleware(&cfg.CORS))
	router.Use(middleware.RequestSizeLimitMiddleware(middleware.DefaultMaxRequestSize))

	rps := cfg.RateLimit.GeneralRPS
	if rps <= 0 {
		rps = 50
	}
	burst := cfg.RateLimit.GeneralBurst
	if burst <= 0 {
		burst = 100
	}
	router.Use(middleware.RateLimitMiddleware(rps, burst))

	router.GET("/health", func(c *gin.Context) {
		if stores.Health != nil {
			if err := stores.Health(); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{
					"status":  "unhealthy",
					"message": "Store connection failed",
				})
				return
			}
		}

		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"message": "Service is running",
		})
	})

	allocationService := allocation.NewService(stores.Devices)
	allocationHandler := handler.NewAllocationHandler(allocationService)

	deviceService := device.NewService(stores.Devices, stores.Desks)
	deviceHandler := handler.NewDeviceHandler(deviceService)

	orderService := order.NewService(stores.Orders, stores.Devices, allocationService)
	orderHandler := handler.NewOrderHandler(orderService)

	satDeskService := satdesk.NewService(stores.Desks, stores.Devices)
	satDeskHandler := handler.NewSatDeskHandler(satDeskService)

	alertHandler := handler.NewAlertHandler(engine)

	v1 := router.Group("/api/v1")
	{
		orderHandler.RegisterRoutes(v1)
		deviceHandler.RegisterRoutes(v1)
		satDeskHandler.RegisterRoutes(v1)
		allocationHandler.RegisterRoutes(v1)
		alertHandler.RegisterRoutes(v1)
	}

	logger.Info("All routes initialized")
	return router
}
