package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "user-account-service/docs"
	"user-account-service/internal/common/config"
	"user-account-service/internal/common/errors"
	"user-account-service/internal/common/middleware"
	userhttp "user-account-service/internal/features/user/delivery/http"
	"user-account-service/internal/features/user/service"
)

// HealthChecker is anything /ready should ping.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// ReadinessCheck names a dependency probed by /ready.
type ReadinessCheck struct {
	Name    string
	Checker HealthChecker
}

// NewGinApp builds the gin engine with middlewares and routes wired.
func NewGinApp(cfg *config.Config, users service.UserService, checks ...ReadinessCheck) *gin.Engine {
	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	router.Use(middleware.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger())
	router.Use(middleware.ErrorHandler())

	// CORS for frontends
	corsConfig := cors.DefaultConfig()
	if len(cfg.Server.Origins) == 0 {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = cfg.Server.Origins
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept", middleware.RequestIDHeader}
	corsConfig.ExposeHeaders = []string{middleware.RequestIDHeader}
	router.Use(cors.New(corsConfig))

	userhttp.NewUserHandler(users).RegisterRoutes(router)

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	registerProbes(router, cfg.ServiceName, checks)

	router.NoRoute(func(c *gin.Context) {
		_ = c.Error(errors.New(errors.ErrCodeNotFound, "Route not found").WithDetail("path", c.Request.URL.Path))
	})

	return router
}

func registerProbes(router gin.IRouter, serviceName string, checks []ReadinessCheck) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "ok",
			"timestamp": time.Now().UTC(),
			"service":   serviceName,
		})
	})

	// Liveness probe
	router.GET("/live", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	// Readiness probe
	router.GET("/ready", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		for _, check := range checks {
			if err := check.Checker.HealthCheck(ctx); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{
					"status":  "unready",
					"error":   check.Name + " unavailable",
					"details": err.Error(),
				})
				return
			}
		}

		c.JSON(http.StatusOK, gin.H{
			"status":    "ready",
			"timestamp": time.Now().UTC(),
			"service":   serviceName,
		})
	})
}
