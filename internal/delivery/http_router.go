package delivery

import (
	"time"

	"campaignexport/internal/delivery/middleware"
	"campaignexport/pkg/logger"
	"campaignexport/pkg/metrics"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/time/rate"
)

type RouterOptions struct {
	RequestTimeout time.Duration
	// submissions per second; 0 disables the limiter
	SubmitRate  float64
	SubmitBurst int
	// served on /metrics; nil means the default registry
	Gatherer prometheus.Gatherer
}

type HTTPRouter struct {
	handlers *HTTPHandlers
	logger   *logger.Logger
	metrics  *metrics.Metrics
	opts     RouterOptions
}

func NewHTTPRouter(handlers *HTTPHandlers, logger *logger.Logger, metrics *metrics.Metrics, opts RouterOptions) *HTTPRouter {
	return &HTTPRouter{
		handlers: handlers,
		logger:   logger,
		metrics:  metrics,
		opts:     opts,
	}
}

func (r *HTTPRouter) SetupRoutes() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(r.logger))
	router.Use(middleware.Recovery(r.logger))
	router.Use(middleware.Metrics(r.metrics))
	if r.opts.RequestTimeout > 0 {
		router.Use(middleware.Timeout(r.opts.RequestTimeout))
	}

	config := cors.DefaultConfig()
	config.AllowAllOrigins = true
	config.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	config.AllowHeaders = []string{"Content-Type", "X-Request-ID"}
	config.ExposeHeaders = []string{"X-Request-ID", "Content-Disposition", "X-Checksum-SHA256", "Location"}

	router.Use(cors.New(config))

	// Health endpoint
	router.GET("/health", r.handlers.HealthCheck)

	submit := []gin.HandlerFunc{r.handlers.SubmitExport}
	if r.opts.SubmitRate > 0 {
		burst := max(r.opts.SubmitBurst, 1)
		limiter := rate.NewLimiter(rate.Limit(r.opts.SubmitRate), burst)
		submit = append([]gin.HandlerFunc{middleware.RateLimit(limiter, r.metrics)}, submit...)
	}

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		v1.GET("/", r.handlers.GetAPIInfo)
		v1.GET("", r.handlers.GetAPIInfo)

		exports := v1.Group("/exports")
		{
			exports.POST("", submit...)
			exports.GET("", r.handlers.ListExports)
			exports.GET("/:id", r.handlers.GetExport)
			exports.GET("/:id/download", r.handlers.DownloadExport)
		}

		locations := v1.Group("/locations")
		{
			locations.GET("", r.handlers.ListLocations)
			locations.POST("/cache/invalidate", r.handlers.InvalidateLocationCache)
			locations.PUT("/:id", r.handlers.SaveLocation)
			locations.DELETE("/:id", r.handlers.DeleteLocation)
			locations.GET("/:id/targeting", r.handlers.GetLocationTargeting)
			locations.PUT("/:id/targeting", r.handlers.SaveLocationTargeting)
		}

		v1.GET("/columns", r.handlers.GetColumns)
	}

	// Prometheus metrics endpoint
	router.GET("/metrics", middleware.PrometheusHandler(r.opts.Gatherer))

	return router
}
