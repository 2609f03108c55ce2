package api

import (
	"net/http"

	_ "github.com/Domenick1991/flightseats/docs"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"
	"go.uber.org/zap"
)

type RouterConfig struct {
	Flights     *FlightHandler
	Bookings    *BookingHandler
	Idempotency IdempotencyStore
	Log         *zap.Logger
	// AllowOrigin enables CORS for a single browser origin when set.
	AllowOrigin string
	Swagger     bool
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	if cfg.Log == nil {
		cfg.Log = zap.NewNop()
	}

	r := gin.New()
	r.Use(gin.Recovery(), RequestLogger(cfg.Log))
	if cfg.AllowOrigin != "" {
		r.Use(cors(cfg.AllowOrigin))
	}

	r.GET("/test", func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	if cfg.Swagger {
		r.GET("/swagger/*any", gin.WrapH(httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json"))))
	}

	apiGroup := r.Group("/api")
	cfg.Flights.Register(apiGroup)

	var create []gin.HandlerFunc
	if cfg.Idempotency != nil {
		create = append(create, Idempotency(cfg.Idempotency, cfg.Log))
	}
	cfg.Bookings.Register(apiGroup.Group("/bookings"), create...)

	return r
}

func cors(origin string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", origin)
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Idempotency-Key, X-Request-ID")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
