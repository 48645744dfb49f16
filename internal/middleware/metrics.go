package middleware

import (
	"sync"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	prometheusMiddleware *fiberprometheus.FiberPrometheus
	prometheusOnce       sync.Once

	// RedisErrors counts Redis failures seen by middleware, by operation.
	RedisErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "askaway_middleware_redis_errors_total",
		Help: "Redis errors encountered by HTTP middleware",
	}, []string{"operation"})
)

// InitMetrics registers the HTTP metrics collector and the /metrics route.
// The collector is created once per process; each app gets its own route.
func InitMetrics(app *fiber.App, serviceName string) {
	prometheusOnce.Do(func() {
		prometheusMiddleware = fiberprometheus.New(serviceName)
		prometheusMiddleware.SetSkipPaths([]string{"/metrics", "/health/live", "/health/ready"})
	})
	prometheusMiddleware.RegisterAt(app, "/metrics")
}

// MetricsMiddleware records request counts and latencies. InitMetrics must run first.
func MetricsMiddleware() fiber.Handler {
	if prometheusMiddleware == nil {
		return func(c *fiber.Ctx) error { return c.Next() }
	}
	return prometheusMiddleware.Middleware
}
