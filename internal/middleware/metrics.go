package middleware

import (
	"sync"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RedisErrors counts Redis errors by command name.
	RedisErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cozystay_redis_errors_total",
		Help: "Total number of Redis errors by command",
	}, []string{"operation"})

	// MediaStoreOperations counts media store calls by operation and outcome.
	MediaStoreOperations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cozystay_media_store_operations_total",
		Help: "Total number of media store operations by type and result",
	}, []string{"operation", "result"})

	// UploadRejections counts multipart uploads rejected before the service ran.
	UploadRejections = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cozystay_upload_rejections_total",
		Help: "Total number of rejected listing uploads by reason",
	}, []string{"reason"})
)

var (
	promOnce sync.Once
	promHTTP *fiberprometheus.FiberPrometheus
)

// InitMetrics creates the Prometheus HTTP middleware for the given service
// name. The collectors register on the default registry, so the instance is
// created once and shared.
func InitMetrics(serviceName string) *fiberprometheus.FiberPrometheus {
	promOnce.Do(func() {
		promHTTP = fiberprometheus.New(serviceName)
	})
	return promHTTP
}

// MetricsMiddleware returns the Fiber handler that records HTTP metrics.
func MetricsMiddleware(prom *fiberprometheus.FiberPrometheus) fiber.Handler {
	return prom.Middleware
}
