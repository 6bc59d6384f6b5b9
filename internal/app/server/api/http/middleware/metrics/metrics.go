package metrics

import (
	"strconv"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics - счетчик и гистограмма запросов по операциям API
type Metrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		requests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cardkeeper",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Количество HTTP запросов по операции и статусу.",
		}, []string{"method", "route", "status"}),
		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "cardkeeper",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Длительность HTTP запросов.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
}

// Middleware метит запросы шаблоном пути операции, а не фактическим URL
func (m *Metrics) Middleware() func(huma.Context, func(huma.Context)) {
	return func(ctx huma.Context, next func(huma.Context)) {
		start := time.Now()

		next(ctx)

		route := ctx.URL().Path
		if op := ctx.Operation(); op != nil {
			route = op.Path
		}
		status := ctx.Status()
		if status == 0 {
			status = 200
		}

		m.requests.WithLabelValues(ctx.Method(), route, strconv.Itoa(status)).Inc()
		m.duration.WithLabelValues(ctx.Method(), route).Observe(time.Since(start).Seconds())
	}
}
