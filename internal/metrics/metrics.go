package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

type Metrics struct {
	HTTPRequests      *prometheus.CounterVec
	RateLimited       prometheus.Counter
	StoreFallbacks    prometheus.Counter
	WebhookDeliveries prometheus.Counter
	WebhookFailures   prometheus.Counter
}

var (
	once   sync.Once
	global *Metrics
)

func Global() *Metrics {
	once.Do(func() {
		global = &Metrics{
			HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "promptvault",
				Name:      "http_requests_total",
				Help:      "Total HTTP requests by method and status",
			}, []string{"method", "status"}),
			RateLimited: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: "promptvault",
				Name:      "rate_limited_total",
				Help:      "Total requests rejected by the per-client rate limit",
			}),
			StoreFallbacks: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: "promptvault",
				Name:      "store_fallbacks_total",
				Help:      "Total operations served by the local store after a remote failure",
			}),
			WebhookDeliveries: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: "promptvault",
				Name:      "webhook_deliveries_total",
				Help:      "Total webhook deliveries attempted",
			}),
			WebhookFailures: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: "promptvault",
				Name:      "webhook_failures_total",
				Help:      "Total webhook deliveries that failed",
			}),
		}
		prometheus.MustRegister(
			global.HTTPRequests,
			global.RateLimited,
			global.StoreFallbacks,
			global.WebhookDeliveries,
			global.WebhookFailures,
		)
	})
	return global
}
