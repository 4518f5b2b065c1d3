package http

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	cacheMetricsMu          sync.Mutex
	cacheMetricsInitialized bool

	cacheHitCounter   *prometheus.CounterVec
	cacheMissCounter  *prometheus.CounterVec
	vmBuildHistogram  *prometheus.HistogramVec
	cacheMetricsError error
)

// SetupCacheMetrics registers Prometheus metrics used to observe the report
// view-model cache. The registration is performed once and subsequent calls
// are ignored.
func SetupCacheMetrics(reg prometheus.Registerer) error {
	cacheMetricsMu.Lock()
	defer cacheMetricsMu.Unlock()
	if cacheMetricsInitialized {
		return cacheMetricsError
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	cacheHitCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ferretmix_report_cache_hits_total",
		Help: "Number of cache hits for report view models.",
	}, []string{"report", "company", "period"})
	cacheMissCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ferretmix_report_cache_miss_total",
		Help: "Number of cache misses for report view models.",
	}, []string{"report", "company", "period"})
	vmBuildHistogram = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "ferretmix_report_vm_build_duration_seconds",
		Help:    "Duration required to build report view models.",
		Buckets: prometheus.DefBuckets,
	}, []string{"report", "company", "period"})

	for _, collector := range []prometheus.Collector{cacheHitCounter, cacheMissCounter, vmBuildHistogram} {
		if err := reg.Register(collector); err != nil {
			var already prometheus.AlreadyRegisteredError
			if errors.As(err, &already) {
				switch c := already.ExistingCollector.(type) {
				case *prometheus.CounterVec:
					if collector == cacheHitCounter {
						cacheHitCounter = c
					} else {
						cacheMissCounter = c
					}
				case *prometheus.HistogramVec:
					vmBuildHistogram = c
				default:
					cacheMetricsError = fmt.Errorf("report cache metrics: unexpected collector type %T", c)
				}
				continue
			}
			cacheMetricsError = err
			cacheHitCounter = nil
			cacheMissCounter = nil
			vmBuildHistogram = nil
			cacheMetricsInitialized = true
			return cacheMetricsError
		}
	}

	cacheMetricsInitialized = true
	return cacheMetricsError
}

func recordCacheHit(report, company, period string) {
	if cacheHitCounter == nil {
		return
	}
	cacheHitCounter.WithLabelValues(report, company, period).Inc()
}

func recordCacheMiss(report, company, period string) {
	if cacheMissCounter == nil {
		return
	}
	cacheMissCounter.WithLabelValues(report, company, period).Inc()
}

func observeVMBuildDuration(report, company, period string, duration time.Duration) {
	if vmBuildHistogram == nil {
		return
	}
	vmBuildHistogram.WithLabelValues(report, company, period).Observe(duration.Seconds())
}
