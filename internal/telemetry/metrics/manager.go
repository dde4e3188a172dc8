package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	GeocodeOutcomeResolved = "resolved"
	GeocodeOutcomeFailed   = "failed"
	GeocodeOutcomeDisabled = "disabled"

	CacheTierSession = "session"
	CacheTierRedis   = "redis"
)

type Manager struct {
	// counters
	CounterRequests           *prometheus.CounterVec
	CounterHandleRequestPanic prometheus.Counter
	CounterRateLimited        prometheus.Counter
	CounterGeocodeLookups     *prometheus.CounterVec
	CounterGeocodeCacheHits   *prometheus.CounterVec
	CounterViewCache          *prometheus.CounterVec
	CounterDatasetLoads       *prometheus.CounterVec

	// gauges
	GaugeRequests     prometheus.Gauge
	GaugeLifeSignal   prometheus.Gauge
	GaugeDatasetRows  prometheus.Gauge
	GaugeLocationKeys prometheus.Gauge

	// histograms
	HistDatasetLoadDuration  prometheus.Histogram
	HistogramRequestDuration *prometheus.HistogramVec
}

func NewTestManager() *Manager {
	return NewManager("fitdash", "test", prometheus.NewRegistry())
}

func NewManager(namespace, subsystem string, reg prometheus.Registerer) *Manager {
	factory := promauto.With(reg)

	counterRequests := factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "request",
		Help:      "The total number of incoming requests",
	}, []string{"method", "status"})
	counterHandleRequestPanic := factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "handle_request_panic",
		Help:      "The total number of serve request panics",
	})
	counterRateLimited := factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "rate_limited_requests",
		Help:      "The total number of rate limited requests",
	})
	counterGeocodeLookups := factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "geocode_lookups",
		Help:      "Reverse geocode resolutions that missed every cache, by outcome",
	}, []string{"outcome"})
	counterGeocodeCacheHits := factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "geocode_cache_hits",
		Help:      "Reverse geocode cache hits, by cache tier",
	}, []string{"tier"})
	counterViewCache := factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "view_cache",
		Help:      "Dashboard view cache lookups, by result",
	}, []string{"result"})
	counterDatasetLoads := factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "dataset_loads",
		Help:      "Dataset loads, by status",
	}, []string{"status"})

	gaugeRequests := factory.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "current_requests",
		Help:      "Current number of requests served",
	})
	gaugeLifeSignal := factory.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "life_signal",
		Help:      "Shows whether the service is alive",
	})
	gaugeDatasetRows := factory.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "dataset_rows",
		Help:      "Number of records in the currently loaded dataset",
	})
	gaugeLocationKeys := factory.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "dataset_location_keys",
		Help:      "Number of distinct rounded coordinate keys in the current dataset",
	})

	histDatasetLoadDuration := factory.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "dataset_load_duration_seconds",
		Help:      "Duration of a full dataset load, geocoding included",
		Buckets:   []float64{0.01, 0.1, 0.5, 1, 5, 10, 30, 60, 120, 300, 600},
	})
	histogramRequestDuration := factory.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "request_duration_seconds",
		Help:      "Histogram of response time for requests in seconds",
		Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
	}, []string{"route", "method", "status_code"})

	return &Manager{
		CounterRequests:           counterRequests,
		CounterHandleRequestPanic: counterHandleRequestPanic,
		CounterRateLimited:        counterRateLimited,
		CounterGeocodeLookups:     counterGeocodeLookups,
		CounterGeocodeCacheHits:   counterGeocodeCacheHits,
		CounterViewCache:          counterViewCache,
		CounterDatasetLoads:       counterDatasetLoads,
		GaugeRequests:             gaugeRequests,
		GaugeLifeSignal:           gaugeLifeSignal,
		GaugeDatasetRows:          gaugeDatasetRows,
		GaugeLocationKeys:         gaugeLocationKeys,
		HistDatasetLoadDuration:   histDatasetLoadDuration,
		HistogramRequestDuration:  histogramRequestDuration,
	}
}
