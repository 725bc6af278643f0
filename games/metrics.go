package games

import "github.com/prometheus/client_golang/prometheus"

const (
	MetricCacheRequestsTotal  = "game_cache_requests_total"
	MetricCacheEvictionsTotal = "game_cache_evictions_total"
)

// Cache names used as the "cache" label.
const (
	CacheByNumber = "by_number"
	CacheLatest   = "latest"
	CacheRank     = "rank"
)

const (
	resultHit  = "hit"
	resultMiss = "miss"

	reasonRevoke = "revoke"
	reasonSweep  = "sweep"
	reasonClear  = "clear"
)

// Metrics counts cache traffic. A nil *Metrics is valid and records nothing.
type Metrics struct {
	requests  *prometheus.CounterVec
	evictions *prometheus.CounterVec
}

// NewMetrics creates the collectors. Call Register to expose them.
func NewMetrics() *Metrics {
	return &Metrics{
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: MetricCacheRequestsTotal,
				Help: "Game cache lookups by cache and result",
			},
			[]string{"cache", "result"},
		),
		evictions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: MetricCacheEvictionsTotal,
				Help: "Game cache entries removed by cache and reason",
			},
			[]string{"cache", "reason"},
		),
	}
}

func (m *Metrics) Register(reg prometheus.Registerer) error {
	for _, c := range []prometheus.Collector{m.requests, m.evictions} {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

func (m *Metrics) hit(cache string) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(cache, resultHit).Inc()
}

func (m *Metrics) miss(cache string) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(cache, resultMiss).Inc()
}

func (m *Metrics) evicted(cache, reason string, n int) {
	if m == nil || n == 0 {
		return
	}
	m.evictions.WithLabelValues(cache, reason).Add(float64(n))
}
