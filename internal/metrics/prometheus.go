package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsCollector owns a private registry so tests can build as many as they like.
type MetricsCollector struct {
	registry         *prometheus.Registry
	wagersPlaced     *prometheus.CounterVec
	wagersFailed     *prometheus.CounterVec
	wagerVolume      *prometheus.CounterVec
	payoutVolume     *prometheus.CounterVec
	wagerDuration    prometheus.Histogram
	redemptions      *prometheus.CounterVec
	bonusCredits     prometheus.Counter
	statsCacheLookup *prometheus.CounterVec
}

func NewMetricsCollector() *MetricsCollector {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &MetricsCollector{
		registry: registry,
		wagersPlaced: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "wagers_placed_total",
			Help: "Wagers settled, by game and result",
		}, []string{"game", "result"}),
		wagersFailed: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "wagers_failed_total",
			Help: "Wagers rejected before or during settlement, by reason",
		}, []string{"reason"}),
		wagerVolume: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "wager_volume_total",
			Help: "Sum of settled bet amounts in base units",
		}, []string{"game"}),
		payoutVolume: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "payout_volume_total",
			Help: "Sum of payouts credited in base units",
		}, []string{"game"}),
		wagerDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "wager_settlement_duration_seconds",
			Help:    "Time taken to settle a wager including the ledger commit",
			Buckets: prometheus.DefBuckets,
		}),
		redemptions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "redemptions_total",
			Help: "Redemption lifecycle events, by status",
		}, []string{"status"}),
		bonusCredits: factory.NewCounter(prometheus.CounterOpts{
			Name: "bonus_credits_total",
			Help: "Bonus and claim-code credits applied",
		}),
		statsCacheLookup: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "stats_cache_lookups_total",
			Help: "Stats cache lookups, by outcome",
		}, []string{"outcome"}),
	}
}

func (m *MetricsCollector) RecordWager(game, result string, bet, payout float64, duration time.Duration) {
	if m == nil {
		return
	}
	m.wagersPlaced.WithLabelValues(game, result).Inc()
	m.wagerVolume.WithLabelValues(game).Add(bet)
	m.payoutVolume.WithLabelValues(game).Add(payout)
	m.wagerDuration.Observe(duration.Seconds())
}

func (m *MetricsCollector) RecordWagerFailure(reason string) {
	if m == nil {
		return
	}
	m.wagersFailed.WithLabelValues(reason).Inc()
}

func (m *MetricsCollector) RecordRedemption(status string) {
	if m == nil {
		return
	}
	m.redemptions.WithLabelValues(status).Inc()
}

func (m *MetricsCollector) RecordBonusCredit() {
	if m == nil {
		return
	}
	m.bonusCredits.Inc()
}

func (m *MetricsCollector) RecordStatsCache(hit bool) {
	if m == nil {
		return
	}
	outcome := "miss"
	if hit {
		outcome = "hit"
	}
	m.statsCacheLookup.WithLabelValues(outcome).Inc()
}

func (m *MetricsCollector) GetHandler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
