package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "mtw_recovery"

const (
	ResultSuccess  = "success"
	ResultFailure  = "failure"
	ResultBusy     = "busy"
	ResultTimeout  = "timeout"
	ResultNoWallet = "no_wallet"
)

var (
	metricsOnce sync.Once

	handshakesTotal   *prometheus.CounterVec
	handshakeDuration *prometheus.HistogramVec
	walletsTotal      *prometheus.CounterVec
	recoveriesTotal   *prometheus.CounterVec
)

func ensureMetrics() {
	metricsOnce.Do(func() {
		handshakesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "handshake",
			Name:      "total",
			Help:      "Deeplink handshakes by request type and result",
		}, []string{"type", "result"})

		handshakeDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "handshake",
			Name:      "duration_seconds",
			Help:      "Time from launching a deeplink until the response was matched",
			Buckets:   prometheus.ExponentialBuckets(0.5, 2, 12),
		}, []string{"type"})

		walletsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "recovery",
			Name:      "wallets_total",
			Help:      "Wallet contracts processed by result",
		}, []string{"result"})

		recoveriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "recovery",
			Name:      "runs_total",
			Help:      "Recovery runs by result",
		}, []string{"result"})
	})
}

func ObserveHandshake(requestType string, result string, took time.Duration) {
	ensureMetrics()
	handshakesTotal.WithLabelValues(requestType, result).Inc()
	if result == ResultSuccess {
		handshakeDuration.WithLabelValues(requestType).Observe(took.Seconds())
	}
}

func IncWallet(result string) {
	ensureMetrics()
	walletsTotal.WithLabelValues(result).Inc()
}

func IncRecovery(result string) {
	ensureMetrics()
	recoveriesTotal.WithLabelValues(result).Inc()
}
