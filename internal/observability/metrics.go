package observability

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce              sync.Once
	httpDurationHistogram     *prometheus.HistogramVec
	balanceClampCounter       *prometheus.CounterVec
	integrityViolationCounter *prometheus.CounterVec
	importRowCounter          *prometheus.CounterVec
	loginCounter              *prometheus.CounterVec
	workerRunCounter          *prometheus.CounterVec
)

// Init registers all Prometheus collectors.
func Init() {
	registerOnce.Do(func() {
		httpDurationHistogram = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path", "status"})

		balanceClampCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ledger_balance_clamps_total",
			Help: "Times a user's total service hours would have gone negative and was clamped to zero",
		}, []string{"operation"})

		integrityViolationCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ledger_integrity_violations_total",
			Help: "Detected ledger integrity violations, such as records referencing missing users",
		}, []string{"kind"})

		importRowCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "import_rows_total",
			Help: "Spreadsheet import row outcomes",
		}, []string{"outcome"})

		loginCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "login_attempts_total",
			Help: "Login attempt outcomes",
		}, []string{"outcome"})

		workerRunCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "worker_runs_total",
			Help: "Background worker run outcomes",
		}, []string{"worker", "outcome"})

		prometheus.MustRegister(
			httpDurationHistogram,
			balanceClampCounter,
			integrityViolationCounter,
			importRowCounter,
			loginCounter,
			workerRunCounter,
		)
	})
}

func ObserveHTTP(method, path string, status int, duration time.Duration) {
	if httpDurationHistogram == nil {
		return
	}
	httpDurationHistogram.WithLabelValues(method, path, strconv.Itoa(status)).Observe(duration.Seconds())
}

func IncrementBalanceClamp(operation string) {
	if balanceClampCounter == nil {
		return
	}
	balanceClampCounter.WithLabelValues(operation).Inc()
}

func IncrementIntegrityViolation(kind string) {
	if integrityViolationCounter == nil {
		return
	}
	integrityViolationCounter.WithLabelValues(kind).Inc()
}

func IncrementImportRow(outcome string) {
	if importRowCounter == nil {
		return
	}
	importRowCounter.WithLabelValues(outcome).Inc()
}

func IncrementWorkerRun(worker, outcome string) {
	if workerRunCounter == nil {
		return
	}
	workerRunCounter.WithLabelValues(worker, outcome).Inc()
}

func IncrementLogin(outcome string) {
	if loginCounter == nil {
		return
	}
	loginCounter.WithLabelValues(outcome).Inc()
}
