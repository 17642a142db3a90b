package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type DBMetrics struct {
	QueryDuration *prometheus.HistogramVec
}

type BusinessMetrics struct {
	DecisionsTotal    *prometheus.CounterVec
	LoansCreatedTotal prometheus.Counter
	CustomersTotal    prometheus.Counter
}

var (
	DB = DBMetrics{
		QueryDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "credit_engine_db_query_duration_seconds",
				Help:    "Histogram of database query latencies.",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
			},
			[]string{"query_name", "status"},
		),
	}

	Business = BusinessMetrics{
		DecisionsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "credit_engine_decisions_total",
				Help: "Total number of eligibility decisions by outcome.",
			},
			[]string{"outcome"},
		),
		LoansCreatedTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "credit_engine_loans_created_total",
				Help: "Total number of loans persisted after approval.",
			},
		),
		CustomersTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "credit_engine_customers_registered_total",
				Help: "Total number of customers successfully registered.",
			},
		),
	}
)

func RecordDBQuery(queryName, status string, duration time.Duration) {
	DB.QueryDuration.WithLabelValues(queryName, status).Observe(duration.Seconds())
}

// RecordDecision tracks decision outcomes: "approved", "rejected_score",
// "rejected_affordability".
func RecordDecision(outcome string) {
	Business.DecisionsTotal.WithLabelValues(outcome).Inc()
}

func RecordLoanCreated() {
	Business.LoansCreatedTotal.Inc()
}

func RecordCustomerRegistered() {
	Business.CustomersTotal.Inc()
}
