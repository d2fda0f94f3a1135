package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Ledger metrics
	FullPaymentsRecorded prometheus.Counter
	PlansCreated         prometheus.Counter
	PaymentsRecorded     prometheus.Counter
	PlansCompleted       *prometheus.CounterVec
	InstallmentsAdded    prometheus.Counter
	OverpaymentsRejected prometheus.Counter
	PaymentAmount        prometheus.Histogram
	LedgerDuration       *prometheus.HistogramVec
	LedgerErrors         *prometheus.CounterVec

	// Trade metrics
	SalesCreated     *prometheus.CounterVec
	PurchasesCreated *prometheus.CounterVec
	StockRejections  prometheus.Counter

	// Outbox metrics
	EventsPublished *prometheus.CounterVec
	PublishErrors   prometheus.Counter

	// Cache metrics
	CacheLookups *prometheus.CounterVec

	// API metrics
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	// Authentication metrics
	AuthFailures *prometheus.CounterVec

	// Rate limiting metrics
	RateLimitHits *prometheus.CounterVec
}

// New creates all metrics on the default registry.
func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry creates and registers all metrics on reg.
func NewWithRegistry(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)

	return &Metrics{
		// Ledger metrics
		FullPaymentsRecorded: f.NewCounter(prometheus.CounterOpts{
			Name: "emart_full_payments_recorded_total",
			Help: "Total number of full payments recorded",
		}),
		PlansCreated: f.NewCounter(prometheus.CounterOpts{
			Name: "emart_installment_plans_created_total",
			Help: "Total number of installment plans created",
		}),
		PaymentsRecorded: f.NewCounter(prometheus.CounterOpts{
			Name: "emart_installment_payments_recorded_total",
			Help: "Total number of installment payments recorded",
		}),
		PlansCompleted: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "emart_installment_plans_completed_total",
				Help: "Installment plans paid off, by parent kind",
			},
			[]string{"parent"},
		),
		InstallmentsAdded: f.NewCounter(prometheus.CounterOpts{
			Name: "emart_installments_scheduled_total",
			Help: "Total number of installments scheduled",
		}),
		OverpaymentsRejected: f.NewCounter(prometheus.CounterOpts{
			Name: "emart_overpayments_rejected_total",
			Help: "Installment payments rejected for exceeding the remaining price",
		}),
		PaymentAmount: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "emart_payment_amount",
			Help:    "Installment payment amounts",
			Buckets: []float64{1000, 5000, 10000, 25000, 50000, 100000, 250000, 1000000},
		}),
		LedgerDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "emart_ledger_duration_seconds",
				Help:    "Duration of ledger operations",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		LedgerErrors: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "emart_ledger_errors_total",
				Help: "Ledger operation failures by operation and kind",
			},
			[]string{"operation", "kind"},
		),

		// Trade metrics
		SalesCreated: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "emart_sales_created_total",
				Help: "Total sales created by payment option",
			},
			[]string{"option"},
		),
		PurchasesCreated: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "emart_purchases_created_total",
				Help: "Total purchases created by payment option",
			},
			[]string{"option"},
		),
		StockRejections: f.NewCounter(prometheus.CounterOpts{
			Name: "emart_stock_rejections_total",
			Help: "Sales rejected for insufficient stock",
		}),

		// Outbox metrics
		EventsPublished: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "emart_events_published_total",
				Help: "Outbox events published by type",
			},
			[]string{"event_type"},
		),
		PublishErrors: f.NewCounter(prometheus.CounterOpts{
			Name: "emart_event_publish_errors_total",
			Help: "Outbox events that failed to publish",
		}),

		// Cache metrics
		CacheLookups: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "emart_cache_lookups_total",
				Help: "Dashboard cache lookups by result",
			},
			[]string{"result"},
		),

		// API metrics
		HTTPRequests: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "emart_http_requests_total",
				Help: "Total HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "emart_http_duration_seconds",
				Help:    "HTTP request duration",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),

		// Authentication metrics
		AuthFailures: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "emart_auth_failures_total",
				Help: "Total authentication failures",
			},
			[]string{"reason"},
		),

		// Rate limiting metrics
		RateLimitHits: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "emart_rate_limit_hits_total",
				Help: "Total rate limit hits",
			},
			[]string{"ip"},
		),
	}
}
