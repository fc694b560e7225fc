package scanner

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Resultados posibles de un término.
const (
	outcomeOpportunities = "opportunities"
	outcomeEmpty         = "empty"
	outcomeFailed        = "failed"
)

// Metrics agrupa los collectors de Prometheus del orquestador.
type Metrics struct {
	Registry           *prometheus.Registry
	TermsTotal         *prometheus.CounterVec
	TermDuration       prometheus.Histogram
	OpportunitiesTotal prometheus.Counter
	BatchDuration      prometheus.Histogram
	LastBatchDeals     prometheus.Gauge
	LastBatchProfit    prometheus.Gauge
}

// NewMetrics crea y registra todas las métricas en un registry propio.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	terms := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cardbot_terms_analyzed_total",
			Help: "Search terms analyzed, by outcome.",
		},
		[]string{"outcome"},
	)
	termDuration := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "cardbot_term_duration_seconds",
			Help:    "Time spent fetching and analyzing a single search term.",
			Buckets: prometheus.DefBuckets,
		},
	)
	opportunities := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "cardbot_opportunities_total",
			Help: "Admitted opportunities across all batches.",
		},
	)
	batchDuration := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "cardbot_batch_duration_seconds",
			Help:    "Wall time of a full batch analysis.",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600},
		},
	)
	lastDeals := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "cardbot_last_batch_deals",
			Help: "Opportunities found in the most recent batch.",
		},
	)
	lastProfit := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "cardbot_last_batch_potential_profit",
			Help: "Total potential profit of the most recent batch.",
		},
	)

	registry.MustRegister(terms, termDuration, opportunities, batchDuration, lastDeals, lastProfit)

	return &Metrics{
		Registry:           registry,
		TermsTotal:         terms,
		TermDuration:       termDuration,
		OpportunitiesTotal: opportunities,
		BatchDuration:      batchDuration,
		LastBatchDeals:     lastDeals,
		LastBatchProfit:    lastProfit,
	}
}

// ObserveTerm registra la duración y el resultado de un término.
func (m *Metrics) ObserveTerm(d time.Duration, opportunities int, err error) {
	if m == nil {
		return
	}
	m.TermDuration.Observe(d.Seconds())
	switch {
	case err != nil:
		m.TermsTotal.WithLabelValues(outcomeFailed).Inc()
	case opportunities == 0:
		m.TermsTotal.WithLabelValues(outcomeEmpty).Inc()
	default:
		m.TermsTotal.WithLabelValues(outcomeOpportunities).Inc()
		m.OpportunitiesTotal.Add(float64(opportunities))
	}
}

// ObserveBatch registra la duración y el resumen de un lote.
func (m *Metrics) ObserveBatch(d time.Duration, deals int, profit float64) {
	if m == nil {
		return
	}
	m.BatchDuration.Observe(d.Seconds())
	m.LastBatchDeals.Set(float64(deals))
	m.LastBatchProfit.Set(profit)
}
