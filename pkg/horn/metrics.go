package horn

import (
	"context"
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/cognicore/horn/pkg/horn/internalerr"
	"github.com/cognicore/horn/pkg/horn/kb"
)

// Metrics holds the engine's Prometheus collectors
type Metrics struct {
	queries          prometheus.Counter
	solutions        prometheus.Counter
	queryErrors      *prometheus.CounterVec
	clausesAsserted  prometheus.Counter
	clausesRetracted prometheus.Counter
	queryDuration    prometheus.Histogram
}

// newMetrics registers the collectors with reg. A nil reg gets a private
// registry so several engines can coexist in one process.
func newMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	f := promauto.With(reg)
	return &Metrics{
		queries: f.NewCounter(prometheus.CounterOpts{
			Name: "horn_queries_total",
			Help: "Total queries started",
		}),
		solutions: f.NewCounter(prometheus.CounterOpts{
			Name: "horn_solutions_total",
			Help: "Total solutions produced by queries",
		}),
		queryErrors: f.NewCounterVec(prometheus.CounterOpts{
			Name: "horn_query_errors_total",
			Help: "Total query errors by kind",
		}, []string{"kind"}),
		clausesAsserted: f.NewCounter(prometheus.CounterOpts{
			Name: "horn_clauses_asserted_total",
			Help: "Total clauses added to user-defined predicates",
		}),
		clausesRetracted: f.NewCounter(prometheus.CounterOpts{
			Name: "horn_clauses_retracted_total",
			Help: "Total clauses removed from user-defined predicates",
		}),
		queryDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "horn_query_duration_seconds",
			Help:    "Time from query start until it is exhausted, fails with an error or is closed",
			Buckets: prometheus.ExponentialBuckets(0.0001, 4, 10), // 0.1ms to ~26s
		}),
	}
}

func (m *Metrics) ClauseAsserted(kb.PredicateKey)  { m.clausesAsserted.Inc() }
func (m *Metrics) ClauseRetracted(kb.PredicateKey) { m.clausesRetracted.Inc() }

// errorKind labels err for horn_query_errors_total
func errorKind(err error) string {
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	case errors.Is(err, internalerr.ErrUnknownPredicate):
		return "unknown_predicate"
	case errors.Is(err, internalerr.ErrType):
		return "type"
	case errors.Is(err, internalerr.ErrMalformedClause):
		return "malformed_clause"
	case errors.Is(err, internalerr.ErrPermission):
		return "permission"
	case errors.Is(err, internalerr.ErrStoreUnavailable):
		return "store"
	}
	return "other"
}
