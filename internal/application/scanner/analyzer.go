package scanner

import (
	"context"
	"time"

	"github.com/alejandrodnm/cardbot/internal/domain"
)

// TermAnalyzer es el subconjunto de strategy.Strategy que usa el Analyzer.
type TermAnalyzer interface {
	Analyze(ctx context.Context, term string, now time.Time) ([]domain.Opportunity, error)
}

// Analyzer delega el análisis de cada término a una Strategy inyectada y
// registra cuánto tarda y cómo termina.
type Analyzer struct {
	strategy TermAnalyzer
	metrics  *Metrics
}

// NewAnalyzer crea un Analyzer que delega en la strategy dada. metrics puede ser nil.
func NewAnalyzer(s TermAnalyzer, metrics *Metrics) *Analyzer {
	return &Analyzer{strategy: s, metrics: metrics}
}

// Analyze analiza un término. Si el contexto ya está cancelado no llama a la strategy.
func (a *Analyzer) Analyze(ctx context.Context, term string, now time.Time) ([]domain.Opportunity, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	start := time.Now()
	opps, err := a.strategy.Analyze(ctx, term, now)
	a.metrics.ObserveTerm(time.Since(start), len(opps), err)
	return opps, err
}
