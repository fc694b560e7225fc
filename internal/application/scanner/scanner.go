package scanner

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/alejandrodnm/cardbot/internal/domain"
	"github.com/alejandrodnm/cardbot/internal/ports"
)

// Config contiene la configuración del orquestador.
type Config struct {
	Workers int              // goroutines por lote (1 = secuencial, <= 0 = NumCPU*2)
	Now     func() time.Time // reloj para la ponderación por recencia; nil = time.Now
}

// Scanner es el orquestador: analiza un lote de términos con la strategy
// inyectada y agrega los resultados.
type Scanner struct {
	cfg      Config
	analyzer *Analyzer
	notifier ports.Notifier
	exporter ports.Exporter
	metrics  *Metrics
}

// New crea un Scanner con todas las dependencias inyectadas.
// La strategy se elige desde fuera (cmd/) para respetar la inversión de dependencias.
// exporter y metrics pueden ser nil.
func New(
	cfg Config,
	strategy TermAnalyzer,
	notifier ports.Notifier,
	exporter ports.Exporter,
	metrics *Metrics,
) *Scanner {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Scanner{
		cfg:      cfg,
		analyzer: NewAnalyzer(strategy, metrics),
		notifier: notifier,
		exporter: exporter,
		metrics:  metrics,
	}
}

// Run analiza el lote y presenta/exporta el resultado.
// Los errores del notifier y del exporter se registran pero no invalidan el resultado.
func (s *Scanner) Run(ctx context.Context, terms []string) (domain.BatchResult, error) {
	result, err := s.AnalyzeBatch(ctx, terms)
	if err != nil {
		return result, err
	}

	if s.notifier != nil {
		if err := s.notifier.Notify(ctx, result); err != nil {
			slog.Warn("notifier error", "run_id", result.RunID, "err", err)
		}
	}
	if s.exporter != nil {
		if err := s.exporter.Export(ctx, result); err != nil {
			slog.Warn("exporter error", "run_id", result.RunID, "err", err)
		}
	}
	return result, nil
}

// AnalyzeBatch analiza cada término y construye el BatchResult.
//
// Un término que falla se registra, se anota en Failed y cuenta como "sin
// oportunidades"; nunca aborta el lote. Los términos sin oportunidades no
// aparecen en ByTerm. El único error devuelto es la cancelación del contexto.
func (s *Scanner) AnalyzeBatch(ctx context.Context, terms []string) (domain.BatchResult, error) {
	start := time.Now()
	result := domain.BatchResult{
		RunID:     uuid.NewString(),
		StartedAt: start.UTC(),
		ByTerm:    make(map[string][]domain.Opportunity),
	}
	log := slog.With("run_id", result.RunID)

	terms = normalizeTerms(terms)
	log.Info("batch starting", "terms", len(terms), "workers", s.cfg.Workers)

	var all []domain.Opportunity
	for _, r := range analyzeTermsConcurrent(ctx, s.analyzer, terms, s.cfg.Workers, s.cfg.Now()) {
		if r.err != nil {
			log.Warn("term analysis failed", "term", r.term, "err", r.err)
			result.Failed = append(result.Failed, r.term)
			continue
		}
		if len(r.opps) == 0 {
			log.Debug("no opportunities", "term", r.term)
			continue
		}
		result.ByTerm[r.term] = r.opps
		all = append(all, r.opps...)
	}
	sort.Strings(result.Failed)

	result.Summary = domain.Summarize(all)
	result.Duration = time.Since(start)
	s.metrics.ObserveBatch(result.Duration, result.Summary.TotalDeals, result.Summary.TotalPotentialProfit.InexactFloat64())

	if err := ctx.Err(); err != nil {
		return result, fmt.Errorf("scanner.AnalyzeBatch: %w", err)
	}

	log.Info("batch complete",
		"terms_with_deals", len(result.ByTerm),
		"failed", len(result.Failed),
		"deals", result.Summary.TotalDeals,
		"total_profit", result.Summary.TotalPotentialProfit.StringFixed(2),
		"duration", result.Duration.Round(time.Millisecond),
	)
	return result, nil
}

// normalizeTerms quita espacios, vacíos y duplicados manteniendo el orden.
func normalizeTerms(terms []string) []string {
	seen := make(map[string]struct{}, len(terms))
	out := make([]string, 0, len(terms))
	for _, t := range terms {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}
