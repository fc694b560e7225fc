package scanner

import (
	"context"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"github.com/alejandrodnm/cardbot/internal/domain"
)

// termResult es el resultado de analizar un término.
type termResult struct {
	term string
	opps []domain.Opportunity
	err  error
}

// analyzeTermsConcurrent analiza los términos con un worker pool.
// Los términos no comparten estado, así que el orden de llegada de los
// resultados no importa. Con workers == 1 el análisis es secuencial.
//
// Si workers <= 0 usa runtime.NumCPU() × 2.
func analyzeTermsConcurrent(
	ctx context.Context,
	analyzer *Analyzer,
	terms []string,
	workers int,
	now time.Time,
) []termResult {
	if workers <= 0 {
		workers = runtime.NumCPU() * 2
	}
	if workers > len(terms) {
		workers = len(terms)
	}

	workCh := make(chan string, len(terms))
	resultCh := make(chan termResult, len(terms))

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for term := range workCh {
				opps, err := analyzer.Analyze(ctx, term, now)
				resultCh <- termResult{term: term, opps: opps, err: err}
			}
		}()
	}

	for _, term := range terms {
		workCh <- term
	}
	close(workCh)

	go func() {
		wg.Wait()
		close(resultCh)
	}()

	results := make([]termResult, 0, len(terms))
	for r := range resultCh {
		results = append(results, r)
	}

	slog.Debug("concurrent analysis complete",
		"terms", len(terms),
		"workers", workers,
	)
	return results
}
