package scanner_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alejandrodnm/cardbot/internal/application/scanner"
	"github.com/alejandrodnm/cardbot/internal/domain"
)

// --- mocks ---

type mockStrategy struct {
	mu      sync.Mutex
	byTerm  map[string][]domain.Opportunity
	errs    map[string]error
	called  []string
	lastNow time.Time
}

func (m *mockStrategy) Analyze(_ context.Context, term string, now time.Time) ([]domain.Opportunity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.called = append(m.called, term)
	m.lastNow = now
	if err := m.errs[term]; err != nil {
		return nil, err
	}
	return m.byTerm[term], nil
}

type mockNotifier struct {
	notified *domain.BatchResult
	err      error
}

func (m *mockNotifier) Notify(_ context.Context, r domain.BatchResult) error {
	m.notified = &r
	return m.err
}

type mockExporter struct {
	exported int
	err      error
}

func (m *mockExporter) Export(_ context.Context, _ domain.BatchResult) error {
	m.exported++
	return m.err
}

// --- helpers ---

func opp(term string, discount float64, profit int64) domain.Opportunity {
	return domain.Opportunity{Term: term, DiscountPct: discount, PotentialProfit: decimal.NewFromInt(profit)}
}

func twoTermStrategy() *mockStrategy {
	return &mockStrategy{byTerm: map[string][]domain.Opportunity{
		"A": {opp("A", 40, 20), opp("A", 25, 10)},
		"B": nil,
	}}
}

// --- AnalyzeBatch ---

func TestAnalyzeBatch_SummaryOverUnion(t *testing.T) {
	s := scanner.New(scanner.Config{Workers: 1}, twoTermStrategy(), nil, nil, nil)

	result, err := s.AnalyzeBatch(context.Background(), []string{"A", "B"})
	require.NoError(t, err)

	assert.Len(t, result.ByTerm, 1)
	assert.Len(t, result.ByTerm["A"], 2)
	_, hasB := result.ByTerm["B"]
	assert.False(t, hasB, "términos sin oportunidades no aparecen")

	assert.Equal(t, 2, result.Summary.TotalDeals)
	assert.Equal(t, "30", result.Summary.TotalPotentialProfit.String())
	assert.Equal(t, "15", result.Summary.AvgPotentialProfit.String())
	assert.NotEmpty(t, result.RunID)
	assert.Empty(t, result.Failed)
}

func TestAnalyzeBatch_FailedTermDoesNotAbort(t *testing.T) {
	strat := twoTermStrategy()
	strat.errs = map[string]error{"C": errors.New("upstream 503")}
	s := scanner.New(scanner.Config{Workers: 1}, strat, nil, nil, nil)

	result, err := s.AnalyzeBatch(context.Background(), []string{"C", "A", "B"})
	require.NoError(t, err)

	assert.Equal(t, []string{"C"}, result.Failed)
	assert.Contains(t, result.ByTerm, "A")
	assert.NotContains(t, result.ByTerm, "C")
	assert.Equal(t, 2, result.Summary.TotalDeals)
}

func TestAnalyzeBatch_EmptyBatch(t *testing.T) {
	s := scanner.New(scanner.Config{}, &mockStrategy{}, nil, nil, nil)

	result, err := s.AnalyzeBatch(context.Background(), []string{"", "  "})
	require.NoError(t, err)
	assert.Empty(t, result.ByTerm)
	assert.Zero(t, result.Summary.TotalDeals)
	assert.True(t, result.Summary.AvgPotentialProfit.IsZero())
}

func TestAnalyzeBatch_DeduplicatesTerms(t *testing.T) {
	strat := twoTermStrategy()
	s := scanner.New(scanner.Config{Workers: 1}, strat, nil, nil, nil)

	_, err := s.AnalyzeBatch(context.Background(), []string{"A", " A ", "B"})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"A", "B"}, strat.called)
}

func TestAnalyzeBatch_ConcurrentMatchesSequential(t *testing.T) {
	strat := &mockStrategy{byTerm: map[string][]domain.Opportunity{}}
	terms := make([]string, 0, 20)
	for i := 0; i < 20; i++ {
		term := string(rune('a' + i))
		terms = append(terms, term)
		if i%3 == 0 {
			strat.byTerm[term] = []domain.Opportunity{opp(term, float64(20+i), int64(i+1))}
		}
	}

	seq, err := scanner.New(scanner.Config{Workers: 1}, strat, nil, nil, nil).AnalyzeBatch(context.Background(), terms)
	require.NoError(t, err)
	par, err := scanner.New(scanner.Config{Workers: 8}, strat, nil, nil, nil).AnalyzeBatch(context.Background(), terms)
	require.NoError(t, err)

	assert.Equal(t, seq.ByTerm, par.ByTerm)
	assert.Equal(t, seq.Summary, par.Summary)
}

func TestAnalyzeBatch_UsesInjectedClock(t *testing.T) {
	fixed := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	strat := twoTermStrategy()
	s := scanner.New(scanner.Config{Workers: 1, Now: func() time.Time { return fixed }}, strat, nil, nil, nil)

	_, err := s.AnalyzeBatch(context.Background(), []string{"A"})
	require.NoError(t, err)
	assert.Equal(t, fixed, strat.lastNow)
}

func TestAnalyzeBatch_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	strat := twoTermStrategy()
	result, err := scanner.New(scanner.Config{Workers: 1}, strat, nil, nil, nil).AnalyzeBatch(ctx, []string{"A", "B"})

	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, strat.called)
	assert.Empty(t, result.ByTerm)
}

func TestAnalyzeBatch_Metrics(t *testing.T) {
	strat := twoTermStrategy()
	strat.errs = map[string]error{"C": errors.New("boom")}
	m := scanner.NewMetrics()
	s := scanner.New(scanner.Config{Workers: 2}, strat, nil, nil, m)

	_, err := s.AnalyzeBatch(context.Background(), []string{"A", "B", "C"})
	require.NoError(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.TermsTotal.WithLabelValues("opportunities")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.TermsTotal.WithLabelValues("empty")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.TermsTotal.WithLabelValues("failed")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.OpportunitiesTotal))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.LastBatchDeals))
	assert.Equal(t, 30.0, testutil.ToFloat64(m.LastBatchProfit))
}

// --- Run ---

func TestRun_NotifiesAndExports(t *testing.T) {
	n := &mockNotifier{}
	e := &mockExporter{}
	s := scanner.New(scanner.Config{Workers: 1}, twoTermStrategy(), n, e, nil)

	result, err := s.Run(context.Background(), []string{"A", "B"})
	require.NoError(t, err)

	require.NotNil(t, n.notified)
	assert.Equal(t, result.RunID, n.notified.RunID)
	assert.Equal(t, 1, e.exported)
}

func TestRun_NotifierErrorIsNotFatal(t *testing.T) {
	n := &mockNotifier{err: errors.New("stdout closed")}
	e := &mockExporter{err: errors.New("disk full")}
	s := scanner.New(scanner.Config{Workers: 1}, twoTermStrategy(), n, e, nil)

	result, err := s.Run(context.Background(), []string{"A"})
	require.NoError(t, err)
	assert.Equal(t, 2, result.Summary.TotalDeals)
}
