package strategy_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alejandrodnm/cardbot/internal/domain"
	"github.com/alejandrodnm/cardbot/internal/strategy"
)

// --- mocks ---

type mockSold struct {
	records  []domain.ListingRecord
	err      error
	daysBack int
}

func (m *mockSold) FetchSold(_ context.Context, _ string, daysBack int, _ domain.SearchFilters) ([]domain.ListingRecord, error) {
	m.daysBack = daysBack
	return m.records, m.err
}

type mockActive struct {
	mu      sync.Mutex
	records []domain.ListingRecord
	err     error
	filters domain.SearchFilters
	calls   int
}

func (m *mockActive) FetchActive(_ context.Context, _ string, f domain.SearchFilters) ([]domain.ListingRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.filters = f
	m.calls++
	return m.records, m.err
}

type mockCatalog struct {
	entries []domain.CatalogEntry
	err     error
	query   string
	limit   int
}

func (m *mockCatalog) SearchCatalog(_ context.Context, query string, limit int) ([]domain.CatalogEntry, error) {
	m.query = query
	m.limit = limit
	return m.entries, m.err
}

// --- helpers ---

var now = time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func listing(id, title, price string) domain.ListingRecord {
	return domain.ListingRecord{ItemID: id, Title: title, Price: d(price), Source: domain.SourceMarketplaceAPI}
}

func comps(prices ...string) []domain.ListingRecord {
	out := make([]domain.ListingRecord, len(prices))
	for i, p := range prices {
		out[i] = listing("s", "sold", p)
	}
	return out
}

// --- Registry ---

func TestRegistry(t *testing.T) {
	r := strategy.NewRegistry()
	r.Register(strategy.NewCatalog(&mockCatalog{}, strategy.CatalogConfig{}))

	s, ok := r.Get(strategy.KindCatalog)
	require.True(t, ok)
	assert.Equal(t, strategy.KindCatalog, s.Kind())

	_, ok = r.Get(strategy.KindMarketplace)
	assert.False(t, ok)
}

func TestParseKind(t *testing.T) {
	k, err := strategy.ParseKind(" Cross-Source ")
	require.NoError(t, err)
	assert.Equal(t, strategy.KindCrossSource, k)

	_, err = strategy.ParseKind("auction")
	assert.Error(t, err)
}

func TestBuildQuery(t *testing.T) {
	q := strategy.BuildQuery(" jordan ", strategy.QueryHints{Year: "1986", Set: "Fleer", Sport: "basketball"})
	assert.Equal(t, "jordan 1986 Fleer basketball", q)
	assert.Empty(t, strategy.BuildQuery("", strategy.QueryHints{}))
}

// --- Marketplace ---

func TestMarketplace_Analyze(t *testing.T) {
	sold := &mockSold{records: comps("90", "95", "100", "105", "110")}
	active := &mockActive{records: []domain.ListingRecord{listing("cheap", "Jordan", "75"), listing("fair", "Jordan", "90")}}

	s := strategy.NewMarketplace(sold, active, strategy.MarketplaceConfig{
		Params:   domain.DefaultAnalysisParams(),
		SoldDays: 45,
	})
	opps, err := s.Analyze(context.Background(), "jordan", now)

	require.NoError(t, err)
	require.Len(t, opps, 1)
	assert.Equal(t, "cheap", opps[0].Listing.ItemID)
	assert.Equal(t, "jordan", opps[0].Term)
	assert.Equal(t, 25.0, opps[0].DiscountPct)
	assert.Equal(t, 45, sold.daysBack)
}

func TestMarketplace_FetchError(t *testing.T) {
	s := strategy.NewMarketplace(
		&mockSold{err: errors.New("boom")},
		&mockActive{},
		strategy.MarketplaceConfig{Params: domain.DefaultAnalysisParams(), SoldDays: 30},
	)
	_, err := s.Analyze(context.Background(), "jordan", now)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fetch sold")
}

func TestMarketplace_InsufficientComps(t *testing.T) {
	s := strategy.NewMarketplace(
		&mockSold{records: comps("100", "100", "100")},
		&mockActive{records: []domain.ListingRecord{listing("a", "x", "1")}},
		strategy.MarketplaceConfig{Params: domain.DefaultAnalysisParams(), SoldDays: 30},
	)
	opps, err := s.Analyze(context.Background(), "jordan", now)
	require.NoError(t, err)
	assert.Empty(t, opps)
}

// --- Catalog ---

func TestCatalog_Analyze(t *testing.T) {
	cat := &mockCatalog{entries: []domain.CatalogEntry{
		{ID: "deal", Title: "Luka Doncic #280", Prices: map[domain.GradeTier]decimal.Decimal{
			domain.TierUngraded: d("40"), domain.TierPSA10: d("400"),
		}},
		{ID: "flat", Title: "Common", Prices: map[domain.GradeTier]decimal.Decimal{
			domain.TierUngraded: d("1"),
		}},
		{ID: "nograded", Title: "No prices"},
	}}

	s := strategy.NewCatalog(cat, strategy.CatalogConfig{
		Params: domain.DefaultAnalysisParams(),
		Policy: domain.MaxTierPolicy,
		Hints:  strategy.QueryHints{Year: "2018"},
		Limit:  20,
	})
	opps, err := s.Analyze(context.Background(), "luka prizm", now)

	require.NoError(t, err)
	require.Len(t, opps, 1)
	o := opps[0]
	assert.Equal(t, "luka prizm 2018", cat.query)
	assert.Equal(t, 20, cat.limit)
	assert.Equal(t, "deal", o.Listing.ItemID)
	assert.Equal(t, domain.SourceCatalogAPI, o.Listing.Source)
	assert.Equal(t, "400", o.MarketValue().String())
	assert.Equal(t, 90.0, o.DiscountPct)
	assert.Equal(t, "360", o.PotentialProfit.String())
	assert.Zero(t, o.Stats.SampleSize)
}

func TestCatalog_SpecificTier(t *testing.T) {
	cat := &mockCatalog{entries: []domain.CatalogEntry{
		{ID: "a", Prices: map[domain.GradeTier]decimal.Decimal{
			domain.TierUngraded: d("40"), domain.TierGraded9: d("45"), domain.TierPSA10: d("400"),
		}},
	}}
	s := strategy.NewCatalog(cat, strategy.CatalogConfig{
		Params: domain.DefaultAnalysisParams(),
		Policy: domain.TierPolicy{Tier: domain.TierGraded9},
	})

	opps, err := s.Analyze(context.Background(), "x", now)
	require.NoError(t, err)
	assert.Empty(t, opps, "40 frente a 45 es solo un 11% de descuento")
}

func TestCatalog_Error(t *testing.T) {
	s := strategy.NewCatalog(&mockCatalog{err: errors.New("401")}, strategy.CatalogConfig{Params: domain.DefaultAnalysisParams()})
	_, err := s.Analyze(context.Background(), "x", now)
	assert.Error(t, err)
}

// --- CrossSource ---

func TestCrossSource_Analyze(t *testing.T) {
	cat := &mockCatalog{entries: []domain.CatalogEntry{
		{ID: "luka", Player: "Luka Doncic", Set: "Panini Prizm", Year: "2018", Prices: map[domain.GradeTier]decimal.Decimal{
			domain.TierUngraded: d("100"),
		}},
	}}
	scraped := &mockActive{records: []domain.ListingRecord{
		{ItemID: "1", Title: "2018 Panini Prizm Luka Doncic RC", Price: d("55"), Shipping: d("5"), Source: domain.SourceMarketplaceScrape},
		{ItemID: "2", Title: "Luka Doncic Funko Pop", Price: d("10"), Source: domain.SourceMarketplaceScrape},
	}}

	s := strategy.NewCrossSource(cat, scraped, strategy.CrossSourceConfig{
		Params:       domain.DefaultAnalysisParams(),
		Policy:       domain.MaxTierPolicy,
		Vocabulary:   domain.DefaultMatchVocabulary(),
		CatalogLimit: 10,
		ListingLimit: 30,
	})
	opps, err := s.Analyze(context.Background(), "luka prizm", now)

	require.NoError(t, err)
	require.Len(t, opps, 1)
	assert.Equal(t, "1", opps[0].Listing.ItemID)
	assert.Equal(t, "60", opps[0].ComparisonPrice.String())
	assert.Equal(t, 40.0, opps[0].DiscountPct)
	assert.Equal(t, "luka prizm", opps[0].Term)
	require.NotNil(t, opps[0].Match)
	assert.Equal(t, 10, cat.limit)
	assert.Equal(t, 30, scraped.filters.MaxResults)
}

func TestCrossSource_EmptyCatalogSkipsScrape(t *testing.T) {
	scraped := &mockActive{}
	s := strategy.NewCrossSource(&mockCatalog{}, scraped, strategy.CrossSourceConfig{Params: domain.DefaultAnalysisParams()})

	opps, err := s.Analyze(context.Background(), "x", now)
	require.NoError(t, err)
	assert.Empty(t, opps)
	assert.Zero(t, scraped.calls)
}

func TestCrossSource_ScrapeError(t *testing.T) {
	cat := &mockCatalog{entries: []domain.CatalogEntry{{ID: "a"}}}
	s := strategy.NewCrossSource(cat, &mockActive{err: errors.New("403")}, strategy.CrossSourceConfig{Params: domain.DefaultAnalysisParams()})

	_, err := s.Analyze(context.Background(), "x", now)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fetch listings")
}
