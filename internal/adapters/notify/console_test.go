package notify_test

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/alejandrodnm/cardbot/internal/adapters/notify"
	"github.com/alejandrodnm/cardbot/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeOpp(term, title string, price, value int64, discount float64) domain.Opportunity {
	p := decimal.NewFromInt(price)
	v := decimal.NewFromInt(value)
	return domain.Opportunity{
		Term: term,
		Listing: domain.ListingRecord{
			Title:  title,
			Price:  p,
			URL:    "https://www.ebay.com/itm/" + title,
			Source: domain.SourceMarketplaceAPI,
		},
		Stats:           domain.MarketValueStats{Value: v},
		ComparisonPrice: p,
		DiscountPct:     discount,
		PotentialProfit: v.Sub(p),
		ProfitMarginPct: v.Sub(p).Div(p).Mul(decimal.NewFromInt(100)).InexactFloat64(),
	}
}

func makeBatch() domain.BatchResult {
	byTerm := map[string][]domain.Opportunity{
		"luka prizm": {
			makeOpp("luka prizm", "Luka Doncic Prizm RC", 60, 100, 40),
			makeOpp("luka prizm", "Luka Doncic Prizm Silver", 80, 100, 20),
		},
		"jordan fleer": {
			makeOpp("jordan fleer", "1986 Fleer Michael Jordan", 700, 1000, 30),
		},
	}
	var all []domain.Opportunity
	for _, opps := range byTerm {
		all = append(all, opps...)
	}
	return domain.BatchResult{
		RunID:     "0f8fad5b-d9cb-469f-a165-70867728950e",
		StartedAt: time.Date(2024, 5, 20, 12, 0, 0, 0, time.UTC),
		Duration:  1500 * time.Millisecond,
		ByTerm:    byTerm,
		Failed:    []string{"broken term"},
		Summary:   domain.Summarize(all),
	}
}

func TestConsole_Notify_WithOpportunities(t *testing.T) {
	var buf bytes.Buffer
	n := notify.NewConsoleWriter(&buf)

	err := n.Notify(context.Background(), makeBatch())
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "3 opportunities across 2 terms")
	assert.Contains(t, out, "run 0f8fad5b")
	assert.Contains(t, out, "=== jordan fleer (1) ===")
	assert.Contains(t, out, "=== luka prizm (2) ===")
	assert.Contains(t, out, "Luka Doncic Prizm RC")
	assert.Contains(t, out, "$60.00")
	assert.Contains(t, out, "40.0%")
	assert.Contains(t, out, "failed terms: broken term")
	assert.Contains(t, out, "Deals:            3")
	assert.Contains(t, out, "$360.00", "total potential profit 40+20+300")
	assert.Contains(t, out, "https://www.ebay.com/itm/Luka Doncic Prizm RC")
}

func TestConsole_Notify_EmptyBatch(t *testing.T) {
	var buf bytes.Buffer
	n := notify.NewConsoleWriter(&buf)

	err := n.Notify(context.Background(), domain.BatchResult{
		StartedAt: time.Date(2024, 5, 20, 12, 0, 0, 0, time.UTC),
		ByTerm:    map[string][]domain.Opportunity{},
		Summary:   domain.Summarize(nil),
	})
	require.NoError(t, err)
	assert.Equal(t, "[12:00:00] no opportunities found\n", buf.String())
}

func TestConsole_Notify_EmptyWithFailures(t *testing.T) {
	var buf bytes.Buffer
	n := notify.NewConsoleWriter(&buf)

	err := n.Notify(context.Background(), domain.BatchResult{
		ByTerm:  map[string][]domain.Opportunity{},
		Failed:  []string{"a", "b"},
		Summary: domain.Summarize(nil),
	})
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "2 terms failed: a, b")
}

func TestConsole_Notify_TruncatesRows(t *testing.T) {
	var opps []domain.Opportunity
	for i := 0; i < 12; i++ {
		opps = append(opps, makeOpp("bulk", "Card", 50, 100, 50))
	}
	var buf bytes.Buffer
	n := notify.NewConsoleWriter(&buf)

	err := n.Notify(context.Background(), domain.BatchResult{
		ByTerm:  map[string][]domain.Opportunity{"bulk": opps},
		Summary: domain.Summarize(opps),
	})
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "... 2 more")
}
