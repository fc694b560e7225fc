package ebay_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/alejandrodnm/cardbot/internal/adapters/ebay"
	"github.com/alejandrodnm/cardbot/internal/adapters/httpclient"
	"github.com/alejandrodnm/cardbot/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2024, 5, 20, 12, 0, 0, 0, time.UTC)

func newTestClient(srv *httptest.Server, env string) *ebay.Client {
	return ebay.NewClient(ebay.Config{
		AppID:       "test-app",
		Environment: env,
		BaseURL:     srv.URL,
		HTTP:        httpclient.Options{MaxRetries: -1},
	}).WithClock(func() time.Time { return testNow })
}

func serveFixture(t *testing.T, name string, check func(r *http.Request)) *httptest.Server {
	t.Helper()
	data, err := os.ReadFile("../../../testdata/fixtures/" + name)
	require.NoError(t, err)
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if check != nil {
			check(r)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write(data)
	}))
}

func TestFetchSold_Success(t *testing.T) {
	srv := serveFixture(t, "ebay_completed_items.json", func(r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "findCompletedItems", q.Get("OPERATION-NAME"))
		assert.Equal(t, "test-app", q.Get("SECURITY-APPNAME"))
		assert.Equal(t, "JSON", q.Get("RESPONSE-DATA-FORMAT"))
		assert.Equal(t, "luka doncic prizm", q.Get("keywords"))
		assert.Equal(t, "212", q.Get("categoryId"))
		assert.Equal(t, "SoldItemsOnly", q.Get("itemFilter(0).name"))
		assert.Equal(t, "true", q.Get("itemFilter(0).value"))
	})
	defer srv.Close()

	client := newTestClient(srv, "sandbox")
	records, err := client.FetchSold(context.Background(), "luka doncic prizm", 30, domain.SearchFilters{CategoryID: "212"})

	require.NoError(t, err)
	require.Len(t, records, 2, "old sale dropped by cutoff and broken price skipped")

	r := records[0]
	assert.Equal(t, "110001", r.ItemID)
	assert.True(t, decimal.RequireFromString("96.5").Equal(r.Price), "sold price uses converted price")
	assert.True(t, decimal.RequireFromString("4.99").Equal(r.Shipping))
	assert.Equal(t, "Used", r.Condition)
	assert.Equal(t, "cardshop", r.Seller)
	assert.Equal(t, "FixedPrice", r.ListingType)
	assert.Equal(t, "https://i.ebayimg.com/thumbs/110001.jpg", r.ImageURL)
	assert.Equal(t, domain.SourceMarketplaceAPI, r.Source)
	require.NotNil(t, r.Timestamp)
	assert.True(t, time.Date(2024, 5, 18, 10, 0, 0, 0, time.UTC).Equal(*r.Timestamp))

	// endTime ilegible: se conserva sin timestamp
	assert.Equal(t, "110003", records[1].ItemID)
	assert.Nil(t, records[1].Timestamp)
	assert.True(t, decimal.RequireFromString("101.25").Equal(records[1].Price))
	assert.Equal(t, "Ungraded", records[1].Condition)
}

func TestFetchSold_NoCutoff(t *testing.T) {
	srv := serveFixture(t, "ebay_completed_items.json", nil)
	defer srv.Close()

	records, err := newTestClient(srv, "sandbox").FetchSold(context.Background(), "luka", 0, domain.SearchFilters{})

	require.NoError(t, err)
	assert.Len(t, records, 3)
}

func TestFetchActive_Success(t *testing.T) {
	lo := decimal.NewFromInt(10)
	hi := decimal.NewFromInt(500)
	srv := serveFixture(t, "ebay_active_items.json", func(r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "findItemsAdvanced", q.Get("OPERATION-NAME"))
		assert.Equal(t, "50", q.Get("paginationInput.entriesPerPage"))
		assert.Equal(t, "MinPrice", q.Get("itemFilter(0).name"))
		assert.Equal(t, "10", q.Get("itemFilter(0).value"))
		assert.Equal(t, "MaxPrice", q.Get("itemFilter(1).name"))
		assert.Equal(t, "500", q.Get("itemFilter(1).value"))
		assert.Equal(t, "Condition", q.Get("itemFilter(2).name"))
		assert.Equal(t, "3000", q.Get("itemFilter(2).value"))
		assert.Equal(t, "ListingType", q.Get("itemFilter(3).name"))
		assert.Equal(t, "Auction", q.Get("itemFilter(3).value"))
	})
	defer srv.Close()

	filters := domain.SearchFilters{
		MinPrice:    &lo,
		MaxPrice:    &hi,
		Condition:   "Used",
		ListingType: "auction",
		MaxResults:  50,
	}
	records, err := newTestClient(srv, "sandbox").FetchActive(context.Background(), "luka", filters)

	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.True(t, decimal.NewFromInt(60).Equal(records[0].Price), "active price uses current price")
	assert.Nil(t, records[0].Timestamp, "active listings carry no sale time")
	assert.Equal(t, "Not Specified", records[1].Condition)
	assert.True(t, records[1].Shipping.IsZero())
}

func TestFetchActive_EntriesCapped(t *testing.T) {
	srv := serveFixture(t, "ebay_active_items.json", func(r *http.Request) {
		assert.Equal(t, "100", r.URL.Query().Get("paginationInput.entriesPerPage"))
		assert.Empty(t, r.URL.Query().Get("itemFilter(0).name"), "all listing types sends no filter")
	})
	defer srv.Close()

	_, err := newTestClient(srv, "sandbox").FetchActive(context.Background(), "luka",
		domain.SearchFilters{MaxResults: 500, ListingType: "all"})
	require.NoError(t, err)
}

func TestFetchActive_APIError(t *testing.T) {
	srv := serveFixture(t, "ebay_error.json", nil)
	defer srv.Close()

	_, err := newTestClient(srv, "sandbox").FetchActive(context.Background(), "luka", domain.SearchFilters{})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "Invalid Application")
}

func TestFetchActive_EmptyResult(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"findItemsAdvancedResponse":[{"ack":["Success"],"searchResult":[{"@count":"0"}]}]}`))
	}))
	defer srv.Close()

	records, err := newTestClient(srv, "sandbox").FetchActive(context.Background(), "nothing", domain.SearchFilters{})

	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestFetchSold_ProductionServerErrorHint(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := newTestClient(srv, "production").FetchSold(context.Background(), "luka", 30, domain.SearchFilters{})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "pending activation")
	assert.Equal(t, "server", httpclient.ErrorTypeLabel(err))
}
