package market

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestFetchQuotesParsesConsolidatedResponse(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/simple/price" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		gotQuery = r.URL.RawQuery
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"bitcoin": {"usd": 30000, "usd_24h_change": 5.25},
			"ethereum": {"usd": 1500}
		}`))
	}))
	defer srv.Close()

	p := NewProvider(srv.URL, "")
	quotes, err := p.FetchQuotes(context.Background(), []string{"bitcoin", "ethereum", "missing"})
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}

	if !strings.Contains(gotQuery, "vs_currencies=usd") || !strings.Contains(gotQuery, "include_24hr_change=true") {
		t.Errorf("unexpected query: %q", gotQuery)
	}

	btc, ok := quotes["bitcoin"]
	if !ok || btc.Price != 30000 {
		t.Fatalf("bitcoin quote missing or wrong: %+v", quotes)
	}
	if btc.Change24h == nil || *btc.Change24h != 5.25 {
		t.Errorf("bitcoin 24h change = %v, want 5.25", btc.Change24h)
	}

	eth := quotes["ethereum"]
	if eth.Price != 1500 {
		t.Errorf("ethereum price = %g, want 1500", eth.Price)
	}
	if eth.Change24h != nil {
		t.Errorf("ethereum change should be unknown, got %v", *eth.Change24h)
	}

	// Ids absent from the response stay unknown, never fabricated as zero.
	if _, ok := quotes["missing"]; ok {
		t.Errorf("missing id fabricated into snapshot")
	}
}

func TestFetchQuotesEmptyIDList(t *testing.T) {
	p := NewProvider("http://127.0.0.1:0", "")
	quotes, err := p.FetchQuotes(context.Background(), nil)
	if err != nil {
		t.Fatalf("empty id list must not hit the network: %v", err)
	}
	if len(quotes) != 0 {
		t.Fatalf("expected empty snapshot, got %+v", quotes)
	}
}

func TestFetchQuotesErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	p := NewProvider(srv.URL, "")
	if _, err := p.FetchQuotes(context.Background(), []string{"bitcoin"}); err == nil {
		t.Fatalf("expected error on non-200 status")
	}
}

func TestFetchQuotesSendsAPIKeyHeader(t *testing.T) {
	var gotKey string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("x-cg-demo-api-key")
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	p := NewProvider(srv.URL, "secret")
	if _, err := p.FetchQuotes(context.Background(), []string{"bitcoin"}); err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if gotKey != "secret" {
		t.Fatalf("api key header = %q, want secret", gotKey)
	}
}
