package market

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"coinpulse/internal/models"
)

const DefaultBaseURL = "https://api.coingecko.com/api/v3"

// Provider fetches one consolidated quote snapshot from CoinGecko. It is
// stateless; the tracker owns the current snapshot and replaces it
// wholesale on every successful fetch.
type Provider struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

func NewProvider(baseURL, apiKey string) *Provider {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Provider{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
	}
}

// FetchQuotes requests current USD price and 24h change for all ids in a
// single call. Ids missing from the response are simply absent from the
// result (unknown price, never fabricated as zero). On any error the
// previous snapshot is untouched because no partial result is returned.
func (p *Provider) FetchQuotes(ctx context.Context, ids []string) (map[string]models.Quote, error) {
	if len(ids) == 0 {
		return map[string]models.Quote{}, nil
	}

	values := url.Values{}
	values.Set("ids", strings.Join(ids, ","))
	values.Set("vs_currencies", "usd")
	values.Set("include_24hr_change", "true")
	endpoint := p.baseURL + "/simple/price?" + values.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("create price request: %w", err)
	}
	if p.apiKey != "" {
		req.Header.Set("x-cg-demo-api-key", p.apiKey)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch prices: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("price source status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	// {"bitcoin": {"usd": 30000, "usd_24h_change": 5.1}, ...}
	var payload map[string]map[string]float64
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode prices: %w", err)
	}

	quotes := make(map[string]models.Quote, len(payload))
	for _, id := range ids {
		entry, ok := payload[id]
		if !ok {
			continue
		}
		price, ok := entry["usd"]
		if !ok {
			continue
		}
		q := models.Quote{Price: price}
		if change, ok := entry["usd_24h_change"]; ok {
			c := change
			q.Change24h = &c
		}
		quotes[id] = q
	}
	return quotes, nil
}
