// Package catalog loads and indexes the reference list of known assets.
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"coinpulse/internal/models"
)

const DefaultBaseURL = "https://api.coingecko.com/api/v3"

// Catalog is loaded once at startup. Until the load completes (or if it
// fails) lookups miss and display names degrade to raw asset ids; nothing
// else blocks on it.
type Catalog struct {
	httpClient *http.Client
	baseURL    string

	mu      sync.RWMutex
	entries []models.CatalogEntry
	byID    map[string]models.CatalogEntry
}

func New(baseURL string) *Catalog {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Catalog{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    strings.TrimRight(baseURL, "/"),
		byID:       map[string]models.CatalogEntry{},
	}
}

// Load fetches the full asset list. Safe to call again on failure; the
// previous contents are replaced only on success.
func (c *Catalog) Load(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/coins/list", nil)
	if err != nil {
		return fmt.Errorf("create catalog request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("fetch catalog: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("catalog status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var entries []models.CatalogEntry
	if err := json.NewDecoder(resp.Body).Decode(&entries); err != nil {
		return fmt.Errorf("decode catalog: %w", err)
	}

	byID := make(map[string]models.CatalogEntry, len(entries))
	for _, e := range entries {
		byID[e.ID] = e
	}

	c.mu.Lock()
	c.entries = entries
	c.byID = byID
	c.mu.Unlock()
	return nil
}

func (c *Catalog) Lookup(id string) (models.CatalogEntry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.byID[id]
	return entry, ok
}

func (c *Catalog) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Search returns up to limit entries whose id, symbol or name contains the
// query, case-insensitively, in catalog order. Empty queries match nothing.
func (c *Catalog) Search(query string, limit int) []models.CatalogEntry {
	query = strings.ToLower(strings.TrimSpace(query))
	out := []models.CatalogEntry{}
	if query == "" || limit <= 0 {
		return out
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, e := range c.entries {
		if strings.Contains(strings.ToLower(e.ID), query) ||
			strings.Contains(strings.ToLower(e.Symbol), query) ||
			strings.Contains(strings.ToLower(e.Name), query) {
			out = append(out, e)
			if len(out) == limit {
				break
			}
		}
	}
	return out
}
