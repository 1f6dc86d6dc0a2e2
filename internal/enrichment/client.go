// Package enrichment queries a public Q&A search service for context related
// to an incident.
//
// Enrichment is strictly best-effort: the client retries across reformulated
// query variants when a search yields nothing, while a transport or service
// failure abandons the whole fetch. Failures never propagate to the caller;
// the analysis pipeline must keep working with an empty enrichment result.
package enrichment

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/incidentd/internal/config"
)

// fallbackQuery is the last-resort search used when neither the raw incident
// text nor its compacted variant produce results.
const fallbackQuery = "http 503 timeout database connection pool"

// queryTokens extracts lowercase word-ish tokens from a query.
var queryTokens = regexp.MustCompile(`[a-z0-9\-\+]+`)

// allowedTerms is the closed vocabulary kept by the compacted query variant.
// Raw incident text is usually too verbose for keyword search; keeping only
// infra/HTTP/DB terms produces far better hit rates.
var allowedTerms = map[string]bool{
	"http": true, "https": true,
	"503": true, "502": true, "504": true, "500": true,
	"timeout": true, "latency": true,
	"database": true, "db": true, "connection": true, "pool": true,
	"pod": true, "kubernetes": true,
	"kafka": true, "consumer": true,
	"cpu": true, "memory": true, "oom": true, "crashloopbackoff": true,
	"redis": true, "mysql": true, "postgres": true, "nginx": true,
	"api": true,
}

// Result is a single search hit.
type Result struct {
	Title      string   `json:"title"`
	Link       string   `json:"link"`
	Tags       []string `json:"tags"`
	IsAnswered bool     `json:"is_answered"`
	Score      int      `json:"score"`
}

// searchResponse is the wire format of the search API.
type searchResponse struct {
	Items []struct {
		Title      string   `json:"title"`
		Link       string   `json:"link"`
		Tags       []string `json:"tags"`
		IsAnswered bool     `json:"is_answered"`
		Score      int      `json:"score"`
	} `json:"items"`
	QuotaRemaining *int `json:"quota_remaining"`
}

// Client searches the StackExchange API for incident-related questions.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates an enrichment client from configuration.
func NewClient(cfg config.EnrichmentConfig, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://api.stackexchange.com/2.3"
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}

	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  cfg.APIKey.Value(),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

// QueryCandidates builds the ordered, deduplicated list of query variants
// tried by Search: the original query, a compacted variant keeping only
// allow-listed terms (first-appearance order), and a fixed fallback. Pure
// function; exposed for testing.
func QueryCandidates(query string) []string {
	tokens := queryTokens.FindAllString(strings.ToLower(query), -1)

	var compactTokens []string
	seen := map[string]bool{}
	for _, tok := range tokens {
		if allowedTerms[tok] && !seen[tok] {
			seen[tok] = true
			compactTokens = append(compactTokens, tok)
		}
	}
	compact := strings.Join(compactTokens, " ")

	candidates := []string{query}
	if compact != "" && compact != query {
		candidates = append(candidates, compact)
	}
	candidates = append(candidates, fallbackQuery)

	deduped := candidates[:0]
	seenQ := map[string]bool{}
	for _, c := range candidates {
		if !seenQ[c] {
			seenQ[c] = true
			deduped = append(deduped, c)
		}
	}
	return deduped
}

// Search queries the service for up to pagesize results, trying each query
// variant in order and stopping at the first that returns anything. The
// fallback chain covers query formulations only; a transport or service
// failure aborts the fetch. It never returns an error: the result is an
// empty slice, with warnings logged.
func (c *Client) Search(ctx context.Context, query string, pagesize int) []Result {
	if pagesize < 1 {
		pagesize = 1
	}
	if pagesize > 10 {
		pagesize = 10
	}

	candidates := QueryCandidates(query)

	var results []Result
	for attempt, candidate := range candidates {
		c.logger.Debug("enrichment query attempt",
			zap.Int("attempt", attempt+1),
			zap.String("query", candidate),
		)

		items, err := c.search(ctx, candidate, pagesize)
		if err != nil {
			c.logger.Warn("enrichment search failed",
				zap.Int("attempt", attempt+1),
				zap.Error(err),
			)
			break
		}

		results = items
		if len(results) > 0 {
			break
		}
	}

	c.logger.Info("enrichment completed",
		zap.Int("results", len(results)),
		zap.Int("attempts", len(candidates)),
	)

	return results
}

// search issues one search/advanced request for a single query formulation.
func (c *Client) search(ctx context.Context, query string, pagesize int) ([]Result, error) {
	params := url.Values{}
	params.Set("site", "stackoverflow")
	params.Set("q", query)
	params.Set("sort", "relevance")
	params.Set("order", "desc")
	params.Set("pagesize", strconv.Itoa(pagesize))
	params.Set("filter", "default")
	if c.apiKey != "" {
		params.Set("key", c.apiKey)
	}

	reqURL := c.baseURL + "/search/advanced?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search API error (%d)", resp.StatusCode)
	}

	var payload searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	if payload.QuotaRemaining != nil {
		c.logger.Debug("enrichment quota", zap.Int("quota_remaining", *payload.QuotaRemaining))
	}

	results := make([]Result, len(payload.Items))
	for i, item := range payload.Items {
		results[i] = Result{
			Title:      item.Title,
			Link:       item.Link,
			Tags:       item.Tags,
			IsAnswered: item.IsAnswered,
			Score:      item.Score,
		}
	}
	return results, nil
}
