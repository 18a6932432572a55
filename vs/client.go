// Package vs is the client for the external vector-store API. Search
// failures degrade to an empty result set so the chat pipeline always
// produces an answer, with or without context.
package vs

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/a-h/jsonapi"
	"github.com/lotl-ai/lotlchat/models"
)

const keyHeader = "X-LOT-KEY"

const (
	searchAttempts = 2
	retryPause     = 300 * time.Millisecond
)

func New(log *slog.Logger, baseURL, apiKey string, timeout time.Duration) *Client {
	return &Client{
		log:     log,
		baseURL: baseURL,
		apiKey:  apiKey,
		timeout: timeout,
	}
}

type Client struct {
	log     *slog.Logger
	baseURL string
	apiKey  string
	timeout time.Duration
}

// Search queries the vector store. It makes a fixed number of attempts with
// a constant pause between them, and returns an empty slice when all
// attempts fail or the store reports ok=false. It never returns an error.
func (c *Client) Search(ctx context.Context, query string, topK int, threshold float64, includeText bool, filters map[string]any) []models.SearchResult {
	url, err := jsonapi.URL(c.baseURL).Path("api", "vs", "search").String()
	if err != nil {
		c.log.Error("invalid vector store URL", slog.String("base", c.baseURL), slog.Any("error", err))
		return nil
	}
	if filters == nil {
		filters = map[string]any{}
	}
	req := models.SearchRequest{
		Query:       query,
		TopK:        topK,
		Threshold:   threshold,
		IncludeText: includeText,
		Filters:     filters,
	}

	var lastErr error
	for attempt := 0; attempt < searchAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				c.log.Error("search cancelled, continuing without context", slog.Any("error", ctx.Err()))
				return nil
			case <-time.After(retryPause):
			}
		}
		results, err := c.search(ctx, url, req)
		if err == nil {
			return results
		}
		lastErr = err
	}
	c.log.Error("search failed, continuing without context", slog.Any("error", lastErr))
	return nil
}

func (c *Client) search(ctx context.Context, url string, req models.SearchRequest) ([]models.SearchResult, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	var resp models.SearchResponse
	var err error
	if c.apiKey != "" {
		resp, err = jsonapi.Post[models.SearchRequest, models.SearchResponse](ctx, url, req, jsonapi.WithRequestHeader(keyHeader, c.apiKey))
	} else {
		resp, err = jsonapi.Post[models.SearchRequest, models.SearchResponse](ctx, url, req)
	}
	if err != nil {
		return nil, fmt.Errorf("search request failed: %w", err)
	}
	if !resp.OK {
		return nil, fmt.Errorf("vector store reported failure: %q", resp.Error)
	}
	return resp.Results, nil
}

// Index forwards a raw upload body to the vector store's ingestion endpoint.
// The body is opaque bytes; multipart structure is not validated here. The
// inbound headers are copied across and the store's API key replaces any
// caller-supplied one. The caller owns the returned response body.
func (c *Client) Index(ctx context.Context, header http.Header, body io.Reader) (*http.Response, error) {
	url, err := jsonapi.URL(c.baseURL).Path("api", "vs", "index").String()
	if err != nil {
		return nil, fmt.Errorf("invalid vector store URL: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create index request: %w", err)
	}
	for k, vs := range header {
		// The Host header belongs to the inbound request, not the upstream.
		if http.CanonicalHeaderKey(k) == "Host" {
			continue
		}
		req.Header[http.CanonicalHeaderKey(k)] = vs
	}
	if c.apiKey != "" {
		req.Header.Set(keyHeader, c.apiKey)
	}
	// The jsonapi middleware would replace the forwarded Content-Type with
	// application/json, losing the multipart boundary, so this request goes
	// through the plain HTTP client.
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("index request failed: %w", err)
	}
	return resp, nil
}
