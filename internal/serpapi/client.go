// Package serpapi is a minimal client for the SerpAPI Google showtimes
// search. It returns the provider document untouched; interpreting the
// listing is left to the caller.
package serpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/iliyamo/showtime-matcher/internal/service"
)

// DefaultBaseURL is the public SerpAPI endpoint.
const DefaultBaseURL = "https://serpapi.com"

// maxBody caps how much of a response is read.
const maxBody = 8 << 20

// Client performs showtime searches against SerpAPI.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

// New returns a Client. An empty baseURL selects DefaultBaseURL; a nil
// httpClient gets a 15s timeout.
func New(baseURL, apiKey string, httpClient *http.Client) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &Client{baseURL: baseURL, apiKey: apiKey, http: httpClient}
}

// Search runs `<movie> showtimes` near location and returns the JSON
// document. Every failure wraps service.ErrProvider.
func (c *Client) Search(ctx context.Context, location, movie string) (json.RawMessage, error) {
	q := url.Values{}
	q.Set("q", movie+" showtimes")
	q.Set("location", location)
	q.Set("hl", "en")
	q.Set("gl", "us")
	q.Set("api_key", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/search?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %w", service.ErrProvider, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", service.ErrProvider, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %w", service.ErrProvider, err)
	}

	// SerpAPI reports failures as {"error": "..."}, with or without a 2xx.
	var probe struct {
		Error string `json:"error"`
	}
	decodeErr := json.Unmarshal(body, &probe)
	if decodeErr == nil && probe.Error != "" {
		return nil, fmt.Errorf("%w: %s", service.ErrProvider, probe.Error)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: unexpected status %d", service.ErrProvider, resp.StatusCode)
	}
	if decodeErr != nil {
		return nil, fmt.Errorf("%w: decode: %w", service.ErrProvider, decodeErr)
	}
	return json.RawMessage(body), nil
}
