// Package statsclient calls the stats service over HTTP.
package statsclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"example.com/ewm/internal/datetime"
	"example.com/ewm/internal/logging"
	"example.com/ewm/internal/metrics"
	"example.com/ewm/internal/stats"
)

type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

func New(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 3 * time.Second
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
	}
}

// Hit posts one hit to POST /hit.
func (c *Client) Hit(ctx context.Context, h stats.Hit) error {
	resp, err := c.do(ctx, http.MethodPost, "/hit", h)
	if err == nil {
		err = decode(resp, nil)
	}
	metrics.RecordStatsCall("hit", err)
	if err != nil {
		return fmt.Errorf("post hit: %w", err)
	}
	return nil
}

// Stats queries GET /stats.
func (c *Client) Stats(ctx context.Context, start, end time.Time, uris []string, unique bool) ([]stats.ViewStats, error) {
	q := url.Values{}
	q.Set("start", datetime.Format(start))
	q.Set("end", datetime.Format(end))
	for _, u := range uris {
		q.Add("uris", u)
	}
	q.Set("unique", strconv.FormatBool(unique))

	var out []stats.ViewStats
	resp, err := c.do(ctx, http.MethodGet, "/stats?"+q.Encode(), nil)
	if err == nil {
		err = decode(resp, &out)
	}
	metrics.RecordStatsCall("stats", err)
	if err != nil {
		return nil, fmt.Errorf("get stats: %w", err)
	}
	return out, nil
}

func (c *Client) do(ctx context.Context, method, path string, body any) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request body: %w", err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}
	if id := logging.RequestID(ctx); id != "" {
		req.Header.Set(logging.RequestIDHeader, id)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	return resp, nil
}

// decode reads a JSON response into target, or discards it when target is
// nil. Statuses >= 400 become errors carrying the response body.
func decode(resp *http.Response, target any) error {
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		return fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}
	if target == nil {
		_, err := io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<20))
		return err
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, 8<<20)).Decode(target); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
