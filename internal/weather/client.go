// Package weather is a thin client for the external weather service.
package weather

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client implements domain.WeatherProvider against a wttr.in-style
// endpoint returning a one-line text report.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a weather client.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// Current returns the current conditions for a city as a short line.
func (c *Client) Current(ctx context.Context, city string) (string, error) {
	u := fmt.Sprintf("%s/%s?format=3", c.baseURL, url.PathEscape(city))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("weather lookup: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("weather lookup: status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1024))
	if err != nil {
		return "", fmt.Errorf("read weather response: %w", err)
	}

	report := strings.TrimSpace(string(data))
	if report == "" {
		return "", fmt.Errorf("empty weather response for %q", city)
	}
	return report, nil
}
