package feedview

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"nootboard/internal/domain"
)

// HTTPSource fetches the post collection over the JSON API, the same way
// the browser page does.
type HTTPSource struct {
	url        string
	httpClient *http.Client
}

// NewHTTPSource creates a source polling the given /api/posts URL.
func NewHTTPSource(url string) *HTTPSource {
	return &HTTPSource{
		url: url,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// FetchPosts implements Source.
func (s *HTTPSource) FetchPosts(ctx context.Context) ([]domain.Post, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch posts: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch posts: status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read posts: %w", err)
	}

	var posts []domain.Post
	if err := json.Unmarshal(data, &posts); err != nil {
		return nil, fmt.Errorf("decode posts: %w", err)
	}
	return posts, nil
}
