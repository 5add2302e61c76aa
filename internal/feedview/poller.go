// Package feedview keeps fully rendered feed pages hot by polling the
// post collection on a fixed tick and rebuilding every registered
// container only when the fetched data actually changed.
package feedview

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"nootboard/internal/domain"
)

// DefaultPollInterval is how often the poller re-fetches the collection.
const DefaultPollInterval = time.Second

// Source supplies the current post collection.
type Source interface {
	FetchPosts(ctx context.Context) ([]domain.Post, error)
}

// SourceFunc adapts a function to the Source interface.
type SourceFunc func(ctx context.Context) ([]domain.Post, error)

func (f SourceFunc) FetchPosts(ctx context.Context) ([]domain.Post, error) { return f(ctx) }

// Container is a render target. Viewer, when set, is the identity used
// for the advisory delete affordance on that page variant.
type Container struct {
	ID     string
	Viewer string
}

// Poller fetches, diff-checks and re-renders. One poller drives all
// container variants; ticks run on a single goroutine so a render is
// never interleaved with the next fetch.
type Poller struct {
	source     Source
	containers []Container
	admins     []string
	logger     *slog.Logger

	mu       sync.RWMutex
	rendered map[string]string
	snapshot []byte
	renders  int
}

// NewPoller creates a Poller for the given containers.
func NewPoller(src Source, containers []Container, admins []string, logger *slog.Logger) *Poller {
	rendered := make(map[string]string, len(containers))
	for _, c := range containers {
		rendered[c.ID] = ""
	}
	return &Poller{
		source:     src,
		containers: containers,
		admins:     admins,
		logger:     logger,
		rendered:   rendered,
	}
}

// Run polls on the given interval until ctx is cancelled. It runs one
// tick immediately on start.
func (p *Poller) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	p.Tick(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.Tick(ctx)
		}
	}
}

// Tick runs one fetch-compare-render cycle. Exported so tests and the
// HTTP layer can force a refresh.
func (p *Poller) Tick(ctx context.Context) {
	posts, err := p.source.FetchPosts(ctx)
	if err != nil {
		p.logger.Error("feed fetch failed", "error", err)
		return
	}

	sorted := sortPosts(posts)
	snapshot, err := json.Marshal(sorted)
	if err != nil {
		p.logger.Error("feed snapshot encode failed", "error", err)
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if bytes.Equal(snapshot, p.snapshot) {
		return
	}
	p.snapshot = snapshot
	p.renders++
	for _, c := range p.containers {
		p.rendered[c.ID] = renderContainer(sorted, c, p.admins)
	}
}

// HTML returns the current markup for a container.
func (p *Poller) HTML(containerID string) string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.rendered[containerID]
}

// Renders reports how many times the containers were rebuilt.
func (p *Poller) Renders() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.renders
}

// sortPosts orders by date descending; equal timestamps keep their
// original collection order.
func sortPosts(posts []domain.Post) []domain.Post {
	sorted := make([]domain.Post, len(posts))
	copy(sorted, posts)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Date > sorted[j].Date
	})
	return sorted
}

// renderContainer clears and fully rebuilds a container's markup from the
// sorted sequence. No partial diffing.
func renderContainer(posts []domain.Post, c Container, admins []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, `<div id="%s">`, c.ID)
	for _, post := range posts {
		renderPost(&b, post, c.Viewer, admins)
	}
	b.WriteString(`</div>`)
	return b.String()
}
