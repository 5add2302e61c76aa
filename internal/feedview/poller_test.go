package feedview

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"nootboard/internal/domain"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// mutableSource lets a test swap the served collection between ticks.
type mutableSource struct {
	mu    sync.Mutex
	posts []domain.Post
	err   error
}

func (s *mutableSource) FetchPosts(ctx context.Context) ([]domain.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	out := make([]domain.Post, len(s.posts))
	copy(out, s.posts)
	return out, nil
}

func (s *mutableSource) set(posts []domain.Post) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.posts = posts
}

func textPost(id, username, date, content string) domain.Post {
	return domain.Post{ID: id, Type: domain.PostText, Content: content, UserID: 1, Username: username, Date: date}
}

func TestPoller_SortsNewestFirst(t *testing.T) {
	t.Parallel()

	src := &mutableSource{posts: []domain.Post{
		textPost("1", "alice", "2025-06-14T10:00:00Z", "old"),
		textPost("3", "bob", "2025-06-15T10:00:00Z", "new"),
		textPost("2", "carol", "2025-06-14T18:00:00Z", "middle"),
	}}
	p := NewPoller(src, []Container{{ID: "feed"}}, nil, discardLogger())
	p.Tick(context.Background())

	out := p.HTML("feed")
	require.Less(t, strings.Index(out, `data-id="3"`), strings.Index(out, `data-id="2"`))
	require.Less(t, strings.Index(out, `data-id="2"`), strings.Index(out, `data-id="1"`))
}

func TestPoller_StableOrderOnEqualDates(t *testing.T) {
	t.Parallel()

	src := &mutableSource{posts: []domain.Post{
		textPost("a", "alice", "2025-06-15T10:00:00Z", "first"),
		textPost("b", "bob", "2025-06-15T10:00:00Z", "second"),
	}}
	p := NewPoller(src, []Container{{ID: "feed"}}, nil, discardLogger())
	p.Tick(context.Background())

	out := p.HTML("feed")
	require.Less(t, strings.Index(out, `data-id="a"`), strings.Index(out, `data-id="b"`))
}

func TestPoller_SkipsRenderWhenUnchanged(t *testing.T) {
	t.Parallel()

	src := &mutableSource{posts: []domain.Post{
		textPost("1", "alice", "2025-06-15T10:00:00Z", "hello"),
	}}
	p := NewPoller(src, []Container{{ID: "feed"}}, nil, discardLogger())

	p.Tick(context.Background())
	first := p.HTML("feed")
	require.Equal(t, 1, p.Renders())

	p.Tick(context.Background())
	p.Tick(context.Background())
	require.Equal(t, 1, p.Renders(), "identical fetches must not rebuild")
	require.Equal(t, first, p.HTML("feed"))
}

func TestPoller_RebuildsOnChange(t *testing.T) {
	t.Parallel()

	src := &mutableSource{posts: []domain.Post{
		textPost("1", "alice", "2025-06-15T10:00:00Z", "hello"),
	}}
	p := NewPoller(src, []Container{{ID: "feed"}}, nil, discardLogger())
	p.Tick(context.Background())

	src.set([]domain.Post{
		textPost("1", "alice", "2025-06-15T10:00:00Z", "hello"),
		textPost("2", "bob", "2025-06-15T11:00:00Z", "world"),
	})
	p.Tick(context.Background())

	require.Equal(t, 2, p.Renders())
	require.Contains(t, p.HTML("feed"), `data-id="2"`)
}

func TestPoller_FetchFailureKeepsLastRender(t *testing.T) {
	t.Parallel()

	src := &mutableSource{posts: []domain.Post{
		textPost("1", "alice", "2025-06-15T10:00:00Z", "hello"),
	}}
	p := NewPoller(src, []Container{{ID: "feed"}}, nil, discardLogger())
	p.Tick(context.Background())
	before := p.HTML("feed")

	src.mu.Lock()
	src.err = errors.New("source down")
	src.mu.Unlock()
	p.Tick(context.Background())

	require.Equal(t, before, p.HTML("feed"))
	require.Equal(t, 1, p.Renders())
}

func TestPoller_ViewerGetsDeleteAffordance(t *testing.T) {
	t.Parallel()

	src := &mutableSource{posts: []domain.Post{
		textPost("1", "alice", "2025-06-15T10:00:00Z", "mine"),
		textPost("2", "bob", "2025-06-15T11:00:00Z", "theirs"),
	}}
	p := NewPoller(src, []Container{
		{ID: "public"},
		{ID: "admin-view", Viewer: "Admin"},
	}, []string{"admin"}, discardLogger())
	p.Tick(context.Background())

	require.NotContains(t, p.HTML("public"), "post-delete")
	// The admin viewer can delete every post.
	require.Equal(t, 2, strings.Count(p.HTML("admin-view"), "post-delete"))
}

func TestCanDelete(t *testing.T) {
	t.Parallel()

	admins := []string{"admin"}
	tests := []struct {
		name   string
		viewer string
		owner  string
		want   bool
	}{
		{"anonymous viewer", "", "alice", false},
		{"owner", "alice", "alice", true},
		{"owner case-insensitive", "Alice", "ALICE", true},
		{"admin over someone else's post", "Admin", "bob", true},
		{"stranger", "carol", "bob", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tt.want, CanDelete(tt.viewer, tt.owner, admins))
		})
	}
}

func TestRenderPost_TextContentInsertedVerbatim(t *testing.T) {
	t.Parallel()

	// Stored text content is already formatted HTML.
	src := &mutableSource{posts: []domain.Post{
		textPost("1", "alice", "2025-06-15T10:00:00Z",
			`see <a href="https://x.com" target="_blank">https://x.com</a>`),
	}}
	p := NewPoller(src, []Container{{ID: "feed"}}, nil, discardLogger())
	p.Tick(context.Background())

	require.Contains(t, p.HTML("feed"), `<a href="https://x.com" target="_blank">`)
}

func TestRenderPost_MediaWithCaption(t *testing.T) {
	t.Parallel()

	caption := "a <day> out"
	src := &mutableSource{posts: []domain.Post{
		{
			ID: "1", Type: domain.PostPhoto, Content: "https://cdn.example/p.jpg",
			Caption: &caption, UserID: 1, Username: "alice", Date: "2025-06-15T10:00:00Z",
		},
	}}
	p := NewPoller(src, []Container{{ID: "feed"}}, nil, discardLogger())
	p.Tick(context.Background())

	out := p.HTML("feed")
	require.Contains(t, out, `<img src="https://cdn.example/p.jpg"`)
	require.Contains(t, out, "a &lt;day&gt; out", "captions are escaped at render time")
}
