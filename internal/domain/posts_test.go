package domain

import (
	"context"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func newPostService(store *memStore, resolver MediaResolver) *PostService {
	svc := NewPostService(store, resolver, PostServiceConfig{
		Admins: []string{"Admin"},
	}, testLogger())
	return svc.WithClock(func() time.Time {
		return time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	})
}

func TestCreatePost_Text(t *testing.T) {
	t.Parallel()

	store := &memStore{}
	svc := newPostService(store, &fakeResolver{})

	post, err := svc.CreatePost(context.Background(), Draft{
		Type:     PostText,
		Text:     "hello https://x.com",
		UserID:   7,
		Username: "Alice",
	})
	require.NoError(t, err)

	require.Equal(t, PostText, post.Type)
	require.Equal(t, "alice", post.Username)
	require.Equal(t, "2025-06-15T12:00:00Z", post.Date)
	require.NotEmpty(t, post.ID)
	require.Nil(t, post.Caption)
	require.Contains(t, post.Content, `<a href="https://x.com" target="_blank">https://x.com</a>`)

	stored, err := store.ListPosts(context.Background())
	require.NoError(t, err)
	require.Len(t, stored, 1)
	require.Equal(t, post, stored[0])
}

func TestCreatePost_TextTooLong(t *testing.T) {
	t.Parallel()

	store := &memStore{}
	svc := newPostService(store, &fakeResolver{})

	_, err := svc.CreatePost(context.Background(), Draft{
		Type:     PostText,
		Text:     strings.Repeat("a", DefaultMaxTextLen+1),
		UserID:   7,
		Username: "alice",
	})
	require.ErrorIs(t, err, ErrTextTooLong)
	require.Empty(t, store.posts)
}

func TestCreatePost_MediaResolved(t *testing.T) {
	t.Parallel()

	store := &memStore{}
	svc := newPostService(store, &fakeResolver{url: "https://cdn.example/photo.jpg"})

	post, err := svc.CreatePost(context.Background(), Draft{
		Type:     PostPhoto,
		MediaRef: "file-123",
		Caption:  "sunset",
		UserID:   7,
		Username: "alice",
	})
	require.NoError(t, err)
	require.Equal(t, "https://cdn.example/photo.jpg", post.Content)
	require.NotNil(t, post.Caption)
	require.Equal(t, "sunset", *post.Caption)
}

func TestCreatePost_MediaFallbackSentinel(t *testing.T) {
	t.Parallel()

	store := &memStore{}
	svc := newPostService(store, &fakeResolver{err: errResolveDown})

	post, err := svc.CreatePost(context.Background(), Draft{
		Type:     PostVideo,
		MediaRef: "file-456",
		UserID:   7,
		Username: "alice",
	})
	require.NoError(t, err, "resolution failure must not drop the post")
	require.Equal(t, SentinelScheme+"file-456", post.Content)
	require.Len(t, store.posts, 1)
}

func TestCreatePost_OverlongCaptionDropped(t *testing.T) {
	t.Parallel()

	store := &memStore{}
	svc := newPostService(store, &fakeResolver{url: "https://cdn.example/a.jpg"})

	post, err := svc.CreatePost(context.Background(), Draft{
		Type:     PostPhoto,
		MediaRef: "file-789",
		Caption:  strings.Repeat("c", DefaultMaxCaptionLen+1),
		UserID:   7,
		Username: "alice",
	})
	require.NoError(t, err, "overlong caption is dropped, not rejected")
	require.Nil(t, post.Caption)
}

func TestCreatePost_UniqueIDsForSameInstant(t *testing.T) {
	t.Parallel()

	store := &memStore{}
	svc := newPostService(store, &fakeResolver{})

	first, err := svc.CreatePost(context.Background(), Draft{Type: PostText, Text: "one", UserID: 1, Username: "a"})
	require.NoError(t, err)
	second, err := svc.CreatePost(context.Background(), Draft{Type: PostText, Text: "two", UserID: 1, Username: "a"})
	require.NoError(t, err)
	require.NotEqual(t, first.ID, second.ID)
}

func TestDeletePost(t *testing.T) {
	t.Parallel()

	seed := Post{ID: "100", Type: PostText, Content: "x", UserID: 7, Username: "alice", Date: "2025-06-15T10:00:00Z"}

	tests := []struct {
		name              string
		postID            string
		requesterID       int64
		requesterUsername string
		want              error
		wantRemaining     int
	}{
		{"owner may delete", "100", 7, "alice", nil, 0},
		{"admin may delete", "100", 99, "ADMIN", nil, 0},
		{"stranger is forbidden", "100", 42, "mallory", ErrForbidden, 1},
		{"unknown id", "999", 7, "alice", ErrNotFound, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			store := &memStore{posts: []Post{seed}}
			svc := newPostService(store, &fakeResolver{})

			err := svc.DeletePost(context.Background(), tt.postID, tt.requesterID, tt.requesterUsername)
			if tt.want == nil {
				require.NoError(t, err)
			} else {
				require.ErrorIs(t, err, tt.want)
			}
			require.Len(t, store.posts, tt.wantRemaining)
		})
	}
}
