package domain

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func seedUser(store *memStore, id int64, username string) {
	store.users = append(store.users, User{ID: id, Username: username, RegisteredAt: "2025-01-01T00:00:00Z"})
}

func seedPosts(store *memStore, userID int64, day string, n int) {
	for i := 0; i < n; i++ {
		store.posts = append(store.posts, Post{
			ID:     day + string(rune('a'+i)),
			Type:   PostText,
			UserID: userID,
			Date:   day + "T10:00:00Z",
		})
	}
}

func TestPolicy_CanPost(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		setup func(*memStore)
		want  error
	}{
		{
			name:  "banned user",
			setup: func(s *memStore) { seedUser(s, 1, "alice"); s.bans = []string{"alice"} },
			want:  ErrBanned,
		},
		{
			name:  "unregistered user",
			setup: func(s *memStore) {},
			want:  ErrUnregistered,
		},
		{
			name: "at the cap",
			setup: func(s *memStore) {
				seedUser(s, 1, "alice")
				seedPosts(s, 1, "2025-06-15", 3)
			},
			want: ErrRateLimited,
		},
		{
			name: "one under the cap",
			setup: func(s *memStore) {
				seedUser(s, 1, "alice")
				seedPosts(s, 1, "2025-06-15", 2)
			},
			want: nil,
		},
		{
			name: "yesterday's posts don't count",
			setup: func(s *memStore) {
				seedUser(s, 1, "alice")
				seedPosts(s, 1, "2025-06-14", 5)
			},
			want: nil,
		},
		{
			name: "other users' posts don't count",
			setup: func(s *memStore) {
				seedUser(s, 1, "alice")
				seedUser(s, 2, "bob")
				seedPosts(s, 2, "2025-06-15", 5)
			},
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			store := &memStore{}
			tt.setup(store)

			policy := NewPolicy(store, store, store, 3)
			err := policy.CanPost(context.Background(), 1, "alice", now)
			if tt.want == nil {
				require.NoError(t, err)
			} else {
				require.ErrorIs(t, err, tt.want)
			}
		})
	}
}

func TestPolicy_BanMatchIsCaseNormalized(t *testing.T) {
	t.Parallel()

	store := &memStore{}
	seedUser(store, 1, "alice")
	store.bans = []string{"alice"}

	policy := NewPolicy(store, store, store, 0)
	err := policy.CanPost(context.Background(), 1, "Alice", time.Now())
	require.ErrorIs(t, err, ErrBanned)
}

func TestPolicy_DefaultCap(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	store := &memStore{}
	seedUser(store, 1, "alice")
	seedPosts(store, 1, "2025-06-15", DefaultDailyPostCap)

	policy := NewPolicy(store, store, store, 0)
	err := policy.CanPost(context.Background(), 1, "alice", now)
	require.ErrorIs(t, err, ErrRateLimited)
}
