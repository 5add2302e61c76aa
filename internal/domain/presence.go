package domain

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"
)

// DefaultOnlineThreshold is how recently a user must have been seen to
// count as online.
const DefaultOnlineThreshold = 15 * time.Second

// PresenceTracker owns the in-memory last-seen map and periodically
// overwrites the persisted presence projection with a fresh snapshot.
type PresenceTracker struct {
	mu       sync.Mutex
	lastSeen map[string]time.Time

	users     UserRepository
	repo      PresenceRepository
	threshold time.Duration
	photoURL  func(username string) string
	now       func() time.Time
	logger    *slog.Logger
}

// NewPresenceTracker creates a PresenceTracker. photoURL derives the
// public avatar URL for a username; a zero threshold falls back to
// DefaultOnlineThreshold.
func NewPresenceTracker(users UserRepository, repo PresenceRepository, threshold time.Duration, photoURL func(string) string, logger *slog.Logger) *PresenceTracker {
	if threshold <= 0 {
		threshold = DefaultOnlineThreshold
	}
	return &PresenceTracker{
		lastSeen:  make(map[string]time.Time),
		users:     users,
		repo:      repo,
		threshold: threshold,
		photoURL:  photoURL,
		now:       time.Now,
		logger:    logger,
	}
}

// WithClock replaces the tracker clock. Test hook.
func (t *PresenceTracker) WithClock(now func() time.Time) *PresenceTracker {
	t.now = now
	return t
}

// Touch records activity for a username. Most-recent write wins.
func (t *PresenceTracker) Touch(username string, at time.Time) {
	t.mu.Lock()
	t.lastSeen[username] = at
	t.mu.Unlock()
}

// Snapshot derives a status for every registered user. Users never
// touched default to offline.
func (t *PresenceTracker) Snapshot(ctx context.Context) ([]PresenceRecord, error) {
	users, err := t.users.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}

	now := t.now()
	t.mu.Lock()
	records := make([]PresenceRecord, 0, len(users))
	for _, u := range users {
		status := StatusOffline
		if seen, ok := t.lastSeen[u.Username]; ok && now.Sub(seen) < t.threshold {
			status = StatusOnline
		}
		records = append(records, PresenceRecord{
			Username: u.Username,
			PhotoURL: t.photoURL(u.Username),
			Status:   status,
		})
	}
	t.mu.Unlock()

	sort.Slice(records, func(i, j int) bool { return records[i].Username < records[j].Username })
	return records, nil
}

// Run recomputes and persists the presence projection on a fixed tick
// until ctx is cancelled. The snapshot fully overwrites the stored
// projection each time.
func (t *PresenceTracker) Run(ctx context.Context, tick time.Duration) {
	ticker := time.NewTicker(tick)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			records, err := t.Snapshot(ctx)
			if err != nil {
				t.logger.Error("presence snapshot failed", "error", err)
				continue
			}
			if err := t.repo.WritePresence(ctx, records); err != nil {
				t.logger.Error("presence write failed", "error", err)
			}
		}
	}
}
