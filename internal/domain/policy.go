package domain

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// DefaultDailyPostCap is the number of posts a user may create per UTC day.
const DefaultDailyPostCap = 30

// Policy decides whether a user may submit a new post right now. It is a
// pure read over the current collection state and has no side effects.
type Policy struct {
	posts    PostRepository
	users    UserRepository
	bans     BanRepository
	dailyCap int
}

// NewPolicy creates a Policy with the given daily cap. A cap of zero or
// less falls back to DefaultDailyPostCap.
func NewPolicy(posts PostRepository, users UserRepository, bans BanRepository, dailyCap int) *Policy {
	if dailyCap <= 0 {
		dailyCap = DefaultDailyPostCap
	}
	return &Policy{posts: posts, users: users, bans: bans, dailyCap: dailyCap}
}

// CanPost returns nil if the user may post, or one of ErrBanned,
// ErrUnregistered, ErrRateLimited. The rate window is the calendar day of
// now in UTC, matched by date-string prefix against stored post dates.
func (p *Policy) CanPost(ctx context.Context, userID int64, username string, now time.Time) error {
	banned, err := p.bans.IsBanned(ctx, strings.ToLower(username))
	if err != nil {
		return fmt.Errorf("check ban: %w", err)
	}
	if banned {
		return ErrBanned
	}

	if _, err := p.users.GetUser(ctx, userID); err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrUnregistered
		}
		return fmt.Errorf("look up user: %w", err)
	}

	posts, err := p.posts.ListPosts(ctx)
	if err != nil {
		return fmt.Errorf("list posts: %w", err)
	}

	day := now.UTC().Format("2006-01-02")
	count := 0
	for _, post := range posts {
		if post.UserID == userID && strings.HasPrefix(post.Date, day) {
			count++
		}
	}
	if count >= p.dailyCap {
		return ErrRateLimited
	}
	return nil
}
