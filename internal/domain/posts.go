package domain

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"
)

// Default validation limits for post content.
const (
	DefaultMaxTextLen    = 1000
	DefaultMaxCaptionLen = 1000
)

// SentinelScheme prefixes the stored content when media resolution fails,
// preserving the raw reference instead of dropping the post.
const SentinelScheme = "unresolved://"

// PostServiceConfig carries the tunables for a PostService.
type PostServiceConfig struct {
	// Admins is the fixed administrator username set, lowercased.
	Admins []string

	// MaxTextLen caps text post content; zero means DefaultMaxTextLen.
	MaxTextLen int

	// MaxCaptionLen caps media captions; over-limit captions are dropped
	// to null, not rejected. Zero means DefaultMaxCaptionLen.
	MaxCaptionLen int
}

// PostService owns the post lifecycle: validation, creation with media
// resolution, and owner/admin-gated deletion. Policy gating is the
// caller's responsibility and is not re-checked here.
type PostService struct {
	repo          PostRepository
	media         MediaResolver
	admins        map[string]struct{}
	maxTextLen    int
	maxCaptionLen int
	now           func() time.Time
	logger        *slog.Logger
}

// NewPostService creates a PostService. The clock defaults to time.Now
// and exists so tests can pin creation timestamps.
func NewPostService(repo PostRepository, media MediaResolver, cfg PostServiceConfig, logger *slog.Logger) *PostService {
	admins := make(map[string]struct{}, len(cfg.Admins))
	for _, a := range cfg.Admins {
		admins[strings.ToLower(a)] = struct{}{}
	}
	maxText := cfg.MaxTextLen
	if maxText <= 0 {
		maxText = DefaultMaxTextLen
	}
	maxCaption := cfg.MaxCaptionLen
	if maxCaption <= 0 {
		maxCaption = DefaultMaxCaptionLen
	}
	return &PostService{
		repo:          repo,
		media:         media,
		admins:        admins,
		maxTextLen:    maxText,
		maxCaptionLen: maxCaption,
		now:           time.Now,
		logger:        logger,
	}
}

// WithClock replaces the service clock. Test hook.
func (s *PostService) WithClock(now func() time.Time) *PostService {
	s.now = now
	return s
}

// IsAdmin reports whether the username belongs to the administrator set.
func (s *PostService) IsAdmin(username string) bool {
	_, ok := s.admins[strings.ToLower(username)]
	return ok
}

// ListPosts returns the full post collection.
func (s *PostService) ListPosts(ctx context.Context) ([]Post, error) {
	return s.repo.ListPosts(ctx)
}

// CreatePost validates the draft, resolves media for non-text types,
// assigns id and date, and appends the post to the collection. The
// returned post includes all assigned fields.
func (s *PostService) CreatePost(ctx context.Context, draft Draft) (Post, error) {
	if draft.Type == PostText && len([]rune(draft.Text)) > s.maxTextLen {
		return Post{}, ErrTextTooLong
	}

	now := s.now().UTC()
	post := Post{
		Type:     draft.Type,
		UserID:   draft.UserID,
		Username: strings.ToLower(draft.Username),
		Date:     now.Format(time.RFC3339),
	}

	if draft.Type == PostText {
		post.Content = FormatText(draft.Text)
	} else {
		url, err := s.media.Resolve(ctx, draft.MediaRef)
		if err != nil {
			// Never drop the post: keep the raw reference behind a
			// sentinel so it can be re-resolved later.
			s.logger.Warn("media resolution failed, storing sentinel",
				"ref", draft.MediaRef,
				"error", err,
			)
			url = SentinelScheme + draft.MediaRef
		}
		post.Content = url

		if draft.Caption != "" {
			if len([]rune(draft.Caption)) > s.maxCaptionLen {
				s.logger.Warn("caption over limit, dropped", "user", post.Username)
			} else {
				caption := draft.Caption
				post.Caption = &caption
			}
		}
	}

	id, err := s.uniqueID(ctx, now)
	if err != nil {
		return Post{}, err
	}
	post.ID = id

	if err := s.repo.AppendPost(ctx, post); err != nil {
		return Post{}, fmt.Errorf("append post: %w", err)
	}
	return post, nil
}

// DeletePost removes a post. The requester must be the post's owner or a
// member of the administrator set; usernames compare lowercased.
func (s *PostService) DeletePost(ctx context.Context, postID string, requesterID int64, requesterUsername string) error {
	posts, err := s.repo.ListPosts(ctx)
	if err != nil {
		return fmt.Errorf("list posts: %w", err)
	}

	var found *Post
	for i := range posts {
		if posts[i].ID == postID {
			found = &posts[i]
			break
		}
	}
	if found == nil {
		return ErrNotFound
	}
	if found.UserID != requesterID && !s.IsAdmin(requesterUsername) {
		return ErrForbidden
	}

	if err := s.repo.DeletePost(ctx, postID); err != nil {
		return fmt.Errorf("delete post: %w", err)
	}
	s.logger.Info("post deleted", "id", postID, "by", strings.ToLower(requesterUsername))
	return nil
}

// uniqueID derives an id from the creation time in unix milliseconds,
// bumping by one until it does not collide with an existing post.
func (s *PostService) uniqueID(ctx context.Context, now time.Time) (string, error) {
	posts, err := s.repo.ListPosts(ctx)
	if err != nil {
		return "", fmt.Errorf("list posts: %w", err)
	}
	taken := make(map[string]struct{}, len(posts))
	for _, p := range posts {
		taken[p.ID] = struct{}{}
	}

	ms := now.UnixMilli()
	for {
		id := strconv.FormatInt(ms, 10)
		if _, ok := taken[id]; !ok {
			return id, nil
		}
		ms++
	}
}
