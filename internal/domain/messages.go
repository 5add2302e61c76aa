package domain

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// MessageService records and reads direct texts relayed through the bot.
type MessageService struct {
	repo MessageRepository
	now  func() time.Time
}

// NewMessageService creates a MessageService.
func NewMessageService(repo MessageRepository) *MessageService {
	return &MessageService{repo: repo, now: time.Now}
}

// WithClock replaces the service clock. Test hook.
func (s *MessageService) WithClock(now func() time.Time) *MessageService {
	s.now = now
	return s
}

// Append stores a message from one identity to another.
func (s *MessageService) Append(ctx context.Context, from, to, text string) error {
	msg := Message{
		From: strings.ToLower(from),
		To:   strings.ToLower(to),
		Text: text,
		Date: s.now().UTC().Format(time.RFC3339),
	}
	if err := s.repo.AppendMessage(ctx, msg); err != nil {
		return fmt.Errorf("append message: %w", err)
	}
	return nil
}

// Between returns the conversation between two identities in stored order.
func (s *MessageService) Between(ctx context.Context, a, b string) ([]Message, error) {
	return s.repo.MessagesBetween(ctx, strings.ToLower(a), strings.ToLower(b))
}
