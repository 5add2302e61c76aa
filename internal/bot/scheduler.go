package bot

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"nootboard/internal/domain"
)

// DefaultDeleteDelay is how long an ephemeral notification lives before
// the scheduler tries to delete it.
const DefaultDeleteDelay = 45 * time.Second

const deleteTimeout = 10 * time.Second

type timerKey struct {
	chatID    int64
	messageID int64
}

// Scheduler owns the auto-delete timers for ephemeral notifications. Each
// registration is a one-shot timer keyed by (chat, message); when it
// fires the deletion is attempted at most once and the registration is
// removed whatever the outcome. Entries are not persisted, so timers are
// lost on restart.
type Scheduler struct {
	transport domain.ChatTransport
	delay     time.Duration
	logger    *slog.Logger

	mu      sync.Mutex
	timers  map[timerKey]*time.Timer
	stopped bool
}

// NewScheduler creates a Scheduler with the given default delay. A zero
// delay falls back to DefaultDeleteDelay.
func NewScheduler(transport domain.ChatTransport, delay time.Duration, logger *slog.Logger) *Scheduler {
	if delay <= 0 {
		delay = DefaultDeleteDelay
	}
	return &Scheduler{
		transport: transport,
		delay:     delay,
		logger:    logger,
		timers:    make(map[timerKey]*time.Timer),
	}
}

// Schedule registers deletion of a message after the default delay.
func (s *Scheduler) Schedule(chatID, messageID int64) {
	s.ScheduleAfter(chatID, messageID, s.delay)
}

// ScheduleAfter registers deletion of a message after the given delay.
// Scheduling after Stop is a no-op.
func (s *Scheduler) ScheduleAfter(chatID, messageID int64, delay time.Duration) {
	key := timerKey{chatID: chatID, messageID: messageID}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return
	}
	s.timers[key] = time.AfterFunc(delay, func() {
		s.fire(key)
	})
}

// fire attempts the deletion once and removes the registration. Deletion
// failure (message already gone, transport down) is swallowed.
func (s *Scheduler) fire(key timerKey) {
	ctx, cancel := context.WithTimeout(context.Background(), deleteTimeout)
	defer cancel()

	if err := s.transport.DeleteMessage(ctx, key.chatID, key.messageID); err != nil {
		s.logger.Debug("ephemeral delete failed",
			"chat_id", key.chatID,
			"message_id", key.messageID,
			"error", err,
		)
	}
	s.remove(key)
}

// remove drops a registration. Removing an unknown key is a no-op.
func (s *Scheduler) remove(key timerKey) {
	s.mu.Lock()
	delete(s.timers, key)
	s.mu.Unlock()
}

// Pending reports the number of outstanding timers.
func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.timers)
}

// Stop cancels all outstanding timers and rejects new registrations.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return
	}
	s.stopped = true
	for key, t := range s.timers {
		t.Stop()
		delete(s.timers, key)
	}
}
