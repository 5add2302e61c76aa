package bot

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// fakeTransport records outbound calls.
type fakeTransport struct {
	mu         sync.Mutex
	sent       []string
	sentChats  []int64
	deleted    [][2]int64
	photos     [][]byte
	nextMsgID  int64
	sendErr    error
	deleteErr  error
	fileURLs   map[string]string
	fileURLErr error
}

func (f *fakeTransport) SendMessage(ctx context.Context, chatID int64, text string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return 0, f.sendErr
	}
	f.nextMsgID++
	f.sent = append(f.sent, text)
	f.sentChats = append(f.sentChats, chatID)
	return f.nextMsgID, nil
}

func (f *fakeTransport) SendPhoto(ctx context.Context, chatID int64, png []byte, caption string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextMsgID++
	f.photos = append(f.photos, png)
	return f.nextMsgID, nil
}

func (f *fakeTransport) DeleteMessage(ctx context.Context, chatID, messageID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deleted = append(f.deleted, [2]int64{chatID, messageID})
	return nil
}

func (f *fakeTransport) FileURL(ctx context.Context, fileRef string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fileURLErr != nil {
		return "", f.fileURLErr
	}
	return f.fileURLs[fileRef], nil
}

func (f *fakeTransport) deletedCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.deleted)
}

func (f *fakeTransport) sentTexts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.sent))
	copy(out, f.sent)
	return out
}

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func TestScheduler_FiresAndRemoves(t *testing.T) {
	t.Parallel()

	transport := &fakeTransport{}
	s := NewScheduler(transport, time.Hour, discardLogger())
	defer s.Stop()

	s.ScheduleAfter(1, 100, 10*time.Millisecond)
	require.Equal(t, 1, s.Pending())

	require.Eventually(t, func() bool {
		return transport.deletedCount() == 1 && s.Pending() == 0
	}, time.Second, 5*time.Millisecond)
}

func TestScheduler_DeletionFailureIsSwallowed(t *testing.T) {
	t.Parallel()

	transport := &fakeTransport{deleteErr: errors.New("message already deleted")}
	s := NewScheduler(transport, time.Hour, discardLogger())
	defer s.Stop()

	s.ScheduleAfter(1, 100, 10*time.Millisecond)

	// At-most-once attempt: the registration goes away even on failure.
	require.Eventually(t, func() bool {
		return s.Pending() == 0
	}, time.Second, 5*time.Millisecond)
}

func TestScheduler_DuplicateKeysNotDeduplicated(t *testing.T) {
	t.Parallel()

	transport := &fakeTransport{}
	s := NewScheduler(transport, time.Hour, discardLogger())
	defer s.Stop()

	s.ScheduleAfter(1, 100, 10*time.Millisecond)
	s.ScheduleAfter(1, 100, 10*time.Millisecond)

	// The second registration overwrites the first key; firing it removes
	// the entry and removing again is a no-op.
	require.Eventually(t, func() bool {
		return s.Pending() == 0
	}, time.Second, 5*time.Millisecond)
}

func TestScheduler_StopCancelsTimers(t *testing.T) {
	t.Parallel()

	transport := &fakeTransport{}
	s := NewScheduler(transport, time.Hour, discardLogger())

	s.Schedule(1, 100)
	s.Schedule(2, 200)
	require.Equal(t, 2, s.Pending())

	s.Stop()
	require.Equal(t, 0, s.Pending())

	// New registrations after Stop are rejected.
	s.Schedule(3, 300)
	require.Equal(t, 0, s.Pending())
}
