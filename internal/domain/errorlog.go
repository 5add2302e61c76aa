package domain

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// ErrorLog persists boundary failures and hands back an id the caller can
// report to the user. Recording never fails the caller: if the store
// itself is down the failure is logged and an id is still returned.
type ErrorLog struct {
	repo   ErrorRepository
	now    func() time.Time
	logger *slog.Logger
}

// NewErrorLog creates an ErrorLog.
func NewErrorLog(repo ErrorRepository, logger *slog.Logger) *ErrorLog {
	return &ErrorLog{repo: repo, now: time.Now, logger: logger}
}

// Record persists the failure under a fresh id and returns that id.
func (l *ErrorLog) Record(ctx context.Context, origin string, err error) string {
	rec := ErrorRecord{
		ID:      uuid.NewString(),
		Context: origin,
		Message: err.Error(),
		Date:    l.now().UTC().Format(time.RFC3339),
	}
	if storeErr := l.repo.AppendError(ctx, rec); storeErr != nil {
		l.logger.Error("failed to persist error record",
			"errorId", rec.ID,
			"original_error", err,
			"store_error", storeErr,
		)
	} else {
		l.logger.Error("recorded error", "errorId", rec.ID, "context", origin, "error", err)
	}
	return rec.ID
}

// Get returns the stored record for an id, or ErrNotFound.
func (l *ErrorLog) Get(ctx context.Context, id string) (ErrorRecord, error) {
	return l.repo.GetError(ctx, id)
}
