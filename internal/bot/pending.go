package bot

import (
	"sync"
	"time"
)

// inputKind tags what the bot expects the next message in a chat to be.
type inputKind string

const (
	expectCity   inputKind = "city"
	expectQRText inputKind = "qr-text"
	expectPost   inputKind = "post"
)

// DefaultPendingTTL is how long an expectation stays valid before it is
// considered stale and cleared.
const DefaultPendingTTL = 2 * time.Minute

// pendingInputs is the per-chat slot for the "send me the next thing"
// conversational flow. A slot is set before prompting and consumed (and
// cleared) by the next message from that chat; stale slots expire.
type pendingInputs struct {
	ttl time.Duration
	now func() time.Time

	mu    sync.Mutex
	slots map[int64]pendingSlot
}

type pendingSlot struct {
	kind     inputKind
	deadline time.Time
}

func newPendingInputs(ttl time.Duration) *pendingInputs {
	if ttl <= 0 {
		ttl = DefaultPendingTTL
	}
	return &pendingInputs{
		ttl:   ttl,
		now:   time.Now,
		slots: make(map[int64]pendingSlot),
	}
}

// set records an expectation for a chat, replacing any previous one.
func (p *pendingInputs) set(chatID int64, kind inputKind) {
	p.mu.Lock()
	p.slots[chatID] = pendingSlot{kind: kind, deadline: p.now().Add(p.ttl)}
	p.mu.Unlock()
}

// consume takes and clears the chat's expectation. Expired slots are
// cleared and reported as absent.
func (p *pendingInputs) consume(chatID int64) (inputKind, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	slot, ok := p.slots[chatID]
	if !ok {
		return "", false
	}
	delete(p.slots, chatID)
	if p.now().After(slot.deadline) {
		return "", false
	}
	return slot.kind, true
}
