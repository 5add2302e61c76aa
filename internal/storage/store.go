// Package storage implements the domain repository ports over a named
// whole-collection backend. Every mutation is a read-modify-write of the
// entire collection, serialized behind a per-collection mutex so
// concurrent writers cannot lose updates.
package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"nootboard/internal/domain"
)

// Collection names.
const (
	collPosts    = "posts"
	collUsers    = "users"
	collBans     = "bans"
	collMessages = "messages"
	collPresence = "presence"
	collErrors   = "errors"
)

// Backend reads and replaces the raw JSON value of a named collection.
// Read returns nil data for a collection that does not exist yet.
type Backend interface {
	Read(ctx context.Context, collection string) ([]byte, error)
	Write(ctx context.Context, collection string, data []byte) error
}

// Store implements every domain repository port.
type Store struct {
	backend Backend

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// New creates a Store over the given backend.
func New(backend Backend) *Store {
	return &Store{backend: backend, locks: make(map[string]*sync.Mutex)}
}

func (s *Store) lock(name string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[name]
	if !ok {
		l = &sync.Mutex{}
		s.locks[name] = l
	}
	return l
}

func readColl[T any](ctx context.Context, s *Store, name string) ([]T, error) {
	data, err := s.backend.Read(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("read collection %s: %w", name, err)
	}
	if data == nil {
		return nil, nil
	}
	var items []T
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("decode collection %s: %w", name, err)
	}
	return items, nil
}

func writeColl[T any](ctx context.Context, s *Store, name string, items []T) error {
	if items == nil {
		items = []T{}
	}
	data, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return fmt.Errorf("encode collection %s: %w", name, err)
	}
	if err := s.backend.Write(ctx, name, data); err != nil {
		return fmt.Errorf("write collection %s: %w", name, err)
	}
	return nil
}

// updateColl runs a read-modify-write cycle holding the collection lock.
func updateColl[T any](ctx context.Context, s *Store, name string, fn func([]T) ([]T, error)) error {
	l := s.lock(name)
	l.Lock()
	defer l.Unlock()

	items, err := readColl[T](ctx, s, name)
	if err != nil {
		return err
	}
	items, err = fn(items)
	if err != nil {
		return err
	}
	return writeColl(ctx, s, name, items)
}

// ListPosts returns the full post collection in insertion order.
func (s *Store) ListPosts(ctx context.Context) ([]domain.Post, error) {
	return readColl[domain.Post](ctx, s, collPosts)
}

// AppendPost adds a post to the collection.
func (s *Store) AppendPost(ctx context.Context, post domain.Post) error {
	return updateColl(ctx, s, collPosts, func(posts []domain.Post) ([]domain.Post, error) {
		return append(posts, post), nil
	})
}

// DeletePost removes the post with the given id; unknown ids are a no-op.
func (s *Store) DeletePost(ctx context.Context, id string) error {
	return updateColl(ctx, s, collPosts, func(posts []domain.Post) ([]domain.Post, error) {
		kept := posts[:0]
		for _, p := range posts {
			if p.ID != id {
				kept = append(kept, p)
			}
		}
		return kept, nil
	})
}

// ListUsers returns all registered users.
func (s *Store) ListUsers(ctx context.Context) ([]domain.User, error) {
	return readColl[domain.User](ctx, s, collUsers)
}

// GetUser returns the user with the given platform id.
func (s *Store) GetUser(ctx context.Context, id int64) (domain.User, error) {
	users, err := readColl[domain.User](ctx, s, collUsers)
	if err != nil {
		return domain.User{}, err
	}
	for _, u := range users {
		if u.ID == id {
			return u, nil
		}
	}
	return domain.User{}, domain.ErrNotFound
}

// GetUserByUsername returns the user with the given lowercased username.
func (s *Store) GetUserByUsername(ctx context.Context, username string) (domain.User, error) {
	users, err := readColl[domain.User](ctx, s, collUsers)
	if err != nil {
		return domain.User{}, err
	}
	for _, u := range users {
		if u.Username == username {
			return u, nil
		}
	}
	return domain.User{}, domain.ErrNotFound
}

// AddUser registers a user; duplicate ids are rejected, not merged.
func (s *Store) AddUser(ctx context.Context, user domain.User) error {
	return updateColl(ctx, s, collUsers, func(users []domain.User) ([]domain.User, error) {
		for _, u := range users {
			if u.ID == user.ID {
				return nil, domain.ErrAlreadyRegistered
			}
		}
		return append(users, user), nil
	})
}

// ListBans returns all banned usernames.
func (s *Store) ListBans(ctx context.Context) ([]string, error) {
	return readColl[string](ctx, s, collBans)
}

// AddBan adds a username to the ban set; existing entries are a no-op.
func (s *Store) AddBan(ctx context.Context, username string) error {
	return updateColl(ctx, s, collBans, func(bans []string) ([]string, error) {
		for _, b := range bans {
			if b == username {
				return bans, nil
			}
		}
		return append(bans, username), nil
	})
}

// RemoveBan removes a username from the ban set; unknown entries are a
// no-op.
func (s *Store) RemoveBan(ctx context.Context, username string) error {
	return updateColl(ctx, s, collBans, func(bans []string) ([]string, error) {
		kept := bans[:0]
		for _, b := range bans {
			if b != username {
				kept = append(kept, b)
			}
		}
		return kept, nil
	})
}

// IsBanned reports whether the username is in the ban set.
func (s *Store) IsBanned(ctx context.Context, username string) (bool, error) {
	bans, err := readColl[string](ctx, s, collBans)
	if err != nil {
		return false, err
	}
	for _, b := range bans {
		if b == username {
			return true, nil
		}
	}
	return false, nil
}

// AppendMessage stores a relayed message.
func (s *Store) AppendMessage(ctx context.Context, msg domain.Message) error {
	return updateColl(ctx, s, collMessages, func(msgs []domain.Message) ([]domain.Message, error) {
		return append(msgs, msg), nil
	})
}

// MessagesBetween returns messages exchanged between two identities.
func (s *Store) MessagesBetween(ctx context.Context, a, b string) ([]domain.Message, error) {
	msgs, err := readColl[domain.Message](ctx, s, collMessages)
	if err != nil {
		return nil, err
	}
	var out []domain.Message
	for _, m := range msgs {
		if (m.From == a && m.To == b) || (m.From == b && m.To == a) {
			out = append(out, m)
		}
	}
	return out, nil
}

// WritePresence replaces the persisted presence projection.
func (s *Store) WritePresence(ctx context.Context, records []domain.PresenceRecord) error {
	l := s.lock(collPresence)
	l.Lock()
	defer l.Unlock()
	return writeColl(ctx, s, collPresence, records)
}

// ReadPresence returns the last persisted presence projection.
func (s *Store) ReadPresence(ctx context.Context) ([]domain.PresenceRecord, error) {
	return readColl[domain.PresenceRecord](ctx, s, collPresence)
}

// AppendError stores an error record.
func (s *Store) AppendError(ctx context.Context, rec domain.ErrorRecord) error {
	return updateColl(ctx, s, collErrors, func(recs []domain.ErrorRecord) ([]domain.ErrorRecord, error) {
		return append(recs, rec), nil
	})
}

// GetError returns the error record with the given id.
func (s *Store) GetError(ctx context.Context, id string) (domain.ErrorRecord, error) {
	recs, err := readColl[domain.ErrorRecord](ctx, s, collErrors)
	if err != nil {
		return domain.ErrorRecord{}, err
	}
	for _, r := range recs {
		if r.ID == id {
			return r, nil
		}
	}
	return domain.ErrorRecord{}, domain.ErrNotFound
}
