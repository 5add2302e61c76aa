package domain

import (
	"context"
	"errors"
	"sync"
)

// memStore is an in-memory implementation of every repository port.
type memStore struct {
	mu       sync.Mutex
	posts    []Post
	users    []User
	bans     []string
	msgs     []Message
	presence []PresenceRecord
	errs     []ErrorRecord
}

func (m *memStore) ListPosts(ctx context.Context) ([]Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Post, len(m.posts))
	copy(out, m.posts)
	return out, nil
}

func (m *memStore) AppendPost(ctx context.Context, post Post) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.posts = append(m.posts, post)
	return nil
}

func (m *memStore) DeletePost(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.posts[:0]
	for _, p := range m.posts {
		if p.ID != id {
			kept = append(kept, p)
		}
	}
	m.posts = kept
	return nil
}

func (m *memStore) ListUsers(ctx context.Context) ([]User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]User, len(m.users))
	copy(out, m.users)
	return out, nil
}

func (m *memStore) GetUser(ctx context.Context, id int64) (User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.ID == id {
			return u, nil
		}
	}
	return User{}, ErrNotFound
}

func (m *memStore) GetUserByUsername(ctx context.Context, username string) (User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Username == username {
			return u, nil
		}
	}
	return User{}, ErrNotFound
}

func (m *memStore) AddUser(ctx context.Context, user User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.ID == user.ID {
			return ErrAlreadyRegistered
		}
	}
	m.users = append(m.users, user)
	return nil
}

func (m *memStore) ListBans(ctx context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.bans))
	copy(out, m.bans)
	return out, nil
}

func (m *memStore) AddBan(ctx context.Context, username string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, b := range m.bans {
		if b == username {
			return nil
		}
	}
	m.bans = append(m.bans, username)
	return nil
}

func (m *memStore) RemoveBan(ctx context.Context, username string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.bans[:0]
	for _, b := range m.bans {
		if b != username {
			kept = append(kept, b)
		}
	}
	m.bans = kept
	return nil
}

func (m *memStore) IsBanned(ctx context.Context, username string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, b := range m.bans {
		if b == username {
			return true, nil
		}
	}
	return false, nil
}

func (m *memStore) AppendMessage(ctx context.Context, msg Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.msgs = append(m.msgs, msg)
	return nil
}

func (m *memStore) MessagesBetween(ctx context.Context, a, b string) ([]Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Message
	for _, msg := range m.msgs {
		if (msg.From == a && msg.To == b) || (msg.From == b && msg.To == a) {
			out = append(out, msg)
		}
	}
	return out, nil
}

func (m *memStore) WritePresence(ctx context.Context, records []PresenceRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.presence = records
	return nil
}

func (m *memStore) AppendError(ctx context.Context, rec ErrorRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errs = append(m.errs, rec)
	return nil
}

func (m *memStore) GetError(ctx context.Context, id string) (ErrorRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.errs {
		if r.ID == id {
			return r, nil
		}
	}
	return ErrorRecord{}, ErrNotFound
}

// fakeResolver returns a fixed URL or error.
type fakeResolver struct {
	url string
	err error
}

func (f *fakeResolver) Resolve(ctx context.Context, fileRef string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.url, nil
}

var errResolveDown = errors.New("media host unreachable")
