package domain

import "context"

// PostRepository defines persistence operations for the posts collection.
// Implementations rewrite the whole collection on every mutation and must
// serialize writers.
type PostRepository interface {
	// ListPosts returns the full post collection in insertion order.
	ListPosts(ctx context.Context) ([]Post, error)

	// AppendPost adds a post to the collection.
	AppendPost(ctx context.Context, post Post) error

	// DeletePost removes the post with the given id. Removing an unknown
	// id is a no-op.
	DeletePost(ctx context.Context, id string) error
}

// UserRepository defines persistence operations for registered users.
type UserRepository interface {
	// ListUsers returns all registered users.
	ListUsers(ctx context.Context) ([]User, error)

	// GetUser returns the user with the given platform id, or
	// ErrNotFound.
	GetUser(ctx context.Context, id int64) (User, error)

	// GetUserByUsername returns the user with the given lowercased
	// username, or ErrNotFound.
	GetUserByUsername(ctx context.Context, username string) (User, error)

	// AddUser registers a user. Returns ErrAlreadyRegistered if a user
	// with the same id exists.
	AddUser(ctx context.Context, user User) error
}

// BanRepository defines persistence operations for the ban set.
type BanRepository interface {
	// ListBans returns all banned usernames.
	ListBans(ctx context.Context) ([]string, error)

	// AddBan adds a username to the ban set. Adding an existing entry is
	// a no-op.
	AddBan(ctx context.Context, username string) error

	// RemoveBan removes a username from the ban set. Removing an unknown
	// entry is a no-op.
	RemoveBan(ctx context.Context, username string) error

	// IsBanned reports whether the username is in the ban set.
	IsBanned(ctx context.Context, username string) (bool, error)
}

// MessageRepository defines persistence operations for relayed messages.
type MessageRepository interface {
	// AppendMessage stores a message.
	AppendMessage(ctx context.Context, msg Message) error

	// MessagesBetween returns all messages exchanged between the two
	// identities, in insertion order.
	MessagesBetween(ctx context.Context, a, b string) ([]Message, error)
}

// PresenceRepository persists the derived presence projection. The
// snapshot fully replaces the previous one.
type PresenceRepository interface {
	WritePresence(ctx context.Context, records []PresenceRecord) error
}

// ErrorRepository persists boundary failures for later lookup by id.
type ErrorRepository interface {
	AppendError(ctx context.Context, rec ErrorRecord) error

	// GetError returns the record with the given id, or ErrNotFound.
	GetError(ctx context.Context, id string) (ErrorRecord, error)
}

// ChatTransport is the outbound side of the chat platform. Failures are
// transport errors, never fatal to the process.
type ChatTransport interface {
	// SendMessage delivers text to a chat and returns the platform
	// message id.
	SendMessage(ctx context.Context, chatID int64, text string) (int64, error)

	// SendPhoto delivers a PNG image with an optional caption.
	SendPhoto(ctx context.Context, chatID int64, png []byte, caption string) (int64, error)

	// DeleteMessage removes a previously sent message. Deleting an
	// already-deleted message returns an error the caller may ignore.
	DeleteMessage(ctx context.Context, chatID, messageID int64) error

	// FileURL resolves a platform file reference to a retrievable URL.
	FileURL(ctx context.Context, fileRef string) (string, error)
}

// MediaResolver turns a platform media reference into a durable URL.
type MediaResolver interface {
	Resolve(ctx context.Context, fileRef string) (string, error)
}

// WeatherProvider looks up current conditions for a city.
type WeatherProvider interface {
	Current(ctx context.Context, city string) (string, error)
}

// QREncoder renders text as a PNG QR code.
type QREncoder interface {
	EncodePNG(text string) ([]byte, error)
}
