package domain

// PostType enumerates the kinds of content a post can carry.
type PostType string

const (
	PostText  PostType = "text"
	PostPhoto PostType = "photo"
	PostVideo PostType = "video"
	PostAudio PostType = "audio"
)

// Post is a persisted user submission served to the feed page.
type Post struct {
	// ID is a creation-time-derived token, unique within the collection.
	ID string `json:"id"`

	// Type is one of text, photo, video or audio.
	Type PostType `json:"type"`

	// Content is the raw text for text posts, or the resolved media URL
	// for everything else.
	Content string `json:"content"`

	// Caption is the optional media caption. Nil for text posts and for
	// captions that exceeded the configured limit.
	Caption *string `json:"caption"`

	// UserID is the stable platform identity of the author.
	UserID int64 `json:"userId"`

	// Username is the author's handle at creation time, lowercased.
	Username string `json:"username"`

	// Date is the RFC3339 UTC creation timestamp. Immutable.
	Date string `json:"date"`
}

// Draft is an unpersisted candidate post. For non-text types MediaRef
// holds the platform file reference that still needs resolving.
type Draft struct {
	Type     PostType
	Text     string
	MediaRef string
	Caption  string
	UserID   int64
	Username string
}

// User is a registered poster.
type User struct {
	ID           int64  `json:"id"`
	Username     string `json:"username"`
	FirstName    string `json:"firstName"`
	LastName     string `json:"lastName"`
	RegisteredAt string `json:"registeredAt"`
}

// Message is a direct text relayed through the bot between two identities.
type Message struct {
	From string `json:"from"`
	To   string `json:"to"`
	Text string `json:"text"`
	Date string `json:"date"`
}

// PresenceRecord is the persisted projection of a user's derived status.
type PresenceRecord struct {
	Username string `json:"username"`
	PhotoURL string `json:"photo_url"`
	Status   string `json:"status"`
}

const (
	StatusOnline  = "online"
	StatusOffline = "offline"
)

// ErrorRecord is a persisted boundary failure, correlated to the errorId
// returned to the caller.
type ErrorRecord struct {
	ID      string `json:"id"`
	Context string `json:"context"`
	Message string `json:"message"`
	Date    string `json:"date"`
}
