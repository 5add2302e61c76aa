package gateway

import (
	"encoding/json"
	"fmt"

	"nootboard/internal/domain"
)

// wireEvent is the raw JSON structure of a gateway push.
type wireEvent struct {
	Kind    string       `json:"kind"`
	Message *wireMessage `json:"message,omitempty"`
}

// wireMessage is an incoming chat message as sent by the gateway.
type wireMessage struct {
	ChatID    int64     `json:"chat_id"`
	MessageID int64     `json:"message_id"`
	Date      int64     `json:"date"`
	From      wireUser  `json:"from"`
	Text      string    `json:"text,omitempty"`
	Photo     string    `json:"photo,omitempty"`
	Video     string    `json:"video,omitempty"`
	Audio     string    `json:"audio,omitempty"`
	Caption   string    `json:"caption,omitempty"`
}

type wireUser struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
}

// Update is a parsed incoming message handed to the bot.
type Update struct {
	ChatID    int64
	MessageID int64
	UserID    int64
	Username  string
	FirstName string
	LastName  string

	// Text is the message text, empty for media messages.
	Text string

	// MediaType is the post type implied by the attachment, or empty for
	// plain text.
	MediaType domain.PostType

	// MediaRef is the platform file reference of the attachment.
	MediaRef string

	Caption string
}

func parseEvent(data []byte) (*Update, error) {
	var event wireEvent
	if err := json.Unmarshal(data, &event); err != nil {
		return nil, fmt.Errorf("unmarshal event: %w", err)
	}
	if event.Kind != "message" || event.Message == nil {
		return nil, nil
	}

	m := event.Message
	update := &Update{
		ChatID:    m.ChatID,
		MessageID: m.MessageID,
		UserID:    m.From.ID,
		Username:  m.From.Username,
		FirstName: m.From.FirstName,
		LastName:  m.From.LastName,
		Text:      m.Text,
		Caption:   m.Caption,
	}

	switch {
	case m.Photo != "":
		update.MediaType = domain.PostPhoto
		update.MediaRef = m.Photo
	case m.Video != "":
		update.MediaType = domain.PostVideo
		update.MediaRef = m.Video
	case m.Audio != "":
		update.MediaType = domain.PostAudio
		update.MediaRef = m.Audio
	}

	return update, nil
}
