package gateway

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/gorilla/websocket"
)

const reconnectBackoff = 5 * time.Second

// Handler consumes parsed updates from the stream.
type Handler interface {
	HandleUpdate(ctx context.Context, update *Update)
}

// Stream connects to the chat gateway's websocket push endpoint and feeds
// incoming messages to the handler.
type Stream struct {
	url     string
	token   string
	handler Handler
	logger  *slog.Logger
}

// NewStream creates a gateway stream.
func NewStream(wsURL, token string, handler Handler, logger *slog.Logger) *Stream {
	return &Stream{url: wsURL, token: token, handler: handler, logger: logger}
}

// Start connects and processes updates until the context is cancelled,
// reconnecting on transient errors.
func (s *Stream) Start(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
			if err := s.consume(ctx); err != nil {
				s.logger.Error("gateway connection error, reconnecting", "error", err)
				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-time.After(reconnectBackoff):
				}
			}
		}
	}
}

func (s *Stream) buildURL() string {
	u, _ := url.Parse(s.url)
	q := u.Query()
	q.Set("token", s.token)
	u.RawQuery = q.Encode()
	return u.String()
}

func (s *Stream) consume(ctx context.Context) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, s.buildURL(), nil)
	if err != nil {
		return fmt.Errorf("dial gateway: %w", err)
	}
	defer conn.Close()

	s.logger.Info("connected to gateway")

	var eventsReceived, updatesHandled int64
	lastStatsLog := time.Now()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		_, message, err := conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("read message: %w", err)
		}

		eventsReceived++

		update, err := parseEvent(message)
		if err != nil {
			s.logger.Error("failed to parse event", "error", err)
			continue
		}
		if update == nil {
			continue
		}

		updatesHandled++
		s.handler.HandleUpdate(ctx, update)

		if time.Since(lastStatsLog) >= 30*time.Second {
			s.logger.Info("gateway stats",
				"events_received", eventsReceived,
				"updates_handled", updatesHandled,
			)
			lastStatsLog = time.Now()
		}
	}
}
