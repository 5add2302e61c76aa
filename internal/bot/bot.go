// Package bot routes incoming chat updates to the domain services:
// command dispatch, the pending-input conversation flow, and ephemeral
// notification cleanup.
package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"nootboard/internal/domain"
	"nootboard/internal/gateway"
)

const helpText = `Commands:
/start - register to post
/help - this message
/nootcts - submit a post (text, photo, video or audio)
/generate - turn text into a QR code
/weather - current weather for a city`

// genericDenial is returned for any unauthorized admin command. It stays
// vague on purpose.
const genericDenial = "Command unavailable."

// Bot consumes gateway updates and drives the posting pipeline.
type Bot struct {
	transport domain.ChatTransport
	policy    *domain.Policy
	posts     *domain.PostService
	users     *domain.UserService
	messages  *domain.MessageService
	presence  *domain.PresenceTracker
	errs      *domain.ErrorLog
	weather   domain.WeatherProvider
	qr        domain.QREncoder
	scheduler *Scheduler
	pending   *pendingInputs

	// adminInbox receives direct texts relayed from users.
	adminInbox string

	now    func() time.Time
	logger *slog.Logger
}

// Config wires a Bot.
type Config struct {
	Transport  domain.ChatTransport
	Policy     *domain.Policy
	Posts      *domain.PostService
	Users      *domain.UserService
	Messages   *domain.MessageService
	Presence   *domain.PresenceTracker
	Errors     *domain.ErrorLog
	Weather    domain.WeatherProvider
	QR         domain.QREncoder
	Scheduler  *Scheduler
	AdminInbox string
	PendingTTL time.Duration
}

// New creates a Bot.
func New(cfg Config, logger *slog.Logger) *Bot {
	return &Bot{
		transport:  cfg.Transport,
		policy:     cfg.Policy,
		posts:      cfg.Posts,
		users:      cfg.Users,
		messages:   cfg.Messages,
		presence:   cfg.Presence,
		errs:       cfg.Errors,
		weather:    cfg.Weather,
		qr:         cfg.QR,
		scheduler:  cfg.Scheduler,
		pending:    newPendingInputs(cfg.PendingTTL),
		adminInbox: strings.ToLower(cfg.AdminInbox),
		now:        time.Now,
		logger:     logger,
	}
}

// WithClock replaces the bot clock. Test hook.
func (b *Bot) WithClock(now func() time.Time) *Bot {
	b.now = now
	b.pending.now = now
	return b
}

// HandleUpdate implements gateway.Handler. Every failure is caught here:
// nothing coming out of a chat update may crash the process.
func (b *Bot) HandleUpdate(ctx context.Context, u *gateway.Update) {
	b.presence.Touch(strings.ToLower(u.Username), b.now())

	if strings.HasPrefix(u.Text, "/") {
		b.handleCommand(ctx, u)
		return
	}

	if kind, ok := b.pending.consume(u.ChatID); ok {
		b.handlePendingInput(ctx, u, kind)
		return
	}

	// A plain text outside any flow is relayed to the admin inbox.
	if u.MediaType == "" && u.Text != "" && b.adminInbox != "" {
		if err := b.messages.Append(ctx, u.Username, b.adminInbox, u.Text); err != nil {
			b.errs.Record(ctx, "bot.relay", err)
		}
	}
}

func (b *Bot) handleCommand(ctx context.Context, u *gateway.Update) {
	cmd, arg, _ := strings.Cut(u.Text, " ")
	arg = strings.TrimSpace(arg)

	switch cmd {
	case "/start":
		b.handleStart(ctx, u)
	case "/help":
		b.notify(ctx, u.ChatID, helpText)
	case "/generate":
		b.pending.set(u.ChatID, expectQRText)
		b.notify(ctx, u.ChatID, "Send the text you want as a QR code.")
	case "/weather":
		b.pending.set(u.ChatID, expectCity)
		b.notify(ctx, u.ChatID, "Which city?")
	case "/nootcts":
		b.handleNootcts(ctx, u)
	case "/ban":
		b.handleBan(ctx, u, arg, true)
	case "/unban":
		b.handleBan(ctx, u, arg, false)
	default:
		b.notify(ctx, u.ChatID, "Unknown command. Try /help.")
	}
}

func (b *Bot) handleStart(ctx context.Context, u *gateway.Update) {
	_, err := b.users.Register(ctx, u.UserID, u.Username, u.FirstName, u.LastName)
	switch {
	case errors.Is(err, domain.ErrAlreadyRegistered):
		b.notify(ctx, u.ChatID, "You are already registered.")
	case err != nil:
		b.reportError(ctx, u.ChatID, "bot./start", err)
	default:
		b.notify(ctx, u.ChatID, "Registered! Use /nootcts to post.")
	}
}

func (b *Bot) handleNootcts(ctx context.Context, u *gateway.Update) {
	err := b.policy.CanPost(ctx, u.UserID, u.Username, b.now())
	switch {
	case errors.Is(err, domain.ErrBanned):
		b.notify(ctx, u.ChatID, genericDenial)
	case errors.Is(err, domain.ErrUnregistered):
		b.notify(ctx, u.ChatID, "You need to register first: /start")
	case errors.Is(err, domain.ErrRateLimited):
		b.notify(ctx, u.ChatID, "Daily post limit reached, try again tomorrow.")
	case err != nil:
		b.reportError(ctx, u.ChatID, "bot./nootcts", err)
	default:
		b.pending.set(u.ChatID, expectPost)
		b.notify(ctx, u.ChatID, "Send your post: text, photo, video or audio.")
	}
}

func (b *Bot) handleBan(ctx context.Context, u *gateway.Update, arg string, ban bool) {
	if !b.posts.IsAdmin(u.Username) {
		b.notify(ctx, u.ChatID, genericDenial)
		return
	}
	if arg == "" {
		b.notify(ctx, u.ChatID, "Usage: /ban <username>")
		return
	}

	var err error
	if ban {
		err = b.users.Ban(ctx, arg)
	} else {
		err = b.users.Unban(ctx, arg)
	}
	if err != nil {
		b.reportError(ctx, u.ChatID, "bot./ban", err)
		return
	}
	if ban {
		b.notify(ctx, u.ChatID, fmt.Sprintf("Banned %s.", strings.ToLower(strings.TrimPrefix(arg, "@"))))
	} else {
		b.notify(ctx, u.ChatID, fmt.Sprintf("Unbanned %s.", strings.ToLower(strings.TrimPrefix(arg, "@"))))
	}
}

func (b *Bot) handlePendingInput(ctx context.Context, u *gateway.Update, kind inputKind) {
	switch kind {
	case expectCity:
		b.handleWeatherCity(ctx, u)
	case expectQRText:
		b.handleQRText(ctx, u)
	case expectPost:
		b.handlePostInput(ctx, u)
	}
}

func (b *Bot) handleWeatherCity(ctx context.Context, u *gateway.Update) {
	if u.Text == "" {
		b.notify(ctx, u.ChatID, "That doesn't look like a city name.")
		return
	}
	report, err := b.weather.Current(ctx, u.Text)
	if err != nil {
		b.reportError(ctx, u.ChatID, "bot.weather", err)
		return
	}
	b.notify(ctx, u.ChatID, report)
}

func (b *Bot) handleQRText(ctx context.Context, u *gateway.Update) {
	if u.Text == "" {
		b.notify(ctx, u.ChatID, "Send plain text to encode.")
		return
	}
	png, err := b.qr.EncodePNG(u.Text)
	if err != nil {
		b.reportError(ctx, u.ChatID, "bot.generate", err)
		return
	}
	if _, err := b.transport.SendPhoto(ctx, u.ChatID, png, ""); err != nil {
		b.logger.Error("failed to send QR code", "chat_id", u.ChatID, "error", err)
	}
}

func (b *Bot) handlePostInput(ctx context.Context, u *gateway.Update) {
	draft := domain.Draft{
		UserID:   u.UserID,
		Username: u.Username,
	}
	if u.MediaType != "" {
		draft.Type = u.MediaType
		draft.MediaRef = u.MediaRef
		draft.Caption = u.Caption
	} else if u.Text != "" {
		draft.Type = domain.PostText
		draft.Text = u.Text
	} else {
		b.notify(ctx, u.ChatID, "Nothing to post. Try /nootcts again.")
		return
	}

	post, err := b.posts.CreatePost(ctx, draft)
	switch {
	case errors.Is(err, domain.ErrTextTooLong):
		b.notify(ctx, u.ChatID, fmt.Sprintf("Too long, keep it under %d characters.", domain.DefaultMaxTextLen))
	case err != nil:
		b.reportError(ctx, u.ChatID, "bot.post", err)
	default:
		b.logger.Info("post created", "id", post.ID, "type", post.Type, "user", post.Username)
		b.notify(ctx, u.ChatID, "Posted!")
	}
}

// notify sends a transient reply and schedules its deletion. Transport
// failures are logged, never surfaced.
func (b *Bot) notify(ctx context.Context, chatID int64, text string) {
	messageID, err := b.transport.SendMessage(ctx, chatID, text)
	if err != nil {
		b.logger.Error("failed to send notification", "chat_id", chatID, "error", err)
		return
	}
	b.scheduler.Schedule(chatID, messageID)
}

// reportError persists the failure and tells the user the reference id.
func (b *Bot) reportError(ctx context.Context, chatID int64, origin string, err error) {
	id := b.errs.Record(ctx, origin, err)
	b.notify(ctx, chatID, fmt.Sprintf("Something went wrong. Reference: %s", id))
}
