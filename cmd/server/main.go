package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"nootboard/internal/bot"
	"nootboard/internal/config"
	"nootboard/internal/domain"
	"nootboard/internal/feedview"
	"nootboard/internal/gateway"
	"nootboard/internal/httpserver"
	"nootboard/internal/media"
	"nootboard/internal/qrcode"
	"nootboard/internal/storage"
	"nootboard/internal/storage/jsonfile"
	"nootboard/internal/storage/sqlite"
	"nootboard/internal/weather"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Collection store
	var backend storage.Backend
	switch cfg.StorageDriver {
	case "sqlite":
		sq, err := sqlite.New(cfg.SQLitePath)
		if err != nil {
			return fmt.Errorf("open sqlite store: %w", err)
		}
		defer sq.Close()
		backend = sq
	default:
		jf, err := jsonfile.New(cfg.DataDir)
		if err != nil {
			return fmt.Errorf("open jsonfile store: %w", err)
		}
		backend = jf
	}
	store := storage.New(backend)
	logger.Info("store ready", "driver", cfg.StorageDriver)

	// Chat transport and collaborators
	transport := gateway.NewClient(cfg.GatewayAPIURL, cfg.GatewayToken)

	var resolver domain.MediaResolver
	if cfg.MediaDriver == "s3" {
		s3r, err := media.NewS3Resolver(ctx, transport, media.S3Config{
			Region:        cfg.S3Region,
			Endpoint:      cfg.S3Endpoint,
			Bucket:        cfg.S3Bucket,
			AccessKey:     cfg.S3AccessKey,
			SecretKey:     cfg.S3SecretKey,
			PublicBaseURL: cfg.S3PublicBaseURL,
		})
		if err != nil {
			return fmt.Errorf("create s3 resolver: %w", err)
		}
		resolver = s3r
	} else {
		resolver = media.NewGatewayResolver(transport)
	}

	// Domain services
	policy := domain.NewPolicy(store, store, store, cfg.DailyPostCap)
	posts := domain.NewPostService(store, resolver, domain.PostServiceConfig{
		Admins:        cfg.AdminUsernames,
		MaxTextLen:    cfg.MaxTextLen,
		MaxCaptionLen: cfg.MaxCaptionLen,
	}, logger)
	users := domain.NewUserService(store, store, logger)
	messages := domain.NewMessageService(store)
	errs := domain.NewErrorLog(store, logger)
	presence := domain.NewPresenceTracker(store, store, cfg.OnlineThreshold, userpicURL, logger)

	// Bot pipeline
	scheduler := bot.NewScheduler(transport, cfg.EphemeralDeleteDelay, logger)
	defer scheduler.Stop()

	b := bot.New(bot.Config{
		Transport:  transport,
		Policy:     policy,
		Posts:      posts,
		Users:      users,
		Messages:   messages,
		Presence:   presence,
		Errors:     errs,
		Weather:    weather.NewClient(cfg.WeatherAPIURL),
		QR:         qrcode.NewEncoder(),
		Scheduler:  scheduler,
		AdminInbox: cfg.AdminUsernames[0],
	}, logger)

	stream := gateway.NewStream(cfg.GatewayURL, cfg.GatewayToken, b, logger)
	go func() {
		if err := stream.Start(ctx); err != nil && ctx.Err() == nil {
			logger.Error("gateway stream exited with error", "error", err)
		}
	}()

	go presence.Run(ctx, cfg.PresenceTick)

	// Feed poller reads through the public API, like the browser does.
	source := feedview.NewHTTPSource(fmt.Sprintf("http://localhost:%d/api/posts", cfg.Port))
	poller := feedview.NewPoller(source, []feedview.Container{
		{ID: "posts-container"},
		{ID: "terminal-posts-container", Viewer: cfg.AdminUsernames[0]},
	}, cfg.AdminUsernames, logger)
	go poller.Run(ctx, cfg.FeedPollInterval)

	server := httpserver.NewServer(cfg, posts, users, messages, presence, errs, poller, logger)
	go func() {
		if err := server.Start(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server exited with error", "error", err)
		}
	}()

	logger.Info("server started", "port", cfg.Port)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	logger.Info("received signal, shutting down", "signal", sig)
	cancel()

	if err := server.Shutdown(context.Background()); err != nil {
		logger.Error("error shutting down http server", "error", err)
	}

	return nil
}

// userpicURL derives the public avatar URL for a username.
func userpicURL(username string) string {
	return fmt.Sprintf("https://t.me/i/userpic/320/%s.jpg", username)
}
