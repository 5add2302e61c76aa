package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration for the application.
type Config struct {
	// Port is the HTTP server port.
	Port int

	// StorageDriver selects the collection store backend: "jsonfile" or
	// "sqlite".
	StorageDriver string

	// DataDir is the directory for the jsonfile backend.
	DataDir string

	// SQLitePath is the database file for the sqlite backend.
	SQLitePath string

	// GatewayURL is the chat gateway websocket endpoint for updates.
	GatewayURL string

	// GatewayAPIURL is the chat gateway HTTP API base for outbound calls.
	GatewayAPIURL string

	// GatewayToken authenticates both gateway connections.
	GatewayToken string

	// AdminUsernames is the fixed administrator identity set.
	AdminUsernames []string

	// DailyPostCap limits posts per user per UTC day.
	DailyPostCap int

	// MaxTextLen and MaxCaptionLen cap post content.
	MaxTextLen    int
	MaxCaptionLen int

	// EphemeralDeleteDelay is how long bot notifications live.
	EphemeralDeleteDelay time.Duration

	// PresenceTick is how often the presence projection is rewritten.
	PresenceTick time.Duration

	// OnlineThreshold is the recency window for online status.
	OnlineThreshold time.Duration

	// FeedPollInterval is the feed poller tick.
	FeedPollInterval time.Duration

	// WeatherAPIURL is the weather collaborator base URL.
	WeatherAPIURL string

	// MediaDriver selects media resolution: "gateway" or "s3".
	MediaDriver string

	// S3 settings, used when MediaDriver is "s3".
	S3Region        string
	S3Endpoint      string
	S3Bucket        string
	S3AccessKey     string
	S3SecretKey     string
	S3PublicBaseURL string
}

// Load reads configuration from environment variables with sensible
// defaults.
func Load() (*Config, error) {
	cfg := &Config{
		Port:                 3000,
		StorageDriver:        getenv("STORAGE_DRIVER", "jsonfile"),
		DataDir:              getenv("DATA_DIR", "data"),
		SQLitePath:           getenv("SQLITE_PATH", "nootboard.db"),
		GatewayURL:           getenv("GATEWAY_URL", "ws://localhost:8081/updates"),
		GatewayAPIURL:        getenv("GATEWAY_API_URL", "http://localhost:8081/api"),
		GatewayToken:         os.Getenv("GATEWAY_TOKEN"),
		DailyPostCap:         30,
		MaxTextLen:           1000,
		MaxCaptionLen:        1000,
		EphemeralDeleteDelay: 45 * time.Second,
		PresenceTick:         5 * time.Second,
		OnlineThreshold:      15 * time.Second,
		FeedPollInterval:     time.Second,
		WeatherAPIURL:        getenv("WEATHER_API_URL", "https://wttr.in"),
		MediaDriver:          getenv("MEDIA_DRIVER", "gateway"),
		S3Region:             getenv("S3_REGION", "us-east-1"),
		S3Endpoint:           os.Getenv("S3_ENDPOINT"),
		S3Bucket:             os.Getenv("S3_BUCKET"),
		S3AccessKey:          os.Getenv("S3_ACCESS_KEY"),
		S3SecretKey:          os.Getenv("S3_SECRET_KEY"),
		S3PublicBaseURL:      os.Getenv("S3_PUBLIC_BASE_URL"),
	}

	if p := os.Getenv("PORT"); p != "" {
		port, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("invalid PORT: %w", err)
		}
		cfg.Port = port
	}

	if admins := os.Getenv("ADMIN_USERNAMES"); admins != "" {
		for _, a := range strings.Split(admins, ",") {
			a = strings.ToLower(strings.TrimSpace(a))
			if a != "" {
				cfg.AdminUsernames = append(cfg.AdminUsernames, a)
			}
		}
	}
	if len(cfg.AdminUsernames) == 0 {
		return nil, fmt.Errorf("ADMIN_USERNAMES is required")
	}

	var err error
	if cfg.DailyPostCap, err = intEnv("DAILY_POST_CAP", cfg.DailyPostCap); err != nil {
		return nil, err
	}
	if cfg.MaxTextLen, err = intEnv("MAX_TEXT_LEN", cfg.MaxTextLen); err != nil {
		return nil, err
	}
	if cfg.MaxCaptionLen, err = intEnv("MAX_CAPTION_LEN", cfg.MaxCaptionLen); err != nil {
		return nil, err
	}
	if cfg.EphemeralDeleteDelay, err = durationEnv("EPHEMERAL_DELETE_DELAY", cfg.EphemeralDeleteDelay); err != nil {
		return nil, err
	}
	if cfg.PresenceTick, err = durationEnv("PRESENCE_TICK", cfg.PresenceTick); err != nil {
		return nil, err
	}
	if cfg.OnlineThreshold, err = durationEnv("ONLINE_THRESHOLD", cfg.OnlineThreshold); err != nil {
		return nil, err
	}
	if cfg.FeedPollInterval, err = durationEnv("FEED_POLL_INTERVAL", cfg.FeedPollInterval); err != nil {
		return nil, err
	}

	switch cfg.StorageDriver {
	case "jsonfile", "sqlite":
	default:
		return nil, fmt.Errorf("invalid STORAGE_DRIVER %q", cfg.StorageDriver)
	}
	switch cfg.MediaDriver {
	case "gateway":
	case "s3":
		if cfg.S3Bucket == "" {
			return nil, fmt.Errorf("S3_BUCKET is required when MEDIA_DRIVER=s3")
		}
	default:
		return nil, fmt.Errorf("invalid MEDIA_DRIVER %q", cfg.MediaDriver)
	}

	return cfg, nil
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func intEnv(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func durationEnv(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
