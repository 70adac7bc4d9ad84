package config

import (
	"time"

	"github.com/spf13/viper"
)

type AuthMode string

const (
	AuthModeNone  AuthMode = "none"  // No authentication required, a default user is injected
	AuthModeLocal AuthMode = "local" // Local user database with sessions
)

type (
	Config struct {
		HTTP
		Global
		Database
		Metadata
		UI
		Tasks
		Cleanup
		Auth
	}

	HTTP struct {
		Port int32
		Host string
	}

	Global struct {
		ShutdownTimeoutInSeconds int
	}

	Database struct {
		Path string
	}

	// Metadata configures the external ISBN lookup providers.
	Metadata struct {
		Providers       []string // Enabled providers; empty means all known
		DefaultProvider string
		CalibreFetcher  string // Path to calibre's fetch-ebook-metadata binary
		Contact         string // Contact included in the OpenLibrary User-Agent
		ImageDir        string // Directory for stored cover images
	}

	UI struct {
		TemplatesPath string
		StaticPath    string
	}

	// Tasks sizes the background queue; per-queue retry and timeout
	// policies are fixed on the task types.
	Tasks struct {
		Enabled         bool
		Workers         int
		ReleaseAfter    time.Duration
		CleanupInterval time.Duration
	}

	// Cleanup schedules the orphan author/tag reaper.
	Cleanup struct {
		Enabled  bool
		Schedule string // Cron format: "0 4 * * *" = daily at 04:00
	}

	Auth struct {
		Mode            AuthMode
		SessionSecret   string
		SessionLifetime time.Duration
		BcryptCost      int
		SecureCookies   bool // Set to false for local dev without HTTPS
	}
)

func NewConfig() *Config {
	v := viper.New()
	v.AutomaticEnv()
	v.SetEnvPrefix("BOUQUINEUR")

	v.SetDefault("port", 8184)
	v.SetDefault("host", "0.0.0.0")
	v.SetDefault("shutdown_timeout_in_seconds", 2)
	v.SetDefault("database_path", DefaultDatabasePath)
	v.SetDefault("templates_path", "./templates")
	v.SetDefault("static_path", "./static")

	v.SetDefault("metadata_providers", []string{})
	v.SetDefault("metadata_default_provider", "openlibrary")
	v.SetDefault("metadata_calibre_fetcher", "fetch-ebook-metadata")
	v.SetDefault("metadata_contact", "")
	v.SetDefault("metadata_image_dir", DefaultImageDir)

	v.SetDefault("tasks_enabled", true)
	v.SetDefault("tasks_workers", 2)
	v.SetDefault("tasks_release_after", 10*time.Minute)
	v.SetDefault("tasks_cleanup_interval", time.Hour)

	v.SetDefault("cleanup_enabled", true)
	v.SetDefault("cleanup_schedule", "0 4 * * *")

	v.SetDefault("auth_mode", string(AuthModeLocal))
	v.SetDefault("auth_session_secret", "")
	v.SetDefault("auth_session_lifetime", 7*24*time.Hour)
	v.SetDefault("auth_bcrypt_cost", 12)
	v.SetDefault("auth_secure_cookies", true)

	return &Config{
		HTTP: HTTP{
			Port: v.GetInt32("port"),
			Host: v.GetString("host"),
		},
		Global: Global{
			ShutdownTimeoutInSeconds: v.GetInt("shutdown_timeout_in_seconds"),
		},
		Database: Database{
			Path: v.GetString("database_path"),
		},
		Metadata: Metadata{
			Providers:       v.GetStringSlice("metadata_providers"),
			DefaultProvider: v.GetString("metadata_default_provider"),
			CalibreFetcher:  v.GetString("metadata_calibre_fetcher"),
			Contact:         v.GetString("metadata_contact"),
			ImageDir:        v.GetString("metadata_image_dir"),
		},
		UI: UI{
			TemplatesPath: v.GetString("templates_path"),
			StaticPath:    v.GetString("static_path"),
		},
		Tasks: Tasks{
			Enabled:         v.GetBool("tasks_enabled"),
			Workers:         v.GetInt("tasks_workers"),
			ReleaseAfter:    v.GetDuration("tasks_release_after"),
			CleanupInterval: v.GetDuration("tasks_cleanup_interval"),
		},
		Cleanup: Cleanup{
			Enabled:  v.GetBool("cleanup_enabled"),
			Schedule: v.GetString("cleanup_schedule"),
		},
		Auth: Auth{
			Mode:            AuthMode(v.GetString("auth_mode")),
			SessionSecret:   v.GetString("auth_session_secret"),
			SessionLifetime: v.GetDuration("auth_session_lifetime"),
			BcryptCost:      v.GetInt("auth_bcrypt_cost"),
			SecureCookies:   v.GetBool("auth_secure_cookies"),
		},
	}
}
