package model

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// NotificationConfig holds reminder delivery settings.
type NotificationConfig struct {
	// Enabled turns reminder delivery on or off as a whole.
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// DefaultLeadMinutes is subtracted from a deadline to derive a reminder.
	DefaultLeadMinutes int `mapstructure:"default_lead_minutes" yaml:"default_lead_minutes"`

	// SnoozeMinutes is how far a snoozed reminder is pushed into the future.
	SnoozeMinutes int `mapstructure:"snooze_minutes" yaml:"snooze_minutes"`

	// Sound is passed through to notifiers; it does not affect scheduling.
	Sound bool `mapstructure:"sound" yaml:"sound"`

	// PollIntervalSec is how often the reminder scheduler checks for due reminders.
	PollIntervalSec int `mapstructure:"poll_interval_sec" yaml:"poll_interval_sec"`

	// InitialDelaySec delays the first check after startup.
	InitialDelaySec int `mapstructure:"initial_delay_sec" yaml:"initial_delay_sec"`
}

// PlannerConfig holds agenda and risk settings.
type PlannerConfig struct {
	// RiskWindowDays bounds how far ahead at-risk candidates are looked for.
	RiskWindowDays int `mapstructure:"risk_window_days" yaml:"risk_window_days"`

	// AgendaDays is the default span of the agenda view, today included.
	AgendaDays int `mapstructure:"agenda_days" yaml:"agenda_days"`
}

// StorageConfig holds the location of the embedded database.
type StorageConfig struct {
	Path string `mapstructure:"path" yaml:"path"`
}

// MailConfig holds settings for delivering reminders into an IMAP mailbox.
// The password is read from the system keyring, never from this file.
type MailConfig struct {
	Enabled  bool   `mapstructure:"enabled" yaml:"enabled"`
	Host     string `mapstructure:"host" yaml:"host"`
	Port     string `mapstructure:"port" yaml:"port"`
	Username string `mapstructure:"username" yaml:"username"`
	TLS      bool   `mapstructure:"tls" yaml:"tls"`
	Mailbox  string `mapstructure:"mailbox" yaml:"mailbox"`
	From     string `mapstructure:"from" yaml:"from"`
}

// ServerConfig holds the HTTP API listen address.
type ServerConfig struct {
	Addr string `mapstructure:"addr" yaml:"addr"`
}

// AppConfig is the top-level application configuration.
type AppConfig struct {
	Notifications NotificationConfig `mapstructure:"notifications" yaml:"notifications"`
	Planner       PlannerConfig      `mapstructure:"planner" yaml:"planner"`
	Storage       StorageConfig      `mapstructure:"storage" yaml:"storage"`
	Mail          MailConfig         `mapstructure:"mail" yaml:"mail"`
	Server        ServerConfig       `mapstructure:"server" yaml:"server"`
}

// envPrefix namespaces environment overrides, e.g. PLANNER_NOTIFICATIONS_ENABLED.
const envPrefix = "PLANNER"

// DefaultConfigDir returns ~/.config/planner.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", "planner")
}

// DefaultConfigPath returns the default path for the configuration file,
// located at ~/.config/planner/config.yaml.
func DefaultConfigPath() string {
	return filepath.Join(DefaultConfigDir(), "config.yaml")
}

// DefaultAppConfig returns a sensible default configuration.
func DefaultAppConfig() *AppConfig {
	return &AppConfig{
		Notifications: NotificationConfig{
			Enabled:            true,
			DefaultLeadMinutes: 15,
			SnoozeMinutes:      10,
			Sound:              true,
			PollIntervalSec:    60,
			InitialDelaySec:    5,
		},
		Planner: PlannerConfig{
			RiskWindowDays: 7,
			AgendaDays:     7,
		},
		Storage: StorageConfig{
			Path: filepath.Join(DefaultConfigDir(), "planner.db"),
		},
		Mail: MailConfig{
			Port:    "993",
			TLS:     true,
			Mailbox: "INBOX",
		},
		Server: ServerConfig{
			Addr: "127.0.0.1:8765",
		},
	}
}

// newViper builds a viper instance for path with every key defaulted so
// that environment overrides resolve during Unmarshal.
func newViper(path string) *viper.Viper {
	def := DefaultAppConfig()

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("notifications.enabled", def.Notifications.Enabled)
	v.SetDefault("notifications.default_lead_minutes", def.Notifications.DefaultLeadMinutes)
	v.SetDefault("notifications.snooze_minutes", def.Notifications.SnoozeMinutes)
	v.SetDefault("notifications.sound", def.Notifications.Sound)
	v.SetDefault("notifications.poll_interval_sec", def.Notifications.PollIntervalSec)
	v.SetDefault("notifications.initial_delay_sec", def.Notifications.InitialDelaySec)
	v.SetDefault("planner.risk_window_days", def.Planner.RiskWindowDays)
	v.SetDefault("planner.agenda_days", def.Planner.AgendaDays)
	v.SetDefault("storage.path", def.Storage.Path)
	v.SetDefault("mail.enabled", def.Mail.Enabled)
	v.SetDefault("mail.host", def.Mail.Host)
	v.SetDefault("mail.port", def.Mail.Port)
	v.SetDefault("mail.username", def.Mail.Username)
	v.SetDefault("mail.tls", def.Mail.TLS)
	v.SetDefault("mail.mailbox", def.Mail.Mailbox)
	v.SetDefault("mail.from", def.Mail.From)
	v.SetDefault("server.addr", def.Server.Addr)

	return v
}

// decode unmarshals v into a fresh config and clamps values that would
// make the scheduler misbehave.
func decode(v *viper.Viper) (*AppConfig, error) {
	cfg := DefaultAppConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}

	if cfg.Notifications.PollIntervalSec <= 0 {
		cfg.Notifications.PollIntervalSec = 60
	}
	if cfg.Notifications.InitialDelaySec < 0 {
		cfg.Notifications.InitialDelaySec = 0
	}
	if cfg.Notifications.SnoozeMinutes <= 0 {
		cfg.Notifications.SnoozeMinutes = 10
	}
	if cfg.Notifications.DefaultLeadMinutes < 0 {
		cfg.Notifications.DefaultLeadMinutes = 0
	}
	if cfg.Planner.RiskWindowDays <= 0 {
		cfg.Planner.RiskWindowDays = 7
	}
	if cfg.Planner.AgendaDays <= 0 {
		cfg.Planner.AgendaDays = 7
	}

	return cfg, nil
}

// LoadConfig reads configuration from the given YAML file path using Viper.
// If the file does not exist, defaults (plus environment overrides) are used.
func LoadConfig(path string) (*AppConfig, error) {
	v := newViper(path)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(*os.PathError); !ok {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("reading config %s: %w", path, err)
			}
		}
	}

	cfg, err := decode(v)
	if err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	return cfg, nil
}

// SaveConfig writes the given configuration to a YAML file at path,
// creating parent directories if needed.
func SaveConfig(path string, cfg *AppConfig) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.Set("notifications", cfg.Notifications)
	v.Set("planner", cfg.Planner)
	v.Set("storage", cfg.Storage)
	v.Set("mail", cfg.Mail)
	v.Set("server", cfg.Server)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}

	return nil
}

// WatchConfig re-reads the file at path whenever it changes and stores the
// result in holder. Parse failures keep the previous settings.
func WatchConfig(path string, holder *SettingsHolder, onError func(error)) error {
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("watching config %s: %w", path, err)
	}

	v := newViper(path)
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("reading config %s: %w", path, err)
	}

	v.OnConfigChange(func(_ fsnotify.Event) {
		cfg, err := decode(v)
		if err != nil {
			if onError != nil {
				onError(fmt.Errorf("reloading config %s: %w", path, err))
			}
			return
		}
		holder.Store(cfg)
	})
	v.WatchConfig()

	return nil
}
