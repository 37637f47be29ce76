package cli

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/nhle/planner/internal/agenda"
	"github.com/nhle/planner/internal/credential"
	"github.com/nhle/planner/internal/model"
	"github.com/nhle/planner/internal/reminder"
	"github.com/nhle/planner/internal/store"
)

// env holds the collaborators shared by every command.
type env struct {
	cfgPath  string
	settings *model.SettingsHolder
	store    *store.SQLiteStore
	planner  *agenda.Planner
}

func resolveConfigPath() string {
	if configPath != "" {
		return configPath
	}
	return model.DefaultConfigPath()
}

// openEnv loads configuration and opens the database.
func openEnv() (*env, error) {
	path := resolveConfigPath()

	cfg, err := model.LoadConfig(path)
	if err != nil {
		return nil, err
	}
	if dbPath != "" {
		cfg.Storage.Path = dbPath
	}

	if dir := filepath.Dir(cfg.Storage.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating data directory %s: %w", dir, err)
		}
	}

	s, err := store.NewSQLiteStore(cfg.Storage.Path)
	if err != nil {
		return nil, fmt.Errorf("opening database %s: %w", cfg.Storage.Path, err)
	}

	settings := model.NewSettingsHolder(cfg)
	return &env{
		cfgPath:  path,
		settings: settings,
		store:    s,
		planner: agenda.NewPlanner(s, agenda.WithRiskWindow(func() int {
			return settings.Config().Planner.RiskWindowDays
		})),
	}, nil
}

func (e *env) close() {
	if err := e.store.Close(); err != nil {
		log.Printf("[cli] closing database: %v", err)
	}
}

// watchConfig reloads settings when the config file changes. A missing
// file is not an error; there is simply nothing to watch.
func (e *env) watchConfig() {
	if _, err := os.Stat(e.cfgPath); err != nil {
		return
	}
	err := model.WatchConfig(e.cfgPath, e.settings, func(err error) {
		log.Printf("[config] %v", err)
	})
	if err != nil {
		log.Printf("[config] watch disabled: %v", err)
		return
	}
	log.Printf("[config] watching %s", e.cfgPath)
}

// notifier builds the scheduler's notifier chain: log output, the mail
// notifier when configured, then any extra sinks.
func (e *env) notifier(extra ...reminder.Notifier) reminder.Notifier {
	chain := reminder.MultiNotifier{reminder.LogNotifier{}}

	mailCfg := e.settings.Config().Mail
	if mailCfg.Enabled {
		creds, err := credential.Open()
		if err != nil {
			log.Printf("[mail] keyring unavailable, mail reminders disabled: %v", err)
		} else {
			chain = append(chain, reminder.NewMailNotifier(mailCfg, creds.MailPassword(mailCfg.Username)))
		}
	}

	return append(chain, extra...)
}

// scheduler creates a reminder scheduler reading live settings.
func (e *env) scheduler(n reminder.Notifier) *reminder.Scheduler {
	return reminder.New(e.store, e.settings, n)
}

// parseDay parses a YYYY-MM-DD flag, with "today" and "tomorrow" accepted.
func parseDay(s string) (time.Time, error) {
	today := model.DateOf(time.Now())
	switch s {
	case "today":
		return today, nil
	case "tomorrow":
		return today.AddDate(0, 0, 1), nil
	}
	return model.ParseDate(s)
}
