package model

import "sync/atomic"

// SettingsHolder publishes the current configuration to long-running
// components. Readers always see a complete snapshot.
type SettingsHolder struct {
	cfg atomic.Pointer[AppConfig]
}

// NewSettingsHolder returns a holder initialized with cfg, or with the
// defaults when cfg is nil.
func NewSettingsHolder(cfg *AppConfig) *SettingsHolder {
	h := &SettingsHolder{}
	if cfg == nil {
		cfg = DefaultAppConfig()
	}
	h.cfg.Store(cfg)
	return h
}

// Store replaces the current configuration.
func (h *SettingsHolder) Store(cfg *AppConfig) {
	if cfg == nil {
		return
	}
	h.cfg.Store(cfg)
}

// Config returns the current configuration snapshot.
func (h *SettingsHolder) Config() *AppConfig {
	return h.cfg.Load()
}

// Notifications returns the current notification settings.
func (h *SettingsHolder) Notifications() NotificationConfig {
	return h.cfg.Load().Notifications
}
