package service

import "sync/atomic"

// Settings are the runtime-editable, process-wide values
type Settings struct {
	TokenResetTime           ResetTime
	EmergencyProtocolEnabled bool
}

// SettingsHolder publishes an immutable Settings snapshot. Operations read
// the snapshot once at their start, so an update never affects one that is
// already running.
type SettingsHolder struct {
	current atomic.Pointer[Settings]
}

func NewSettingsHolder(initial Settings) *SettingsHolder {
	h := &SettingsHolder{}
	h.Set(initial)
	return h
}

func (h *SettingsHolder) Current() Settings {
	return *h.current.Load()
}

func (h *SettingsHolder) Set(s Settings) {
	h.current.Store(&s)
}
