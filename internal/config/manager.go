package config

import (
	"context"
	"log/slog"
	"sync"

	"github.com/domwatch/dominance-bot/internal/model"
	"github.com/domwatch/dominance-bot/internal/store"
)

// Manager owns the runtime-mutable settings. Environment values are the
// base; the persisted overrides document is layered on top at load time and
// rewritten on every mutation. Save failures are logged, never fatal — the
// in-memory change still applies.
type Manager struct {
	store store.Store
	base  Config

	mu       sync.RWMutex
	interval int
	min      float64
	max      float64
	sendInfo bool
}

// NewManager creates a manager seeded from the environment configuration.
// Call Load to apply persisted overrides.
func NewManager(base Config, st store.Store) *Manager {
	return &Manager{
		store:    st,
		base:     base,
		interval: base.IntervalHours,
		min:      base.MinThreshold,
		max:      base.MaxThreshold,
		sendInfo: base.SendInfo,
	}
}

// Load applies the persisted overrides document on top of the current values.
func (m *Manager) Load(ctx context.Context) error {
	overrides, err := m.store.LoadSettings(ctx)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if overrides.CheckIntervalHours != nil {
		m.interval = *overrides.CheckIntervalHours
	}
	if overrides.MinThreshold != nil {
		m.min = *overrides.MinThreshold
	}
	if overrides.MaxThreshold != nil {
		m.max = *overrides.MaxThreshold
	}
	if overrides.SendInfoMessages != nil {
		m.sendInfo = *overrides.SendInfoMessages
	}
	return nil
}

// Reload resets to the environment base and re-applies persisted overrides.
func (m *Manager) Reload(ctx context.Context) error {
	m.mu.Lock()
	m.interval = m.base.IntervalHours
	m.min = m.base.MinThreshold
	m.max = m.base.MaxThreshold
	m.sendInfo = m.base.SendInfo
	m.mu.Unlock()

	return m.Load(ctx)
}

// Settings returns a consistent snapshot of the current settings.
func (m *Manager) Settings() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return Snapshot{
		IntervalHours: m.interval,
		MinThreshold:  m.min,
		MaxThreshold:  m.max,
		SendInfo:      m.sendInfo,
	}
}

// SetInterval updates the check interval, valid range 1-24 hours.
func (m *Manager) SetInterval(ctx context.Context, hours int) error {
	if hours < 1 || hours > 24 {
		return ErrIntervalRange
	}
	m.mu.Lock()
	m.interval = hours
	m.mu.Unlock()

	m.persist(ctx)
	return nil
}

// SetThresholds updates the dominance band. min must be below max and both
// within [0, 100].
func (m *Manager) SetThresholds(ctx context.Context, min, max float64) error {
	if min >= max {
		return ErrThresholdOrder
	}
	if min < 0 || max > 100 {
		return ErrThresholdRange
	}
	m.mu.Lock()
	m.min = min
	m.max = max
	m.mu.Unlock()

	m.persist(ctx)
	return nil
}

// ToggleInfoMessages flips the informational-message switch and returns the
// new state.
func (m *Manager) ToggleInfoMessages(ctx context.Context) bool {
	m.mu.Lock()
	m.sendInfo = !m.sendInfo
	enabled := m.sendInfo
	m.mu.Unlock()

	m.persist(ctx)
	return enabled
}

// IsAdmin reports whether userID may run admin commands. An empty allow-list
// means everyone is an admin.
func (m *Manager) IsAdmin(userID int64) bool {
	if len(m.base.AdminIDs) == 0 {
		return true
	}
	for _, id := range m.base.AdminIDs {
		if id == userID {
			return true
		}
	}
	return false
}

// AlertChatID is the destination for scheduled monitor notifications.
func (m *Manager) AlertChatID() int64 {
	return m.base.AlertChatID
}

// persist rewrites the overrides document with the current values.
func (m *Manager) persist(ctx context.Context) {
	s := m.Settings()
	doc := &model.Settings{
		CheckIntervalHours: &s.IntervalHours,
		MinThreshold:       &s.MinThreshold,
		MaxThreshold:       &s.MaxThreshold,
		SendInfoMessages:   &s.SendInfo,
	}
	if err := m.store.SaveSettings(ctx, doc); err != nil {
		slog.Warn("settings save failed", "err", err)
	}
}
