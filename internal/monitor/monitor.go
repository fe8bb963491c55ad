// Package monitor implements the dominance alert state machine and the
// interval scheduler that drives it.
package monitor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/domwatch/dominance-bot/internal/config"
	"github.com/domwatch/dominance-bot/internal/market"
	"github.com/domwatch/dominance-bot/internal/metrics"
)

// reAlertDelta is the minimum dominance movement, in percentage points, that
// re-triggers an alert while the previous one is still active.
const reAlertDelta = 0.05

var (
	// ErrDominanceUnavailable is returned when the snapshot lacks the
	// monitored symbol or a usable total market cap.
	ErrDominanceUnavailable = errors.New("monitor: dominance data unavailable")

	// ErrNoNotifier is returned by DiscardNotifier so the state machine
	// treats every send as failed delivery.
	ErrNoNotifier = errors.New("monitor: notifier not configured")
)

// BandState classifies a dominance reading against the configured band.
type BandState int

const (
	// BandInside means the reading sits strictly inside the alert band.
	BandInside BandState = iota
	// BandAbove means the reading is at or above the maximum threshold.
	BandAbove
	// BandBelow means the reading is at or below the minimum threshold.
	BandBelow
)

// Reading is one computed dominance evaluation, carrying everything the
// notifier needs to render a message.
type Reading struct {
	Dominance      float64
	TotalMarketCap float64 // USD
	AssetMarketCap float64 // USD, dominance share of the total
	MinThreshold   float64
	MaxThreshold   float64
	State          BandState
	At             time.Time
}

// SnapshotSource provides global market snapshots.
type SnapshotSource interface {
	GlobalSnapshot(ctx context.Context) (*market.Snapshot, error)
}

// Notifier delivers monitor messages to a chat. A nil error means the
// message was delivered; the state machine only latches alert state on
// successful delivery.
type Notifier interface {
	NotifyStatus(ctx context.Context, chatID int64, r Reading) error
	NotifyAlert(ctx context.Context, chatID int64, r Reading) error
	NotifyError(ctx context.Context, chatID int64, err error) error
}

// DiscardNotifier is used when no chat transport is configured. Every send
// fails with ErrNoNotifier, which keeps alert state unlatched.
type DiscardNotifier struct{}

func (DiscardNotifier) NotifyStatus(context.Context, int64, Reading) error { return ErrNoNotifier }
func (DiscardNotifier) NotifyAlert(context.Context, int64, Reading) error  { return ErrNoNotifier }
func (DiscardNotifier) NotifyError(context.Context, int64, error) error    { return ErrNoNotifier }

// Monitor owns the alert state machine. State lives here, not in globals,
// so the machine is testable without a running scheduler. Reset only by
// process restart.
type Monitor struct {
	source   SnapshotSource
	notifier Notifier
	cfg      *config.Manager
	symbol   string // market_cap_percentage key, e.g. "usdt"

	mu            sync.Mutex
	lastDominance *float64
	alertActive   bool
	firstRun      bool
}

// New creates a monitor for the given stablecoin symbol.
func New(source SnapshotSource, notifier Notifier, cfg *config.Manager, symbol string) *Monitor {
	return &Monitor{
		source:   source,
		notifier: notifier,
		cfg:      cfg,
		symbol:   symbol,
		firstRun: true,
	}
}

// Tick runs one scheduled evaluation. It never returns an error: failures
// are logged, counted, and (outside the first-run window, with info messages
// enabled) reported to the alert chat best-effort.
func (m *Monitor) Tick(ctx context.Context) {
	settings := m.cfg.Settings()
	chatID := m.cfg.AlertChatID()

	reading, err := m.read(ctx, settings)
	if err != nil {
		slog.Error("dominance check failed", "err", err)
		metrics.ChecksTotal.WithLabelValues("error").Inc()

		m.mu.Lock()
		first := m.firstRun
		m.mu.Unlock()
		if !first && settings.SendInfo {
			if nerr := m.notifier.NotifyError(ctx, chatID, err); nerr != nil {
				slog.Warn("error notification failed", "err", nerr)
			}
		}
		return
	}
	metrics.ChecksTotal.WithLabelValues("ok").Inc()

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.firstRun {
		// First check after a restart stays silent and leaves the
		// debounce state untouched.
		m.firstRun = false
		slog.Info("first check after start, notifications suppressed",
			"dominance", reading.Dominance)
		return
	}

	if settings.SendInfo {
		if err := m.notifier.NotifyStatus(ctx, chatID, reading); err != nil {
			slog.Warn("status notification failed", "err", err)
		}
	}

	if reading.State == BandInside {
		significant := m.lastDominance == nil ||
			math.Abs(reading.Dominance-*m.lastDominance) > reAlertDelta
		if !m.alertActive || significant {
			if err := m.notifier.NotifyAlert(ctx, chatID, reading); err != nil {
				slog.Warn("alert notification failed", "err", err)
			} else {
				m.alertActive = true
				metrics.AlertsTotal.Inc()
				slog.Info("dominance alert sent", "dominance", reading.Dominance)
			}
		}
	} else {
		// Leaving the band re-arms the debounce.
		m.alertActive = false
	}

	d := reading.Dominance
	m.lastDominance = &d
}

// CheckNow runs a manual evaluation for chatID: the informational message is
// always sent to the requester and the debounce state is never consulted or
// mutated. Failures are returned to the caller.
func (m *Monitor) CheckNow(ctx context.Context, chatID int64) (Reading, error) {
	reading, err := m.read(ctx, m.cfg.Settings())
	if err != nil {
		metrics.ChecksTotal.WithLabelValues("error").Inc()
		return Reading{}, err
	}
	metrics.ChecksTotal.WithLabelValues("ok").Inc()

	if err := m.notifier.NotifyStatus(ctx, chatID, reading); err != nil {
		slog.Warn("status notification failed", "err", err)
	}
	return reading, nil
}

// read fetches a snapshot and computes the dominance reading.
func (m *Monitor) read(ctx context.Context, settings config.Snapshot) (Reading, error) {
	snap, err := m.source.GlobalSnapshot(ctx)
	if err != nil {
		return Reading{}, err
	}

	dominance, ok := snap.MarketCapPercentage[m.symbol]
	if !ok || snap.TotalMarketCapUSD <= 0 {
		return Reading{}, fmt.Errorf("%w: symbol %q", ErrDominanceUnavailable, m.symbol)
	}

	state := BandInside
	switch {
	case dominance >= settings.MaxThreshold:
		state = BandAbove
	case dominance <= settings.MinThreshold:
		state = BandBelow
	}

	metrics.Dominance.Set(dominance)

	return Reading{
		Dominance:      dominance,
		TotalMarketCap: snap.TotalMarketCapUSD,
		AssetMarketCap: snap.TotalMarketCapUSD * dominance / 100,
		MinThreshold:   settings.MinThreshold,
		MaxThreshold:   settings.MaxThreshold,
		State:          state,
		At:             time.Now().UTC(),
	}, nil
}
