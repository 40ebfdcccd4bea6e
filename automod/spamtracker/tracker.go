// In-process tracking of per-user message velocity, for flood detection.
//
// A user "trips" the tracker after sending Threshold messages where each message arrives within Window of the previous one. The window is a trailing idle gap, not a fixed clock window: a steady stream of messages spaced just under Window apart keeps counting up.
package spamtracker

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/aegis-mod/aegis/automod/clock"
)

const (
	DefaultThreshold     = 5
	DefaultWindow        = 3 * time.Second
	DefaultSweepInterval = 10 * time.Second
)

type key struct {
	guildID string
	userID  string
}

type entry struct {
	count    int
	lastSeen time.Time
}

type Tracker struct {
	Threshold int
	Window    time.Duration
	Logger    *slog.Logger

	mu      sync.Mutex
	entries map[key]*entry
}

func NewTracker(threshold int, window time.Duration, logger *slog.Logger) *Tracker {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	if window <= 0 {
		window = DefaultWindow
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Tracker{
		Threshold: threshold,
		Window:    window,
		Logger:    logger,
		entries:   make(map[key]*entry),
	}
}

// RecordAndCheck counts one message from the user, and returns true if this message reached the threshold. A tripped entry is removed, so the next message starts a fresh burst.
func (t *Tracker) RecordAndCheck(guildID, userID string, now time.Time) bool {
	k := key{guildID: guildID, userID: userID}

	t.mu.Lock()
	defer t.mu.Unlock()

	e, ok := t.entries[k]
	if !ok || now.Sub(e.lastSeen) > t.Window {
		e = &entry{count: 1}
	} else {
		e.count++
	}
	e.lastSeen = now

	if e.count >= t.Threshold {
		delete(t.entries, k)
		return true
	}
	t.entries[k] = e
	return false
}

// Sweep removes entries which have been idle for longer than the window. Returns the number removed.
func (t *Tracker) Sweep(now time.Time) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	removed := 0
	for k, e := range t.entries {
		if now.Sub(e.lastSeen) > t.Window {
			delete(t.entries, k)
			removed++
		}
	}
	return removed
}

// Number of live entries.
func (t *Tracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.entries)
}

// Run sweeps idle entries every interval until the context is cancelled. Expects to be run in a goroutine.
func (t *Tracker) Run(ctx context.Context, interval time.Duration, clk clock.Clock) error {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			n := t.Sweep(clk.Now())
			trackedUsers.Set(float64(t.Len()))
			if n > 0 {
				t.Logger.Debug("swept idle spam tracker entries", "removed", n)
			}
		case <-ctx.Done():
			return nil
		}
	}
}
