package draft

import (
	"bytes"
	"context"
	"sync"
	"time"

	"garageflow/pkg/logger"
)

// DefaultInterval is the autosave period.
const DefaultInterval = 5 * time.Second

// Autosaver is a write-behind Store: Save stages a snapshot in memory and a
// fixed-interval loop flushes staged snapshots to the backing store. Loads see
// staged snapshots first, so a reader never observes an older version.
type Autosaver struct {
	store    Store
	interval time.Duration
	now      func() time.Time

	// flushMu serializes Flush and Clear so a cleared draft is not written back.
	flushMu sync.Mutex

	mu     sync.Mutex
	staged map[Key]*Draft
}

var _ Store = (*Autosaver)(nil)

// NewAutosaver wraps store. A non-positive interval uses DefaultInterval.
func NewAutosaver(store Store, interval time.Duration) *Autosaver {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Autosaver{
		store:    store,
		interval: interval,
		now:      func() time.Time { return time.Now().UTC() },
		staged:   make(map[Key]*Draft),
	}
}

// Save stages d. Identical consecutive payloads are coalesced.
func (a *Autosaver) Save(ctx context.Context, d *Draft) error {
	if err := d.Key.Validate(); err != nil {
		return err
	}
	if err := ValidatePayload(d.Payload); err != nil {
		return err
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if prev, ok := a.staged[d.Key]; ok && bytes.Equal(prev.Payload, d.Payload) {
		return nil
	}
	cp := *d
	cp.Payload = append([]byte(nil), d.Payload...)
	cp.SavedAt = a.now()
	a.staged[d.Key] = &cp
	return nil
}

// Load returns the staged snapshot if any, else the stored one.
func (a *Autosaver) Load(ctx context.Context, key Key) (*Draft, bool, error) {
	a.mu.Lock()
	if d, ok := a.staged[key]; ok {
		cp := *d
		a.mu.Unlock()
		return &cp, true, nil
	}
	a.mu.Unlock()
	return a.store.Load(ctx, key)
}

// Clear drops the staged snapshot and the stored one. Called when the form is submitted.
func (a *Autosaver) Clear(ctx context.Context, key Key) error {
	a.flushMu.Lock()
	defer a.flushMu.Unlock()

	a.mu.Lock()
	delete(a.staged, key)
	a.mu.Unlock()
	return a.store.Clear(ctx, key)
}

// Pending reports how many snapshots wait for the next flush.
func (a *Autosaver) Pending() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.staged)
}

// Flush writes every staged snapshot. A snapshot stays staged, and visible to
// Load, until its save succeeds; a newer Save during the write is kept for the
// next tick.
func (a *Autosaver) Flush(ctx context.Context) error {
	a.flushMu.Lock()
	defer a.flushMu.Unlock()

	a.mu.Lock()
	batch := make(map[Key]*Draft, len(a.staged))
	for key, d := range a.staged {
		batch[key] = d
	}
	a.mu.Unlock()

	var firstErr error
	for key, d := range batch {
		if err := a.store.Save(ctx, d); err != nil {
			logger.Warn(ctx, "draft autosave failed", "form_key", key.FormKey, "user_id", key.UserID, "error", err)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		a.mu.Lock()
		if a.staged[key] == d {
			delete(a.staged, key)
		}
		a.mu.Unlock()
	}
	return firstErr
}

// Run flushes on every tick until ctx is cancelled, then flushes once more.
func (a *Autosaver) Run(ctx context.Context) {
	ticker := time.NewTicker(a.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			_ = a.Flush(context.WithoutCancel(ctx))
			return
		case <-ticker.C:
			_ = a.Flush(ctx)
		}
	}
}
