package server

import (
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
)

type EventKind string

const (
	EventPageGuarded          EventKind = "page_guarded"
	EventSubmissionSuppressed EventKind = "submission_suppressed"
)

// ActivityEvent is one guard action taken on a request.
type ActivityEvent struct {
	Kind          EventKind
	Host          string
	Country       string
	ContactFormID int
	Disabled      int
	Timestamp     int64
}

// EventBuffer is a thread-safe buffer for ActivityEvents
type EventBuffer struct {
	mu      sync.Mutex
	entries []ActivityEvent
}

func NewEventBuffer() *EventBuffer {
	return &EventBuffer{entries: make([]ActivityEvent, 0, 1000)}
}

func (b *EventBuffer) Add(e ActivityEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.entries = append(b.entries, e)
}

func (b *EventBuffer) Swap() []ActivityEvent {
	b.mu.Lock()
	defer b.mu.Unlock()
	current := b.entries
	b.entries = make([]ActivityEvent, 0, 1000)
	return current
}

type HostActivity struct {
	Host                string           `json:"host"`
	PagesGuarded        int64            `json:"pages_guarded"`
	FormsDisabled       int64            `json:"forms_disabled"`
	SubmissionsBlocked  int64            `json:"submissions_blocked"`
	Countries           map[string]int64 `json:"countries"`
	BlockedContactForms map[int]int64    `json:"blocked_contact_forms"`
	LastSeen            time.Time        `json:"last_seen"`
}

// ActivityTracker folds buffered events into per-host totals on a ticker.
type ActivityTracker struct {
	buffer   *EventBuffer
	interval time.Duration
	logger   *zap.Logger
	stopCh   chan struct{}
	stopOnce sync.Once

	mu    sync.RWMutex
	hosts map[string]*HostActivity
}

func NewActivityTracker(interval time.Duration, logger *zap.Logger) *ActivityTracker {
	if interval <= 0 {
		interval = time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ActivityTracker{
		buffer:   NewEventBuffer(),
		interval: interval,
		logger:   logger,
		stopCh:   make(chan struct{}),
		hosts:    make(map[string]*HostActivity),
	}
}

// Record buffers an event; a nil tracker drops it.
func (t *ActivityTracker) Record(e ActivityEvent) {
	if t == nil {
		return
	}
	if e.Timestamp == 0 {
		e.Timestamp = time.Now().Unix()
	}
	t.buffer.Add(e)
}

func (t *ActivityTracker) Start() {
	ticker := time.NewTicker(t.interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				t.ProcessBatch()
			case <-t.stopCh:
				t.ProcessBatch()
				return
			}
		}
	}()
	t.logger.Info("activity tracker started", zap.Duration("interval", t.interval))
}

func (t *ActivityTracker) Stop() {
	t.stopOnce.Do(func() { close(t.stopCh) })
}

func (t *ActivityTracker) ProcessBatch() {
	events := t.buffer.Swap()
	if len(events) == 0 {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	for _, e := range events {
		h, ok := t.hosts[e.Host]
		if !ok {
			h = &HostActivity{
				Host:                e.Host,
				Countries:           make(map[string]int64),
				BlockedContactForms: make(map[int]int64),
			}
			t.hosts[e.Host] = h
		}
		switch e.Kind {
		case EventPageGuarded:
			h.PagesGuarded++
			h.FormsDisabled += int64(e.Disabled)
		case EventSubmissionSuppressed:
			h.SubmissionsBlocked++
			h.BlockedContactForms[e.ContactFormID]++
		}
		if e.Country != "" {
			h.Countries[e.Country]++
		}
		if ts := time.Unix(e.Timestamp, 0); ts.After(h.LastSeen) {
			h.LastSeen = ts
		}
	}
	t.logger.Debug("activity batch processed", zap.Int("events", len(events)))
}

// Snapshot returns a copy of the per-host totals sorted by host.
func (t *ActivityTracker) Snapshot() []HostActivity {
	if t == nil {
		return []HostActivity{}
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]HostActivity, 0, len(t.hosts))
	for _, h := range t.hosts {
		c := *h
		c.Countries = make(map[string]int64, len(h.Countries))
		for k, v := range h.Countries {
			c.Countries[k] = v
		}
		c.BlockedContactForms = make(map[int]int64, len(h.BlockedContactForms))
		for k, v := range h.BlockedContactForms {
			c.BlockedContactForms[k] = v
		}
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Host < out[j].Host })
	return out
}
