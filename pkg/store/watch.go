package store

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// EventType describes what changed in the local cache directory.
type EventType int

const (
	// EventDataChanged indicates the AppData blob was rewritten or removed.
	EventDataChanged EventType = iota

	// EventIdentityChanged indicates the signed-in user slot changed.
	EventIdentityChanged
)

func (t EventType) String() string {
	switch t {
	case EventDataChanged:
		return "data"
	case EventIdentityChanged:
		return "identity"
	default:
		return "unknown"
	}
}

// Event is emitted by Vault.Watch when the cache changes on disk.
type Event struct {
	Type EventType
	At   time.Time
}

const watchThrottle = 100 * time.Millisecond

// Watch streams change events until ctx is cancelled. The channel is closed
// once ctx is done or the watcher fails.
func (v *Vault) Watch(ctx context.Context) (<-chan Event, error) {
	if v.basePath == "" {
		return nil, errors.New("store: base path unknown")
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("store: create watcher: %w", err)
	}
	if err := watcher.Add(v.basePath); err != nil {
		_ = watcher.Close()
		return nil, fmt.Errorf("store: watch %s: %w", v.basePath, err)
	}

	events := make(chan Event, 16)

	go func() {
		defer close(events)
		defer func() {
			if err := watcher.Close(); err != nil {
				v.logger.Warnw("watcher close", "error", err)
			}
		}()

		send := func(ev Event) {
			select {
			case events <- ev:
			default:
				// Consumer is behind; the next event carries the same news.
			}
		}

		throttle := newEventThrottle(watchThrottle)
		defer throttle.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				v.logger.Warnw("watcher error", "error", err)
				throttle.Enqueue(EventDataChanged, send)
			case evt, ok := <-watcher.Events:
				if !ok {
					return
				}
				if evt.Op == fsnotify.Chmod {
					continue
				}
				switch filepath.Base(evt.Name) {
				case DataKey:
					throttle.Enqueue(EventDataChanged, send)
				case identityKey:
					throttle.Enqueue(EventIdentityChanged, send)
				}
			}
		}
	}()

	return events, nil
}

// eventThrottle coalesces bursts of filesystem activity into one event per
// type per window.
type eventThrottle struct {
	mu      sync.Mutex
	timer   *time.Timer
	pending map[EventType]struct{}
	delay   time.Duration
}

func newEventThrottle(delay time.Duration) *eventThrottle {
	return &eventThrottle{
		delay:   delay,
		pending: make(map[EventType]struct{}),
	}
}

func (t *eventThrottle) Enqueue(typ EventType, send func(Event)) {
	t.mu.Lock()
	t.pending[typ] = struct{}{}
	if t.timer == nil {
		t.timer = time.AfterFunc(t.delay, func() {
			t.flush(send)
		})
	}
	t.mu.Unlock()
}

func (t *eventThrottle) flush(send func(Event)) {
	t.mu.Lock()
	pending := t.pending
	t.pending = make(map[EventType]struct{})
	t.timer = nil
	t.mu.Unlock()

	now := time.Now()
	for typ := range pending {
		send(Event{Type: typ, At: now})
	}
}

func (t *eventThrottle) Stop() {
	t.mu.Lock()
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
	t.mu.Unlock()
}
