// Package watch re-runs analysis when a fixture file changes.
package watch

import (
	"os"
	"sync"
	"time"
)

// Op indicates a change operation in the filesystem.
type Op uint32

const (
	OpCreate Op = 1 << iota
	OpWrite
	OpRemove
	OpRename
	OpChmod
)

func (op Op) String() string {
	names := []string{"create", "write", "remove", "rename", "chmod"}
	out := ""
	for i, n := range names {
		if op&(1<<uint(i)) == 0 {
			continue
		}
		if out != "" {
			out += "|"
		}
		out += n
	}
	if out == "" {
		return "none"
	}
	return out
}

// Event describes a filesystem change event.
type Event struct {
	Path string
	Op   Op
	Time time.Time
}

// Watcher provides a platform-independent file watching API.
type Watcher interface {
	Events() <-chan Event
	Errors() <-chan error
	Add(name string) error
	Remove(name string) error
	Close() error
}

// PollingWatcher detects changes by comparing modification times.
// It serves where OS notifications are unavailable.
type PollingWatcher struct {
	interval time.Duration
	evCh     chan Event
	erCh     chan error

	mu    sync.Mutex
	paths map[string]time.Time

	stop chan struct{}
	done chan struct{}
	once sync.Once
}

// NewPollingWatcher starts a watcher that polls every interval.
func NewPollingWatcher(interval time.Duration) *PollingWatcher {
	w := &PollingWatcher{
		interval: interval,
		evCh:     make(chan Event, 64),
		erCh:     make(chan error, 1),
		paths:    make(map[string]time.Time),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	go w.loop()
	return w
}

func (w *PollingWatcher) Events() <-chan Event { return w.evCh }
func (w *PollingWatcher) Errors() <-chan error { return w.erCh }

// Add starts polling name. Its current state is the baseline.
func (w *PollingWatcher) Add(name string) error {
	info, err := os.Stat(name)
	if err != nil {
		return err
	}
	w.mu.Lock()
	w.paths[name] = info.ModTime()
	w.mu.Unlock()
	return nil
}

func (w *PollingWatcher) Remove(name string) error {
	w.mu.Lock()
	delete(w.paths, name)
	w.mu.Unlock()
	return nil
}

// Close stops polling and closes the event channel.
func (w *PollingWatcher) Close() error {
	w.once.Do(func() {
		close(w.stop)
		<-w.done
	})
	return nil
}

func (w *PollingWatcher) loop() {
	defer close(w.done)
	defer close(w.evCh)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stop:
			return
		case <-ticker.C:
			for _, ev := range w.poll() {
				select {
				case w.evCh <- ev:
				case <-w.stop:
					return
				}
			}
		}
	}
}

func (w *PollingWatcher) poll() []Event {
	w.mu.Lock()
	defer w.mu.Unlock()

	var events []Event
	now := time.Now()
	for name, last := range w.paths {
		info, err := os.Stat(name)
		if err != nil {
			if os.IsNotExist(err) && !last.IsZero() {
				w.paths[name] = time.Time{}
				events = append(events, Event{Path: name, Op: OpRemove, Time: now})
				continue
			}
			if !os.IsNotExist(err) {
				select {
				case w.erCh <- err:
				default:
				}
			}
			continue
		}
		if info.ModTime().After(last) {
			op := OpWrite
			if last.IsZero() {
				op = OpCreate
			}
			w.paths[name] = info.ModTime()
			events = append(events, Event{Path: name, Op: op, Time: now})
		}
	}
	return events
}

// New returns a native watcher when the platform supports one and a
// polling watcher otherwise. The flag reports which one it is.
func New(poll time.Duration) (Watcher, bool) {
	if w, err := NewFSWatcher(); err == nil {
		return w, true
	}
	return NewPollingWatcher(poll), false
}
