package watch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orizon-lang/ttcheck/internal/types"
)

type fakeWatcher struct {
	events chan Event
	errs   chan error

	mu     sync.Mutex
	added  []string
	addErr error
}

func newFakeWatcher() *fakeWatcher {
	return &fakeWatcher{events: make(chan Event, 16), errs: make(chan error, 1)}
}

func (w *fakeWatcher) Events() <-chan Event { return w.events }
func (w *fakeWatcher) Errors() <-chan error { return w.errs }
func (w *fakeWatcher) Remove(string) error  { return nil }
func (w *fakeWatcher) Close() error         { close(w.events); return nil }

func (w *fakeWatcher) Add(name string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.added = append(w.added, name)
	return w.addErr
}

func (w *fakeWatcher) addedPaths() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]string(nil), w.added...)
}

func recordingRunner() (Runner, <-chan types.Generation) {
	gens := make(chan types.Generation, 16)
	return func(ctx context.Context, gen types.Generation) error {
		gens <- gen
		return nil
	}, gens
}

func nextGen(t *testing.T, gens <-chan types.Generation) types.Generation {
	t.Helper()
	select {
	case g := <-gens:
		return g
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for an analysis run")
		return 0
	}
}

func startSession(t *testing.T, s *Session) <-chan error {
	t.Helper()
	done := make(chan error, 1)
	go func() { done <- s.Run(context.Background()) }()
	return done
}

func TestSessionDebouncesChanges(t *testing.T) {
	w := newFakeWatcher()
	run, gens := recordingRunner()
	clock := types.NewClock()
	s := NewSession("dir/../demo.yaml", w, run, Options{Debounce: 50 * time.Millisecond, Log: zerolog.Nop(), Clock: clock})
	done := startSession(t, s)

	assert.Equal(t, types.Generation(1), nextGen(t, gens))

	w.events <- Event{Path: "demo.yaml", Op: OpWrite}
	w.events <- Event{Path: "./demo.yaml", Op: OpWrite}
	w.events <- Event{Path: "other.yaml", Op: OpWrite}
	w.events <- Event{Path: "demo.yaml", Op: OpChmod}

	assert.Equal(t, types.Generation(2), nextGen(t, gens))
	select {
	case g := <-gens:
		t.Fatalf("unexpected run with generation %d", g)
	case <-time.After(150 * time.Millisecond):
	}
	assert.Equal(t, types.Generation(2), clock.Current())

	require.NoError(t, w.Close())
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("session did not stop after the watcher closed")
	}
	assert.Equal(t, []string{"demo.yaml"}, w.addedPaths())
}

func TestSessionReaddsRemovedFile(t *testing.T) {
	w := newFakeWatcher()
	run, gens := recordingRunner()
	s := NewSession("demo.yaml", w, run, Options{Log: zerolog.Nop()})
	startSession(t, s)

	nextGen(t, gens)
	w.errs <- errors.New("queue overflow")
	w.events <- Event{Path: "demo.yaml", Op: OpRename}
	assert.Equal(t, types.Generation(2), nextGen(t, gens))
	assert.Equal(t, []string{"demo.yaml", "demo.yaml"}, w.addedPaths())
	require.NoError(t, w.Close())
}

func TestSessionStopsOnCancel(t *testing.T) {
	w := newFakeWatcher()
	failures := 0
	run := func(ctx context.Context, gen types.Generation) error {
		failures++
		return errors.New("broken fixture")
	}
	s := NewSession("demo.yaml", w, run, Options{Log: zerolog.Nop()})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.NoError(t, s.Run(ctx))
	assert.Equal(t, 1, failures)
}

func TestSessionAddError(t *testing.T) {
	w := newFakeWatcher()
	w.addErr = errors.New("no such file")
	run, gens := recordingRunner()
	s := NewSession("missing.yaml", w, run, Options{Log: zerolog.Nop()})

	err := s.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "watch missing.yaml")
	assert.Empty(t, gens)
}

func TestPollingWatcher(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "demo.yaml")
	require.NoError(t, os.WriteFile(p, []byte("module: A\n"), 0o644))

	w := NewPollingWatcher(10 * time.Millisecond)
	require.NoError(t, w.Add(p))

	// move the modification time forward so coarse timestamps still differ
	later := time.Now().Add(time.Minute)
	require.NoError(t, os.Chtimes(p, later, later))

	select {
	case ev := <-w.Events():
		assert.Equal(t, p, ev.Path)
		assert.Equal(t, OpWrite, ev.Op)
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for a write event")
	}

	require.NoError(t, os.Remove(p))
	select {
	case ev := <-w.Events():
		assert.Equal(t, OpRemove, ev.Op)
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for a remove event")
	}

	require.NoError(t, w.Close())
	require.NoError(t, w.Close())
	_, ok := <-w.Events()
	assert.False(t, ok)
}

func TestPollingWatcherAddMissing(t *testing.T) {
	w := NewPollingWatcher(time.Second)
	defer w.Close()
	assert.Error(t, w.Add(filepath.Join(t.TempDir(), "nope.yaml")))
}

func TestWatcher_FSNotify(t *testing.T) {
	fw, err := NewFSWatcher()
	if err != nil {
		t.Skip("fsnotify not supported: ", err)
	}
	defer fw.Close()

	dir := t.TempDir()
	require.NoError(t, fw.Add(dir))
	go func() {
		_ = os.WriteFile(filepath.Join(dir, "f.yaml"), []byte("x"), 0o644)
	}()

	select {
	case ev := <-fw.Events():
		assert.NotEmpty(t, ev.Path)
		assert.NotZero(t, ev.Op)
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for fsnotify event")
	}
}

func TestOpString(t *testing.T) {
	assert.Equal(t, "none", Op(0).String())
	assert.Equal(t, "write", OpWrite.String())
	assert.Equal(t, "create|remove", (OpCreate | OpRemove).String())
}
