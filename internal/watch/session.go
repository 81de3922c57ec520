package watch

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/orizon-lang/ttcheck/internal/types"
)

// Runner analyses the watched file as generation gen.
type Runner func(ctx context.Context, gen types.Generation) error

// Options configures a Session
type Options struct {
	// Debounce is how long the file must stay quiet before it is analysed
	// again
	Debounce time.Duration
	Log      zerolog.Logger
	// Clock hands out the generation of each run; a fresh clock is used
	// when nil
	Clock *types.Clock
}

// Session analyses one file and re-analyses it after every burst of
// changes, each time with the next generation of its clock.
type Session struct {
	path     string
	w        Watcher
	run      Runner
	clock    *types.Clock
	debounce time.Duration
	log      zerolog.Logger
}

// NewSession creates a session; nothing is watched before Run
func NewSession(path string, w Watcher, run Runner, opts Options) *Session {
	clock := opts.Clock
	if clock == nil {
		clock = types.NewClock()
	}
	return &Session{
		path:     filepath.Clean(path),
		w:        w,
		run:      run,
		clock:    clock,
		debounce: opts.Debounce,
		log:      opts.Log.With().Str("path", path).Logger(),
	}
}

// Run analyses the file once and then after every change until ctx is
// done or the watcher shuts down. Failed runs are logged and do not end
// the session.
func (s *Session) Run(ctx context.Context) error {
	if err := s.w.Add(s.path); err != nil {
		return fmt.Errorf("watch %s: %w", s.path, err)
	}
	s.analyze(ctx)

	var (
		fire   <-chan time.Time
		readd  bool
		events = s.w.Events()
		errs   = s.w.Errors()
	)

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Path) != s.path {
				continue
			}
			s.log.Debug().Stringer("op", ev.Op).Msg("file changed")
			if ev.Op&(OpRemove|OpRename) != 0 {
				readd = true
			}
			fire = time.After(s.debounce)

		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			s.log.Warn().Err(err).Msg("watcher error")

		case <-fire:
			fire = nil
			if readd {
				readd = false
				if err := s.w.Add(s.path); err != nil {
					s.log.Warn().Err(err).Msg("file is gone, waiting for it to come back")
				}
			}
			s.analyze(ctx)
		}
	}
}

func (s *Session) analyze(ctx context.Context) {
	gen := s.clock.Next()
	start := time.Now()
	if err := s.run(ctx, gen); err != nil {
		s.log.Error().Err(err).Uint64("generation", uint64(gen)).Msg("analysis failed")
		return
	}
	s.log.Info().
		Uint64("generation", uint64(gen)).
		Dur("took", time.Since(start)).
		Msg("analysis finished")
}
