package main

import (
	"context"
	"errors"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/orizon-lang/ttcheck/internal/types"
	"github.com/orizon-lang/ttcheck/internal/watch"
)

func runWatch(args []string, stdout, stderr io.Writer) error {
	fs, configPath := newFlagSet("watch", stderr)
	poll := fs.Duration("poll", 0, "poll interval; OS notifications are used when zero")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return errors.New("watch takes exactly one fixture file")
	}
	path := fs.Arg(0)

	c, err := newChecker(*configPath, stderr, false)
	if err != nil {
		return err
	}

	var w watch.Watcher
	if *poll > 0 {
		w = watch.NewPollingWatcher(*poll)
	} else {
		var native bool
		w, native = watch.New(500 * time.Millisecond)
		if !native {
			c.log.Warn().Msg("OS file notifications are unavailable, polling instead")
		}
	}
	defer w.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	session := watch.NewSession(path, w, func(ctx context.Context, gen types.Generation) error {
		a, err := c.analyze(path, gen)
		if err != nil {
			return err
		}
		a.writeText(stdout)
		return nil
	}, watch.Options{
		Debounce: c.cfg.Watch.Debounce,
		Log:      c.log,
		Clock:    c.clock,
	})

	c.log.Info().Str("path", path).Msg("watching, press Ctrl-C to stop")
	return session.Run(ctx)
}
