package application

import (
	"context"
	"fmt"
)

// WatchCallback receives the result of every run in watch mode.
type WatchCallback func(run int, outcome Outcome, err error)

// Watch runs the pipeline once, then again every time one of the resolved
// tracefiles is rewritten. It returns when ctx is cancelled or the watcher
// closes its event channel.
func (s *Service) Watch(ctx context.Context, cfg Config, opts RunOptions, watcher FileWatcher, callback WatchCallback) error {
	paths, err := s.Resolver.Resolve(ctx, cfg.Coverage.Files)
	if err != nil {
		return fmt.Errorf("resolve coverage files: %w", err)
	}
	if err := watcher.WatchFiles(paths); err != nil {
		return fmt.Errorf("failed to watch coverage files: %w", err)
	}

	runNumber := 1
	outcome, runErr := s.Run(ctx, cfg, opts)
	if callback != nil {
		callback(runNumber, outcome, runErr)
	}

	events := watcher.Events(ctx)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case _, ok := <-events:
			if !ok {
				return nil
			}
			runNumber++
			outcome, runErr := s.Run(ctx, cfg, opts)
			if callback != nil {
				callback(runNumber, outcome, runErr)
			}
		}
	}
}
