package application

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWatcher struct {
	watched []string
	events  chan struct{}
	err     error
}

func (f *fakeWatcher) WatchFiles(paths []string) error {
	f.watched = paths
	return f.err
}

func (f *fakeWatcher) Events(ctx context.Context) <-chan struct{} { return f.events }
func (f *fakeWatcher) Close() error { return nil }

func TestWatchRerunsOnEvents(t *testing.T) {
	f := newFixture(rec("/repo/a.ts", 10, 9))
	watcher := &fakeWatcher{events: make(chan struct{}, 2)}
	watcher.events <- struct{}{}
	watcher.events <- struct{}{}
	close(watcher.events)

	var runs []int
	err := f.svc.Watch(context.Background(), testConfig(), RunOptions{DryRun: true}, watcher, func(run int, outcome Outcome, err error) {
		assert.NoError(t, err)
		assert.True(t, outcome.Passed())
		runs = append(runs, run)
	})

	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3}, runs)
	assert.Equal(t, []string{"/repo/coverage/lcov.info"}, watcher.watched)
	assert.Equal(t, 3, f.parser.calls)
}

func TestWatchStopsOnCancel(t *testing.T) {
	f := newFixture(rec("/repo/a.ts", 10, 9))
	watcher := &fakeWatcher{events: make(chan struct{})}
	ctx, cancel := context.WithCancel(context.Background())

	err := f.svc.Watch(ctx, testConfig(), RunOptions{}, watcher, func(int, Outcome, error) { cancel() })

	assert.ErrorIs(t, err, context.Canceled)
}

func TestWatchReportsRunErrors(t *testing.T) {
	f := newFixture()
	f.parser.err = errors.New("truncated")
	watcher := &fakeWatcher{events: make(chan struct{})}
	close(watcher.events)

	var got error
	err := f.svc.Watch(context.Background(), testConfig(), RunOptions{}, watcher, func(_ int, _ Outcome, err error) { got = err })

	require.NoError(t, err)
	assert.ErrorContains(t, got, "truncated")
}

func TestWatchSetupErrors(t *testing.T) {
	f := newFixture()
	f.resolver.err = errors.New("no match")
	err := f.svc.Watch(context.Background(), testConfig(), RunOptions{}, &fakeWatcher{}, nil)
	assert.ErrorContains(t, err, "resolve coverage files")

	f = newFixture()
	err = f.svc.Watch(context.Background(), testConfig(), RunOptions{}, &fakeWatcher{err: errors.New("inotify")}, nil)
	assert.ErrorContains(t, err, "failed to watch coverage files: inotify")
}
