package app

import (
	"context"

	"flightwatch/internal/watcher"
)

// CreateWatch persists a new watch, runs the immediate recheck, and registers
// its timer. Timers created here die with the process; the running service
// picks the watch up on its next reconcile pass.
func (a *App) CreateWatch(ctx context.Context, req watcher.WatchRequest) (int64, error) {
	_, mgr, _, cleanup, err := a.components(ctx)
	if err != nil {
		return 0, err
	}
	defer cleanup()

	return mgr.Create(ctx, req)
}

// UpdateWatch replaces an existing watch's fields.
func (a *App) UpdateWatch(ctx context.Context, id int64, req watcher.WatchRequest) error {
	_, mgr, _, cleanup, err := a.components(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	return mgr.Update(ctx, id, req)
}

// DeleteWatch deactivates a watch.
func (a *App) DeleteWatch(ctx context.Context, id int64) error {
	_, mgr, _, cleanup, err := a.components(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	return mgr.Deactivate(ctx, id)
}

// CheckNow runs one immediate recheck of a stored watch and returns the
// consolidated message.
func (a *App) CheckNow(ctx context.Context, id int64) (string, error) {
	_, mgr, exec, cleanup, err := a.components(ctx)
	if err != nil {
		return "", err
	}
	defer cleanup()

	watch, err := mgr.Get(ctx, id)
	if err != nil {
		return "", err
	}
	return exec.Recheck(ctx, watch)
}
