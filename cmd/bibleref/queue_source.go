package main

import (
	"context"

	"bibleref/internal/api"
	"bibleref/internal/config"
	"bibleref/internal/queue"
)

// offlineQueue reads the persisted queue directly when no daemon is running.
func offlineQueue(ctx context.Context, cfg *config.Config) ([]api.Task, error) {
	store, err := queue.Open(cfg)
	if err != nil {
		return nil, err
	}
	defer store.Close()

	q, err := store.Load(ctx)
	if err != nil {
		return nil, err
	}
	if q == nil {
		return []api.Task{}, nil
	}
	return api.FromTasks(q.Tasks), nil
}

// offlineStatus builds a daemon status snapshot from the database alone.
func offlineStatus(ctx context.Context, cfg *config.Config) (api.DaemonStatus, error) {
	status := api.DaemonStatus{
		VaultDir:     cfg.Paths.VaultDir,
		QueueDBPath:  cfg.QueueDBPath(),
		LockFilePath: cfg.LockPath(),
	}
	store, err := queue.Open(cfg)
	if err != nil {
		return status, err
	}
	defer store.Close()

	stats, err := store.Stats(ctx)
	if err != nil {
		return status, err
	}
	status.Migration.QueueStats = api.MergeQueueStats(stats)
	for _, count := range stats {
		status.Migration.Queued += count
	}
	return status, nil
}
