package cleanup

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	pgrepo "github.com/ave4ge/findateammatebot/internal/repo/postgres"
)

const defaultBatch = 100

type ArchiveStore interface {
	ListStalePhotoArchives(ctx context.Context, cutoff time.Time, limit int) ([]pgrepo.PhotoArchiveRecord, error)
	ClearPhotoObjectKey(ctx context.Context, userID int64, key string) error
}

type ObjectDeleter interface {
	Delete(ctx context.Context, key string) error
}

// Job removes archived photos of rejected or cleared profiles once they are
// older than the retention period.
type Job struct {
	archives  ArchiveStore
	storage   ObjectDeleter
	retention time.Duration
	batch     int
	now       func() time.Time
	logger    *zap.Logger
}

func NewPhotoCleanupJob(archives ArchiveStore, storage ObjectDeleter, retention time.Duration, logger *zap.Logger) *Job {
	if retention <= 0 {
		retention = 30 * 24 * time.Hour
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Job{
		archives:  archives,
		storage:   storage,
		retention: retention,
		batch:     defaultBatch,
		now:       time.Now,
		logger:    logger,
	}
}

func (j *Job) Run(ctx context.Context) error {
	if j.archives == nil || j.storage == nil {
		return nil
	}

	cutoff := j.now().Add(-j.retention)
	items, err := j.archives.ListStalePhotoArchives(ctx, cutoff, j.batch)
	if err != nil {
		return fmt.Errorf("list stale photo archives: %w", err)
	}
	if len(items) == 0 {
		return nil
	}

	deleted := 0
	for _, item := range items {
		if err := j.storage.Delete(ctx, item.ObjectKey); err != nil {
			j.logger.Warn("failed to delete photo object from storage", zap.Error(err), zap.String("object_key", item.ObjectKey))
			continue
		}
		if err := j.archives.ClearPhotoObjectKey(ctx, item.UserID, item.ObjectKey); err != nil {
			return fmt.Errorf("clear photo object key: %w", err)
		}
		deleted++
	}

	j.logger.Info("cleanup stale photos completed", zap.Int("deleted", deleted), zap.Int("found", len(items)))
	return nil
}
