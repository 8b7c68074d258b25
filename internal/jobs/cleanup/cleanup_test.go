package cleanup

import (
	"context"
	"errors"
	"testing"
	"time"

	pgrepo "github.com/ave4ge/findateammatebot/internal/repo/postgres"
)

type fakeArchives struct {
	items   []pgrepo.PhotoArchiveRecord
	cutoff  time.Time
	cleared []int64
}

func (f *fakeArchives) ListStalePhotoArchives(_ context.Context, cutoff time.Time, _ int) ([]pgrepo.PhotoArchiveRecord, error) {
	f.cutoff = cutoff
	return f.items, nil
}

func (f *fakeArchives) ClearPhotoObjectKey(_ context.Context, userID int64, _ string) error {
	f.cleared = append(f.cleared, userID)
	return nil
}

type fakeStorage struct {
	deleted []string
	failKey string
}

func (f *fakeStorage) Delete(_ context.Context, key string) error {
	if key == f.failKey {
		return errors.New("s3 unavailable")
	}
	f.deleted = append(f.deleted, key)
	return nil
}

func TestRunDeletesStalePhotos(t *testing.T) {
	now := time.Date(2026, time.February, 10, 12, 0, 0, 0, time.UTC)
	archives := &fakeArchives{items: []pgrepo.PhotoArchiveRecord{
		{UserID: 1, ObjectKey: "skins/1/a.jpg"},
		{UserID: 2, ObjectKey: "skins/2/b.jpg"},
	}}
	storage := &fakeStorage{failKey: "skins/2/b.jpg"}

	job := NewPhotoCleanupJob(archives, storage, 48*time.Hour, nil)
	job.now = func() time.Time { return now }

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("run cleanup: %v", err)
	}

	if !archives.cutoff.Equal(now.Add(-48 * time.Hour)) {
		t.Fatalf("unexpected cutoff: got %s want %s", archives.cutoff, now.Add(-48*time.Hour))
	}
	if len(storage.deleted) != 1 || storage.deleted[0] != "skins/1/a.jpg" {
		t.Fatalf("unexpected deleted objects: %v", storage.deleted)
	}
	if len(archives.cleared) != 1 || archives.cleared[0] != 1 {
		t.Fatalf("only deleted objects may be cleared from the row: %v", archives.cleared)
	}
}

func TestRunWithoutDependenciesIsNoop(t *testing.T) {
	job := NewPhotoCleanupJob(nil, nil, 0, nil)
	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("run cleanup: %v", err)
	}
}
