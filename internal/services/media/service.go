package media

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const signedURLTTL = 15 * time.Minute

var (
	ErrValidation = errors.New("validation error")
	ErrDisabled   = errors.New("photo archive is disabled")
)

type FileDownloader interface {
	DownloadFile(ctx context.Context, fileID string) ([]byte, error)
}

type ObjectStore interface {
	Store(ctx context.Context, userID int64, objectID string, photo []byte, contentType string) (string, error)
	Link(ctx context.Context, key string, ttl time.Duration) (string, error)
	Delete(ctx context.Context, key string) error
}

type KeyStore interface {
	SetPhotoObjectKey(ctx context.Context, userID int64, key string) (string, error)
}

// Service copies profile photos out of Telegram into object storage so staff
// can review them outside the chat.
type Service struct {
	files   FileDownloader
	objects ObjectStore
	keys    KeyStore
	logger  *zap.Logger
	newID   func() string
}

func NewService(files FileDownloader, objects ObjectStore, keys KeyStore, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		files:   files,
		objects: objects,
		keys:    keys,
		logger:  logger,
		newID:   uuid.NewString,
	}
}

func (s *Service) Enabled() bool {
	return s != nil && s.files != nil && s.objects != nil && s.keys != nil
}

// ArchivePhoto stores the Telegram photo fileID under a fresh key and removes
// the object it replaces.
func (s *Service) ArchivePhoto(ctx context.Context, userID int64, fileID string) (string, error) {
	if !s.Enabled() {
		return "", ErrDisabled
	}
	if userID <= 0 || strings.TrimSpace(fileID) == "" {
		return "", ErrValidation
	}

	body, err := s.files.DownloadFile(ctx, fileID)
	if err != nil {
		return "", fmt.Errorf("download telegram photo: %w", err)
	}
	if len(body) == 0 {
		return "", ErrValidation
	}

	key, err := s.objects.Store(ctx, userID, s.newID(), body, http.DetectContentType(body))
	if err != nil {
		return "", err
	}

	previous, err := s.keys.SetPhotoObjectKey(ctx, userID, key)
	if err != nil {
		if delErr := s.objects.Delete(ctx, key); delErr != nil {
			s.logger.Warn("orphan photo object", zap.String("key", key), zap.Error(delErr))
		}
		return "", fmt.Errorf("store photo key: %w", err)
	}

	if previous != "" && previous != key {
		if err := s.objects.Delete(ctx, previous); err != nil {
			s.logger.Warn("delete replaced photo", zap.Int64("user_id", userID), zap.String("key", previous), zap.Error(err))
		}
	}

	return key, nil
}

func (s *Service) PhotoURL(ctx context.Context, key string) (string, error) {
	if s == nil || s.objects == nil {
		return "", ErrDisabled
	}
	return s.objects.Link(ctx, key, signedURLTTL)
}
