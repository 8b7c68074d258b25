package support

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/ave4ge/findateammatebot/internal/domain/model"
	pgrepo "github.com/ave4ge/findateammatebot/internal/repo/postgres"
	ratesvc "github.com/ave4ge/findateammatebot/internal/services/rate"
)

const defaultMaxLength = 500

var (
	ErrValidation      = errors.New("validation error")
	ErrForbidden       = errors.New("staff role required")
	ErrNothingToAnswer = errors.New("no pending support message")
	ErrDependenciesNil = errors.New("support dependencies are not configured")
)

type TooFastError struct {
	RetryAfterSec int64
}

func (e TooFastError) Error() string {
	return "too fast"
}

func IsTooFast(err error) (*TooFastError, bool) {
	var tf TooFastError
	if errors.As(err, &tf) {
		return &tf, true
	}
	return nil, false
}

type MessageStore interface {
	Create(ctx context.Context, userID int64, text string) (model.SupportMessage, error)
	AnswerLatest(ctx context.Context, userID int64, response string) (model.SupportMessage, error)
}

type RoleChecker interface {
	IsStaff(userID int64) bool
}

type Service struct {
	messages  MessageStore
	roles     RoleChecker
	limiter   *ratesvc.Limiter
	maxLength int
	logger    *zap.Logger
}

func NewService(messages MessageStore, roles RoleChecker, limiter *ratesvc.Limiter, maxLength int, logger *zap.Logger) *Service {
	if maxLength <= 0 {
		maxLength = defaultMaxLength
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		messages:  messages,
		roles:     roles,
		limiter:   limiter,
		maxLength: maxLength,
		logger:    logger,
	}
}

func (s *Service) MaxLength() int {
	return s.maxLength
}

func (s *Service) Submit(ctx context.Context, userID int64, text string) (model.SupportMessage, error) {
	if s.messages == nil {
		return model.SupportMessage{}, ErrDependenciesNil
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return model.SupportMessage{}, fmt.Errorf("%w: message is empty", ErrValidation)
	}
	if utf8.RuneCountInString(text) > s.maxLength {
		return model.SupportMessage{}, fmt.Errorf("%w: message longer than %d characters", ErrValidation, s.maxLength)
	}

	if s.limiter != nil {
		retryAfter, allowed, err := s.limiter.Allow(ctx, userID)
		if err != nil {
			s.logger.Warn("support rate limiter unavailable", zap.Int64("user_id", userID), zap.Error(err))
		} else if !allowed {
			return model.SupportMessage{}, TooFastError{RetryAfterSec: retryAfter}
		}
	}

	msg, err := s.messages.Create(ctx, userID, text)
	if err != nil {
		return model.SupportMessage{}, fmt.Errorf("store support message: %w", err)
	}
	return msg, nil
}

// Answer records the staff reply on the newest pending message of userID.
func (s *Service) Answer(ctx context.Context, actorID, userID int64, response string) (model.SupportMessage, error) {
	if s.messages == nil || s.roles == nil {
		return model.SupportMessage{}, ErrDependenciesNil
	}
	if !s.roles.IsStaff(actorID) {
		return model.SupportMessage{}, ErrForbidden
	}
	response = strings.TrimSpace(response)
	if response == "" {
		return model.SupportMessage{}, fmt.Errorf("%w: reply is empty", ErrValidation)
	}

	msg, err := s.messages.AnswerLatest(ctx, userID, response)
	if errors.Is(err, pgrepo.ErrSupportMessageNotFound) {
		return model.SupportMessage{}, ErrNothingToAnswer
	}
	if err != nil {
		return model.SupportMessage{}, fmt.Errorf("answer support message: %w", err)
	}

	s.logger.Info("support message answered",
		zap.Int64("actor_id", actorID),
		zap.Int64("user_id", userID),
		zap.Int64("message_id", msg.ID),
	)
	return msg, nil
}
