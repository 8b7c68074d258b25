package moderation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/ave4ge/findateammatebot/internal/domain/enums"
	"github.com/ave4ge/findateammatebot/internal/domain/model"
	pgrepo "github.com/ave4ge/findateammatebot/internal/repo/postgres"
)

const (
	maxNicknameLength  = 64
	maxGameModesLength = 300
	defaultPendingPage = 5
)

var (
	ErrValidation      = errors.New("validation error")
	ErrForbidden       = errors.New("verifier role required")
	ErrNotFound        = errors.New("profile not found")
	ErrDependenciesNil = errors.New("moderation dependencies are not configured")
)

type ProfileStore interface {
	Get(ctx context.Context, userID int64) (model.Participant, error)
	SubmitProfile(ctx context.Context, userID int64, draft model.ProfileDraft) (model.Participant, error)
	SetVerification(ctx context.Context, userID int64, status enums.Verification) (model.Participant, error)
	ListPending(ctx context.Context, limit int) ([]model.Participant, error)
	CountPending(ctx context.Context) (int64, error)
}

type RoleChecker interface {
	IsVerifier(userID int64) bool
}

type Service struct {
	profiles ProfileStore
	roles    RoleChecker
	logger   *zap.Logger
}

type Decision struct {
	Participant model.Participant
	Previous    enums.Verification
}

type PendingPage struct {
	Items []model.Participant
	Total int64
}

func NewService(profiles ProfileStore, roles RoleChecker, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		profiles: profiles,
		roles:    roles,
		logger:   logger,
	}
}

// Submit stores the drafted profile and always moves it back to pending.
func (s *Service) Submit(ctx context.Context, userID int64, draft model.ProfileDraft) (model.Participant, error) {
	if s.profiles == nil {
		return model.Participant{}, ErrDependenciesNil
	}
	draft, err := NormalizeDraft(draft)
	if err != nil {
		return model.Participant{}, err
	}

	participant, err := s.profiles.SubmitProfile(ctx, userID, draft)
	if errors.Is(err, pgrepo.ErrParticipantNotFound) {
		return model.Participant{}, ErrNotFound
	}
	if err != nil {
		return model.Participant{}, fmt.Errorf("submit profile: %w", err)
	}
	return participant, nil
}

func (s *Service) Approve(ctx context.Context, actorID, targetID int64) (Decision, error) {
	return s.decide(ctx, actorID, targetID, enums.VerificationApproved)
}

func (s *Service) Reject(ctx context.Context, actorID, targetID int64) (Decision, error) {
	return s.decide(ctx, actorID, targetID, enums.VerificationRejected)
}

func (s *Service) decide(ctx context.Context, actorID, targetID int64, status enums.Verification) (Decision, error) {
	if s.profiles == nil || s.roles == nil {
		return Decision{}, ErrDependenciesNil
	}
	if !s.roles.IsVerifier(actorID) {
		return Decision{}, ErrForbidden
	}

	current, err := s.profiles.Get(ctx, targetID)
	if errors.Is(err, pgrepo.ErrParticipantNotFound) {
		return Decision{}, ErrNotFound
	}
	if err != nil {
		return Decision{}, fmt.Errorf("get profile: %w", err)
	}
	if !current.HasProfile() {
		return Decision{}, ErrNotFound
	}

	// Decisions on non-pending profiles are applied but flagged.
	if current.Verification != enums.VerificationPending {
		s.logger.Warn("verification decision on non-pending profile",
			zap.Int64("actor_id", actorID),
			zap.Int64("user_id", targetID),
			zap.String("from", string(current.Verification)),
			zap.String("to", string(status)),
		)
	}

	updated, err := s.profiles.SetVerification(ctx, targetID, status)
	if err != nil {
		return Decision{}, fmt.Errorf("set verification: %w", err)
	}

	s.logger.Info("profile verification decided",
		zap.Int64("actor_id", actorID),
		zap.Int64("user_id", targetID),
		zap.String("status", string(status)),
	)

	return Decision{Participant: updated, Previous: current.Verification}, nil
}

func (s *Service) Pending(ctx context.Context, actorID int64, limit int) (PendingPage, error) {
	if s.profiles == nil || s.roles == nil {
		return PendingPage{}, ErrDependenciesNil
	}
	if !s.roles.IsVerifier(actorID) {
		return PendingPage{}, ErrForbidden
	}
	if limit <= 0 {
		limit = defaultPendingPage
	}

	items, err := s.profiles.ListPending(ctx, limit)
	if err != nil {
		return PendingPage{}, fmt.Errorf("list pending: %w", err)
	}
	total, err := s.profiles.CountPending(ctx)
	if err != nil {
		return PendingPage{}, fmt.Errorf("count pending: %w", err)
	}
	return PendingPage{Items: items, Total: total}, nil
}

func NormalizeDraft(draft model.ProfileDraft) (model.ProfileDraft, error) {
	draft.Nickname = strings.TrimSpace(draft.Nickname)
	draft.GameModes = strings.TrimSpace(draft.GameModes)
	draft.PhotoFileID = strings.TrimSpace(draft.PhotoFileID)

	switch {
	case draft.Nickname == "":
		return draft, fmt.Errorf("%w: nickname is required", ErrValidation)
	case utf8.RuneCountInString(draft.Nickname) > maxNicknameLength:
		return draft, fmt.Errorf("%w: nickname is too long", ErrValidation)
	case draft.PhotoFileID == "":
		return draft, fmt.Errorf("%w: photo is required", ErrValidation)
	case draft.GameModes == "":
		return draft, fmt.Errorf("%w: game modes are required", ErrValidation)
	case utf8.RuneCountInString(draft.GameModes) > maxGameModesLength:
		return draft, fmt.Errorf("%w: game modes are too long", ErrValidation)
	}
	return draft, nil
}
