package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/ave4ge/findateammatebot/internal/domain/model"
	pgrepo "github.com/ave4ge/findateammatebot/internal/repo/postgres"
	ratesvc "github.com/ave4ge/findateammatebot/internal/services/rate"
)

var (
	ErrValidation      = errors.New("validation error")
	ErrNotFound        = errors.New("participant not found")
	ErrDependenciesNil = errors.New("ledger dependencies are not configured")
)

type TooFastError struct {
	RetryAfterSec int64
}

func (e TooFastError) Error() string {
	return "too fast"
}

func (e TooFastError) RetryAfter() int64 {
	if e.RetryAfterSec <= 0 {
		return 1
	}
	return e.RetryAfterSec
}

func IsTooFast(err error) (*TooFastError, bool) {
	var tf TooFastError
	if errors.As(err, &tf) {
		return &tf, true
	}
	return nil, false
}

type ParticipantStore interface {
	Get(ctx context.Context, userID int64) (model.Participant, error)
	AddBalance(ctx context.Context, userID int64, delta int64) (int64, error)
	RecordMatch(ctx context.Context, userID int64, at time.Time) (int, error)
}

type InteractionStore interface {
	Append(ctx context.Context, actorID, targetID int64, liked bool, message string) (model.Interaction, error)
	HasLiked(ctx context.Context, actorID, targetID int64) (bool, error)
}

type ReferralCompleter interface {
	CompleteIfEligible(ctx context.Context, inviteeID int64, matchesFound int) (*model.ReferralCompletion, error)
}

type Config struct {
	MatchReward    int64
	MatchCooldown  time.Duration
	LikeMessageMax int
}

type Dependencies struct {
	Participants ParticipantStore
	Interactions InteractionStore
	Referrals    ReferralCompleter
	Limiter      *ratesvc.Limiter
	Logger       *zap.Logger
}

// Service records likes and dislikes and settles the currency, match counter
// and referral side effects of a like.
type Service struct {
	participants ParticipantStore
	interactions InteractionStore
	referrals    ReferralCompleter
	limiter      *ratesvc.Limiter
	cfg          Config
	logger       *zap.Logger
	now          func() time.Time
}

func NewService(deps Dependencies, cfg Config) *Service {
	if cfg.MatchReward < 0 {
		cfg.MatchReward = 0
	}
	if cfg.LikeMessageMax <= 0 {
		cfg.LikeMessageMax = 200
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		participants: deps.Participants,
		interactions: deps.Interactions,
		referrals:    deps.Referrals,
		limiter:      deps.Limiter,
		cfg:          cfg,
		logger:       logger,
		now:          time.Now,
	}
}

func (s *Service) Like(ctx context.Context, actorID, targetID int64, message string) (model.LikeResult, error) {
	if s.participants == nil || s.interactions == nil {
		return model.LikeResult{}, ErrDependenciesNil
	}
	message = strings.TrimSpace(message)
	if utf8.RuneCountInString(message) > s.cfg.LikeMessageMax {
		return model.LikeResult{}, fmt.Errorf("%w: message longer than %d characters", ErrValidation, s.cfg.LikeMessageMax)
	}

	actor, err := s.loadPair(ctx, actorID, targetID)
	if err != nil {
		return model.LikeResult{}, err
	}
	if err := s.checkRate(ctx, actorID); err != nil {
		return model.LikeResult{}, err
	}

	interaction, err := s.interactions.Append(ctx, actorID, targetID, true, message)
	if err != nil {
		return model.LikeResult{}, fmt.Errorf("append like: %w", err)
	}
	result := model.LikeResult{
		Interaction:  interaction,
		MatchesFound: actor.MatchesFound,
	}

	if s.cfg.MatchReward > 0 {
		if _, err := s.participants.AddBalance(ctx, actorID, s.cfg.MatchReward); err != nil {
			return result, fmt.Errorf("credit match reward: %w", err)
		}
		result.Credited = s.cfg.MatchReward
	}

	now := s.now().UTC()
	if actor.LastMatchAt == nil || now.Sub(*actor.LastMatchAt) >= s.cfg.MatchCooldown {
		matches, err := s.participants.RecordMatch(ctx, actorID, now)
		if err != nil {
			return result, fmt.Errorf("record match: %w", err)
		}
		result.Counted = true
		result.MatchesFound = matches
	}

	mutual, err := s.interactions.HasLiked(ctx, targetID, actorID)
	if err != nil {
		s.logger.Warn("mutual like check failed", zap.Int64("actor_id", actorID), zap.Int64("target_id", targetID), zap.Error(err))
	}
	result.Mutual = mutual

	if s.referrals != nil {
		completion, err := s.referrals.CompleteIfEligible(ctx, actorID, result.MatchesFound)
		if err != nil {
			s.logger.Error("referral completion failed", zap.Int64("invitee_id", actorID), zap.Error(err))
		}
		result.ReferralComplete = completion
	}

	return result, nil
}

func (s *Service) Dislike(ctx context.Context, actorID, targetID int64) (model.Interaction, error) {
	if s.participants == nil || s.interactions == nil {
		return model.Interaction{}, ErrDependenciesNil
	}
	if _, err := s.loadPair(ctx, actorID, targetID); err != nil {
		return model.Interaction{}, err
	}

	interaction, err := s.interactions.Append(ctx, actorID, targetID, false, "")
	if err != nil {
		return model.Interaction{}, fmt.Errorf("append dislike: %w", err)
	}
	return interaction, nil
}

func (s *Service) MessageMax() int {
	return s.cfg.LikeMessageMax
}

// ValidateMessage checks a like note before the like itself is submitted.
func (s *Service) ValidateMessage(message string) error {
	message = strings.TrimSpace(message)
	if message == "" {
		return fmt.Errorf("%w: message is empty", ErrValidation)
	}
	if utf8.RuneCountInString(message) > s.cfg.LikeMessageMax {
		return fmt.Errorf("%w: message longer than %d characters", ErrValidation, s.cfg.LikeMessageMax)
	}
	return nil
}

func (s *Service) loadPair(ctx context.Context, actorID, targetID int64) (model.Participant, error) {
	if actorID <= 0 || targetID <= 0 || actorID == targetID {
		return model.Participant{}, fmt.Errorf("%w: invalid interaction pair", ErrValidation)
	}
	actor, err := s.participants.Get(ctx, actorID)
	if errors.Is(err, pgrepo.ErrParticipantNotFound) {
		return model.Participant{}, ErrNotFound
	}
	if err != nil {
		return model.Participant{}, fmt.Errorf("get actor: %w", err)
	}
	if _, err := s.participants.Get(ctx, targetID); err != nil {
		if errors.Is(err, pgrepo.ErrParticipantNotFound) {
			return model.Participant{}, ErrNotFound
		}
		return model.Participant{}, fmt.Errorf("get target: %w", err)
	}
	return actor, nil
}

func (s *Service) checkRate(ctx context.Context, userID int64) error {
	if s.limiter == nil {
		return nil
	}
	retryAfter, allowed, err := s.limiter.Allow(ctx, userID)
	if err != nil {
		s.logger.Warn("like rate limiter unavailable", zap.Int64("user_id", userID), zap.Error(err))
		return nil
	}
	if !allowed {
		return TooFastError{RetryAfterSec: retryAfter}
	}
	return nil
}
