package participants

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ave4ge/findateammatebot/internal/domain/enums"
	"github.com/ave4ge/findateammatebot/internal/domain/model"
	pgrepo "github.com/ave4ge/findateammatebot/internal/repo/postgres"
)

const (
	referralCodeLength = 8
	maxCodeAttempts    = 5
	defaultRecentLikes = 10
	defaultFoundLimit  = 10
)

var (
	ErrNotFound        = errors.New("participant not found")
	ErrDependenciesNil = errors.New("participants dependencies are not configured")
)

// StateError reports why a participant cannot use matching right now.
type StateError struct {
	Verification enums.Verification
	Banned       bool
}

func (e *StateError) Error() string {
	if e.Banned {
		return "participant is banned"
	}
	return "participant profile is " + string(e.Verification)
}

func IsInvalidState(err error) (*StateError, bool) {
	var se *StateError
	if errors.As(err, &se) {
		return se, true
	}
	return nil, false
}

type ParticipantStore interface {
	Ensure(ctx context.Context, userID int64, username, referralCode string) (model.Participant, bool, error)
	Get(ctx context.Context, userID int64) (model.Participant, error)
	FindByReferralCode(ctx context.Context, code string) (model.Participant, error)
}

type ReferralStore interface {
	Create(ctx context.Context, inviterID, inviteeID int64) (bool, error)
}

type LikeStore interface {
	ListIncomingLikes(ctx context.Context, userID int64, limit int) ([]model.IncomingLike, error)
	CountIncomingLikes(ctx context.Context, userID int64) (int, error)
}

type Dependencies struct {
	Participants ParticipantStore
	Referrals    ReferralStore
	Likes        LikeStore
	Logger       *zap.Logger
}

type Service struct {
	participants ParticipantStore
	referrals    ReferralStore
	likes        LikeStore
	logger       *zap.Logger
	newCode      func() string
}

type Registration struct {
	Participant model.Participant
	Created     bool
	// InviterID is set only when this call recorded a new referral.
	InviterID int64
}

func NewService(deps Dependencies) *Service {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		participants: deps.Participants,
		referrals:    deps.Referrals,
		likes:        deps.Likes,
		logger:       logger,
		newCode:      newReferralCode,
	}
}

// Register creates the participant shell on first contact or refreshes the
// display handle. A referral is recorded only for a brand new participant
// arriving with a valid code that belongs to someone else.
func (s *Service) Register(ctx context.Context, userID int64, username, startArg string) (Registration, error) {
	if userID <= 0 {
		return Registration{}, fmt.Errorf("invalid user id")
	}
	if s.participants == nil {
		return Registration{}, ErrDependenciesNil
	}

	var (
		participant model.Participant
		created     bool
		err         error
	)
	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		participant, created, err = s.participants.Ensure(ctx, userID, username, s.newCode())
		if !errors.Is(err, pgrepo.ErrReferralCodeConflict) {
			break
		}
	}
	if err != nil {
		return Registration{}, fmt.Errorf("ensure participant: %w", err)
	}

	result := Registration{Participant: participant, Created: created}

	code := strings.TrimSpace(startArg)
	if !created || code == "" || s.referrals == nil {
		return result, nil
	}

	inviter, err := s.participants.FindByReferralCode(ctx, code)
	if errors.Is(err, pgrepo.ErrParticipantNotFound) {
		s.logger.Info("unknown referral code", zap.Int64("user_id", userID), zap.String("code", code))
		return result, nil
	}
	if err != nil {
		return Registration{}, fmt.Errorf("find inviter: %w", err)
	}
	if inviter.UserID == userID {
		return result, nil
	}

	recorded, err := s.referrals.Create(ctx, inviter.UserID, userID)
	if err != nil {
		return Registration{}, fmt.Errorf("record referral: %w", err)
	}
	if recorded {
		result.InviterID = inviter.UserID
		inviterID := inviter.UserID
		result.Participant.ReferredBy = &inviterID
	}

	return result, nil
}

func (s *Service) Get(ctx context.Context, userID int64) (model.Participant, error) {
	if s.participants == nil {
		return model.Participant{}, ErrDependenciesNil
	}
	participant, err := s.participants.Get(ctx, userID)
	if errors.Is(err, pgrepo.ErrParticipantNotFound) {
		return model.Participant{}, ErrNotFound
	}
	if err != nil {
		return model.Participant{}, err
	}
	return participant, nil
}

func (s *Service) Overview(ctx context.Context, userID int64) (model.ProfileOverview, error) {
	participant, err := s.Get(ctx, userID)
	if err != nil {
		return model.ProfileOverview{}, err
	}
	if s.likes == nil {
		return model.ProfileOverview{Participant: participant}, nil
	}

	count, err := s.likes.CountIncomingLikes(ctx, userID)
	if err != nil {
		return model.ProfileOverview{}, fmt.Errorf("count incoming likes: %w", err)
	}
	recent, err := s.likes.ListIncomingLikes(ctx, userID, defaultRecentLikes)
	if err != nil {
		return model.ProfileOverview{}, fmt.Errorf("list incoming likes: %w", err)
	}

	return model.ProfileOverview{
		Participant:   participant,
		LikesReceived: count,
		RecentLikes:   recent,
	}, nil
}

// FoundTeammates returns the most recent participants who liked userID.
func (s *Service) FoundTeammates(ctx context.Context, userID int64) ([]model.IncomingLike, error) {
	if s.likes == nil {
		return nil, ErrDependenciesNil
	}
	items, err := s.likes.ListIncomingLikes(ctx, userID, defaultFoundLimit)
	if err != nil {
		return nil, fmt.Errorf("list found teammates: %w", err)
	}
	return items, nil
}

// RequireSearchable loads the participant and fails with a *StateError unless
// the profile is approved and not banned.
func (s *Service) RequireSearchable(ctx context.Context, userID int64) (model.Participant, error) {
	participant, err := s.Get(ctx, userID)
	if errors.Is(err, ErrNotFound) {
		return model.Participant{}, &StateError{Verification: enums.VerificationNone}
	}
	if err != nil {
		return model.Participant{}, err
	}
	if participant.Banned {
		return participant, &StateError{Verification: participant.Verification, Banned: true}
	}
	if !participant.HasProfile() {
		return participant, &StateError{Verification: enums.VerificationNone}
	}
	if participant.Verification != enums.VerificationApproved {
		return participant, &StateError{Verification: participant.Verification}
	}
	return participant, nil
}

func newReferralCode() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:referralCodeLength]
}
