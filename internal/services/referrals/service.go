package referrals

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	qrcode "github.com/skip2/go-qrcode"
	"go.uber.org/zap"

	"github.com/ave4ge/findateammatebot/internal/domain/model"
	pgrepo "github.com/ave4ge/findateammatebot/internal/repo/postgres"
)

const qrSize = 512

var (
	ErrNotFound        = errors.New("participant not found")
	ErrDependenciesNil = errors.New("referrals dependencies are not configured")
)

type ReferralStore interface {
	FindPendingByInvitee(ctx context.Context, inviteeID int64) (model.Referral, error)
	CompleteAndCredit(ctx context.Context, referralID, reward int64, at time.Time) (bool, error)
	CountCompleted(ctx context.Context, inviterID int64) (int, error)
}

type ParticipantStore interface {
	Get(ctx context.Context, userID int64) (model.Participant, error)
}

type Config struct {
	Reward          int64
	MatchesRequired int
}

type Service struct {
	referrals    ReferralStore
	participants ParticipantStore
	cfg          Config
	logger       *zap.Logger
	now          func() time.Time
}

func NewService(referrals ReferralStore, participants ParticipantStore, cfg Config, logger *zap.Logger) *Service {
	if cfg.Reward <= 0 {
		cfg.Reward = 12
	}
	if cfg.MatchesRequired <= 0 {
		cfg.MatchesRequired = 2
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		referrals:    referrals,
		participants: participants,
		cfg:          cfg,
		logger:       logger,
		now:          time.Now,
	}
}

// CompleteIfEligible credits the inviter of inviteeID once the invitee has
// reached the required number of counted matches. It returns nil when there
// is nothing to complete.
func (s *Service) CompleteIfEligible(ctx context.Context, inviteeID int64, matchesFound int) (*model.ReferralCompletion, error) {
	if s.referrals == nil {
		return nil, ErrDependenciesNil
	}
	if matchesFound < s.cfg.MatchesRequired {
		return nil, nil
	}

	referral, err := s.referrals.FindPendingByInvitee(ctx, inviteeID)
	if errors.Is(err, pgrepo.ErrReferralNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find pending referral: %w", err)
	}

	completed, err := s.referrals.CompleteAndCredit(ctx, referral.ID, s.cfg.Reward, s.now().UTC())
	if err != nil {
		return nil, fmt.Errorf("complete referral: %w", err)
	}
	if !completed {
		return nil, nil
	}

	s.logger.Info("referral completed",
		zap.Int64("referral_id", referral.ID),
		zap.Int64("inviter_id", referral.InviterID),
		zap.Int64("invitee_id", inviteeID),
		zap.Int64("reward", s.cfg.Reward),
	)

	return &model.ReferralCompletion{
		ReferralID: referral.ID,
		InviterID:  referral.InviterID,
		InviteeID:  inviteeID,
		Reward:     s.cfg.Reward,
	}, nil
}

func (s *Service) Summary(ctx context.Context, userID int64, botUsername string) (model.ReferralSummary, error) {
	if s.referrals == nil || s.participants == nil {
		return model.ReferralSummary{}, ErrDependenciesNil
	}

	participant, err := s.participants.Get(ctx, userID)
	if errors.Is(err, pgrepo.ErrParticipantNotFound) {
		return model.ReferralSummary{}, ErrNotFound
	}
	if err != nil {
		return model.ReferralSummary{}, fmt.Errorf("get participant: %w", err)
	}

	completed, err := s.referrals.CountCompleted(ctx, userID)
	if err != nil {
		return model.ReferralSummary{}, fmt.Errorf("count referrals: %w", err)
	}

	return model.ReferralSummary{
		Code:      participant.ReferralCode,
		Link:      Link(botUsername, participant.ReferralCode),
		Completed: completed,
		Earned:    int64(completed) * s.cfg.Reward,
		Reward:    s.cfg.Reward,
		Required:  s.cfg.MatchesRequired,
	}, nil
}

func (s *Service) MatchesRequired() int {
	return s.cfg.MatchesRequired
}

func Link(botUsername, code string) string {
	return "https://t.me/" + strings.TrimPrefix(strings.TrimSpace(botUsername), "@") + "?start=" + code
}

// QRCode renders link as a PNG.
func QRCode(link string) ([]byte, error) {
	if strings.TrimSpace(link) == "" {
		return nil, fmt.Errorf("referral link is empty")
	}
	png, err := qrcode.Encode(link, qrcode.Medium, qrSize)
	if err != nil {
		return nil, fmt.Errorf("encode qr: %w", err)
	}
	return png, nil
}
