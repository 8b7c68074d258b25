package admin

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/ave4ge/findateammatebot/internal/domain/model"
	pgrepo "github.com/ave4ge/findateammatebot/internal/repo/postgres"
)

const (
	defaultUsersPage   = 30
	defaultLeadersTop  = 20
	defaultMaxWarnings = 3
)

var (
	ErrForbidden       = errors.New("admin role required")
	ErrNotFound        = errors.New("participant not found")
	ErrValidation      = errors.New("validation error")
	ErrDependenciesNil = errors.New("admin dependencies are not configured")
)

type ParticipantStore interface {
	Get(ctx context.Context, userID int64) (model.Participant, error)
	FindByUsername(ctx context.Context, username string) (model.Participant, error)
	AddBalance(ctx context.Context, userID int64, delta int64) (int64, error)
	ResetBalance(ctx context.Context, userID int64) error
	AddWarning(ctx context.Context, userID int64, maxWarnings int) (int, bool, error)
	SetBanned(ctx context.Context, userID int64, banned bool) error
	ClearProfile(ctx context.Context, userID int64) error
	List(ctx context.Context, limit int) ([]model.Participant, error)
	Count(ctx context.Context) (int64, error)
	Leaderboard(ctx context.Context, limit int) ([]model.Participant, error)
	Stats(ctx context.Context) (model.Stats, error)
}

type RoleChecker interface {
	IsAdmin(userID int64) bool
	IsVerifier(userID int64) bool
}

type Config struct {
	MaxWarnings int
	UsersPage   int
	LeadersTop  int
}

type Service struct {
	participants ParticipantStore
	roles        RoleChecker
	cfg          Config
	logger       *zap.Logger
}

type WarnResult struct {
	Warnings int
	Max      int
	Banned   bool
}

type UsersPage struct {
	Items []model.Participant
	Total int64
}

func NewService(participants ParticipantStore, roles RoleChecker, cfg Config, logger *zap.Logger) *Service {
	if cfg.MaxWarnings <= 0 {
		cfg.MaxWarnings = defaultMaxWarnings
	}
	if cfg.UsersPage <= 0 {
		cfg.UsersPage = defaultUsersPage
	}
	if cfg.LeadersTop <= 0 {
		cfg.LeadersTop = defaultLeadersTop
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		participants: participants,
		roles:        roles,
		cfg:          cfg,
		logger:       logger,
	}
}

func (s *Service) MaxWarnings() int {
	return s.cfg.MaxWarnings
}

// ResolveTarget accepts "@username", "username" or a numeric Telegram id.
func (s *Service) ResolveTarget(ctx context.Context, ref string) (model.Participant, error) {
	if s.participants == nil {
		return model.Participant{}, ErrDependenciesNil
	}
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return model.Participant{}, fmt.Errorf("%w: target is required", ErrValidation)
	}

	var (
		participant model.Participant
		err         error
	)
	if id, parseErr := strconv.ParseInt(ref, 10, 64); parseErr == nil && !strings.HasPrefix(ref, "@") {
		participant, err = s.participants.Get(ctx, id)
	} else {
		participant, err = s.participants.FindByUsername(ctx, ref)
	}
	if errors.Is(err, pgrepo.ErrParticipantNotFound) {
		return model.Participant{}, ErrNotFound
	}
	if err != nil {
		return model.Participant{}, fmt.Errorf("resolve target: %w", err)
	}
	return participant, nil
}

// Lookup resolves ref for a staff member.
func (s *Service) Lookup(ctx context.Context, actorID int64, ref string) (model.Participant, error) {
	if err := s.requireStaff(actorID); err != nil {
		return model.Participant{}, err
	}
	return s.ResolveTarget(ctx, ref)
}

// Grant adds amount to the target balance. Negative amounts debit, never
// below zero.
func (s *Service) Grant(ctx context.Context, actorID, targetID, amount int64) (int64, error) {
	if err := s.requireAdmin(actorID); err != nil {
		return 0, err
	}
	if amount == 0 {
		return 0, fmt.Errorf("%w: amount must not be zero", ErrValidation)
	}

	balance, err := s.participants.AddBalance(ctx, targetID, amount)
	if err != nil {
		return 0, s.mapErr("grant currency", err)
	}
	s.audit("currency granted", actorID, targetID, zap.Int64("amount", amount), zap.Int64("balance", balance))
	return balance, nil
}

func (s *Service) Warn(ctx context.Context, actorID, targetID int64) (WarnResult, error) {
	if err := s.requireAdmin(actorID); err != nil {
		return WarnResult{}, err
	}

	warnings, banned, err := s.participants.AddWarning(ctx, targetID, s.cfg.MaxWarnings)
	if err != nil {
		return WarnResult{}, s.mapErr("warn participant", err)
	}
	s.audit("participant warned", actorID, targetID, zap.Int("warnings", warnings), zap.Bool("banned", banned))
	return WarnResult{Warnings: warnings, Max: s.cfg.MaxWarnings, Banned: banned}, nil
}

func (s *Service) Ban(ctx context.Context, actorID, targetID int64) error {
	return s.setBanned(ctx, actorID, targetID, true)
}

func (s *Service) Unban(ctx context.Context, actorID, targetID int64) error {
	return s.setBanned(ctx, actorID, targetID, false)
}

func (s *Service) setBanned(ctx context.Context, actorID, targetID int64, banned bool) error {
	if err := s.requireAdmin(actorID); err != nil {
		return err
	}
	if err := s.participants.SetBanned(ctx, targetID, banned); err != nil {
		return s.mapErr("set ban", err)
	}
	s.audit("participant ban changed", actorID, targetID, zap.Bool("banned", banned))
	return nil
}

func (s *Service) ClearProfile(ctx context.Context, actorID, targetID int64) error {
	if err := s.requireAdmin(actorID); err != nil {
		return err
	}
	if err := s.participants.ClearProfile(ctx, targetID); err != nil {
		return s.mapErr("clear profile", err)
	}
	s.audit("participant profile cleared", actorID, targetID)
	return nil
}

func (s *Service) ClearBalance(ctx context.Context, actorID, targetID int64) error {
	if err := s.requireAdmin(actorID); err != nil {
		return err
	}
	if err := s.participants.ResetBalance(ctx, targetID); err != nil {
		return s.mapErr("reset balance", err)
	}
	s.audit("participant balance reset", actorID, targetID)
	return nil
}

func (s *Service) Stats(ctx context.Context, actorID int64) (model.Stats, error) {
	if err := s.requireStaff(actorID); err != nil {
		return model.Stats{}, err
	}
	stats, err := s.participants.Stats(ctx)
	if err != nil {
		return model.Stats{}, fmt.Errorf("load stats: %w", err)
	}
	return stats, nil
}

func (s *Service) Users(ctx context.Context, actorID int64) (UsersPage, error) {
	if err := s.requireStaff(actorID); err != nil {
		return UsersPage{}, err
	}
	items, err := s.participants.List(ctx, s.cfg.UsersPage)
	if err != nil {
		return UsersPage{}, fmt.Errorf("list participants: %w", err)
	}
	total, err := s.participants.Count(ctx)
	if err != nil {
		return UsersPage{}, fmt.Errorf("count participants: %w", err)
	}
	return UsersPage{Items: items, Total: total}, nil
}

func (s *Service) Leaderboard(ctx context.Context, actorID int64) ([]model.Participant, error) {
	if err := s.requireAdmin(actorID); err != nil {
		return nil, err
	}
	items, err := s.participants.Leaderboard(ctx, s.cfg.LeadersTop)
	if err != nil {
		return nil, fmt.Errorf("load leaderboard: %w", err)
	}
	return items, nil
}

func (s *Service) requireAdmin(actorID int64) error {
	if s.participants == nil || s.roles == nil {
		return ErrDependenciesNil
	}
	if !s.roles.IsAdmin(actorID) {
		return ErrForbidden
	}
	return nil
}

func (s *Service) requireStaff(actorID int64) error {
	if s.participants == nil || s.roles == nil {
		return ErrDependenciesNil
	}
	if !s.roles.IsAdmin(actorID) && !s.roles.IsVerifier(actorID) {
		return ErrForbidden
	}
	return nil
}

func (s *Service) mapErr(op string, err error) error {
	if errors.Is(err, pgrepo.ErrParticipantNotFound) {
		return ErrNotFound
	}
	return fmt.Errorf("%s: %w", op, err)
}

func (s *Service) audit(msg string, actorID, targetID int64, fields ...zap.Field) {
	s.logger.Info(msg, append([]zap.Field{
		zap.Int64("actor_id", actorID),
		zap.Int64("user_id", targetID),
	}, fields...)...)
}
