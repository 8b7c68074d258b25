package commerce

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/ave4ge/findateammatebot/internal/domain/model"
	pgrepo "github.com/ave4ge/findateammatebot/internal/repo/postgres"
)

var (
	ErrUnknownPromo    = errors.New("unknown promo")
	ErrNotFound        = errors.New("participant not found")
	ErrDependenciesNil = errors.New("commerce dependencies are not configured")
)

// InsufficientBalanceError carries the price and the balance at the time of
// the attempt so the caller can tell the buyer how much is missing.
type InsufficientBalanceError struct {
	Price   int64
	Balance int64
}

func (e InsufficientBalanceError) Error() string {
	return "insufficient balance"
}

func (e InsufficientBalanceError) Is(target error) bool {
	return target == pgrepo.ErrInsufficientBalance
}

func IsInsufficientBalance(err error) (*InsufficientBalanceError, bool) {
	var ib InsufficientBalanceError
	if errors.As(err, &ib) {
		return &ib, true
	}
	return nil, false
}

type PurchaseStore interface {
	Redeem(ctx context.Context, userID int64, promoID string, cost int64) (model.Purchase, int64, error)
}

type BalanceReader interface {
	Get(ctx context.Context, userID int64) (model.Participant, error)
}

type Service struct {
	purchases PurchaseStore
	balances  BalanceReader
	catalog   []model.Promo
	byID      map[string]model.Promo
	logger    *zap.Logger
}

func NewService(purchases PurchaseStore, balances BalanceReader, catalog []model.Promo, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Service{
		purchases: purchases,
		balances:  balances,
		byID:      make(map[string]model.Promo, len(catalog)),
		logger:    logger,
	}
	for _, promo := range catalog {
		promo.ID = strings.TrimSpace(promo.ID)
		if promo.ID == "" || promo.Price < 0 {
			continue
		}
		if _, ok := s.byID[promo.ID]; ok {
			continue
		}
		s.byID[promo.ID] = promo
		s.catalog = append(s.catalog, promo)
	}
	return s
}

func (s *Service) Catalog() []model.Promo {
	return append([]model.Promo(nil), s.catalog...)
}

func (s *Service) Promo(id string) (model.Promo, bool) {
	promo, ok := s.byID[strings.TrimSpace(id)]
	return promo, ok
}

// Purchase debits the promo price and records the redemption. The balance is
// left untouched when it does not cover the price.
func (s *Service) Purchase(ctx context.Context, userID int64, promoID string) (model.PurchaseReceipt, error) {
	if s.purchases == nil {
		return model.PurchaseReceipt{}, ErrDependenciesNil
	}
	promo, ok := s.Promo(promoID)
	if !ok {
		return model.PurchaseReceipt{}, ErrUnknownPromo
	}

	purchase, balance, err := s.purchases.Redeem(ctx, userID, promo.ID, promo.Price)
	switch {
	case errors.Is(err, pgrepo.ErrInsufficientBalance):
		current := int64(0)
		if s.balances != nil {
			if p, getErr := s.balances.Get(ctx, userID); getErr == nil {
				current = p.Balance
			}
		}
		return model.PurchaseReceipt{}, InsufficientBalanceError{Price: promo.Price, Balance: current}
	case errors.Is(err, pgrepo.ErrParticipantNotFound):
		return model.PurchaseReceipt{}, ErrNotFound
	case err != nil:
		return model.PurchaseReceipt{}, fmt.Errorf("redeem promo: %w", err)
	}

	s.logger.Info("promo purchased",
		zap.Int64("user_id", userID),
		zap.String("promo_id", promo.ID),
		zap.Int64("spent", promo.Price),
		zap.Int64("balance", balance),
	)

	return model.PurchaseReceipt{
		Purchase: purchase,
		Promo:    promo,
		Balance:  balance,
	}, nil
}
