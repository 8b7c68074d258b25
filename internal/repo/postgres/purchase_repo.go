package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ave4ge/findateammatebot/internal/domain/model"
)

var ErrInsufficientBalance = errors.New("insufficient balance")

type PurchaseRepo struct {
	pool *pgxpool.Pool
}

func NewPurchaseRepo(pool *pgxpool.Pool) *PurchaseRepo {
	return &PurchaseRepo{pool: pool}
}

// Redeem debits cost and appends the purchase record in one transaction. The
// balance row is locked so concurrent redemptions cannot overdraw it.
func (r *PurchaseRepo) Redeem(ctx context.Context, userID int64, promoID string, cost int64) (model.Purchase, int64, error) {
	if userID <= 0 || strings.TrimSpace(promoID) == "" || cost < 0 {
		return model.Purchase{}, 0, fmt.Errorf("invalid purchase payload")
	}

	var (
		purchase model.Purchase
		balance  int64
	)
	err := WithTx(ctx, r.pool, func(txCtx context.Context, tx pgx.Tx) error {
		if err := tx.QueryRow(txCtx, `
SELECT balance FROM participants WHERE user_id = $1 FOR UPDATE
`, userID).Scan(&balance); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrParticipantNotFound
			}
			return fmt.Errorf("lock participant balance: %w", err)
		}
		if balance < cost {
			return ErrInsufficientBalance
		}

		if err := tx.QueryRow(txCtx, `
UPDATE participants
SET balance = balance - $2, updated_at = NOW()
WHERE user_id = $1
RETURNING balance
`, userID, cost).Scan(&balance); err != nil {
			return fmt.Errorf("debit participant balance: %w", err)
		}

		purchase = model.Purchase{UserID: userID, PromoID: promoID, Spent: cost}
		if err := tx.QueryRow(txCtx, `
INSERT INTO purchases (user_id, promo_id, spent, created_at)
VALUES ($1, $2, $3, NOW())
RETURNING id, created_at
`, userID, promoID, cost).Scan(&purchase.ID, &purchase.CreatedAt); err != nil {
			return fmt.Errorf("insert purchase: %w", err)
		}
		return nil
	})
	if err != nil {
		return model.Purchase{}, 0, err
	}

	return purchase, balance, nil
}

func (r *PurchaseRepo) ListByUser(ctx context.Context, userID int64, limit int) ([]model.Purchase, error) {
	if r.pool == nil {
		return nil, fmt.Errorf("postgres pool is nil")
	}

	rows, err := r.pool.Query(ctx, `
SELECT id, user_id, promo_id, spent, created_at
FROM purchases
WHERE user_id = $1
ORDER BY created_at DESC, id DESC
LIMIT $2
`, userID, normalizeLimit(limit, 20, 100))
	if err != nil {
		return nil, fmt.Errorf("list purchases: %w", err)
	}
	defer rows.Close()

	items := make([]model.Purchase, 0)
	for rows.Next() {
		var item model.Purchase
		if err := rows.Scan(&item.ID, &item.UserID, &item.PromoID, &item.Spent, &item.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan purchase: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate purchases: %w", err)
	}

	return items, nil
}
