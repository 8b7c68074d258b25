package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ave4ge/findateammatebot/internal/domain/model"
)

var ErrReferralNotFound = errors.New("referral not found")

type ReferralRepo struct {
	pool *pgxpool.Pool
}

func NewReferralRepo(pool *pgxpool.Pool) *ReferralRepo {
	return &ReferralRepo{pool: pool}
}

// Create links invitee to inviter once. It reports false when the invitee
// already has a referral row.
func (r *ReferralRepo) Create(ctx context.Context, inviterID, inviteeID int64) (bool, error) {
	if inviterID <= 0 || inviteeID <= 0 || inviterID == inviteeID {
		return false, fmt.Errorf("invalid referral payload")
	}

	var created bool
	err := WithTx(ctx, r.pool, func(txCtx context.Context, tx pgx.Tx) error {
		tag, err := tx.Exec(txCtx, `
INSERT INTO referrals (inviter_id, invitee_id, completed, created_at)
VALUES ($1, $2, FALSE, NOW())
ON CONFLICT (invitee_id) DO NOTHING
`, inviterID, inviteeID)
		if err != nil {
			return fmt.Errorf("insert referral: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return nil
		}
		created = true

		if _, err := tx.Exec(txCtx, `
UPDATE participants SET referred_by = $1, updated_at = NOW() WHERE user_id = $2
`, inviterID, inviteeID); err != nil {
			return fmt.Errorf("set participant referred_by: %w", err)
		}
		return nil
	})
	if err != nil {
		return false, err
	}

	return created, nil
}

func (r *ReferralRepo) FindPendingByInvitee(ctx context.Context, inviteeID int64) (model.Referral, error) {
	if r.pool == nil {
		return model.Referral{}, fmt.Errorf("postgres pool is nil")
	}

	var item model.Referral
	err := r.pool.QueryRow(ctx, `
SELECT id, inviter_id, invitee_id, completed, created_at, completed_at
FROM referrals
WHERE invitee_id = $1 AND NOT completed
ORDER BY id ASC
LIMIT 1
`, inviteeID).Scan(&item.ID, &item.InviterID, &item.InviteeID, &item.Completed, &item.CreatedAt, &item.CompletedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Referral{}, ErrReferralNotFound
		}
		return model.Referral{}, fmt.Errorf("find pending referral: %w", err)
	}

	return item, nil
}

// CompleteAndCredit flips the referral to completed and credits the inviter in
// one transaction. It reports false when the referral was already completed.
func (r *ReferralRepo) CompleteAndCredit(ctx context.Context, referralID, reward int64, at time.Time) (bool, error) {
	var completed bool
	err := WithTx(ctx, r.pool, func(txCtx context.Context, tx pgx.Tx) error {
		var inviterID int64
		err := tx.QueryRow(txCtx, `
UPDATE referrals
SET completed = TRUE, completed_at = $2
WHERE id = $1 AND NOT completed
RETURNING inviter_id
`, referralID, at.UTC()).Scan(&inviterID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil
			}
			return fmt.Errorf("complete referral: %w", err)
		}

		if _, err := tx.Exec(txCtx, `
UPDATE participants
SET balance = balance + $2, updated_at = NOW()
WHERE user_id = $1
`, inviterID, reward); err != nil {
			return fmt.Errorf("credit referral inviter: %w", err)
		}

		completed = true
		return nil
	})
	if err != nil {
		return false, err
	}

	return completed, nil
}

func (r *ReferralRepo) CountCompleted(ctx context.Context, inviterID int64) (int, error) {
	if r.pool == nil {
		return 0, fmt.Errorf("postgres pool is nil")
	}

	var total int
	if err := r.pool.QueryRow(ctx, `
SELECT COUNT(*) FROM referrals WHERE inviter_id = $1 AND completed
`, inviterID).Scan(&total); err != nil {
		return 0, fmt.Errorf("count completed referrals: %w", err)
	}

	return total, nil
}
