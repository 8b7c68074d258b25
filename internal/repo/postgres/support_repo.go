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

var ErrSupportMessageNotFound = errors.New("support message not found")

type SupportRepo struct {
	pool *pgxpool.Pool
}

func NewSupportRepo(pool *pgxpool.Pool) *SupportRepo {
	return &SupportRepo{pool: pool}
}

func (r *SupportRepo) Create(ctx context.Context, userID int64, text string) (model.SupportMessage, error) {
	if r.pool == nil {
		return model.SupportMessage{}, fmt.Errorf("postgres pool is nil")
	}
	if userID <= 0 || strings.TrimSpace(text) == "" {
		return model.SupportMessage{}, fmt.Errorf("invalid support message payload")
	}

	var item model.SupportMessage
	err := r.pool.QueryRow(ctx, `
INSERT INTO support_messages (user_id, message, status, created_at)
VALUES ($1, $2, 'pending', NOW())
RETURNING id, user_id, message, COALESCE(response, ''), status, created_at, answered_at
`, userID, text).Scan(
		&item.ID,
		&item.UserID,
		&item.Text,
		&item.Response,
		(*string)(&item.Status),
		&item.CreatedAt,
		&item.AnsweredAt,
	)
	if err != nil {
		return model.SupportMessage{}, fmt.Errorf("create support message: %w", err)
	}

	return item, nil
}

// AnswerLatest stores the response on the newest pending message of userID.
func (r *SupportRepo) AnswerLatest(ctx context.Context, userID int64, response string) (model.SupportMessage, error) {
	if r.pool == nil {
		return model.SupportMessage{}, fmt.Errorf("postgres pool is nil")
	}

	var item model.SupportMessage
	err := r.pool.QueryRow(ctx, `
UPDATE support_messages
SET response = $2, status = 'answered', answered_at = NOW()
WHERE id = (
	SELECT id FROM support_messages
	WHERE user_id = $1 AND status = 'pending'
	ORDER BY created_at DESC, id DESC
	LIMIT 1
)
RETURNING id, user_id, message, COALESCE(response, ''), status, created_at, answered_at
`, userID, response).Scan(
		&item.ID,
		&item.UserID,
		&item.Text,
		&item.Response,
		(*string)(&item.Status),
		&item.CreatedAt,
		&item.AnsweredAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.SupportMessage{}, ErrSupportMessageNotFound
		}
		return model.SupportMessage{}, fmt.Errorf("answer support message: %w", err)
	}

	return item, nil
}

func (r *SupportRepo) CountPending(ctx context.Context) (int64, error) {
	if r.pool == nil {
		return 0, fmt.Errorf("postgres pool is nil")
	}

	var total int64
	if err := r.pool.QueryRow(ctx, `
SELECT COUNT(*) FROM support_messages WHERE status = 'pending'
`).Scan(&total); err != nil {
		return 0, fmt.Errorf("count pending support messages: %w", err)
	}

	return total, nil
}
