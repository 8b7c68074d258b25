package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ave4ge/findateammatebot/internal/domain/model"
)

type InteractionRepo struct {
	pool *pgxpool.Pool
}

func NewInteractionRepo(pool *pgxpool.Pool) *InteractionRepo {
	return &InteractionRepo{pool: pool}
}

// Append records a directed like or dislike. Edges are never updated or
// deduplicated.
func (r *InteractionRepo) Append(ctx context.Context, actorID, targetID int64, liked bool, message string) (model.Interaction, error) {
	if r.pool == nil {
		return model.Interaction{}, fmt.Errorf("postgres pool is nil")
	}
	if actorID <= 0 || targetID <= 0 || actorID == targetID {
		return model.Interaction{}, fmt.Errorf("invalid interaction payload")
	}

	item := model.Interaction{
		ActorID:  actorID,
		TargetID: targetID,
		Liked:    liked,
		Message:  strings.TrimSpace(message),
	}
	err := r.pool.QueryRow(ctx, `
INSERT INTO interactions (actor_id, target_id, is_like, message, created_at)
VALUES ($1, $2, $3, $4, NOW())
RETURNING id, created_at
`, actorID, targetID, liked, item.Message).Scan(&item.ID, &item.CreatedAt)
	if err != nil {
		return model.Interaction{}, fmt.Errorf("append interaction: %w", err)
	}

	return item, nil
}

func (r *InteractionRepo) HasLiked(ctx context.Context, actorID, targetID int64) (bool, error) {
	if r.pool == nil {
		return false, fmt.Errorf("postgres pool is nil")
	}

	var liked bool
	if err := r.pool.QueryRow(ctx, `
SELECT EXISTS (
	SELECT 1 FROM interactions
	WHERE actor_id = $1 AND target_id = $2 AND is_like
)
`, actorID, targetID).Scan(&liked); err != nil {
		return false, fmt.Errorf("check interaction like: %w", err)
	}

	return liked, nil
}

// ListLikers returns approved participants who liked userID and are still
// unanswered by userID, most recent like first.
func (r *InteractionRepo) ListLikers(ctx context.Context, userID int64, limit int) ([]model.Participant, error) {
	if r.pool == nil {
		return nil, fmt.Errorf("postgres pool is nil")
	}

	rows, err := r.pool.Query(ctx, `
SELECT `+participantColumns+`
FROM (
	SELECT i.actor_id, MAX(i.created_at) AS liked_at
	FROM interactions i
	WHERE i.target_id = $1
		AND i.is_like
		AND i.actor_id <> $1
		AND NOT EXISTS (
			SELECT 1 FROM interactions mine
			WHERE mine.actor_id = $1 AND mine.target_id = i.actor_id
		)
	GROUP BY i.actor_id
) likers
JOIN participants p ON p.user_id = likers.actor_id
WHERE p.verification = 'approved' AND NOT p.is_banned
ORDER BY likers.liked_at DESC, p.user_id ASC
LIMIT $2
`, userID, normalizeLimit(limit, 10, 100))
	if err != nil {
		return nil, fmt.Errorf("list likers: %w", err)
	}
	defer rows.Close()

	return collectParticipants("list likers", rows)
}

// ListCold returns a random sample of approved, unbanned participants the
// requester never interacted with and who have no pending like towards them.
func (r *InteractionRepo) ListCold(ctx context.Context, userID int64, limit int) ([]model.Participant, error) {
	if r.pool == nil {
		return nil, fmt.Errorf("postgres pool is nil")
	}

	rows, err := r.pool.Query(ctx, `
SELECT `+participantColumns+`
FROM participants p
WHERE p.user_id <> $1
	AND p.verification = 'approved'
	AND NOT p.is_banned
	AND NOT EXISTS (
		SELECT 1 FROM interactions i
		WHERE i.actor_id = $1 AND i.target_id = p.user_id
	)
	AND NOT EXISTS (
		SELECT 1 FROM interactions i
		WHERE i.actor_id = p.user_id AND i.target_id = $1 AND i.is_like
	)
ORDER BY random()
LIMIT $2
`, userID, normalizeLimit(limit, 10, 100))
	if err != nil {
		return nil, fmt.Errorf("list cold candidates: %w", err)
	}
	defer rows.Close()

	return collectParticipants("list cold candidates", rows)
}

func (r *InteractionRepo) ListIncomingLikes(ctx context.Context, userID int64, limit int) ([]model.IncomingLike, error) {
	if r.pool == nil {
		return nil, fmt.Errorf("postgres pool is nil")
	}

	rows, err := r.pool.Query(ctx, `
SELECT
	i.actor_id,
	p.username,
	COALESCE(p.nickname, ''),
	COALESCE(p.game_modes, ''),
	p.balance,
	i.message,
	i.created_at
FROM interactions i
JOIN participants p ON p.user_id = i.actor_id
WHERE i.target_id = $1 AND i.is_like
ORDER BY i.created_at DESC, i.id DESC
LIMIT $2
`, userID, normalizeLimit(limit, 10, 100))
	if err != nil {
		return nil, fmt.Errorf("list incoming likes: %w", err)
	}
	defer rows.Close()

	items := make([]model.IncomingLike, 0)
	for rows.Next() {
		var item model.IncomingLike
		if err := rows.Scan(
			&item.ActorID,
			&item.Username,
			&item.Nickname,
			&item.GameModes,
			&item.Balance,
			&item.Message,
			&item.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan incoming like: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate incoming likes: %w", err)
	}

	return items, nil
}

func (r *InteractionRepo) CountIncomingLikes(ctx context.Context, userID int64) (int, error) {
	if r.pool == nil {
		return 0, fmt.Errorf("postgres pool is nil")
	}

	var total int
	if err := r.pool.QueryRow(ctx, `
SELECT COUNT(*) FROM interactions WHERE target_id = $1 AND is_like
`, userID).Scan(&total); err != nil {
		return 0, fmt.Errorf("count incoming likes: %w", err)
	}

	return total, nil
}
