package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ave4ge/findateammatebot/internal/domain/enums"
	"github.com/ave4ge/findateammatebot/internal/domain/model"
)

var (
	ErrParticipantNotFound  = errors.New("participant not found")
	ErrReferralCodeConflict = errors.New("referral code already taken")
)

const participantColumns = `
	p.user_id,
	p.username,
	COALESCE(p.nickname, ''),
	COALESCE(p.photo_file_id, ''),
	COALESCE(p.game_modes, ''),
	p.verification,
	p.balance,
	p.warnings,
	p.is_banned,
	p.referral_code,
	p.referred_by,
	p.matches_found,
	p.last_match_at,
	COALESCE(p.photo_object_key, ''),
	p.created_at,
	p.updated_at`

type ParticipantRepo struct {
	pool *pgxpool.Pool
}

type PhotoArchiveRecord struct {
	UserID    int64
	ObjectKey string
}

func NewParticipantRepo(pool *pgxpool.Pool) *ParticipantRepo {
	return &ParticipantRepo{pool: pool}
}

// Ensure inserts the participant shell or refreshes the display handle of an
// existing one. created is true only when the row was inserted by this call.
func (r *ParticipantRepo) Ensure(ctx context.Context, userID int64, username, referralCode string) (model.Participant, bool, error) {
	if r.pool == nil {
		return model.Participant{}, false, fmt.Errorf("postgres pool is nil")
	}
	if userID <= 0 || strings.TrimSpace(referralCode) == "" {
		return model.Participant{}, false, fmt.Errorf("invalid participant ensure payload")
	}

	var (
		participant model.Participant
		created     bool
	)
	row := r.pool.QueryRow(ctx, `
INSERT INTO participants AS p (user_id, username, referral_code, created_at, updated_at)
VALUES ($1, $2, $3, NOW(), NOW())
ON CONFLICT (user_id) DO UPDATE SET
	username = CASE WHEN EXCLUDED.username <> '' THEN EXCLUDED.username ELSE p.username END,
	updated_at = NOW()
RETURNING `+participantColumns+`, (xmax = 0)
`, userID, strings.TrimSpace(username), strings.TrimSpace(referralCode))

	if err := row.Scan(append(participantDest(&participant), &created)...); err != nil {
		if isUniqueViolation(err) {
			return model.Participant{}, false, ErrReferralCodeConflict
		}
		return model.Participant{}, false, fmt.Errorf("ensure participant: %w", err)
	}

	return participant, created, nil
}

func (r *ParticipantRepo) Get(ctx context.Context, userID int64) (model.Participant, error) {
	if r.pool == nil {
		return model.Participant{}, fmt.Errorf("postgres pool is nil")
	}

	return r.queryOne(ctx, "get participant", `
SELECT `+participantColumns+`
FROM participants p
WHERE p.user_id = $1
`, userID)
}

func (r *ParticipantRepo) FindByUsername(ctx context.Context, username string) (model.Participant, error) {
	if r.pool == nil {
		return model.Participant{}, fmt.Errorf("postgres pool is nil")
	}
	username = strings.TrimPrefix(strings.TrimSpace(username), "@")
	if username == "" {
		return model.Participant{}, ErrParticipantNotFound
	}

	return r.queryOne(ctx, "find participant by username", `
SELECT `+participantColumns+`
FROM participants p
WHERE LOWER(p.username) = LOWER($1)
ORDER BY p.updated_at DESC
LIMIT 1
`, username)
}

func (r *ParticipantRepo) FindByReferralCode(ctx context.Context, code string) (model.Participant, error) {
	if r.pool == nil {
		return model.Participant{}, fmt.Errorf("postgres pool is nil")
	}
	if strings.TrimSpace(code) == "" {
		return model.Participant{}, ErrParticipantNotFound
	}

	return r.queryOne(ctx, "find participant by referral code", `
SELECT `+participantColumns+`
FROM participants p
WHERE p.referral_code = $1
`, strings.TrimSpace(code))
}

// SubmitProfile stores a (re)submitted profile and always resets it to pending.
func (r *ParticipantRepo) SubmitProfile(ctx context.Context, userID int64, draft model.ProfileDraft) (model.Participant, error) {
	if r.pool == nil {
		return model.Participant{}, fmt.Errorf("postgres pool is nil")
	}

	return r.queryOne(ctx, "submit participant profile", `
UPDATE participants p
SET nickname = $2,
	photo_file_id = NULLIF($3, ''),
	game_modes = $4,
	verification = 'pending',
	updated_at = NOW()
WHERE p.user_id = $1
RETURNING `+participantColumns+`
`, userID, draft.Nickname, draft.PhotoFileID, draft.GameModes)
}

func (r *ParticipantRepo) SetVerification(ctx context.Context, userID int64, status enums.Verification) (model.Participant, error) {
	if r.pool == nil {
		return model.Participant{}, fmt.Errorf("postgres pool is nil")
	}
	if !status.Valid() {
		return model.Participant{}, fmt.Errorf("invalid verification status %q", status)
	}

	return r.queryOne(ctx, "set participant verification", `
UPDATE participants p
SET verification = $2, updated_at = NOW()
WHERE p.user_id = $1
RETURNING `+participantColumns+`
`, userID, string(status))
}

// AddBalance applies delta and clamps the result at zero.
func (r *ParticipantRepo) AddBalance(ctx context.Context, userID int64, delta int64) (int64, error) {
	if r.pool == nil {
		return 0, fmt.Errorf("postgres pool is nil")
	}

	var balance int64
	err := r.pool.QueryRow(ctx, `
UPDATE participants
SET balance = GREATEST(balance + $2, 0), updated_at = NOW()
WHERE user_id = $1
RETURNING balance
`, userID, delta).Scan(&balance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrParticipantNotFound
		}
		return 0, fmt.Errorf("add participant balance: %w", err)
	}

	return balance, nil
}

func (r *ParticipantRepo) ResetBalance(ctx context.Context, userID int64) error {
	return r.execOne(ctx, "reset participant balance", `
UPDATE participants
SET balance = 0, updated_at = NOW()
WHERE user_id = $1
`, userID)
}

func (r *ParticipantRepo) RecordMatch(ctx context.Context, userID int64, at time.Time) (int, error) {
	if r.pool == nil {
		return 0, fmt.Errorf("postgres pool is nil")
	}

	var matches int
	err := r.pool.QueryRow(ctx, `
UPDATE participants
SET matches_found = matches_found + 1, last_match_at = $2, updated_at = NOW()
WHERE user_id = $1
RETURNING matches_found
`, userID, at.UTC()).Scan(&matches)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrParticipantNotFound
		}
		return 0, fmt.Errorf("record participant match: %w", err)
	}

	return matches, nil
}

// AddWarning increments the warning counter and bans once maxWarnings is reached.
// The counter never grows past maxWarnings.
func (r *ParticipantRepo) AddWarning(ctx context.Context, userID int64, maxWarnings int) (int, bool, error) {
	if r.pool == nil {
		return 0, false, fmt.Errorf("postgres pool is nil")
	}

	var (
		warnings int
		banned   bool
	)
	err := r.pool.QueryRow(ctx, `
UPDATE participants
SET warnings = LEAST(warnings + 1, $2),
	is_banned = is_banned OR warnings + 1 >= $2,
	updated_at = NOW()
WHERE user_id = $1
RETURNING warnings, is_banned
`, userID, maxWarnings).Scan(&warnings, &banned)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, false, ErrParticipantNotFound
		}
		return 0, false, fmt.Errorf("add participant warning: %w", err)
	}

	return warnings, banned, nil
}

func (r *ParticipantRepo) SetBanned(ctx context.Context, userID int64, banned bool) error {
	return r.execOne(ctx, "set participant ban", `
UPDATE participants
SET is_banned = $2, updated_at = NOW()
WHERE user_id = $1
`, userID, banned)
}

func (r *ParticipantRepo) ClearProfile(ctx context.Context, userID int64) error {
	return r.execOne(ctx, "clear participant profile", `
UPDATE participants
SET nickname = NULL,
	photo_file_id = NULL,
	game_modes = NULL,
	verification = 'none',
	updated_at = NOW()
WHERE user_id = $1
`, userID)
}

func (r *ParticipantRepo) ListPending(ctx context.Context, limit int) ([]model.Participant, error) {
	return r.queryMany(ctx, "list pending participants", `
SELECT `+participantColumns+`
FROM participants p
WHERE p.verification = 'pending' AND p.nickname IS NOT NULL
ORDER BY p.updated_at ASC
LIMIT $1
`, normalizeLimit(limit, 5, 100))
}

func (r *ParticipantRepo) CountPending(ctx context.Context) (int64, error) {
	return r.count(ctx, "count pending participants", `
SELECT COUNT(*) FROM participants WHERE verification = 'pending' AND nickname IS NOT NULL
`)
}

func (r *ParticipantRepo) List(ctx context.Context, limit int) ([]model.Participant, error) {
	return r.queryMany(ctx, "list participants", `
SELECT `+participantColumns+`
FROM participants p
ORDER BY p.created_at ASC, p.user_id ASC
LIMIT $1
`, normalizeLimit(limit, 30, 500))
}

func (r *ParticipantRepo) Count(ctx context.Context) (int64, error) {
	return r.count(ctx, "count participants", `SELECT COUNT(*) FROM participants`)
}

func (r *ParticipantRepo) Leaderboard(ctx context.Context, limit int) ([]model.Participant, error) {
	return r.queryMany(ctx, "list participant leaderboard", `
SELECT `+participantColumns+`
FROM participants p
WHERE p.verification = 'approved' AND NOT p.is_banned
ORDER BY p.balance DESC, p.user_id ASC
LIMIT $1
`, normalizeLimit(limit, 20, 100))
}

func (r *ParticipantRepo) Stats(ctx context.Context) (model.Stats, error) {
	if r.pool == nil {
		return model.Stats{}, fmt.Errorf("postgres pool is nil")
	}

	var stats model.Stats
	err := r.pool.QueryRow(ctx, `
SELECT
	(SELECT COUNT(*) FROM participants),
	(SELECT COUNT(*) FROM participants WHERE verification = 'approved'),
	(SELECT COUNT(*) FROM participants WHERE verification = 'pending' AND nickname IS NOT NULL),
	(SELECT COUNT(*) FROM participants WHERE is_banned),
	(SELECT COUNT(*) FROM interactions WHERE is_like),
	(SELECT COALESCE(SUM(balance), 0) FROM participants)
`).Scan(&stats.Total, &stats.Verified, &stats.Pending, &stats.Banned, &stats.Likes, &stats.TotalBalance)
	if err != nil {
		return model.Stats{}, fmt.Errorf("read participant stats: %w", err)
	}

	return stats, nil
}

// SetPhotoObjectKey stores the archived photo key and returns the key it replaced.
func (r *ParticipantRepo) SetPhotoObjectKey(ctx context.Context, userID int64, key string) (string, error) {
	if r.pool == nil {
		return "", fmt.Errorf("postgres pool is nil")
	}

	var previous string
	err := r.pool.QueryRow(ctx, `
UPDATE participants p
SET photo_object_key = $2, updated_at = NOW()
FROM (
	SELECT user_id, photo_object_key AS prev
	FROM participants
	WHERE user_id = $1
	FOR UPDATE
) old
WHERE p.user_id = old.user_id
RETURNING COALESCE(old.prev, '')
`, userID, key).Scan(&previous)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrParticipantNotFound
		}
		return "", fmt.Errorf("set participant photo object key: %w", err)
	}

	return previous, nil
}

func (r *ParticipantRepo) ListStalePhotoArchives(ctx context.Context, cutoff time.Time, limit int) ([]PhotoArchiveRecord, error) {
	if r.pool == nil {
		return nil, fmt.Errorf("postgres pool is nil")
	}

	rows, err := r.pool.Query(ctx, `
SELECT user_id, photo_object_key
FROM participants
WHERE photo_object_key IS NOT NULL
	AND verification IN ('rejected', 'none')
	AND updated_at < $1
ORDER BY updated_at ASC
LIMIT $2
`, cutoff.UTC(), normalizeLimit(limit, 100, 1000))
	if err != nil {
		return nil, fmt.Errorf("list stale photo archives: %w", err)
	}
	defer rows.Close()

	items := make([]PhotoArchiveRecord, 0)
	for rows.Next() {
		var item PhotoArchiveRecord
		if err := rows.Scan(&item.UserID, &item.ObjectKey); err != nil {
			return nil, fmt.Errorf("scan stale photo archive: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate stale photo archives: %w", err)
	}

	return items, nil
}

func (r *ParticipantRepo) ClearPhotoObjectKey(ctx context.Context, userID int64, key string) error {
	if r.pool == nil {
		return fmt.Errorf("postgres pool is nil")
	}

	if _, err := r.pool.Exec(ctx, `
UPDATE participants
SET photo_object_key = NULL
WHERE user_id = $1 AND photo_object_key = $2
`, userID, key); err != nil {
		return fmt.Errorf("clear participant photo object key: %w", err)
	}

	return nil
}

func (r *ParticipantRepo) queryOne(ctx context.Context, op, query string, args ...any) (model.Participant, error) {
	var participant model.Participant
	if err := r.pool.QueryRow(ctx, query, args...).Scan(participantDest(&participant)...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Participant{}, ErrParticipantNotFound
		}
		return model.Participant{}, fmt.Errorf("%s: %w", op, err)
	}
	return participant, nil
}

func (r *ParticipantRepo) queryMany(ctx context.Context, op, query string, args ...any) ([]model.Participant, error) {
	if r.pool == nil {
		return nil, fmt.Errorf("postgres pool is nil")
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	return collectParticipants(op, rows)
}

func (r *ParticipantRepo) execOne(ctx context.Context, op, query string, args ...any) error {
	if r.pool == nil {
		return fmt.Errorf("postgres pool is nil")
	}

	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrParticipantNotFound
	}
	return nil
}

func (r *ParticipantRepo) count(ctx context.Context, op, query string) (int64, error) {
	if r.pool == nil {
		return 0, fmt.Errorf("postgres pool is nil")
	}

	var total int64
	if err := r.pool.QueryRow(ctx, query).Scan(&total); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return total, nil
}

func collectParticipants(op string, rows pgx.Rows) ([]model.Participant, error) {
	items := make([]model.Participant, 0)
	for rows.Next() {
		var participant model.Participant
		if err := rows.Scan(participantDest(&participant)...); err != nil {
			return nil, fmt.Errorf("%s: scan: %w", op, err)
		}
		items = append(items, participant)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: iterate: %w", op, err)
	}
	return items, nil
}

func participantDest(p *model.Participant) []any {
	return []any{
		&p.UserID,
		&p.Username,
		&p.Nickname,
		&p.PhotoFileID,
		&p.GameModes,
		(*string)(&p.Verification),
		&p.Balance,
		&p.Warnings,
		&p.Banned,
		&p.ReferralCode,
		&p.ReferredBy,
		&p.MatchesFound,
		&p.LastMatchAt,
		&p.PhotoObjectKey,
		&p.CreatedAt,
		&p.UpdatedAt,
	}
}

func normalizeLimit(limit, fallback, max int) int {
	if limit <= 0 {
		return fallback
	}
	if limit > max {
		return max
	}
	return limit
}
