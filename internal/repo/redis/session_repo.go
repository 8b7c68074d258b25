package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/ave4ge/findateammatebot/internal/domain/model"
)

const sessionPrefix = "bot_session:"

// SessionRepo keeps chat sessions as JSON blobs with a sliding TTL.
type SessionRepo struct {
	client *goredis.Client
	ttl    time.Duration
}

func NewSessionRepo(client *goredis.Client, ttl time.Duration) *SessionRepo {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &SessionRepo{client: client, ttl: ttl}
}

func (r *SessionRepo) Load(ctx context.Context, userID int64) (model.Session, error) {
	if r.client == nil {
		return model.Session{}, fmt.Errorf("redis client is nil")
	}

	raw, err := r.client.Get(ctx, sessionKey(userID)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return model.NewSession(userID), nil
	}
	if err != nil {
		return model.Session{}, fmt.Errorf("get session: %w", err)
	}

	var session model.Session
	if err := json.Unmarshal(raw, &session); err != nil {
		return model.Session{}, fmt.Errorf("decode session: %w", err)
	}
	session.UserID = userID
	return session, nil
}

func (r *SessionRepo) Save(ctx context.Context, session model.Session) error {
	if r.client == nil {
		return fmt.Errorf("redis client is nil")
	}
	if session.UserID <= 0 {
		return fmt.Errorf("session user id is required")
	}

	raw, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := r.client.Set(ctx, sessionKey(session.UserID), raw, r.ttl).Err(); err != nil {
		return fmt.Errorf("set session: %w", err)
	}
	return nil
}

func (r *SessionRepo) Clear(ctx context.Context, userID int64) error {
	if r.client == nil {
		return fmt.Errorf("redis client is nil")
	}
	if err := r.client.Del(ctx, sessionKey(userID)).Err(); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

func sessionKey(userID int64) string {
	return sessionPrefix + strconv.FormatInt(userID, 10)
}
