package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"quiz-bot-service/internal/app"
)

// DraftStore keeps wizard drafts in Redis, one JSON value per administrator.
// The TTL bounds how long an abandoned draft lingers.
type DraftStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewDraftStore(client *redis.Client, ttl time.Duration) *DraftStore {
	return &DraftStore{client: client, ttl: ttl}
}

func (s *DraftStore) Get(ctx context.Context, adminID int64) (app.Draft, bool, error) {
	raw, err := s.client.Get(ctx, s.key(adminID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return app.Draft{}, false, nil
	}
	if err != nil {
		return app.Draft{}, false, fmt.Errorf("load draft: %w", err)
	}
	var draft app.Draft
	if err := json.Unmarshal(raw, &draft); err != nil {
		return app.Draft{}, false, fmt.Errorf("decode draft: %w", err)
	}
	return draft, true, nil
}

func (s *DraftStore) Set(ctx context.Context, adminID int64, draft app.Draft) error {
	raw, err := json.Marshal(draft)
	if err != nil {
		return fmt.Errorf("encode draft: %w", err)
	}
	if err := s.client.Set(ctx, s.key(adminID), raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("save draft: %w", err)
	}
	return nil
}

func (s *DraftStore) Delete(ctx context.Context, adminID int64) error {
	if err := s.client.Del(ctx, s.key(adminID)).Err(); err != nil {
		return fmt.Errorf("drop draft: %w", err)
	}
	return nil
}

func (s *DraftStore) key(adminID int64) string {
	return "quiz:draft:" + strconv.FormatInt(adminID, 10)
}
