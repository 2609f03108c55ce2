package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const idempotencyInProgress = "PROCESSING"

// StoredResponse is a completed HTTP response replayed for a repeated
// Idempotency-Key.
type StoredResponse struct {
	Status int             `json:"status"`
	Body   json.RawMessage `json:"body"`
	// RequestHash fingerprints the request body the response belongs to.
	RequestHash string `json:"request_hash,omitempty"`
}

type IdempotencyStore struct {
	client   redis.Cmdable
	lockTTL  time.Duration
	replyTTL time.Duration
}

func NewIdempotencyStore(client redis.Cmdable, lockTTL, replyTTL time.Duration) *IdempotencyStore {
	return &IdempotencyStore{client: client, lockTTL: lockTTL, replyTTL: replyTTL}
}

// Begin claims key for a new request. It returns the stored response when
// the key already completed, and ok=false while another request holds it.
func (s *IdempotencyStore) Begin(ctx context.Context, key string) (stored *StoredResponse, ok bool, err error) {
	acquired, err := s.client.SetNX(ctx, idempotencyKey(key), idempotencyInProgress, s.lockTTL).Result()
	if err != nil {
		return nil, false, err
	}
	if acquired {
		return nil, true, nil
	}

	val, err := s.client.Get(ctx, idempotencyKey(key)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			// expired between SETNX and GET; treat as still in flight
			return nil, false, nil
		}
		return nil, false, err
	}
	if val == idempotencyInProgress {
		return nil, false, nil
	}

	var resp StoredResponse
	if err := json.Unmarshal([]byte(val), &resp); err != nil {
		return nil, false, err
	}
	return &resp, false, nil
}

func (s *IdempotencyStore) Complete(ctx context.Context, key string, resp StoredResponse) error {
	payload, err := json.Marshal(resp)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, idempotencyKey(key), payload, s.replyTTL).Err()
}

// Release forgets key so a failed request can be retried with it.
func (s *IdempotencyStore) Release(ctx context.Context, key string) error {
	return s.client.Del(ctx, idempotencyKey(key)).Err()
}

func idempotencyKey(key string) string {
	return "idempotency:booking:" + key
}
