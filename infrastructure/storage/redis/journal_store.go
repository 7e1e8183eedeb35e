package redis

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/felixgeelhaar/duelist/domain/journal"
)

// JournalStore is a Redis-backed implementation of journal.Store. Each
// session is a list of JSON entries.
type JournalStore struct {
	client    *redis.Client
	keyPrefix string
	ttl       time.Duration
}

// NewJournalStore connects to the journal server and pings it. The
// recorder is the only writer, so the pool stays small.
func NewJournalStore(cfg Config) (*JournalStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Address,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  cfg.Timeout,
		ReadTimeout:  cfg.Timeout,
		WriteTimeout: cfg.Timeout,
		PoolSize:     2,
	})

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, errors.Join(journal.ErrConnectionFailed, err)
	}

	return &JournalStore{client: client, keyPrefix: cfg.KeyPrefix, ttl: cfg.TTL}, nil
}

// NewJournalStoreFromClient creates a journal store from an existing Redis client.
func NewJournalStoreFromClient(client *redis.Client, keyPrefix string) *JournalStore {
	return &JournalStore{client: client, keyPrefix: keyPrefix}
}

func (s *JournalStore) sessionKey(sessionID string) string {
	return s.keyPrefix + "journal:" + sessionID
}

// Append persists an entry.
func (s *JournalStore) Append(ctx context.Context, e journal.Entry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := e.Validate(); err != nil {
		return err
	}
	if s.client == nil {
		return journal.ErrStoreClosed
	}

	data, err := json.Marshal(e)
	if err != nil {
		return err
	}

	key := s.sessionKey(e.SessionID)
	pipe := s.client.TxPipeline()
	pipe.RPush(ctx, key, data)
	if s.ttl > 0 {
		pipe.Expire(ctx, key, s.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return wrapError(err)
	}
	return nil
}

// List returns a session's entries ordered by cycle.
func (s *JournalStore) List(ctx context.Context, sessionID string, limit int) ([]journal.Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.client == nil {
		return nil, journal.ErrStoreClosed
	}

	start := int64(0)
	if limit > 0 {
		start = -int64(limit)
	}
	raw, err := s.client.LRange(ctx, s.sessionKey(sessionID), start, -1).Result()
	if err != nil {
		return nil, wrapError(err)
	}

	out := make([]journal.Entry, 0, len(raw))
	for _, item := range raw {
		var e journal.Entry
		if err := json.Unmarshal([]byte(item), &e); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Cycle < out[j].Cycle })
	return out, nil
}

// Close closes the Redis connection.
func (s *JournalStore) Close() error {
	if s.client == nil {
		return nil
	}
	return s.client.Close()
}

// Client returns the underlying Redis client for advanced operations.
func (s *JournalStore) Client() *redis.Client {
	return s.client
}

func wrapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return errors.Join(journal.ErrConnectionFailed, err)
	}
	var netErr interface{ Timeout() bool }
	if errors.As(err, &netErr) && netErr.Timeout() {
		return errors.Join(journal.ErrConnectionFailed, err)
	}
	return err
}

var _ journal.Store = (*JournalStore)(nil)
