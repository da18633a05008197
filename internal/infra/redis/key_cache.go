package redis

import (
	"context"
	"errors"
	"math/rand"
	"strconv"
	"sync"
	"time"

	"contest-scoring-service/internal/domain"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

var errStaleFill = errors.New("answer key changed during cache fill")

// KeyStore is the durable store behind the cache (SQL or memory).
type KeyStore interface {
	GetKey(ctx context.Context, category domain.Category) (domain.AnswerKey, bool, error)
	SaveKey(ctx context.Context, event domain.KeyChangeEvent) error
	History(ctx context.Context, limit int) ([]domain.KeyChangeEvent, error)
}

// KeyCache caches answer keys in Redis (hash per category) and falls back to
// the backing store on a miss. Keys are stored as:
//
//	HSET answerkey:{category} {position} {choice}
//	INCR answerkey:{category}:ver
//
// Positions are 1-based; a blank choice is stored as an empty string.
// Writes go to the store first, then bump the version and drop the hash in one
// transaction. A fill only lands if the version it loaded under is unchanged.
type KeyCache struct {
	client *redis.Client
	store  KeyStore
	ttl    time.Duration
	sf     singleflight.Group

	rndMu sync.Mutex
	rnd   *rand.Rand
}

func NewKeyCache(client *redis.Client, store KeyStore, ttl time.Duration) *KeyCache {
	return &KeyCache{
		client: client,
		store:  store,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

type loadedKey struct {
	key domain.AnswerKey
	ok  bool
}

func (c *KeyCache) GetKey(ctx context.Context, category domain.Category) (domain.AnswerKey, bool, error) {
	cacheKey := c.cacheKey(category)

	if key, ok := c.cached(ctx, cacheKey); ok {
		return key, true, nil
	}

	version, err := c.version(ctx, category)
	if err != nil {
		// redis unavailable: serve from the store without caching
		return c.store.GetKey(ctx, category)
	}

	// one flight per version; a load started before SaveKey is never shared after it
	flight := string(category) + ":" + strconv.FormatInt(version, 10)
	result, err, _ := c.sf.Do(flight, func() (interface{}, error) {
		if key, ok := c.cached(ctx, cacheKey); ok {
			return loadedKey{key: key, ok: true}, nil
		}

		key, ok, err := c.store.GetKey(ctx, category)
		if err != nil {
			return nil, err
		}
		if !ok {
			return loadedKey{}, nil
		}
		// best-effort fill; the store already answered
		_ = c.fill(ctx, category, version, key)
		return loadedKey{key: key, ok: true}, nil
	})
	if err != nil {
		return nil, false, err
	}
	l := result.(loadedKey)
	return l.key.Clone(), l.ok, nil
}

// fill writes key into the hash unless the version moved since it was read.
func (c *KeyCache) fill(ctx context.Context, category domain.Category, version int64, key domain.AnswerKey) error {
	cacheKey := c.cacheKey(category)
	verKey := c.versionKey(category)

	fields := make(map[string]interface{}, len(key))
	for i, choice := range key {
		fields[strconv.Itoa(i+1)] = string(choice)
	}

	return c.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, verKey).Int64()
		if err != nil && err != redis.Nil {
			return err
		}
		if current != version {
			return errStaleFill
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Del(ctx, cacheKey)
			pipe.HSet(ctx, cacheKey, fields)
			if ttl := c.ttlWithJitter(); ttl > 0 {
				pipe.Expire(ctx, cacheKey, ttl)
			}
			return nil
		})
		return err
	}, verKey)
}

func (c *KeyCache) SaveKey(ctx context.Context, event domain.KeyChangeEvent) error {
	if err := c.store.SaveKey(ctx, event); err != nil {
		return err
	}
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, c.versionKey(event.Category))
		pipe.Del(ctx, c.cacheKey(event.Category))
		return nil
	})
	return err
}

func (c *KeyCache) History(ctx context.Context, limit int) ([]domain.KeyChangeEvent, error) {
	return c.store.History(ctx, limit)
}

func (c *KeyCache) cacheKey(category domain.Category) string {
	return "answerkey:" + string(category)
}

// cached returns the hash only when all positions are present.
func (c *KeyCache) cached(ctx context.Context, cacheKey string) (domain.AnswerKey, bool) {
	fields, err := c.client.HGetAll(ctx, cacheKey).Result()
	if err != nil || len(fields) != domain.QuestionCount {
		return nil, false
	}
	return keyFromHash(fields), true
}

func (c *KeyCache) version(ctx context.Context, category domain.Category) (int64, error) {
	v, err := c.client.Get(ctx, c.versionKey(category)).Int64()
	if err == redis.Nil {
		return 0, nil
	}
	return v, err
}

func (c *KeyCache) versionKey(category domain.Category) string {
	return c.cacheKey(category) + ":ver"
}

func keyFromHash(fields map[string]string) domain.AnswerKey {
	key := domain.EmptyKey()
	for pos, value := range fields {
		i, err := strconv.Atoi(pos)
		if err != nil || i < 1 || i > domain.QuestionCount {
			continue
		}
		key[i-1] = domain.Choice(value)
	}
	return key
}

func (c *KeyCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	c.rndMu.Lock()
	defer c.rndMu.Unlock()
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
