package memory

import (
	"context"
	"math/rand"
	"strconv"
	"sync"
	"time"

	"contest-scoring-service/internal/domain"
	"golang.org/x/sync/singleflight"
)

// ParticipantStore is the backing store wrapped by ParticipantCache.
type ParticipantStore interface {
	List(ctx context.Context) ([]domain.Participant, error)
	Get(ctx context.Context, id string) (domain.Participant, error)
	Upsert(ctx context.Context, p domain.Participant) error
}

// ParticipantCache keeps the full participant list for a short TTL so that
// ranking, standings and report requests do not each rescan the store.
// Writes go straight through and drop the cached list.
type ParticipantCache struct {
	store ParticipantStore
	ttl   time.Duration
	clock func() time.Time
	sf    singleflight.Group
	rnd   *rand.Rand

	mu        sync.RWMutex
	cached    []domain.Participant
	expiresAt time.Time
	// generation guards against a slow load overwriting a newer invalidation.
	generation uint64
}

func NewParticipantCache(store ParticipantStore, ttl time.Duration) *ParticipantCache {
	return &ParticipantCache{
		store: store,
		ttl:   ttl,
		clock: time.Now,
		rnd:   rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (c *ParticipantCache) List(ctx context.Context) ([]domain.Participant, error) {
	if list, ok := c.fresh(c.clock()); ok {
		return list, nil
	}

	// one flight per generation; a load started before a write is never shared after it
	c.mu.RLock()
	gen := c.generation
	c.mu.RUnlock()

	result, err, _ := c.sf.Do("participants:"+strconv.FormatUint(gen, 10), func() (interface{}, error) {
		now := c.clock()
		if list, ok := c.fresh(now); ok {
			return list, nil
		}

		list, err := c.store.List(ctx)
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		if gen == c.generation && c.ttl > 0 {
			c.cached = list
			c.expiresAt = now.Add(c.ttlWithJitter())
		}
		c.mu.Unlock()
		return list, nil
	})
	if err != nil {
		return nil, err
	}
	return copyParticipants(result.([]domain.Participant)), nil
}

func (c *ParticipantCache) Get(ctx context.Context, id string) (domain.Participant, error) {
	return c.store.Get(ctx, id)
}

func (c *ParticipantCache) Upsert(ctx context.Context, p domain.Participant) error {
	if err := c.store.Upsert(ctx, p); err != nil {
		return err
	}
	c.Invalidate()
	return nil
}

// Invalidate drops the cached list.
func (c *ParticipantCache) Invalidate() {
	c.mu.Lock()
	c.cached = nil
	c.expiresAt = time.Time{}
	c.generation++
	c.mu.Unlock()
}

func (c *ParticipantCache) fresh(now time.Time) ([]domain.Participant, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.cached != nil && c.expiresAt.After(now) {
		return copyParticipants(c.cached), true
	}
	return nil, false
}

func (c *ParticipantCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}

func copyParticipants(in []domain.Participant) []domain.Participant {
	return append([]domain.Participant(nil), in...)
}
