package resume

import (
	"context"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"
)

// Set tracks part numbers that already have an output row, so an interrupted
// batch can be restarted without duplicating work.
type Set interface {
	Contains(ctx context.Context, rsPN string) (bool, error)
	Add(ctx context.Context, rsPN string) error
}

// MemorySet is the default implementation, seeded from the existing output
// file at startup.
type MemorySet struct {
	mu   sync.Mutex
	seen map[string]struct{}
}

func NewMemorySet(seed map[string]struct{}) *MemorySet {
	seen := make(map[string]struct{}, len(seed))
	for pn := range seed {
		seen[pn] = struct{}{}
	}
	return &MemorySet{seen: seen}
}

func (m *MemorySet) Contains(_ context.Context, rsPN string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.seen[rsPN]
	return ok, nil
}

func (m *MemorySet) Add(_ context.Context, rsPN string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seen[rsPN] = struct{}{}
	return nil
}

func (m *MemorySet) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.seen)
}

// RedisSet shares the seen-set between runners splitting one input file.
type RedisSet struct {
	client *redis.Client
	key    string
}

func NewRedisSet(client *redis.Client, key string) *RedisSet {
	return &RedisSet{client: client, key: key}
}

func (r *RedisSet) Contains(ctx context.Context, rsPN string) (bool, error) {
	ok, err := r.client.SIsMember(ctx, r.key, rsPN).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check seen set: %w", err)
	}
	return ok, nil
}

func (r *RedisSet) Add(ctx context.Context, rsPN string) error {
	if err := r.client.SAdd(ctx, r.key, rsPN).Err(); err != nil {
		return fmt.Errorf("failed to add to seen set: %w", err)
	}
	return nil
}

// Multi unions several sets: a part number is seen when any member has it,
// and additions propagate to all members.
func Multi(sets ...Set) Set {
	return multiSet(sets)
}

type multiSet []Set

func (m multiSet) Contains(ctx context.Context, rsPN string) (bool, error) {
	for _, s := range m {
		ok, err := s.Contains(ctx, rsPN)
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}

func (m multiSet) Add(ctx context.Context, rsPN string) error {
	for _, s := range m {
		if err := s.Add(ctx, rsPN); err != nil {
			return err
		}
	}
	return nil
}
