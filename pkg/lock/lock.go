package lock

import (
	"context"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
)

// JobLock keeps periodic jobs from overlapping. With a redis client the
// lock also holds across replicas; without one it is process-local.
type JobLock struct {
	name string
	ttl  time.Duration
	rdb  *redis.Client

	mu   sync.Mutex
	held bool
}

func New(name string, ttl time.Duration, rdb *redis.Client) *JobLock {
	return &JobLock{name: name, ttl: ttl, rdb: rdb}
}

// TryAcquire returns false when another invocation holds the lock.
func (l *JobLock) TryAcquire(ctx context.Context) (bool, error) {
	l.mu.Lock()
	if l.held {
		l.mu.Unlock()
		return false, nil
	}
	l.held = true
	l.mu.Unlock()

	if l.rdb == nil {
		return true, nil
	}
	ok, err := l.rdb.SetNX(ctx, "lock:"+l.name, "1", l.ttl).Result()
	if err != nil || !ok {
		l.mu.Lock()
		l.held = false
		l.mu.Unlock()
		return false, err
	}
	return true, nil
}

func (l *JobLock) Release(ctx context.Context) {
	if l.rdb != nil {
		l.rdb.Del(ctx, "lock:"+l.name)
	}
	l.mu.Lock()
	l.held = false
	l.mu.Unlock()
}
