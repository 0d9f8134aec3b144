package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	lockTTL       = 10 * time.Second
	retryInterval = 25 * time.Millisecond
)

// releaseScript deletes the lock only when the caller still owns it, so a
// holder whose TTL elapsed cannot free a lock re-acquired by someone else.
var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0`)

// PairLock provides mutual exclusion per unordered user pair, backed by
// Redis SET NX with a TTL and a random owner token.
// Key format: pair:<smaller_id>:<larger_id>
type PairLock struct {
	client *redis.Client
}

// NewPairLock creates a PairLock wrapping the given Redis client.
func NewPairLock(client *redis.Client) *PairLock {
	return &PairLock{client: client}
}

// Acquire polls until the pair's lock is obtained or ctx expires. The
// returned release function frees the lock; the TTL bounds how long a
// crashed holder can block the pair.
func (l *PairLock) Acquire(ctx context.Context, userA, userB string) (func(), error) {
	key := l.key(userA, userB)
	token := uuid.NewString()

	for {
		ok, err := l.client.SetNX(ctx, key, token, lockTTL).Result()
		if err != nil {
			return nil, fmt.Errorf("pair lock: %w", err)
		}
		if ok {
			break
		}
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("pair lock: %w", ctx.Err())
		case <-time.After(retryInterval):
		}
	}

	release := func() {
		// Fresh context: the lock must be freed even when the request's
		// context is already cancelled.
		relCtx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
		defer cancel()
		_, _ = releaseScript.Run(relCtx, l.client, []string{key}, token).Result()
	}
	return release, nil
}

// key maps an unordered pair to a canonical lock key.
func (l *PairLock) key(a, b string) string {
	if b < a {
		a, b = b, a
	}
	return fmt.Sprintf("pair:%s:%s", a, b)
}
