package redis

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"
)

// Locker serializes concurrent scans of the same ticket. A lock is held only
// for the duration of one check-in attempt; the TTL is a crash backstop.
type Locker struct {
	Client   *redis.Client
	TTL      time.Duration
	WaitFor  time.Duration
	PollStep time.Duration
}

func NewLocker(client *redis.Client, ttl, waitFor time.Duration) *Locker {
	return &Locker{
		Client:   client,
		TTL:      ttl,
		WaitFor:  waitFor,
		PollStep: 25 * time.Millisecond,
	}
}

func key(ticketID string) string {
	return "checkin_lock:" + ticketID
}

// Acquire takes the per-ticket lock, polling up to WaitFor before giving up.
// Returns false when another scanner still holds the ticket.
func (l *Locker) Acquire(ctx context.Context, ticketID, operatorID string) (bool, error) {
	deadline := time.Now().Add(l.WaitFor)
	for {
		ok, err := l.Client.SetNX(ctx, key(ticketID), operatorID, l.TTL).Result()
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
		if time.Now().After(deadline) {
			return false, nil
		}
		select {
		case <-ctx.Done():
			return false, ctx.Err()
		case <-time.After(l.PollStep):
		}
	}
}

// Release drops the lock if this operator still owns it.
func (l *Locker) Release(ctx context.Context, ticketID, operatorID string) error {
	val, err := l.Client.Get(ctx, key(ticketID)).Result()
	if err == redis.Nil {
		return nil // already expired
	}
	if err != nil {
		return err
	}
	if val == operatorID {
		_, err := l.Client.Del(ctx, key(ticketID)).Result()
		return err
	}
	return nil
}
