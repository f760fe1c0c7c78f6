package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrQueueClosed is returned by Dequeue once a queue has been closed and
// drained.
var ErrQueueClosed = errors.New("notification queue closed")

// Queue carries jobs from request handlers to the delivery worker.
type Queue interface {
	Enqueue(ctx context.Context, job Job) error
	Dequeue(ctx context.Context) (Job, error)
	Close() error
}

// ---------------------------------------------------------------------------
// In-process queue
// ---------------------------------------------------------------------------

// ChannelQueue is a bounded in-memory queue. Jobs are lost on restart.
type ChannelQueue struct {
	jobs chan Job
	done chan struct{}
}

func NewChannelQueue(size int) *ChannelQueue {
	if size <= 0 {
		size = 64
	}
	return &ChannelQueue{jobs: make(chan Job, size), done: make(chan struct{})}
}

// Enqueue adds job without blocking. A full queue is an error.
func (q *ChannelQueue) Enqueue(ctx context.Context, job Job) error {
	select {
	case <-q.done:
		return ErrQueueClosed
	default:
	}
	select {
	case q.jobs <- job:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		return fmt.Errorf("notification queue full (%d jobs)", cap(q.jobs))
	}
}

func (q *ChannelQueue) Dequeue(ctx context.Context) (Job, error) {
	select {
	case job := <-q.jobs:
		return job, nil
	case <-ctx.Done():
		return Job{}, ctx.Err()
	case <-q.done:
		select {
		case job := <-q.jobs:
			return job, nil
		default:
			return Job{}, ErrQueueClosed
		}
	}
}

func (q *ChannelQueue) Close() error {
	select {
	case <-q.done:
	default:
		close(q.done)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Redis queue
// ---------------------------------------------------------------------------

// RedisQueue stores jobs as JSON in a Redis list, pushed with LPUSH and
// popped with BRPOP, so pending notifications survive a restart.
type RedisQueue struct {
	rdb     *redis.Client
	key     string
	timeout time.Duration
}

// NewRedisQueue connects to addr and verifies the connection.
func NewRedisQueue(ctx context.Context, addr, key string) (*RedisQueue, error) {
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("connect to redis at %s: %w", addr, err)
	}
	return NewRedisQueueFromClient(rdb, key), nil
}

// NewRedisQueueFromClient wraps an existing client.
func NewRedisQueueFromClient(rdb *redis.Client, key string) *RedisQueue {
	return &RedisQueue{rdb: rdb, key: key, timeout: 5 * time.Second}
}

func (q *RedisQueue) Enqueue(ctx context.Context, job Job) error {
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal job: %w", err)
	}
	if err := q.rdb.LPush(ctx, q.key, data).Err(); err != nil {
		return fmt.Errorf("push job: %w", err)
	}
	return nil
}

// Dequeue blocks until a job arrives or ctx is done. BRPOP uses a bounded
// timeout so cancellation is noticed promptly.
func (q *RedisQueue) Dequeue(ctx context.Context) (Job, error) {
	for {
		res, err := q.rdb.BRPop(ctx, q.timeout, q.key).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				if ctx.Err() != nil {
					return Job{}, ctx.Err()
				}
				continue
			}
			if errors.Is(err, redis.ErrClosed) {
				return Job{}, ErrQueueClosed
			}
			if ctx.Err() != nil {
				return Job{}, ctx.Err()
			}
			return Job{}, fmt.Errorf("pop job: %w", err)
		}

		// BRPOP returns [key, value].
		var job Job
		if err := json.Unmarshal([]byte(res[1]), &job); err != nil {
			return Job{}, fmt.Errorf("unmarshal job: %w", err)
		}
		return job, nil
	}
}

func (q *RedisQueue) Close() error {
	return q.rdb.Close()
}
