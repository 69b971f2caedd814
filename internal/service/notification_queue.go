package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	NotificationQueueKey = "enrollment:notifications"
	redisPopTimeout      = 5 * time.Second
)

var ErrQueueFull = errors.New("notification queue is full")

type PurchaseNotification struct {
	Email       string    `json:"email"`
	Name        string    `json:"name"`
	CourseTitle string    `json:"courseTitle"`
	QueuedAt    time.Time `json:"queuedAt"`
}

// NotificationQueue buffers purchase notifications between the request path
// and the delivery workers.
type NotificationQueue interface {
	Push(ctx context.Context, n *PurchaseNotification) error
	// Pop blocks until a notification is available or ctx is done.
	Pop(ctx context.Context) (*PurchaseNotification, error)
}

type memoryQueueImpl struct {
	ch chan *PurchaseNotification
}

func NewMemoryQueue(size int) NotificationQueue {
	if size <= 0 {
		size = 1
	}
	return &memoryQueueImpl{ch: make(chan *PurchaseNotification, size)}
}

func (q *memoryQueueImpl) Push(ctx context.Context, n *PurchaseNotification) error {
	select {
	case q.ch <- n:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		return ErrQueueFull
	}
}

func (q *memoryQueueImpl) Pop(ctx context.Context) (*PurchaseNotification, error) {
	select {
	case n := <-q.ch:
		return n, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

type redisQueueImpl struct {
	client *redis.Client
	key    string
}

func NewRedisQueue(client *redis.Client, key string) NotificationQueue {
	if key == "" {
		key = NotificationQueueKey
	}
	return &redisQueueImpl{client: client, key: key}
}

func (q *redisQueueImpl) Push(ctx context.Context, n *PurchaseNotification) error {
	data, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}
	if err := q.client.RPush(ctx, q.key, data).Err(); err != nil {
		return fmt.Errorf("push notification: %w", err)
	}
	return nil
}

func (q *redisQueueImpl) Pop(ctx context.Context) (*PurchaseNotification, error) {
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		// BLPOP returns [key, value]
		result, err := q.client.BLPop(ctx, redisPopTimeout, q.key).Result()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			return nil, fmt.Errorf("pop notification: %w", err)
		}
		if len(result) != 2 {
			continue
		}

		var n PurchaseNotification
		if err := json.Unmarshal([]byte(result[1]), &n); err != nil {
			return nil, fmt.Errorf("unmarshal notification: %w", err)
		}
		return &n, nil
	}
}
