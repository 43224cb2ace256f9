package queue

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Message represents work to be processed.
type Message struct {
	Type string
	Body []byte
}

// Queue is the abstraction over different backends.
type Queue interface {
	Publish(ctx context.Context, msg Message) error
	Consume(ctx context.Context) (<-chan Message, error)
}

// TypeMarked labels messages emitted after attendance is marked or corrected.
const TypeMarked = "attendance.marked"

// MarkedEvent is the payload of a TypeMarked message.
type MarkedEvent struct {
	LectureID  string   `json:"lecture_id"`
	StudentIDs []string `json:"student_ids"`
}

// InMemory is a minimal channel-backed queue for dev/testing.
type InMemory struct {
	ch chan Message
}

// NewInMemory creates a bounded in-memory queue.
func NewInMemory(size int) *InMemory {
	return &InMemory{ch: make(chan Message, size)}
}

// Publish enqueues a message.
func (q *InMemory) Publish(ctx context.Context, msg Message) error {
	select {
	case q.ch <- msg:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Consume returns a channel for workers.
func (q *InMemory) Consume(ctx context.Context) (<-chan Message, error) {
	out := make(chan Message)
	go func() {
		defer close(out)
		for {
			select {
			case msg := <-q.ch:
				out <- msg
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

// RedisQueue implements a simple Redis list-backed queue.
type RedisQueue struct {
	client *redis.Client
	key    string
}

// NewRedisQueue builds a queue using LPUSH/BRPOP semantics.
func NewRedisQueue(client *redis.Client, key string) *RedisQueue {
	if key == "" {
		key = "classattend:queue"
	}
	return &RedisQueue{client: client, key: key}
}

// Publish enqueues a message.
func (q *RedisQueue) Publish(ctx context.Context, msg Message) error {
	return q.client.LPush(ctx, q.key, serialize(msg)).Err()
}

// Consume streams messages using BRPOP.
func (q *RedisQueue) Consume(ctx context.Context) (<-chan Message, error) {
	out := make(chan Message)
	go func() {
		defer close(out)
		for {
			res, err := q.client.BRPop(ctx, 5*time.Second, q.key).Result()
			if err != nil {
				if err == redis.Nil {
					continue
				}
				if ctx.Err() != nil {
					return
				}
				continue
			}
			if len(res) == 2 {
				if msg, err := deserialize(res[1]); err == nil {
					out <- msg
				}
			}
		}
	}()
	return out, nil
}

// serialize is a tiny helper to store messages as Type|Body.
func serialize(msg Message) string {
	return msg.Type + "|" + string(msg.Body)
}

func deserialize(s string) (Message, error) {
	for i, r := range s {
		if r == '|' {
			return Message{Type: s[:i], Body: []byte(s[i+1:])}, nil
		}
	}
	return Message{Body: []byte(s)}, nil
}

// MarkedPublisher publishes marked-attendance events onto a queue. Publish
// failures are logged and swallowed: a lost invalidation only delays a cache
// refresh, it must never fail the marking request.
type MarkedPublisher struct {
	queue Queue
	log   *zap.SugaredLogger
}

// NewMarkedPublisher creates a publisher.
func NewMarkedPublisher(q Queue, log *zap.SugaredLogger) *MarkedPublisher {
	return &MarkedPublisher{queue: q, log: log}
}

// AttendanceMarked enqueues a TypeMarked message.
func (p *MarkedPublisher) AttendanceMarked(ctx context.Context, lectureID string, studentIDs []string) {
	body, err := json.Marshal(MarkedEvent{LectureID: lectureID, StudentIDs: studentIDs})
	if err != nil {
		p.log.Errorw("marshal marked event", "err", err)
		return
	}
	if err := p.queue.Publish(ctx, Message{Type: TypeMarked, Body: body}); err != nil {
		p.log.Errorw("publish marked event", "lecture_id", lectureID, "err", err)
	}
}
