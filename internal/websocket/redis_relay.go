package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"

	"freelance-chat/internal/events"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	relayPublishTimeout = 2 * time.Second
	relayQueueSize      = 256
	relayRetryMin       = 100 * time.Millisecond
	relayRetryMax       = 5 * time.Second
)

type relayPublisher interface {
	Publish(ctx context.Context, channel string, payload []byte) error
}

type relaySubscriber interface {
	Subscribe(ctx context.Context, patterns []string, ready func(), handler func(channel string, payload []byte)) error
}

type relayItem struct {
	participantID int64
	channel       string
	data          []byte
}

// RedisRelay fans events out to sessions held by other instances. Local sessions are served
// straight from the Broadcaster; the Redis copy is skipped on the way back in.
type RedisRelay struct {
	local      *Broadcaster
	publisher  relayPublisher
	subscriber relaySubscriber
	instanceID string
	logger     *zap.Logger

	queue      chan relayItem
	subscribed atomic.Bool
	retryMin   time.Duration
	retryMax   time.Duration
}

func NewRedisRelay(local *Broadcaster, publisher relayPublisher, subscriber relaySubscriber, logger *zap.Logger) *RedisRelay {
	if logger == nil {
		logger = zap.NewNop()
	}
	instanceID := uuid.NewString()
	return &RedisRelay{
		local:      local,
		publisher:  publisher,
		subscriber: subscriber,
		instanceID: instanceID,
		logger:     logger.With(zap.String("component", "redis_relay"), zap.String("instance_id", instanceID)),
		queue:      make(chan relayItem, relayQueueSize),
		retryMin:   relayRetryMin,
		retryMax:   relayRetryMax,
	}
}

func (r *RedisRelay) InstanceID() string { return r.instanceID }

// Subscribed reports whether the relay currently holds a confirmed Redis subscription.
func (r *RedisRelay) Subscribed() bool { return r.subscribed.Load() }

// Publish delivers locally and queues the Redis copy. It never waits on Redis: a full queue
// drops the remote copy.
func (r *RedisRelay) Publish(participantID int64, payload []byte) {
	r.local.Publish(participantID, payload)

	data, err := json.Marshal(events.NewEnvelope(r.instanceID, participantID, payload))
	if err != nil {
		r.logger.Error("encode relay envelope", zap.Int64("participant_id", participantID), zap.Error(err))
		return
	}

	item := relayItem{participantID: participantID, channel: events.ParticipantChannel(participantID), data: data}
	select {
	case r.queue <- item:
	default:
		r.logger.Warn("relay queue full, dropping remote delivery", zap.Int64("participant_id", participantID))
	}
}

// Run forwards queued envelopes to Redis and consumes the relay channels until ctx is done.
// A lost subscription is re-established with capped exponential backoff. ready, if set, is
// called once, after the first subscription is confirmed.
func (r *RedisRelay) Run(ctx context.Context, ready func()) {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		r.forward(ctx)
		return nil
	})
	g.Go(func() error {
		r.consume(ctx, ready)
		return nil
	})
	_ = g.Wait()
}

func (r *RedisRelay) forward(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case item := <-r.queue:
			pubCtx, cancel := context.WithTimeout(ctx, relayPublishTimeout)
			err := r.publisher.Publish(pubCtx, item.channel, item.data)
			cancel()
			if err != nil && ctx.Err() == nil {
				r.logger.Warn("relay publish failed", zap.Int64("participant_id", item.participantID), zap.Error(err))
			}
		}
	}
}

func (r *RedisRelay) consume(ctx context.Context, ready func()) {
	var once sync.Once
	delay := r.retryMin
	patterns := []string{events.ParticipantChannelPattern}

	for {
		err := r.subscriber.Subscribe(ctx, patterns, func() {
			r.subscribed.Store(true)
			delay = r.retryMin
			if ready != nil {
				once.Do(ready)
			}
		}, r.deliver)
		r.subscribed.Store(false)
		if ctx.Err() != nil {
			return
		}

		r.logger.Warn("relay subscription lost", zap.Duration("retry_in", delay), zap.Error(err))
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
		delay = min(delay*2, r.retryMax)
	}
}

func (r *RedisRelay) deliver(channel string, data []byte) {
	var env events.Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		r.logger.Warn("malformed relay envelope", zap.String("channel", channel), zap.Error(err))
		return
	}
	if env.Origin == r.instanceID {
		return
	}
	if id, ok := events.ParseParticipantChannel(channel); !ok || id != env.ParticipantID {
		r.logger.Warn("relay envelope channel mismatch",
			zap.String("channel", channel), zap.Int64("participant_id", env.ParticipantID))
		return
	}
	r.local.Publish(env.ParticipantID, env.Payload)
}
