package websocket

import (
	"sync"

	"go.uber.org/zap"
)

const defaultSubscriptionBuffer = 256

// Publisher delivers an encoded outbound frame to every live session of a participant.
type Publisher interface {
	Publish(participantID int64, payload []byte)
}

// Subscription is one session's view of a participant's event stream. It only sees events
// published after Subscribe returned.
type Subscription struct {
	participantID int64
	ch            chan []byte
	sink          *sink
	once          sync.Once
}

// Messages is closed once the subscription is cancelled.
func (s *Subscription) Messages() <-chan []byte {
	return s.ch
}

func (s *Subscription) ParticipantID() int64 {
	return s.participantID
}

// Cancel detaches the subscription. Safe to call more than once.
func (s *Subscription) Cancel() {
	s.once.Do(func() {
		s.sink.remove(s)
		close(s.ch)
	})
}

type sink struct {
	mu          sync.RWMutex
	subscribers map[*Subscription]struct{}
}

func (k *sink) add(sub *Subscription) {
	k.mu.Lock()
	k.subscribers[sub] = struct{}{}
	k.mu.Unlock()
}

func (k *sink) remove(sub *Subscription) {
	k.mu.Lock()
	delete(k.subscribers, sub)
	k.mu.Unlock()
}

func (k *sink) count() int {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return len(k.subscribers)
}

// Broadcaster is the per-participant multicast registry. Sinks are created on first
// subscription and kept for the life of the process.
type Broadcaster struct {
	mu     sync.Mutex
	sinks  map[int64]*sink
	buffer int
	logger *zap.Logger
}

func NewBroadcaster(buffer int, logger *zap.Logger) *Broadcaster {
	if buffer <= 0 {
		buffer = defaultSubscriptionBuffer
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Broadcaster{
		sinks:  make(map[int64]*sink),
		buffer: buffer,
		logger: logger.With(zap.String("component", "broadcaster")),
	}
}

func (b *Broadcaster) sinkFor(participantID int64, create bool) *sink {
	b.mu.Lock()
	defer b.mu.Unlock()
	s, ok := b.sinks[participantID]
	if !ok && create {
		s = &sink{subscribers: make(map[*Subscription]struct{})}
		b.sinks[participantID] = s
	}
	return s
}

func (b *Broadcaster) Subscribe(participantID int64) *Subscription {
	s := b.sinkFor(participantID, true)
	sub := &Subscription{
		participantID: participantID,
		ch:            make(chan []byte, b.buffer),
		sink:          s,
	}
	s.add(sub)
	return sub
}

// Publish never blocks. A subscriber whose buffer is full misses this payload.
func (b *Broadcaster) Publish(participantID int64, payload []byte) {
	s := b.sinkFor(participantID, false)
	if s == nil {
		return
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	for sub := range s.subscribers {
		select {
		case sub.ch <- payload:
		default:
			b.logger.Warn("subscriber buffer full, dropping event",
				zap.Int64("participant_id", participantID),
				zap.Int("buffer", cap(sub.ch)))
		}
	}
}

func (b *Broadcaster) SubscriberCount(participantID int64) int {
	s := b.sinkFor(participantID, false)
	if s == nil {
		return 0
	}
	return s.count()
}

func (b *Broadcaster) SinkCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.sinks)
}
