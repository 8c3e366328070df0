package redis

import (
	"context"

	"github.com/redis/go-redis/v9"
)

type Subscriber struct {
	client redis.UniversalClient
}

func NewSubscriber(client redis.UniversalClient) *Subscriber {
	return &Subscriber{client: client}
}

// Subscribe pattern-subscribes to channels and feeds every message to handler until ctx is
// done or the connection fails. ready, if set, is called once the server confirmed the
// subscription.
func (s *Subscriber) Subscribe(ctx context.Context, patterns []string, ready func(), handler func(channel string, payload []byte)) error {
	sub := s.client.PSubscribe(ctx, patterns...)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return err
	}
	if ready != nil {
		ready()
	}

	for {
		msg, err := sub.ReceiveMessage(ctx)
		if err != nil {
			return err
		}
		handler(msg.Channel, []byte(msg.Payload))
	}
}
