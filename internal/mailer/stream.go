package mailer

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// StreamSender appends messages to a Redis stream; a separate worker owns delivery.
type StreamSender struct {
	rdb    *redis.Client
	stream string
	from   string
}

func NewStreamSender(rdb *redis.Client, stream, from string) *StreamSender {
	return &StreamSender{rdb: rdb, stream: stream, from: from}
}

func (s *StreamSender) Send(ctx context.Context, msg Message) error {
	err := s.rdb.XAdd(ctx, &redis.XAddArgs{
		Stream: s.stream,
		Values: map[string]any{
			"from":    s.from,
			"to":      msg.To,
			"subject": msg.Subject,
			"body":    msg.Body,
		},
	}).Err()
	if err != nil {
		return fmt.Errorf("enqueue mail for %s: %w", msg.To, err)
	}
	return nil
}
