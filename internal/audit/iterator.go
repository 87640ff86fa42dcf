// Package audit consumes prediction events from Kafka and records them in
// Postgres and the object store archive.
package audit

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog/log"
	"github.com/segmentio/kafka-go"
)

// MessageIterator abstracts the Kafka consumer.
type MessageIterator interface {
	// Messages is closed by the implementation when consumption stops.
	Messages() <-chan kafka.Message
	CommitOffset(ctx context.Context, msg kafka.Message) error
}

// Delivery pairs a decoded message with the means to acknowledge it.
type Delivery[T any] struct {
	Data    T
	Message kafka.Message
	source  MessageIterator
}

// Commit acknowledges the underlying message.
func (d *Delivery[T]) Commit(ctx context.Context) error {
	return d.source.CommitOffset(ctx, d.Message)
}

// Iterator decodes JSON message values into T.
type Iterator[T any] struct {
	msgIterator MessageIterator
}

func NewIterator[T any](iterator MessageIterator) *Iterator[T] {
	return &Iterator[T]{msgIterator: iterator}
}

// Deliveries streams decoded messages until the source channel closes or ctx
// is done. Messages that cannot be decoded are committed and skipped so they
// are not redelivered forever.
func (it *Iterator[T]) Deliveries(ctx context.Context) <-chan *Delivery[T] {
	out := make(chan *Delivery[T])
	go func() {
		defer close(out)

		for msg := range it.msgIterator.Messages() {
			var data T
			if err := json.Unmarshal(msg.Value, &data); err != nil {
				log.Warn().Err(err).Int64("offset", msg.Offset).Msg("skipping undecodable message")
				if err := it.msgIterator.CommitOffset(ctx, msg); err != nil {
					log.Error().Err(err).Msg("failed to commit offset")
				}
				continue
			}

			select {
			case out <- &Delivery[T]{Data: data, Message: msg, source: it.msgIterator}:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}
