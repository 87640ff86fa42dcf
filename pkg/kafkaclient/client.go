// Package kafkaclient wraps segmentio/kafka-go readers and writers behind
// small interfaces so they can be replaced in tests.
package kafkaclient

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/segmentio/kafka-go"
)

// KafkaReader defines the interface for a Kafka message reader. FetchMessage
// never commits; CommitMessages is the only acknowledgement.
type KafkaReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaConsumer pumps messages from a reader onto a channel until stopped.
type KafkaConsumer struct {
	reader      KafkaReader
	doneChan    chan struct{}
	stopOnce    sync.Once
	wg          sync.WaitGroup
	messageChan chan kafka.Message
	backoff     time.Duration
}

// NewKafkaConsumer creates a consumer group reader with manual commits.
func NewKafkaConsumer(topic, groupID string, brokers ...string) *KafkaConsumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers: brokers,
		Topic:   topic,
		GroupID: groupID,
		// Messages are fetched, and committed through CommitOffset only.
		CommitInterval: 0,
		MinBytes:       1,
		MaxBytes:       10e6,
	})
	return NewConsumer(reader)
}

// NewConsumer wraps an existing reader.
func NewConsumer(reader KafkaReader) *KafkaConsumer {
	return &KafkaConsumer{
		reader:      reader,
		doneChan:    make(chan struct{}),
		messageChan: make(chan kafka.Message),
		backoff:     time.Second,
	}
}

// Messages returns the channel fed by StartConsuming. It is closed when the
// loop exits.
func (kc *KafkaConsumer) Messages() <-chan kafka.Message {
	return kc.messageChan
}

// CommitOffset acknowledges msg.
func (kc *KafkaConsumer) CommitOffset(ctx context.Context, msg kafka.Message) error {
	log.Debug().Str("topic", msg.Topic).Int("partition", msg.Partition).Int64("offset", msg.Offset).Msg("committing offset")
	return kc.reader.CommitMessages(ctx, msg)
}

// StartConsuming begins the read loop in a separate goroutine.
func (kc *KafkaConsumer) StartConsuming(ctx context.Context) {
	kc.wg.Add(1)
	go func() {
		defer kc.wg.Done()
		defer close(kc.messageChan)

		log.Info().Msg("starting kafka consumer loop")

		for {
			select {
			case <-ctx.Done():
				log.Info().Msg("context canceled, stopping consumer loop")
				return
			case <-kc.doneChan:
				log.Info().Msg("shutdown requested, stopping consumer loop")
				return
			default:
			}

			msg, err := kc.reader.FetchMessage(ctx)
			if err != nil {
				if errors.Is(err, io.EOF) || ctx.Err() != nil {
					return
				}
				log.Error().Err(err).Msg("error reading message")
				select {
				case <-time.After(kc.backoff):
				case <-ctx.Done():
					return
				case <-kc.doneChan:
					return
				}
				continue
			}

			select {
			case kc.messageChan <- msg:
				log.Debug().Str("topic", msg.Topic).Int("partition", msg.Partition).Int64("offset", msg.Offset).Msg("message received")
			case <-ctx.Done():
				return
			case <-kc.doneChan:
				return
			}
		}
	}()
}

// Stop ends the loop, waits for it and closes the reader. It is safe to call
// more than once.
func (kc *KafkaConsumer) Stop() {
	kc.stopOnce.Do(func() {
		close(kc.doneChan)
		// Closing the reader unblocks a pending FetchMessage with io.EOF.
		if err := kc.reader.Close(); err != nil {
			log.Error().Err(err).Msg("failed to close kafka reader")
		}
		kc.wg.Wait()
		log.Info().Msg("kafka consumer stopped")
	})
}
