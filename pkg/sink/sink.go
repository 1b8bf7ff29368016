// Package sink publishes executed trades to downstream consumers.
package sink

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/uhyunpark/kwhmatch/pkg/app/core"
)

type Sink interface {
	Publish(ctx context.Context, records []core.MatchRecord) error
	Close() error
}

// NopSink drops everything.
type NopSink struct{}

func (NopSink) Publish(context.Context, []core.MatchRecord) error { return nil }
func (NopSink) Close() error                                       { return nil }

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaSink writes one message per trade, keyed by the order pair.
type KafkaSink struct {
	writer messageWriter
}

func NewKafkaSink(brokers []string, topic string) *KafkaSink {
	return &KafkaSink{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireAll,
			Async:        false,
			BatchTimeout: 10 * time.Millisecond,
		},
	}
}

// New returns a KafkaSink, or a NopSink when no brokers are given.
func New(brokers []string, topic string) Sink {
	if len(brokers) == 0 {
		return NopSink{}
	}
	return NewKafkaSink(brokers, topic)
}

// Publish sends all records in a single synchronous write.
func (k *KafkaSink) Publish(ctx context.Context, records []core.MatchRecord) error {
	if len(records) == 0 {
		return nil
	}
	msgs, err := Messages(records)
	if err != nil {
		return err
	}
	if err := k.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("failed to publish %d trades: %w", len(msgs), err)
	}
	return nil
}

func (k *KafkaSink) Close() error {
	return k.writer.Close()
}

// Messages encodes records as kafka messages with key "<buy_order_id>:<sell_order_id>".
func Messages(records []core.MatchRecord) ([]kafka.Message, error) {
	msgs := make([]kafka.Message, 0, len(records))
	for _, r := range records {
		value, err := json.Marshal(r)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal trade: %w", err)
		}
		msgs = append(msgs, kafka.Message{
			Key:   []byte(r.BuyOrderID + ":" + r.SellOrderID),
			Value: value,
		})
	}
	return msgs, nil
}
