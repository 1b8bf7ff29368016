package sink

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/uhyunpark/kwhmatch/pkg/app/core"
)

type fakeWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeWriter) Close() error {
	f.closed = true
	return nil
}

func records() []core.MatchRecord {
	run := "r1"
	ts := time.Date(2025, 2, 2, 0, 0, 0, 0, time.UTC)
	return []core.MatchRecord{
		{BuyOrderID: "b1", SellOrderID: "s1", Kwh: decimal.RequireFromString("1.5"), Price: decimal.RequireFromString("0.1"), Timestamp: ts, RunID: &run},
		{BuyOrderID: "b1", SellOrderID: "s2", Kwh: decimal.RequireFromString("0.5"), Price: decimal.RequireFromString("0.2"), Timestamp: ts, RunID: &run},
	}
}

func TestMessages(t *testing.T) {
	msgs, err := Messages(records())
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "b1:s1", string(msgs[0].Key))
	assert.Equal(t, "b1:s2", string(msgs[1].Key))

	var back core.MatchRecord
	require.NoError(t, json.Unmarshal(msgs[0].Value, &back))
	assert.Equal(t, "s1", back.SellOrderID)
	assert.True(t, back.Kwh.Equal(decimal.RequireFromString("1.5")))
	require.NotNil(t, back.RunID)
	assert.Equal(t, "r1", *back.RunID)
}

func TestKafkaSinkPublish(t *testing.T) {
	w := &fakeWriter{}
	s := &KafkaSink{writer: w}

	require.NoError(t, s.Publish(context.Background(), nil))
	assert.Empty(t, w.msgs)

	require.NoError(t, s.Publish(context.Background(), records()))
	assert.Len(t, w.msgs, 2)

	require.NoError(t, s.Close())
	assert.True(t, w.closed)
}

func TestKafkaSinkPublishError(t *testing.T) {
	boom := errors.New("broker down")
	s := &KafkaSink{writer: &fakeWriter{err: boom}}
	err := s.Publish(context.Background(), records())
	assert.ErrorIs(t, err, boom)
}

func TestNew(t *testing.T) {
	assert.IsType(t, NopSink{}, New(nil, "kwh-trades"))
	assert.IsType(t, &KafkaSink{}, New([]string{"localhost:9092"}, "kwh-trades"))
	assert.NoError(t, NopSink{}.Publish(context.Background(), records()))
}
