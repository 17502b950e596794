package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/shelf-inventory/internal/domain/entity"
)

type fakeWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

func TestKafkaPublisher_KeysByProduct(t *testing.T) {
	w := &fakeWriter{}
	p := newKafkaPublisher(w, zerolog.Nop())

	event := entity.MovementEvent{
		Type:      entity.EventEntryRecorded,
		EntryID:   "e-1",
		Direction: entity.DirectionOutbound,
		ProductID: "p-1",
		Quantity:  3,
		Date:      time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC),
		Balances:  map[string]int64{"p-1": 7},
	}
	require.NoError(t, p.Publish(context.Background(), event))
	require.Len(t, w.msgs, 1)
	assert.Equal(t, "p-1", string(w.msgs[0].Key))
	assert.Equal(t, entity.EventEntryRecorded, string(w.msgs[0].Headers[0].Value))

	var decoded entity.MovementEvent
	require.NoError(t, json.Unmarshal(w.msgs[0].Value, &decoded))
	assert.Equal(t, int64(7), decoded.Balances["p-1"])

	require.NoError(t, p.Close())
	assert.True(t, w.closed)
}

func TestKafkaPublisher_WrapsWriteErrors(t *testing.T) {
	boom := errors.New("broker down")
	p := newKafkaPublisher(&fakeWriter{err: boom}, zerolog.Nop())

	err := p.Publish(context.Background(), entity.MovementEvent{ProductID: "p-1"})
	assert.ErrorIs(t, err, boom)
}

func TestNoop(t *testing.T) {
	assert.NoError(t, Noop{}.Publish(context.Background(), entity.MovementEvent{}))
}
