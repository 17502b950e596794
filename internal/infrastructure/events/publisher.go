// Package events publica los eventos de movimiento del libro después del commit.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"

	"github.com/jhoicas/shelf-inventory/internal/application/inventory"
	"github.com/jhoicas/shelf-inventory/internal/domain/entity"
	"github.com/jhoicas/shelf-inventory/pkg/config"
)

var (
	_ inventory.EventPublisher = (*KafkaPublisher)(nil)
	_ inventory.EventPublisher = Noop{}
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher escribe un mensaje JSON por movimiento con el id de producto como clave,
// así los eventos de un producto quedan ordenados dentro de una partición.
type KafkaPublisher struct {
	writer  messageWriter
	timeout time.Duration
	log     zerolog.Logger
}

// NewKafkaPublisher construye un publicador para cfg.Topic en cfg.Brokers.
func NewKafkaPublisher(cfg config.KafkaConfig, log zerolog.Logger) *KafkaPublisher {
	return newKafkaPublisher(&kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Topic:                  cfg.Topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
	}, log)
}

func newKafkaPublisher(w messageWriter, log zerolog.Logger) *KafkaPublisher {
	return &KafkaPublisher{
		writer:  w,
		timeout: 5 * time.Second,
		log:     log.With().Str("component", "kafka_publisher").Logger(),
	}
}

// Publish escribe el evento con un plazo acotado; un broker lento no bloquea la petición.
func (p *KafkaPublisher) Publish(ctx context.Context, event entity.MovementEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("codificando evento de movimiento: %w", err)
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.timeout)
	defer cancel()
	if err := p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.ProductID),
		Value: data,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.Type)},
		},
	}); err != nil {
		return fmt.Errorf("escribiendo evento de movimiento: %w", err)
	}
	p.log.Debug().Str("event", event.Type).Str("entry_id", event.EntryID).Msg("movement event published")
	return nil
}

// Close vacía las escrituras pendientes.
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// Noop descarta los eventos. Se usa cuando no hay brokers configurados.
type Noop struct{}

func (Noop) Publish(context.Context, entity.MovementEvent) error { return nil }
