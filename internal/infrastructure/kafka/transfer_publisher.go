// Package kafka publica los eventos de traslados en un tópico de Kafka.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jhoicas/economato-api/internal/application/transfer"
	"github.com/jhoicas/economato-api/pkg/config"
	kafkago "github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
)

var _ transfer.Notifier = (*TransferPublisher)(nil)

// messageWriter subconjunto de *kafka.Writer usado por el publicador.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// TransferPublisher implementa transfer.Notifier escribiendo cada evento como JSON,
// con la solicitud como clave para mantener el orden por solicitud.
type TransferPublisher struct {
	writer  messageWriter
	timeout time.Duration
}

// NewTransferPublisher crea el writer contra los brokers configurados.
func NewTransferPublisher(cfg config.KafkaConfig) *TransferPublisher {
	w := &kafkago.Writer{
		Addr:                   kafkago.TCP(cfg.Brokers...),
		Topic:                  cfg.TransferTopic,
		Balancer:               &kafkago.Hash{},
		RequiredAcks:           kafkago.RequireOne,
		BatchTimeout:           10 * time.Millisecond,
		AllowAutoTopicCreation: true,
	}
	return newTransferPublisher(w)
}

func newTransferPublisher(w messageWriter) *TransferPublisher {
	return &TransferPublisher{writer: w, timeout: 5 * time.Second}
}

// Notify publica el evento. Propaga el contexto de traza en los headers.
func (p *TransferPublisher) Notify(ctx context.Context, event transfer.Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("serializar evento %s: %w", event.Type, err)
	}

	carrier := propagation.MapCarrier{}
	otel.GetTextMapPropagator().Inject(ctx, carrier)
	headers := []kafkago.Header{{Key: "event_type", Value: []byte(event.Type)}}
	for k, v := range carrier {
		headers = append(headers, kafkago.Header{Key: k, Value: []byte(v)})
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	msg := kafkago.Message{
		Key:     []byte(event.RequestID),
		Value:   payload,
		Headers: headers,
		Time:    event.OccurredAt,
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publicar evento %s: %w", event.Type, err)
	}
	return nil
}

// Close vacía y cierra el writer.
func (p *TransferPublisher) Close() error {
	return p.writer.Close()
}
