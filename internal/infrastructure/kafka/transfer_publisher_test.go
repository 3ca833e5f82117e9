package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/jhoicas/economato-api/internal/application/transfer"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	msgs   []kafkago.Message
	err    error
	closed bool
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafkago.Message) error {
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

func TestTransferPublisher_PublicaJSONConClave(t *testing.T) {
	w := &fakeWriter{}
	p := newTransferPublisher(w)
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	err := p.Notify(context.Background(), transfer.Event{
		Type:              transfer.EventApproved,
		RequestID:         "req-1",
		OrganizationID:    "org-1",
		DestinationAreaID: "area-bar",
		Status:            "approved",
		UserID:            "admin-1",
		OccurredAt:        at,
	})
	require.NoError(t, err)
	require.Len(t, w.msgs, 1)

	msg := w.msgs[0]
	assert.Equal(t, "req-1", string(msg.Key))
	assert.Equal(t, at, msg.Time)
	require.NotEmpty(t, msg.Headers)
	assert.Equal(t, "event_type", msg.Headers[0].Key)
	assert.Equal(t, transfer.EventApproved, string(msg.Headers[0].Value))

	var body map[string]any
	require.NoError(t, json.Unmarshal(msg.Value, &body))
	assert.Equal(t, "approved", body["status"])
	assert.Equal(t, "area-bar", body["destination_area_id"])
	assert.NotContains(t, body, "origin_area_id")
	assert.NotContains(t, body, "confirmation_code")

	require.NoError(t, p.Close())
	assert.True(t, w.closed)
}

func TestTransferPublisher_EnvuelveErrorDelWriter(t *testing.T) {
	boom := errors.New("broker no disponible")
	p := newTransferPublisher(&fakeWriter{err: boom})

	err := p.Notify(context.Background(), transfer.Event{Type: transfer.EventProcessed, RequestID: "req-2"})
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
}
