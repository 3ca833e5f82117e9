package transfer

import (
	"context"
	"time"
)

// Tipos de evento publicados tras el commit.
const (
	EventCreated   = "transfer.created"
	EventApproved  = "transfer.approved"
	EventRejected  = "transfer.rejected"
	EventCancelled = "transfer.cancelled"
	EventProcessed = "transfer.processed"
)

// Event notificación de una transición. Nunca incluye el código de confirmación.
type Event struct {
	Type              string    `json:"type"`
	RequestID         string    `json:"request_id"`
	OrganizationID    string    `json:"organization_id"`
	OriginAreaID      *string   `json:"origin_area_id,omitempty"`
	DestinationAreaID string    `json:"destination_area_id"`
	Status            string    `json:"status"`
	UserID            string    `json:"user_id"`
	OccurredAt        time.Time `json:"occurred_at"`
}

// Notifier avisa a las áreas sobre cambios en sus solicitudes. Se invoca fuera de la transacción;
// un error se registra y no afecta la operación ya confirmada.
type Notifier interface {
	Notify(ctx context.Context, event Event) error
}

type nopNotifier struct{}

func (nopNotifier) Notify(context.Context, Event) error { return nil }
