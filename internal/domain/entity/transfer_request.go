package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados de una solicitud de traslado.
const (
	TransferStatusPending   = "pending"
	TransferStatusApproved  = "approved"
	TransferStatusRejected  = "rejected"
	TransferStatusProcessed = "processed"
	TransferStatusCancelled = "cancelled"
)

// TransferRequest solicitud de un área para recibir stock del inventario central (OriginAreaID nil)
// o de otra área. Solo el flujo de traslados escribe Status.
type TransferRequest struct {
	ID                string
	OrganizationID    string
	OriginAreaID      *string
	DestinationAreaID string
	Status            string
	ConfirmationCode  *string
	Observations      string
	RequestedBy       string
	DecidedBy         *string
	DecidedAt         *time.Time
	ProcessedBy       *string
	ProcessedAt       *time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
	Items             []TransferItem
}

// TransferItem producto y cantidades de una solicitud.
type TransferItem struct {
	ID                string
	TransferRequestID string
	ProductID         string
	QuantityRequested decimal.Decimal
	QuantitySent      decimal.Decimal
}

// FromCentral true si el origen es el stock central.
func (r *TransferRequest) FromCentral() bool {
	return r.OriginAreaID == nil
}

// TransferStatusChange registro de auditoría de cada transición de estado.
type TransferStatusChange struct {
	ID                string
	TransferRequestID string
	FromStatus        string
	ToStatus          string
	ConfirmationCode  *string
	Observations      string
	UserID            string
	CreatedAt         time.Time
}
