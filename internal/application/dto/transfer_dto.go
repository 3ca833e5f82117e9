package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransferItemRequest producto pedido.
type TransferItemRequest struct {
	ProductID string          `json:"product_id"`
	Quantity  decimal.Decimal `json:"quantity"`
}

// CreateTransferRequest body para POST /api/transfers. origin_area_id ausente = stock central.
type CreateTransferRequest struct {
	OriginAreaID      *string               `json:"origin_area_id,omitempty"`
	DestinationAreaID string                `json:"destination_area_id"`
	Items             []TransferItemRequest `json:"items"`
	Observations      string                `json:"observations"`
}

// DecideTransferRequest body para POST /api/transfers/:id/decision.
type DecideTransferRequest struct {
	Decision     string `json:"decision"` // approved | rejected | cancelled
	Observations string `json:"observations"`
}

// ConfirmTransferRequest body para POST /api/transfers/:id/confirm.
type ConfirmTransferRequest struct {
	Code string `json:"code"`
}

// TransferItemResponse ítem de la solicitud.
type TransferItemResponse struct {
	ProductID         string          `json:"product_id"`
	QuantityRequested decimal.Decimal `json:"quantity_requested"`
	QuantitySent      decimal.Decimal `json:"quantity_sent"`
}

// TransferResponse solicitud de traslado. confirmation_code solo viaja en la respuesta de aprobación.
type TransferResponse struct {
	ID                string                 `json:"id"`
	OriginAreaID      *string                `json:"origin_area_id,omitempty"`
	DestinationAreaID string                 `json:"destination_area_id"`
	Status            string                 `json:"status"`
	ConfirmationCode  string                 `json:"confirmation_code,omitempty"`
	Observations      string                 `json:"observations"`
	RequestedBy       string                 `json:"requested_by,omitempty"`
	DecidedBy         *string                `json:"decided_by,omitempty"`
	DecidedAt         *time.Time             `json:"decided_at,omitempty"`
	ProcessedBy       *string                `json:"processed_by,omitempty"`
	ProcessedAt       *time.Time             `json:"processed_at,omitempty"`
	CreatedAt         time.Time              `json:"created_at"`
	UpdatedAt         time.Time              `json:"updated_at"`
	Items             []TransferItemResponse `json:"items"`
}

// TransferListResponse lista paginada de solicitudes.
type TransferListResponse struct {
	Items []TransferResponse `json:"items"`
	Page  PageResponse       `json:"page"`
}

// TransferHistoryResponse transición registrada. Nunca expone el código.
type TransferHistoryResponse struct {
	FromStatus   string    `json:"from_status,omitempty"`
	ToStatus     string    `json:"to_status"`
	Observations string    `json:"observations,omitempty"`
	UserID       string    `json:"user_id,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}
