package repository

import (
	"context"

	"github.com/jhoicas/economato-api/internal/domain/entity"
)

// TransferRequestRepository puerto de persistencia de solicitudes de traslado y sus ítems.
type TransferRequestRepository interface {
	// Create persiste la solicitud con sus ítems.
	Create(ctx context.Context, req *entity.TransferRequest) error
	GetByID(ctx context.Context, id string) (*entity.TransferRequest, error)
	// GetForUpdate bloquea la fila de la solicitud; es la frontera de concurrencia del flujo.
	GetForUpdate(ctx context.Context, id string) (*entity.TransferRequest, error)
	// Update persiste estado, código, observaciones, sellos de decisión/proceso y quantity_sent de ítems.
	Update(ctx context.Context, req *entity.TransferRequest) error
	ListByOrganization(ctx context.Context, organizationID, status string, limit, offset int) ([]*entity.TransferRequest, error)

	AppendStatusChange(ctx context.Context, change *entity.TransferStatusChange) error
	ListStatusChanges(ctx context.Context, requestID string) ([]*entity.TransferStatusChange, error)
	// RedactConfirmationCodes borra el código de los registros de auditoría una vez usado.
	RedactConfirmationCodes(ctx context.Context, requestID string) error
}
