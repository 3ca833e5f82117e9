package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jhoicas/economato-api/internal/domain/entity"
	"github.com/jhoicas/economato-api/internal/domain/repository"
)

var _ repository.TransferRequestRepository = (*TransferRequestRepo)(nil)

// TransferRequestRepo solicitudes de traslado, ítems e historial sobre PostgreSQL (pool o tx).
type TransferRequestRepo struct {
	q Querier
}

// NewTransferRequestRepository construye el adaptador.
func NewTransferRequestRepository(q Querier) *TransferRequestRepo {
	return &TransferRequestRepo{q: q}
}

const transferColumns = `id, organization_id, origin_area_id, destination_area_id, status, confirmation_code,
	observations, requested_by, decided_by, decided_at, processed_by, processed_at, created_at, updated_at`

func scanTransfer(row pgx.Row) (*entity.TransferRequest, error) {
	var t entity.TransferRequest
	var requestedBy *string
	err := row.Scan(&t.ID, &t.OrganizationID, &t.OriginAreaID, &t.DestinationAreaID, &t.Status, &t.ConfirmationCode,
		&t.Observations, &requestedBy, &t.DecidedBy, &t.DecidedAt, &t.ProcessedBy, &t.ProcessedAt, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	t.RequestedBy = deref(requestedBy)
	return &t, nil
}

// Create inserta la solicitud y sus ítems.
func (r *TransferRequestRepo) Create(ctx context.Context, req *entity.TransferRequest) error {
	query := `
		INSERT INTO transfer_requests (` + transferColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`
	_, err := r.q.Exec(ctx, query,
		req.ID, req.OrganizationID, req.OriginAreaID, req.DestinationAreaID, req.Status, req.ConfirmationCode,
		req.Observations, nullable(req.RequestedBy), req.DecidedBy, req.DecidedAt, req.ProcessedBy, req.ProcessedAt,
		req.CreatedAt, req.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert transfer request: %w", err)
	}
	for _, it := range req.Items {
		_, err := r.q.Exec(ctx, `
			INSERT INTO transfer_request_items (id, transfer_request_id, product_id, quantity_requested, quantity_sent)
			VALUES ($1, $2, $3, $4, $5)`,
			it.ID, req.ID, it.ProductID, it.QuantityRequested, it.QuantitySent,
		)
		if err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("producto %s repetido en la solicitud: %w", it.ProductID, err)
			}
			return fmt.Errorf("insert transfer request item: %w", err)
		}
	}
	return nil
}

func (r *TransferRequestRepo) GetByID(ctx context.Context, id string) (*entity.TransferRequest, error) {
	return r.get(ctx, `SELECT `+transferColumns+` FROM transfer_requests WHERE id = $1`, id)
}

// GetForUpdate bloquea la fila de la solicitud hasta el fin de la transacción.
func (r *TransferRequestRepo) GetForUpdate(ctx context.Context, id string) (*entity.TransferRequest, error) {
	return r.get(ctx, `SELECT `+transferColumns+` FROM transfer_requests WHERE id = $1 FOR UPDATE`, id)
}

func (r *TransferRequestRepo) get(ctx context.Context, query, id string) (*entity.TransferRequest, error) {
	t, err := scanTransfer(r.q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get transfer request: %w", err)
	}
	if t.Items, err = r.items(ctx, t.ID); err != nil {
		return nil, err
	}
	return t, nil
}

func (r *TransferRequestRepo) items(ctx context.Context, requestID string) ([]entity.TransferItem, error) {
	rows, err := r.q.Query(ctx, `
		SELECT id, transfer_request_id, product_id, quantity_requested, quantity_sent
		FROM transfer_request_items WHERE transfer_request_id = $1
		ORDER BY seq`, requestID)
	if err != nil {
		return nil, fmt.Errorf("list transfer request items: %w", err)
	}
	defer rows.Close()
	var items []entity.TransferItem
	for rows.Next() {
		var it entity.TransferItem
		if err := rows.Scan(&it.ID, &it.TransferRequestID, &it.ProductID, &it.QuantityRequested, &it.QuantitySent); err != nil {
			return nil, fmt.Errorf("scan transfer request item: %w", err)
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// Update persiste estado, código, sellos y cantidades enviadas.
func (r *TransferRequestRepo) Update(ctx context.Context, req *entity.TransferRequest) error {
	query := `
		UPDATE transfer_requests
		SET status = $2, confirmation_code = $3, observations = $4, decided_by = $5, decided_at = $6,
			processed_by = $7, processed_at = $8, updated_at = $9
		WHERE id = $1`
	tag, err := r.q.Exec(ctx, query,
		req.ID, req.Status, req.ConfirmationCode, req.Observations, req.DecidedBy, req.DecidedAt,
		req.ProcessedBy, req.ProcessedAt, req.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update transfer request: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update transfer request %s: %w", req.ID, pgx.ErrNoRows)
	}
	for _, it := range req.Items {
		if _, err := r.q.Exec(ctx,
			`UPDATE transfer_request_items SET quantity_sent = $2 WHERE id = $1`, it.ID, it.QuantitySent,
		); err != nil {
			return fmt.Errorf("update transfer request item: %w", err)
		}
	}
	return nil
}

// ListByOrganization más recientes primero; status vacío no filtra.
func (r *TransferRequestRepo) ListByOrganization(ctx context.Context, organizationID, status string, limit, offset int) ([]*entity.TransferRequest, error) {
	query := `
		SELECT ` + transferColumns + `
		FROM transfer_requests
		WHERE organization_id = $1 AND ($2 = '' OR status = $2)
		ORDER BY created_at DESC, id LIMIT $3 OFFSET $4`
	rows, err := r.q.Query(ctx, query, organizationID, status, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list transfer requests: %w", err)
	}
	var list []*entity.TransferRequest
	for rows.Next() {
		t, err := scanTransfer(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan transfer request: %w", err)
		}
		list = append(list, t)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	// los ítems se leen después de cerrar el cursor: la conexión de una tx no admite dos a la vez
	for _, t := range list {
		if t.Items, err = r.items(ctx, t.ID); err != nil {
			return nil, err
		}
	}
	return list, nil
}

func (r *TransferRequestRepo) AppendStatusChange(ctx context.Context, c *entity.TransferStatusChange) error {
	query := `
		INSERT INTO transfer_request_history
			(id, transfer_request_id, from_status, to_status, confirmation_code, observations, user_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := r.q.Exec(ctx, query,
		c.ID, c.TransferRequestID, nullable(c.FromStatus), c.ToStatus, c.ConfirmationCode,
		c.Observations, nullable(c.UserID), c.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert transfer request history: %w", err)
	}
	return nil
}

func (r *TransferRequestRepo) ListStatusChanges(ctx context.Context, requestID string) ([]*entity.TransferStatusChange, error) {
	rows, err := r.q.Query(ctx, `
		SELECT id, transfer_request_id, from_status, to_status, confirmation_code, observations, user_id, created_at
		FROM transfer_request_history WHERE transfer_request_id = $1
		ORDER BY seq`, requestID)
	if err != nil {
		return nil, fmt.Errorf("list transfer request history: %w", err)
	}
	defer rows.Close()
	var list []*entity.TransferStatusChange
	for rows.Next() {
		var c entity.TransferStatusChange
		var from, user *string
		if err := rows.Scan(&c.ID, &c.TransferRequestID, &from, &c.ToStatus, &c.ConfirmationCode,
			&c.Observations, &user, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan transfer request history: %w", err)
		}
		c.FromStatus = deref(from)
		c.UserID = deref(user)
		list = append(list, &c)
	}
	return list, rows.Err()
}

func (r *TransferRequestRepo) RedactConfirmationCodes(ctx context.Context, requestID string) error {
	_, err := r.q.Exec(ctx,
		`UPDATE transfer_request_history SET confirmation_code = NULL WHERE transfer_request_id = $1`, requestID)
	if err != nil {
		return fmt.Errorf("redact confirmation codes: %w", err)
	}
	return nil
}
