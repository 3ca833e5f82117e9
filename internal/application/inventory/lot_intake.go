package inventory

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jhoicas/economato-api/internal/domain"
	"github.com/jhoicas/economato-api/internal/domain/entity"
	"github.com/jhoicas/economato-api/internal/domain/inventory"
	"github.com/jhoicas/economato-api/internal/domain/repository"
	"github.com/jhoicas/economato-api/pkg/logger"
	"github.com/shopspring/decimal"
)

// LotIntakeUseCase registra lotes de compra en el stock central.
type LotIntakeUseCase struct {
	txRunner TxRunner
	log      *logger.Logger
	now      func() time.Time
}

// NewLotIntakeUseCase construye el caso de uso.
func NewLotIntakeUseCase(txRunner TxRunner, log *logger.Logger) *LotIntakeUseCase {
	if log == nil {
		log = logger.Nop()
	}
	return &LotIntakeUseCase{txRunner: txRunner, log: log.Named("lot_intake"), now: time.Now}
}

// LotIntakeInput datos de un lote recibido. AcquiredAt cero = ahora.
type LotIntakeInput struct {
	OrganizationID string
	UserID         string
	ProductID      string
	Quantity       decimal.Decimal
	UnitCost       decimal.Decimal
	AcquiredAt     time.Time
	ExpiresAt      *time.Time
	ReferenceID    string // orden de compra o factura del proveedor
}

// Receive crea el lote, registra la entrada, actualiza el costo promedio del producto y
// resincroniza el ledger, en una transacción.
func (uc *LotIntakeUseCase) Receive(ctx context.Context, in LotIntakeInput) (*entity.Lot, error) {
	qty := domain.NormalizeQuantity(in.Quantity)
	if in.OrganizationID == "" || in.ProductID == "" {
		return nil, &domain.ValidationError{Field: "product_id", Message: "producto y organización son requeridos"}
	}
	if !qty.IsPositive() {
		return nil, &domain.ValidationError{Field: "quantity", Message: "debe ser mayor que cero"}
	}
	if in.UnitCost.IsNegative() {
		return nil, &domain.ValidationError{Field: "unit_cost", Message: "no puede ser negativo"}
	}
	now := uc.now()
	acquired := in.AcquiredAt
	if acquired.IsZero() {
		acquired = now
	}
	if in.ExpiresAt != nil && in.ExpiresAt.Before(acquired) {
		return nil, &domain.ValidationError{Field: "expires_at", Message: "anterior a la fecha de ingreso"}
	}

	lot := &entity.Lot{
		ID:                uuid.New().String(),
		ProductID:         in.ProductID,
		OrganizationID:    in.OrganizationID,
		InitialQuantity:   qty,
		QuantityRemaining: qty,
		UnitCost:          in.UnitCost,
		AcquiredAt:        acquired,
		ExpiresAt:         in.ExpiresAt,
		Active:            true,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	reference := in.ReferenceID
	if reference == "" {
		reference = lot.ID
	}

	err := uc.txRunner.Run(ctx, func(repos repository.TxRepos) error {
		product, err := repos.Products.GetByID(ctx, in.ProductID)
		if err != nil {
			return err
		}
		if product == nil {
			return &domain.NotFoundError{Resource: "producto", ID: in.ProductID}
		}
		if product.OrganizationID != in.OrganizationID {
			return domain.ErrForbidden
		}
		if !product.IsFractional && !qty.Equal(qty.Truncate(0)) {
			return &domain.ValidationError{Field: "quantity", Message: "el producto no admite cantidades fraccionarias"}
		}

		current, err := repos.Lots.SumActive(ctx, in.ProductID, in.OrganizationID)
		if err != nil {
			return err
		}
		newCost := inventory.WeightedAverageCost(current, product.Cost, qty, in.UnitCost)
		if err := repos.Products.UpdateCost(ctx, in.ProductID, newCost); err != nil {
			return err
		}
		if err := repos.Lots.Create(ctx, lot); err != nil {
			return err
		}
		lotID := lot.ID
		if err := repos.Movements.Create(ctx, &entity.MovementRecord{
			ID:             uuid.New().String(),
			OrganizationID: in.OrganizationID,
			ProductID:      in.ProductID,
			LotID:          &lotID,
			Type:           entity.MovementTypeInbound,
			Quantity:       qty,
			UnitCost:       in.UnitCost,
			TotalCost:      qty.Mul(in.UnitCost),
			ReferenceType:  entity.ReferencePurchase,
			ReferenceID:    reference,
			CreatedBy:      in.UserID,
			CreatedAt:      now,
		}); err != nil {
			return err
		}
		ledger := NewStockLedger(repos.Ledger, repos.Lots, uc.log, uc.now)
		if _, err := ledger.Increment(ctx, in.ProductID, in.OrganizationID, qty); err != nil {
			return err
		}
		_, err = ledger.Resync(ctx, in.ProductID, in.OrganizationID, product.IsFractional)
		return err
	})
	if err != nil {
		return nil, err
	}
	uc.log.Info().Str("lot_id", lot.ID).Str("product_id", lot.ProductID).Str("quantity", qty.String()).Msg("lote ingresado")
	return lot, nil
}
