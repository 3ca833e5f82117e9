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
	"github.com/jhoicas/economato-api/pkg/telemetry"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// AllocationUseCase convierte "necesito Q unidades de P" en descuentos FIFO de lotes, decremento
// del ledger y registros de historial, todo en una sola transacción.
type AllocationUseCase struct {
	txRunner TxRunner
	log      *logger.Logger
	tracer   trace.Tracer
	now      func() time.Time
}

// NewAllocationUseCase construye el motor de asignación.
func NewAllocationUseCase(txRunner TxRunner, log *logger.Logger) *AllocationUseCase {
	if log == nil {
		log = logger.Nop()
	}
	return &AllocationUseCase{
		txRunner: txRunner,
		log:      log.Named("allocation"),
		tracer:   otel.Tracer(telemetry.InstrumentationName),
		now:      time.Now,
	}
}

// AllocateInput entrada para asignar stock central.
type AllocateInput struct {
	OrganizationID string
	UserID         string
	ProductID      string
	Quantity       decimal.Decimal
	ReferenceType  string // order, area_transfer, adjustment, waste
	ReferenceID    string
}

// LotDepletion cantidad tomada de un lote.
type LotDepletion struct {
	LotID    string
	Amount   decimal.Decimal
	UnitCost decimal.Decimal
}

// AllocationResult resultado de una asignación confirmada.
type AllocationResult struct {
	ProductID   string
	Requested   decimal.Decimal
	Allocated   decimal.Decimal // puede superar Requested en productos enteros (ceil)
	Depletions  []LotDepletion
	LedgerAfter entity.StockLedgerEntry
}

// TotalCost costo de lo asignado a costo de cada lote.
func (r *AllocationResult) TotalCost() decimal.Decimal {
	total := decimal.Zero
	for _, d := range r.Depletions {
		total = total.Add(d.Amount.Mul(d.UnitCost))
	}
	return total
}

// AverageUnitCost costo unitario ponderado de lo asignado.
func (r *AllocationResult) AverageUnitCost() decimal.Decimal {
	if !r.Allocated.IsPositive() {
		return decimal.Zero
	}
	return r.TotalCost().Div(r.Allocated).Round(4)
}

func (in AllocateInput) validate() error {
	if in.OrganizationID == "" {
		return &domain.ValidationError{Field: "organization_id", Message: "es requerido"}
	}
	if in.ProductID == "" {
		return &domain.ValidationError{Field: "product_id", Message: "es requerido"}
	}
	if !domain.NormalizeQuantity(in.Quantity).IsPositive() {
		return &domain.ValidationError{Field: "quantity", Message: "debe ser mayor que cero"}
	}
	if in.ReferenceType == "" || in.ReferenceID == "" {
		return &domain.ValidationError{Field: "reference", Message: "reference_type y reference_id son requeridos"}
	}
	return nil
}

// Allocate abre una transacción y ejecuta AllocateInTx. Cualquier error revierte
// lotes, ledger e historial.
func (uc *AllocationUseCase) Allocate(ctx context.Context, in AllocateInput) (*AllocationResult, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	var result *AllocationResult
	err := uc.txRunner.Run(ctx, func(repos repository.TxRepos) error {
		var err error
		result, err = uc.AllocateInTx(ctx, repos, in)
		return err
	})
	if err != nil {
		return nil, err
	}
	uc.log.Info().
		Str("product_id", in.ProductID).
		Str("reference_type", in.ReferenceType).
		Str("reference_id", in.ReferenceID).
		Str("allocated", result.Allocated.String()).
		Int("lots", len(result.Depletions)).
		Msg("stock asignado")
	return result, nil
}

// AllocateInTx ejecuta la asignación con los repositorios del caller (misma transacción).
// Si retorna error el caller debe hacer rollback.
//
//  1. pre-chequeo contra el ledger (sin mutar)
//  2. plan FIFO sobre los lotes activos bloqueados
//  3. faltante de lotes: InsufficientStockError si el ledger bloqueado ya no alcanza,
//     si no AllocationShortfallError
//  4. descuento de cada lote + registro outbound por lote
//  5. decremento del ledger y resincronización con los lotes
func (uc *AllocationUseCase) AllocateInTx(ctx context.Context, repos repository.TxRepos, in AllocateInput) (result *AllocationResult, err error) {
	ctx, span := uc.tracer.Start(ctx, "inventory.allocate", trace.WithAttributes(
		attribute.String("product.id", in.ProductID),
		attribute.String("reference.type", in.ReferenceType),
		attribute.String("reference.id", in.ReferenceID),
		attribute.String("quantity", in.Quantity.String()),
	))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	if err := in.validate(); err != nil {
		return nil, err
	}
	product, err := repos.Products.GetByID(ctx, in.ProductID)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, &domain.NotFoundError{Resource: "producto", ID: in.ProductID}
	}
	if product.OrganizationID != in.OrganizationID {
		return nil, domain.ErrForbidden
	}

	now := uc.now()
	qty := domain.NormalizeQuantity(in.Quantity)
	lotStore := NewLotStore(repos.Lots, uc.now)
	ledger := NewStockLedger(repos.Ledger, repos.Lots, uc.log, uc.now)

	ok, entry, err := ledger.CheckSufficient(ctx, in.ProductID, in.OrganizationID, qty)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, &domain.InsufficientStockError{ProductID: in.ProductID, Available: entry.TotalQuantity, Requested: qty}
	}

	lots, err := lotStore.SelectForDepletion(ctx, in.ProductID, in.OrganizationID)
	if err != nil {
		return nil, err
	}
	plan := inventory.PlanDepletion(lots, qty, product.IsFractional)
	if !plan.Covered() {
		// El pre-chequeo no bloquea: otra transacción pudo consumir los lotes mientras esperábamos
		// sus filas. Con el ledger ya bloqueado eso es stock insuficiente, no divergencia.
		current, err := ledger.Locked(ctx, in.ProductID, in.OrganizationID)
		if err != nil {
			return nil, err
		}
		if current.TotalQuantity.LessThan(domain.CeilQuantity(qty)) {
			return nil, &domain.InsufficientStockError{ProductID: in.ProductID, Available: current.TotalQuantity, Requested: qty}
		}
		return nil, &domain.AllocationShortfallError{ProductID: in.ProductID, Requested: plan.Target, Allocated: plan.Allocated}
	}

	result = &AllocationResult{ProductID: in.ProductID, Requested: qty, Allocated: plan.Allocated}
	for _, d := range plan.Depletions {
		lot, err := lotStore.Deplete(ctx, d.Lot.ID, d.Amount)
		if err != nil {
			return nil, err
		}
		lotID := lot.ID
		rec := &entity.MovementRecord{
			ID:             uuid.New().String(),
			OrganizationID: in.OrganizationID,
			ProductID:      in.ProductID,
			LotID:          &lotID,
			Type:           entity.MovementTypeOutbound,
			Quantity:       d.Amount,
			UnitCost:       lot.UnitCost,
			TotalCost:      d.Amount.Mul(lot.UnitCost),
			ReferenceType:  in.ReferenceType,
			ReferenceID:    in.ReferenceID,
			CreatedBy:      in.UserID,
			CreatedAt:      now,
		}
		if err := repos.Movements.Create(ctx, rec); err != nil {
			return nil, err
		}
		result.Depletions = append(result.Depletions, LotDepletion{LotID: lot.ID, Amount: d.Amount, UnitCost: lot.UnitCost})
	}

	if _, err := ledger.Decrement(ctx, in.ProductID, in.OrganizationID, qty); err != nil {
		return nil, err
	}
	after, err := ledger.Resync(ctx, in.ProductID, in.OrganizationID, product.IsFractional)
	if err != nil {
		return nil, err
	}
	result.LedgerAfter = *after

	span.SetAttributes(
		attribute.String("allocated", result.Allocated.String()),
		attribute.Int("lots.depleted", len(result.Depletions)),
	)
	return result, nil
}
