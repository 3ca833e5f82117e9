package inventory

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/jhoicas/economato-api/internal/domain"
	"github.com/jhoicas/economato-api/internal/domain/entity"
	"github.com/jhoicas/economato-api/internal/domain/repository"
	"github.com/jhoicas/economato-api/pkg/logger"
	"github.com/shopspring/decimal"
)

// AreaInventoryUseCase consumo, merma, reposición y consultas del inventario de áreas.
type AreaInventoryUseCase struct {
	txRunner TxRunner
	areas    repository.AreaRepository
	levels   repository.AreaInventoryRepository
	log      *logger.Logger
	now      func() time.Time
}

// NewAreaInventoryUseCase construye el caso de uso. areas y levels son lecturas fuera de transacción.
func NewAreaInventoryUseCase(
	txRunner TxRunner,
	areas repository.AreaRepository,
	levels repository.AreaInventoryRepository,
	log *logger.Logger,
) *AreaInventoryUseCase {
	if log == nil {
		log = logger.Nop()
	}
	return &AreaInventoryUseCase{
		txRunner: txRunner,
		areas:    areas,
		levels:   levels,
		log:      log.Named("area_inventory"),
		now:      time.Now,
	}
}

// AreaMovementInput consumo/merma (salida) o abastecimiento directo (entrada) de un área.
type AreaMovementInput struct {
	OrganizationID string
	UserID         string
	AreaID         string
	ProductID      string
	Quantity       decimal.Decimal
	ReferenceType  string // consumption | waste para salidas; adjustment para entradas
	ReferenceID    string
}

// ReplenishmentSuggestion producto de un área por debajo de su mínimo.
type ReplenishmentSuggestion struct {
	AreaID       string
	ProductID    string
	Current      decimal.Decimal
	MinQuantity  decimal.Decimal
	MaxQuantity  *decimal.Decimal
	SuggestedQty decimal.Decimal // Max - Current, o 2*Min - Current sin máximo
	Priority     int             // 1 = más urgente
}

func (uc *AreaInventoryUseCase) area(ctx context.Context, organizationID, areaID string) (*entity.Area, error) {
	area, err := uc.areas.GetByID(ctx, areaID)
	if err != nil {
		return nil, err
	}
	if area == nil || area.OrganizationID != organizationID {
		return nil, &domain.NotFoundError{Resource: "área", ID: areaID}
	}
	return area, nil
}

// Consume descuenta del área por consumo o merma y deja registro outbound.
func (uc *AreaInventoryUseCase) Consume(ctx context.Context, in AreaMovementInput) (*entity.AreaInventoryEntry, error) {
	switch in.ReferenceType {
	case entity.ReferenceConsumption, entity.ReferenceWaste:
	default:
		return nil, &domain.ValidationError{Field: "reason", Message: "debe ser consumption o waste"}
	}
	return uc.move(ctx, in, entity.MovementTypeOutbound)
}

// Restock abastece el área directamente (ajuste de inventario físico).
func (uc *AreaInventoryUseCase) Restock(ctx context.Context, in AreaMovementInput) (*entity.AreaInventoryEntry, error) {
	in.ReferenceType = entity.ReferenceAdjustment
	return uc.move(ctx, in, entity.MovementTypeInbound)
}

func (uc *AreaInventoryUseCase) move(ctx context.Context, in AreaMovementInput, movementType string) (*entity.AreaInventoryEntry, error) {
	qty := domain.NormalizeQuantity(in.Quantity)
	if !qty.IsPositive() {
		return nil, &domain.ValidationError{Field: "quantity", Message: "debe ser mayor que cero"}
	}
	if in.ProductID == "" {
		return nil, &domain.ValidationError{Field: "product_id", Message: "es requerido"}
	}
	if _, err := uc.area(ctx, in.OrganizationID, in.AreaID); err != nil {
		return nil, err
	}
	now := uc.now()
	reference := in.ReferenceID
	if reference == "" {
		reference = uuid.New().String()
	}

	var entry *entity.AreaInventoryEntry
	err := uc.txRunner.Run(ctx, func(repos repository.TxRepos) error {
		product, err := repos.Products.GetByID(ctx, in.ProductID)
		if err != nil {
			return err
		}
		if product == nil || product.OrganizationID != in.OrganizationID {
			return &domain.NotFoundError{Resource: "producto", ID: in.ProductID}
		}
		inv := NewAreaInventory(repos.Areas, uc.now)
		if movementType == entity.MovementTypeOutbound {
			entry, err = inv.Debit(ctx, in.AreaID, in.ProductID, in.OrganizationID, qty)
		} else {
			entry, err = inv.Credit(ctx, in.AreaID, in.ProductID, in.OrganizationID, qty)
		}
		if err != nil {
			return err
		}
		areaID := in.AreaID
		return repos.Movements.Create(ctx, &entity.MovementRecord{
			ID:             uuid.New().String(),
			OrganizationID: in.OrganizationID,
			ProductID:      in.ProductID,
			AreaID:         &areaID,
			Type:           movementType,
			Quantity:       qty,
			UnitCost:       product.Cost,
			TotalCost:      qty.Mul(product.Cost),
			ReferenceType:  in.ReferenceType,
			ReferenceID:    reference,
			CreatedBy:      in.UserID,
			CreatedAt:      now,
		})
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// List stock de un área con paginación.
func (uc *AreaInventoryUseCase) List(ctx context.Context, organizationID, areaID string, limit, offset int) ([]*entity.AreaInventoryEntry, error) {
	if _, err := uc.area(ctx, organizationID, areaID); err != nil {
		return nil, err
	}
	return uc.levels.ListByArea(ctx, organizationID, areaID, limit, offset)
}

// ReplenishmentList productos del área por debajo de su mínimo con la cantidad sugerida
// para volver al máximo, ordenados por mayor déficit relativo.
func (uc *AreaInventoryUseCase) ReplenishmentList(ctx context.Context, organizationID, areaID string) ([]ReplenishmentSuggestion, error) {
	if _, err := uc.area(ctx, organizationID, areaID); err != nil {
		return nil, err
	}
	rows, err := uc.levels.ListBelowMinimum(ctx, organizationID, areaID)
	if err != nil {
		return nil, err
	}
	two := decimal.NewFromInt(2)
	out := make([]ReplenishmentSuggestion, 0, len(rows))
	for _, r := range rows {
		if !r.BelowMinimum() {
			continue
		}
		target := r.MinQuantity.Mul(two)
		if r.MaxQuantity != nil {
			target = *r.MaxQuantity
		}
		suggested := target.Sub(r.Quantity)
		if suggested.IsNegative() {
			suggested = decimal.Zero
		}
		out = append(out, ReplenishmentSuggestion{
			AreaID:       r.AreaID,
			ProductID:    r.ProductID,
			Current:      r.Quantity,
			MinQuantity:  *r.MinQuantity,
			MaxQuantity:  r.MaxQuantity,
			SuggestedQty: suggested,
		})
	}

	// Mayor déficit relativo primero (fracción del mínimo que falta), luego déficit absoluto.
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		ra := relativeDeficit(a)
		rb := relativeDeficit(b)
		if !ra.Equal(rb) {
			return ra.GreaterThan(rb)
		}
		return a.MinQuantity.Sub(a.Current).GreaterThan(b.MinQuantity.Sub(b.Current))
	})
	for i := range out {
		out[i].Priority = i + 1
	}
	return out, nil
}

func relativeDeficit(s ReplenishmentSuggestion) decimal.Decimal {
	if !s.MinQuantity.IsPositive() {
		return decimal.Zero
	}
	return s.MinQuantity.Sub(s.Current).Div(s.MinQuantity)
}
