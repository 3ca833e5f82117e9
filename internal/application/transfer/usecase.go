package transfer

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/jhoicas/economato-api/internal/application/inventory"
	"github.com/jhoicas/economato-api/internal/domain"
	"github.com/jhoicas/economato-api/internal/domain/entity"
	"github.com/jhoicas/economato-api/internal/domain/repository"
	"github.com/jhoicas/economato-api/pkg/logger"
	"github.com/jhoicas/economato-api/pkg/telemetry"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Decisiones válidas sobre una solicitud pendiente.
const (
	DecisionApproved  = entity.TransferStatusApproved
	DecisionRejected  = entity.TransferStatusRejected
	DecisionCancelled = entity.TransferStatusCancelled
)

// WorkflowUseCase máquina de estados de las solicitudes de traslado:
//
//	pending --aprobar--> approved --confirmar(código)--> processed
//	pending --rechazar/cancelar--> rejected | cancelled
//
// La fila de la solicitud (SELECT FOR UPDATE) es la frontera de concurrencia.
type WorkflowUseCase struct {
	txRunner  inventory.TxRunner
	allocator *inventory.AllocationUseCase
	transfers repository.TransferRequestRepository
	areas     repository.AreaRepository
	notifier  Notifier
	codes     CodeGenerator
	log       *logger.Logger
	tracer    trace.Tracer
	now       func() time.Time
}

// Option configura el caso de uso.
type Option func(*WorkflowUseCase)

// WithNotifier publica eventos tras cada commit.
func WithNotifier(n Notifier) Option {
	return func(uc *WorkflowUseCase) {
		if n != nil {
			uc.notifier = n
		}
	}
}

// WithCodeGenerator reemplaza el generador de códigos (tests).
func WithCodeGenerator(g CodeGenerator) Option {
	return func(uc *WorkflowUseCase) {
		if g != nil {
			uc.codes = g
		}
	}
}

// WithClock reemplaza time.Now.
func WithClock(now func() time.Time) Option {
	return func(uc *WorkflowUseCase) {
		if now != nil {
			uc.now = now
		}
	}
}

// NewWorkflowUseCase construye el flujo. transfers y areas se usan para lecturas fuera de transacción.
func NewWorkflowUseCase(
	txRunner inventory.TxRunner,
	allocator *inventory.AllocationUseCase,
	transfers repository.TransferRequestRepository,
	areas repository.AreaRepository,
	log *logger.Logger,
	opts ...Option,
) *WorkflowUseCase {
	if log == nil {
		log = logger.Nop()
	}
	uc := &WorkflowUseCase{
		txRunner:  txRunner,
		allocator: allocator,
		transfers: transfers,
		areas:     areas,
		notifier:  nopNotifier{},
		codes:     RandomCodeGenerator{},
		log:       log.Named("transfer"),
		tracer:    otel.Tracer(telemetry.InstrumentationName),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(uc)
	}
	return uc
}

// ItemInput producto y cantidad pedida.
type ItemInput struct {
	ProductID string
	Quantity  decimal.Decimal
}

// CreateInput nueva solicitud. OriginAreaID nil = stock central.
type CreateInput struct {
	OrganizationID    string
	UserID            string
	OriginAreaID      *string
	DestinationAreaID string
	Items             []ItemInput
	Observations      string
}

// DecideInput aprobación, rechazo o cancelación.
type DecideInput struct {
	OrganizationID string
	UserID         string
	RequestID      string
	Decision       string
	Observations   string
}

// ConfirmInput recepción física con el código entregado al aprobar.
type ConfirmInput struct {
	OrganizationID string
	UserID         string
	RequestID      string
	Code           string
}

func (in CreateInput) validate() error {
	if in.OrganizationID == "" {
		return &domain.ValidationError{Field: "organization_id", Message: "es requerido"}
	}
	if in.DestinationAreaID == "" {
		return &domain.ValidationError{Field: "destination_area_id", Message: "es requerido"}
	}
	if in.OriginAreaID != nil && *in.OriginAreaID == in.DestinationAreaID {
		return &domain.ValidationError{Field: "origin_area_id", Message: "el área de origen y destino no pueden ser la misma"}
	}
	if len(in.Items) == 0 {
		return &domain.ValidationError{Field: "items", Message: "debe incluir al menos un producto"}
	}
	seen := make(map[string]struct{}, len(in.Items))
	for _, it := range in.Items {
		if it.ProductID == "" {
			return &domain.ValidationError{Field: "items.product_id", Message: "es requerido"}
		}
		if !domain.NormalizeQuantity(it.Quantity).IsPositive() {
			return &domain.ValidationError{Field: "items.quantity", Message: "debe ser mayor que cero"}
		}
		if _, dup := seen[it.ProductID]; dup {
			return &domain.ValidationError{Field: "items.product_id", Message: "producto repetido: " + it.ProductID}
		}
		seen[it.ProductID] = struct{}{}
	}
	return nil
}

func (uc *WorkflowUseCase) checkArea(ctx context.Context, organizationID, areaID string) error {
	area, err := uc.areas.GetByID(ctx, areaID)
	if err != nil {
		return err
	}
	if area == nil || area.OrganizationID != organizationID {
		return &domain.NotFoundError{Resource: "área", ID: areaID}
	}
	return nil
}

// Create registra la solicitud en estado pending.
func (uc *WorkflowUseCase) Create(ctx context.Context, in CreateInput) (*entity.TransferRequest, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	if err := uc.checkArea(ctx, in.OrganizationID, in.DestinationAreaID); err != nil {
		return nil, err
	}
	if in.OriginAreaID != nil {
		if err := uc.checkArea(ctx, in.OrganizationID, *in.OriginAreaID); err != nil {
			return nil, err
		}
	}

	now := uc.now()
	req := &entity.TransferRequest{
		ID:                uuid.New().String(),
		OrganizationID:    in.OrganizationID,
		OriginAreaID:      in.OriginAreaID,
		DestinationAreaID: in.DestinationAreaID,
		Status:            entity.TransferStatusPending,
		Observations:      in.Observations,
		RequestedBy:       in.UserID,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	for _, it := range in.Items {
		req.Items = append(req.Items, entity.TransferItem{
			ID:                uuid.New().String(),
			TransferRequestID: req.ID,
			ProductID:         it.ProductID,
			QuantityRequested: domain.NormalizeQuantity(it.Quantity),
			QuantitySent:      decimal.Zero,
		})
	}

	err := uc.txRunner.Run(ctx, func(repos repository.TxRepos) error {
		for _, it := range req.Items {
			p, err := repos.Products.GetByID(ctx, it.ProductID)
			if err != nil {
				return err
			}
			if p == nil || p.OrganizationID != in.OrganizationID {
				return &domain.NotFoundError{Resource: "producto", ID: it.ProductID}
			}
		}
		if err := repos.Transfers.Create(ctx, req); err != nil {
			return err
		}
		return repos.Transfers.AppendStatusChange(ctx, &entity.TransferStatusChange{
			ID:                uuid.New().String(),
			TransferRequestID: req.ID,
			ToStatus:          entity.TransferStatusPending,
			Observations:      in.Observations,
			UserID:            in.UserID,
			CreatedAt:         now,
		})
	})
	if err != nil {
		return nil, err
	}
	uc.log.Info().Str("request_id", req.ID).Str("destination_area_id", req.DestinationAreaID).Int("items", len(req.Items)).Msg("solicitud de traslado creada")
	uc.notify(ctx, EventCreated, req, in.UserID)
	return req, nil
}

// Decide aprueba, rechaza o cancela una solicitud pendiente. Aprobar verifica disponibilidad de
// cada ítem (sin reservar) y genera el código de confirmación; si algún ítem no alcanza no hay
// cambio de estado.
func (uc *WorkflowUseCase) Decide(ctx context.Context, in DecideInput) (req *entity.TransferRequest, err error) {
	ctx, span := uc.tracer.Start(ctx, "transfer.decide", trace.WithAttributes(
		attribute.String("transfer.id", in.RequestID),
		attribute.String("transfer.decision", in.Decision),
	))
	defer endSpan(span, &err)

	switch in.Decision {
	case DecisionApproved, DecisionRejected, DecisionCancelled:
	default:
		return nil, &domain.ValidationError{Field: "decision", Message: "debe ser approved, rejected o cancelled"}
	}

	err = uc.txRunner.Run(ctx, func(repos repository.TxRepos) error {
		current, err := uc.lockRequest(ctx, repos, in.OrganizationID, in.RequestID, entity.TransferStatusPending)
		if err != nil {
			return err
		}
		now := uc.now()
		var code *string
		if in.Decision == DecisionApproved {
			if err := uc.checkAvailability(ctx, repos, current); err != nil {
				return err
			}
			c, err := uc.codes.Generate()
			if err != nil {
				return err
			}
			code = &c
		}

		from := current.Status
		current.Status = in.Decision
		current.ConfirmationCode = code
		if in.Observations != "" {
			current.Observations = in.Observations
		}
		decidedBy := in.UserID
		current.DecidedBy = &decidedBy
		current.DecidedAt = &now
		current.UpdatedAt = now
		if err := repos.Transfers.Update(ctx, current); err != nil {
			return err
		}
		if err := repos.Transfers.AppendStatusChange(ctx, &entity.TransferStatusChange{
			ID:                uuid.New().String(),
			TransferRequestID: current.ID,
			FromStatus:        from,
			ToStatus:          current.Status,
			ConfirmationCode:  code,
			Observations:      in.Observations,
			UserID:            in.UserID,
			CreatedAt:         now,
		}); err != nil {
			return err
		}
		req = current
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.log.Info().Str("request_id", req.ID).Str("status", req.Status).Str("user_id", in.UserID).Msg("solicitud de traslado decidida")
	event := EventRejected
	switch req.Status {
	case entity.TransferStatusApproved:
		event = EventApproved
	case entity.TransferStatusCancelled:
		event = EventCancelled
	}
	uc.notify(ctx, event, req, in.UserID)
	return req, nil
}

// Confirm valida el código y mueve el stock: asigna lotes del central (o debita el área de origen),
// acredita el destino y marca la solicitud processed. Todo o nada: si un ítem falla la solicitud
// sigue approved y puede reintentarse.
func (uc *WorkflowUseCase) Confirm(ctx context.Context, in ConfirmInput) (req *entity.TransferRequest, err error) {
	ctx, span := uc.tracer.Start(ctx, "transfer.confirm", trace.WithAttributes(
		attribute.String("transfer.id", in.RequestID),
	))
	defer endSpan(span, &err)

	err = uc.txRunner.Run(ctx, func(repos repository.TxRepos) error {
		current, err := uc.lockRequest(ctx, repos, in.OrganizationID, in.RequestID, entity.TransferStatusApproved)
		if err != nil {
			return err
		}
		if !codesMatch(current.ConfirmationCode, in.Code) {
			return &domain.InvalidCodeError{RequestID: current.ID}
		}

		now := uc.now()
		for _, i := range lockOrder(current.Items) {
			item := &current.Items[i]
			sent, err := uc.moveItem(ctx, repos, current, item, in.UserID, now)
			if err != nil {
				return err
			}
			item.QuantitySent = sent
		}

		processedBy := in.UserID
		current.Status = entity.TransferStatusProcessed
		current.ConfirmationCode = nil
		current.ProcessedBy = &processedBy
		current.ProcessedAt = &now
		current.UpdatedAt = now
		if err := repos.Transfers.Update(ctx, current); err != nil {
			return err
		}
		if err := repos.Transfers.AppendStatusChange(ctx, &entity.TransferStatusChange{
			ID:                uuid.New().String(),
			TransferRequestID: current.ID,
			FromStatus:        entity.TransferStatusApproved,
			ToStatus:          entity.TransferStatusProcessed,
			UserID:            in.UserID,
			CreatedAt:         now,
		}); err != nil {
			return err
		}
		if err := repos.Transfers.RedactConfirmationCodes(ctx, current.ID); err != nil {
			return err
		}
		req = current
		return nil
	})
	if err != nil {
		if domain.IsRetryable(err) {
			uc.log.WithContext(ctx).Warn().Err(err).Str("request_id", in.RequestID).Msg("confirmación de traslado revertida")
		}
		return nil, err
	}

	uc.log.Info().Str("request_id", req.ID).Str("user_id", in.UserID).Msg("traslado procesado")
	span.SetAttributes(attribute.Int("transfer.items", len(req.Items)))
	uc.notify(ctx, EventProcessed, req, in.UserID)
	return req, nil
}

// moveItem retira el ítem del origen y lo acredita en el destino. Devuelve la cantidad enviada.
func (uc *WorkflowUseCase) moveItem(
	ctx context.Context,
	repos repository.TxRepos,
	req *entity.TransferRequest,
	item *entity.TransferItem,
	userID string,
	now time.Time,
) (decimal.Decimal, error) {
	product, err := loadProduct(ctx, repos, item.ProductID)
	if err != nil {
		return decimal.Zero, err
	}

	sent := item.QuantityRequested
	unitCost := product.Cost
	if req.FromCentral() {
		res, err := uc.allocator.AllocateInTx(ctx, repos, inventory.AllocateInput{
			OrganizationID: req.OrganizationID,
			UserID:         userID,
			ProductID:      item.ProductID,
			Quantity:       item.QuantityRequested,
			ReferenceType:  entity.ReferenceAreaTransfer,
			ReferenceID:    req.ID,
		})
		if err != nil {
			return decimal.Zero, err
		}
		sent = res.Allocated
		unitCost = res.AverageUnitCost()
	} else {
		sent = areaAmount(product, item.QuantityRequested)
		origin := *req.OriginAreaID
		if _, err := inventory.NewAreaInventory(repos.Areas, uc.now).Debit(ctx, origin, item.ProductID, req.OrganizationID, sent); err != nil {
			return decimal.Zero, err
		}
		if err := repos.Movements.Create(ctx, &entity.MovementRecord{
			ID:             uuid.New().String(),
			OrganizationID: req.OrganizationID,
			ProductID:      item.ProductID,
			AreaID:         &origin,
			Type:           entity.MovementTypeOutbound,
			Quantity:       sent,
			UnitCost:       unitCost,
			TotalCost:      sent.Mul(unitCost),
			ReferenceType:  entity.ReferenceAreaTransfer,
			ReferenceID:    req.ID,
			CreatedBy:      userID,
			CreatedAt:      now,
		}); err != nil {
			return decimal.Zero, err
		}
	}

	dest := req.DestinationAreaID
	if _, err := inventory.NewAreaInventory(repos.Areas, uc.now).Credit(ctx, dest, item.ProductID, req.OrganizationID, sent); err != nil {
		return decimal.Zero, err
	}
	if err := repos.Movements.Create(ctx, &entity.MovementRecord{
		ID:             uuid.New().String(),
		OrganizationID: req.OrganizationID,
		ProductID:      item.ProductID,
		AreaID:         &dest,
		Type:           entity.MovementTypeInbound,
		Quantity:       sent,
		UnitCost:       unitCost,
		TotalCost:      sent.Mul(unitCost),
		ReferenceType:  entity.ReferenceAreaTransfer,
		ReferenceID:    req.ID,
		CreatedBy:      userID,
		CreatedAt:      now,
	}); err != nil {
		return decimal.Zero, err
	}
	return sent, nil
}

// checkAvailability verifica cada ítem contra el ledger (origen central) o el área de origen,
// con las mismas cantidades y en el mismo orden que Confirm.
func (uc *WorkflowUseCase) checkAvailability(ctx context.Context, repos repository.TxRepos, req *entity.TransferRequest) error {
	ledger := inventory.NewStockLedger(repos.Ledger, repos.Lots, uc.log, uc.now)
	for _, i := range lockOrder(req.Items) {
		it := req.Items[i]
		if req.FromCentral() {
			ok, entry, err := ledger.CheckSufficient(ctx, it.ProductID, req.OrganizationID, it.QuantityRequested)
			if err != nil {
				return err
			}
			if !ok {
				return &domain.InsufficientStockError{ProductID: it.ProductID, Available: entry.TotalQuantity, Requested: it.QuantityRequested}
			}
			continue
		}
		product, err := loadProduct(ctx, repos, it.ProductID)
		if err != nil {
			return err
		}
		required := areaAmount(product, it.QuantityRequested)
		entry, err := repos.Areas.Get(ctx, *req.OriginAreaID, it.ProductID, req.OrganizationID)
		if err != nil {
			return err
		}
		available := decimal.Zero
		if entry != nil {
			available = entry.Quantity
		}
		if available.LessThan(required) {
			return &domain.InsufficientAreaStockError{
				AreaID: *req.OriginAreaID, ProductID: it.ProductID, Available: available, Requested: required,
			}
		}
	}
	return nil
}

// areaAmount cantidad que sale de un área de origen: los productos enteros se mueven en unidades completas.
func areaAmount(product *entity.Product, requested decimal.Decimal) decimal.Decimal {
	if product.IsFractional {
		return domain.NormalizeQuantity(requested)
	}
	return domain.CeilQuantity(requested)
}

// lockOrder índices de los ítems ordenados por producto. Toda transacción que toca varios
// productos bloquea sus filas en este orden.
func lockOrder(items []entity.TransferItem) []int {
	idx := make([]int, len(items))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return items[idx[a]].ProductID < items[idx[b]].ProductID
	})
	return idx
}

func loadProduct(ctx context.Context, repos repository.TxRepos, productID string) (*entity.Product, error) {
	product, err := repos.Products.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, &domain.NotFoundError{Resource: "producto", ID: productID}
	}
	return product, nil
}

// lockRequest relee la solicitud bloqueando su fila y exige el estado required.
func (uc *WorkflowUseCase) lockRequest(ctx context.Context, repos repository.TxRepos, organizationID, requestID, required string) (*entity.TransferRequest, error) {
	req, err := repos.Transfers.GetForUpdate(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req == nil || req.OrganizationID != organizationID {
		return nil, &domain.NotFoundError{Resource: "solicitud de traslado", ID: requestID}
	}
	if req.Status != required {
		return nil, &domain.InvalidStateError{RequestID: req.ID, Current: req.Status, Required: required}
	}
	return req, nil
}

// Get solicitud con sus ítems.
func (uc *WorkflowUseCase) Get(ctx context.Context, organizationID, requestID string) (*entity.TransferRequest, error) {
	req, err := uc.transfers.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req == nil || req.OrganizationID != organizationID {
		return nil, &domain.NotFoundError{Resource: "solicitud de traslado", ID: requestID}
	}
	return req, nil
}

// List solicitudes de la organización; status vacío = todas.
func (uc *WorkflowUseCase) List(ctx context.Context, organizationID, status string, limit, offset int) ([]*entity.TransferRequest, error) {
	return uc.transfers.ListByOrganization(ctx, organizationID, status, limit, offset)
}

// History auditoría de transiciones de la solicitud, en orden cronológico.
func (uc *WorkflowUseCase) History(ctx context.Context, organizationID, requestID string) ([]*entity.TransferStatusChange, error) {
	if _, err := uc.Get(ctx, organizationID, requestID); err != nil {
		return nil, err
	}
	return uc.transfers.ListStatusChanges(ctx, requestID)
}

func (uc *WorkflowUseCase) notify(ctx context.Context, eventType string, req *entity.TransferRequest, userID string) {
	event := Event{
		Type:              eventType,
		RequestID:         req.ID,
		OrganizationID:    req.OrganizationID,
		OriginAreaID:      req.OriginAreaID,
		DestinationAreaID: req.DestinationAreaID,
		Status:            req.Status,
		UserID:            userID,
		OccurredAt:        uc.now(),
	}
	if err := uc.notifier.Notify(ctx, event); err != nil {
		uc.log.WithContext(ctx).Error().Err(err).Str("request_id", req.ID).Str("event", eventType).Msg("no se pudo notificar el traslado")
	}
}

func endSpan(span trace.Span, err *error) {
	if *err != nil {
		span.RecordError(*err)
		span.SetStatus(codes.Error, (*err).Error())
	}
	span.End()
}
