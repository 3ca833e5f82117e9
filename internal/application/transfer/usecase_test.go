package transfer_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jhoicas/economato-api/internal/application/inventory"
	"github.com/jhoicas/economato-api/internal/application/transfer"
	"github.com/jhoicas/economato-api/internal/domain"
	"github.com/jhoicas/economato-api/internal/domain/entity"
	"github.com/jhoicas/economato-api/internal/domain/repository"
	"github.com/jhoicas/economato-api/internal/infrastructure/memory"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	orgID      = "org-1"
	userID     = "user-1"
	adminID    = "admin-1"
	productP   = "prod-p"
	productQ   = "prod-q"
	areaBar    = "area-bar"
	areaBodega = "area-bodega"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

type fixedCode string

func (c fixedCode) Generate() (string, error) { return string(c), nil }

type recordingNotifier struct {
	mu     sync.Mutex
	events []transfer.Event
	err    error
}

func (n *recordingNotifier) Notify(_ context.Context, e transfer.Event) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, e)
	return n.err
}

func (n *recordingNotifier) types() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]string, len(n.events))
	for i, e := range n.events {
		out[i] = e.Type
	}
	return out
}

type fixture struct {
	store    *memory.Store
	uc       *transfer.WorkflowUseCase
	notifier *recordingNotifier
}

func newFixture(t *testing.T, opts ...transfer.Option) *fixture {
	t.Helper()
	s := memory.NewStore()
	s.PutProduct(entity.Product{ID: productP, OrganizationID: orgID, Name: "Ron", UnitMeasure: "botella", Cost: dec("10")})
	s.PutProduct(entity.Product{ID: productQ, OrganizationID: orgID, Name: "Vodka", UnitMeasure: "botella", Cost: dec("8")})
	s.PutArea(entity.Area{ID: areaBar, OrganizationID: orgID, Name: "Bar", Kind: "bar"})
	s.PutArea(entity.Area{ID: areaBodega, OrganizationID: orgID, Name: "Bodega", Kind: "warehouse"})

	acquired := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	expA := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	expB := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	for _, l := range []entity.Lot{
		{ID: "lot-a", QuantityRemaining: dec("5"), UnitCost: dec("10"), ExpiresAt: &expA},
		{ID: "lot-b", QuantityRemaining: dec("10"), UnitCost: dec("12"), ExpiresAt: &expB},
	} {
		l.ProductID = productP
		l.OrganizationID = orgID
		l.InitialQuantity = l.QuantityRemaining
		l.AcquiredAt = acquired
		l.Active = true
		s.SeedLot(l)
	}

	n := &recordingNotifier{}
	allocator := inventory.NewAllocationUseCase(s, nil)
	opts = append([]transfer.Option{transfer.WithNotifier(n)}, opts...)
	uc := transfer.NewWorkflowUseCase(s, allocator, s.Repos().Transfers, s.Areas(), nil, opts...)
	return &fixture{store: s, uc: uc, notifier: n}
}

func (f *fixture) create(t *testing.T, origin *string, qty string) *entity.TransferRequest {
	t.Helper()
	return f.createItems(t, origin, transfer.ItemInput{ProductID: productP, Quantity: dec(qty)})
}

func (f *fixture) createItems(t *testing.T, origin *string, items ...transfer.ItemInput) *entity.TransferRequest {
	t.Helper()
	req, err := f.uc.Create(context.Background(), transfer.CreateInput{
		OrganizationID:    orgID,
		UserID:            userID,
		OriginAreaID:      origin,
		DestinationAreaID: areaBar,
		Items:             items,
		Observations:      "para el turno de la noche",
	})
	require.NoError(t, err)
	return req
}

func (f *fixture) seedLot(id, productID, qty string) {
	exp := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	f.store.SeedLot(entity.Lot{
		ID: id, ProductID: productID, OrganizationID: orgID,
		InitialQuantity: dec(qty), QuantityRemaining: dec(qty), UnitCost: dec("8"),
		AcquiredAt: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), ExpiresAt: &exp, Active: true,
	})
}

func (f *fixture) decide(id, decision string) (*entity.TransferRequest, error) {
	return f.uc.Decide(context.Background(), transfer.DecideInput{
		OrganizationID: orgID, UserID: adminID, RequestID: id, Decision: decision,
	})
}

func (f *fixture) confirm(id, code string) (*entity.TransferRequest, error) {
	return f.uc.Confirm(context.Background(), transfer.ConfirmInput{
		OrganizationID: orgID, UserID: userID, RequestID: id, Code: code,
	})
}

func (f *fixture) areaQty(t *testing.T, areaID string) decimal.Decimal {
	t.Helper()
	return f.areaQtyOf(t, areaID, productP)
}

func (f *fixture) areaQtyOf(t *testing.T, areaID, productID string) decimal.Decimal {
	t.Helper()
	e, err := f.store.Repos().Areas.Get(context.Background(), areaID, productID, orgID)
	require.NoError(t, err)
	if e == nil {
		return decimal.Zero
	}
	return e.Quantity
}

func (f *fixture) ledger(t *testing.T) string {
	t.Helper()
	return f.ledgerOf(t, productP)
}

func (f *fixture) ledgerOf(t *testing.T, productID string) string {
	t.Helper()
	e, err := f.store.Repos().Ledger.Get(context.Background(), productID, orgID)
	require.NoError(t, err)
	return e.TotalQuantity.String()
}

func TestWorkflow_TrasladoCentralCompleto(t *testing.T) {
	f := newFixture(t)
	req := f.create(t, nil, "3")
	assert.Equal(t, entity.TransferStatusPending, req.Status)

	approved, err := f.decide(req.ID, transfer.DecisionApproved)
	require.NoError(t, err)
	assert.Equal(t, entity.TransferStatusApproved, approved.Status)
	require.NotNil(t, approved.ConfirmationCode)
	code := *approved.ConfirmationCode
	assert.Regexp(t, `^[0-9]{6}$`, code)

	wrong := "000000"
	if code == wrong {
		wrong = "111111"
	}
	_, err = f.confirm(req.ID, wrong)
	var invalidCode *domain.InvalidCodeError
	require.True(t, errors.As(err, &invalidCode))
	current, err := f.uc.Get(context.Background(), orgID, req.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.TransferStatusApproved, current.Status)
	assert.Equal(t, "15", f.ledger(t))

	processed, err := f.confirm(req.ID, code)
	require.NoError(t, err)
	assert.Equal(t, entity.TransferStatusProcessed, processed.Status)
	assert.Nil(t, processed.ConfirmationCode)
	require.NotNil(t, processed.ProcessedBy)
	assert.Equal(t, userID, *processed.ProcessedBy)
	assert.True(t, processed.Items[0].QuantitySent.Equal(dec("3")))

	assert.True(t, f.areaQty(t, areaBar).Equal(dec("3")))
	assert.Equal(t, "12", f.ledger(t))

	history, err := f.uc.History(context.Background(), orgID, req.ID)
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, entity.TransferStatusPending, history[0].ToStatus)
	assert.Equal(t, entity.TransferStatusApproved, history[1].ToStatus)
	assert.Equal(t, entity.TransferStatusProcessed, history[2].ToStatus)
	for _, h := range history {
		assert.Nil(t, h.ConfirmationCode, "el código se borra del historial al confirmar")
	}

	moves, err := f.store.Repos().Movements.ListByReference(context.Background(), orgID, entity.ReferenceAreaTransfer, req.ID)
	require.NoError(t, err)
	require.Len(t, moves, 2)
	assert.Equal(t, entity.MovementTypeOutbound, moves[0].Type)
	assert.Equal(t, entity.MovementTypeInbound, moves[1].Type)

	assert.Equal(t, []string{transfer.EventCreated, transfer.EventApproved, transfer.EventProcessed}, f.notifier.types())

	// código de un solo uso
	_, err = f.confirm(req.ID, code)
	var invalidState *domain.InvalidStateError
	require.True(t, errors.As(err, &invalidState))
	assert.Equal(t, entity.TransferStatusProcessed, invalidState.Current)
}

func TestWorkflow_ConfirmacionConcurrenteSoloUnaGana(t *testing.T) {
	f := newFixture(t, transfer.WithCodeGenerator(fixedCode("424242")))
	req := f.create(t, nil, "3")
	_, err := f.decide(req.ID, transfer.DecisionApproved)
	require.NoError(t, err)

	const workers = 2
	errs := make([]error, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.confirm(req.ID, "424242")
		}(i)
	}
	wg.Wait()

	succeeded, invalidState := 0, 0
	for _, err := range errs {
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, domain.ErrInvalidState):
			invalidState++
		}
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 1, invalidState)
	assert.True(t, f.areaQty(t, areaBar).Equal(dec("3")))
	assert.Equal(t, "12", f.ledger(t))
}

func TestWorkflow_AprobarSinStockNoCambiaEstado(t *testing.T) {
	f := newFixture(t)
	req := f.create(t, nil, "20")

	_, err := f.decide(req.ID, transfer.DecisionApproved)
	var insufficient *domain.InsufficientStockError
	require.True(t, errors.As(err, &insufficient))
	assert.Equal(t, productP, insufficient.ProductID)
	assert.True(t, insufficient.Shortfall().Equal(dec("5")))

	current, err := f.uc.Get(context.Background(), orgID, req.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.TransferStatusPending, current.Status)
	assert.Nil(t, current.ConfirmationCode)
}

func TestWorkflow_ConfirmacionTardiaEsReintentable(t *testing.T) {
	f := newFixture(t, transfer.WithCodeGenerator(fixedCode("123456")))
	req := f.create(t, nil, "10")
	_, err := f.decide(req.ID, transfer.DecisionApproved)
	require.NoError(t, err)

	// el stock se consume en otro lado entre la aprobación y la confirmación
	allocator := inventory.NewAllocationUseCase(f.store, nil)
	_, err = allocator.Allocate(context.Background(), inventory.AllocateInput{
		OrganizationID: orgID, ProductID: productP, Quantity: dec("8"),
		ReferenceType: entity.ReferenceOrder, ReferenceID: "pedido-9",
	})
	require.NoError(t, err)

	_, err = f.confirm(req.ID, "123456")
	require.ErrorIs(t, err, domain.ErrInsufficientStock)
	assert.True(t, domain.IsRetryable(err))
	assert.True(t, f.areaQty(t, areaBar).IsZero())
	assert.Equal(t, "7", f.ledger(t))

	current, err := f.uc.Get(context.Background(), orgID, req.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.TransferStatusApproved, current.Status)

	// reposición y reintento con el mismo código
	f.store.SeedLot(entity.Lot{
		ID: "lot-c", ProductID: productP, OrganizationID: orgID,
		InitialQuantity: dec("5"), QuantityRemaining: dec("5"), UnitCost: dec("11"),
		AcquiredAt: time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC), Active: true,
	})
	processed, err := f.confirm(req.ID, "123456")
	require.NoError(t, err)
	assert.Equal(t, entity.TransferStatusProcessed, processed.Status)
	assert.True(t, f.areaQty(t, areaBar).Equal(dec("10")))
	assert.Equal(t, "2", f.ledger(t))
}

func TestWorkflow_TransicionesInvalidas(t *testing.T) {
	f := newFixture(t)
	req := f.create(t, nil, "1")

	_, err := f.confirm(req.ID, "000000")
	assert.ErrorIs(t, err, domain.ErrInvalidState, "confirmar una solicitud pendiente")

	rejected, err := f.decide(req.ID, transfer.DecisionRejected)
	require.NoError(t, err)
	assert.Equal(t, entity.TransferStatusRejected, rejected.Status)
	assert.Nil(t, rejected.ConfirmationCode)

	_, err = f.decide(req.ID, transfer.DecisionApproved)
	assert.ErrorIs(t, err, domain.ErrInvalidState)
	_, err = f.decide(req.ID, transfer.DecisionCancelled)
	assert.ErrorIs(t, err, domain.ErrInvalidState)

	other := f.create(t, nil, "1")
	_, err = f.decide(other.ID, "processed")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	cancelled, err := f.decide(other.ID, transfer.DecisionCancelled)
	require.NoError(t, err)
	assert.Equal(t, entity.TransferStatusCancelled, cancelled.Status)

	_, err = f.decide("no-existe", transfer.DecisionApproved)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Equal(t, "15", f.ledger(t))
}

func TestWorkflow_ValidacionesAlCrear(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	bar := areaBar

	_, err := f.uc.Create(ctx, transfer.CreateInput{
		OrganizationID: orgID, OriginAreaID: &bar, DestinationAreaID: areaBar,
		Items: []transfer.ItemInput{{ProductID: productP, Quantity: dec("1")}},
	})
	var validation *domain.ValidationError
	require.True(t, errors.As(err, &validation))
	assert.Equal(t, "origin_area_id", validation.Field)

	_, err = f.uc.Create(ctx, transfer.CreateInput{OrganizationID: orgID, DestinationAreaID: areaBar})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = f.uc.Create(ctx, transfer.CreateInput{
		OrganizationID: orgID, DestinationAreaID: "area-fantasma",
		Items: []transfer.ItemInput{{ProductID: productP, Quantity: dec("1")}},
	})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = f.uc.Create(ctx, transfer.CreateInput{
		OrganizationID: orgID, DestinationAreaID: areaBar,
		Items: []transfer.ItemInput{{ProductID: "prod-fantasma", Quantity: dec("1")}},
	})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	list, err := f.uc.List(ctx, orgID, "", 10, 0)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestWorkflow_TrasladoEntreAreas(t *testing.T) {
	f := newFixture(t, transfer.WithCodeGenerator(fixedCode("777777")))
	f.store.PutAreaInventory(entity.AreaInventoryEntry{AreaID: areaBodega, ProductID: productP, OrganizationID: orgID, Quantity: dec("4")})
	bodega := areaBodega

	tooMuch := f.create(t, &bodega, "6")
	_, err := f.decide(tooMuch.ID, transfer.DecisionApproved)
	require.ErrorIs(t, err, domain.ErrInsufficientAreaStock)

	req := f.create(t, &bodega, "3")
	_, err = f.decide(req.ID, transfer.DecisionApproved)
	require.NoError(t, err)
	_, err = f.confirm(req.ID, "777777")
	require.NoError(t, err)

	assert.True(t, f.areaQty(t, areaBodega).Equal(dec("1")))
	assert.True(t, f.areaQty(t, areaBar).Equal(dec("3")))
	assert.Equal(t, "15", f.ledger(t), "el stock central no se toca")
}

func TestWorkflow_AreaConStockFraccionarioDeProductoEntero(t *testing.T) {
	f := newFixture(t, transfer.WithCodeGenerator(fixedCode("555555")))
	f.store.PutAreaInventory(entity.AreaInventoryEntry{AreaID: areaBodega, ProductID: productP, OrganizationID: orgID, Quantity: dec("2.5")})
	bodega := areaBodega

	// el ron sale en botellas completas: 2.5 pedidas son 3
	req := f.create(t, &bodega, "2.5")
	_, err := f.decide(req.ID, transfer.DecisionApproved)
	var insufficient *domain.InsufficientAreaStockError
	require.True(t, errors.As(err, &insufficient), "%v", err)
	assert.True(t, insufficient.Available.Equal(dec("2.5")))
	assert.True(t, insufficient.Requested.Equal(dec("3")))

	current, err := f.uc.Get(context.Background(), orgID, req.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.TransferStatusPending, current.Status)

	f.store.PutAreaInventory(entity.AreaInventoryEntry{AreaID: areaBodega, ProductID: productP, OrganizationID: orgID, Quantity: dec("3")})
	_, err = f.decide(req.ID, transfer.DecisionApproved)
	require.NoError(t, err)
	processed, err := f.confirm(req.ID, "555555")
	require.NoError(t, err)
	assert.True(t, processed.Items[0].QuantitySent.Equal(dec("3")))
	assert.True(t, f.areaQty(t, areaBodega).IsZero())
	assert.True(t, f.areaQty(t, areaBar).Equal(dec("3")))
}

// lockRecorder registra el producto de cada bloqueo de lotes y ledger.
type lockRecorder struct {
	store *memory.Store
	mu    sync.Mutex
	locks []string
}

func (r *lockRecorder) Run(ctx context.Context, fn func(repos repository.TxRepos) error) error {
	return r.store.Run(ctx, func(repos repository.TxRepos) error {
		repos.Lots = recordingLots{LotRepository: repos.Lots, rec: r}
		repos.Ledger = recordingLedger{StockLedgerRepository: repos.Ledger, rec: r}
		return fn(repos)
	})
}

func (r *lockRecorder) add(productID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if n := len(r.locks); n > 0 && r.locks[n-1] == productID {
		return
	}
	r.locks = append(r.locks, productID)
}

type recordingLots struct {
	repository.LotRepository
	rec *lockRecorder
}

func (l recordingLots) ListForDepletion(ctx context.Context, productID, organizationID string) ([]*entity.Lot, error) {
	l.rec.add(productID)
	return l.LotRepository.ListForDepletion(ctx, productID, organizationID)
}

type recordingLedger struct {
	repository.StockLedgerRepository
	rec *lockRecorder
}

func (l recordingLedger) GetForUpdate(ctx context.Context, productID, organizationID string) (*entity.StockLedgerEntry, error) {
	l.rec.add(productID)
	return l.StockLedgerRepository.GetForUpdate(ctx, productID, organizationID)
}

func TestWorkflow_ConfirmarBloqueaEnOrdenDeProducto(t *testing.T) {
	f := newFixture(t)
	f.seedLot("lot-q", productQ, "10")
	rec := &lockRecorder{store: f.store}
	allocator := inventory.NewAllocationUseCase(f.store, nil)
	uc := transfer.NewWorkflowUseCase(rec, allocator, f.store.Repos().Transfers, f.store.Areas(), nil,
		transfer.WithCodeGenerator(fixedCode("313131")))
	f.uc = uc

	// el cliente envía Q antes que P
	req := f.createItems(t, nil,
		transfer.ItemInput{ProductID: productQ, Quantity: dec("4")},
		transfer.ItemInput{ProductID: productP, Quantity: dec("3")},
	)
	_, err := f.decide(req.ID, transfer.DecisionApproved)
	require.NoError(t, err)

	rec.locks = nil
	processed, err := f.confirm(req.ID, "313131")
	require.NoError(t, err)
	assert.Equal(t, []string{productP, productQ}, rec.locks)

	require.Len(t, processed.Items, 2)
	assert.Equal(t, productQ, processed.Items[0].ProductID, "los ítems conservan el orden de la solicitud")
	assert.True(t, processed.Items[0].QuantitySent.Equal(dec("4")))
	assert.True(t, processed.Items[1].QuantitySent.Equal(dec("3")))
	assert.Equal(t, "6", f.ledgerOf(t, productQ))
	assert.Equal(t, "12", f.ledger(t))
}

func TestWorkflow_ConfirmacionMultiItemRevierteItemsPrevios(t *testing.T) {
	f := newFixture(t, transfer.WithCodeGenerator(fixedCode("989898")))
	// Q tiene un lote de 1 pero el ledger cree que hay 10
	f.seedLot("lot-q", productQ, "1")
	f.store.SetLedger(productQ, orgID, dec("10"))

	req := f.createItems(t, nil,
		transfer.ItemInput{ProductID: productP, Quantity: dec("3")},
		transfer.ItemInput{ProductID: productQ, Quantity: dec("4")},
	)
	_, err := f.decide(req.ID, transfer.DecisionApproved)
	require.NoError(t, err)

	_, err = f.confirm(req.ID, "989898")
	require.ErrorIs(t, err, domain.ErrAllocationShortfall)
	assert.True(t, domain.IsRetryable(err))

	// nada del primer ítem quedó confirmado
	assert.Equal(t, "15", f.ledger(t))
	assert.True(t, f.areaQty(t, areaBar).IsZero())
	assert.True(t, f.areaQtyOf(t, areaBar, productQ).IsZero())
	lots, err := f.store.Repos().Lots.ListByProduct(context.Background(), productP, orgID, true)
	require.NoError(t, err)
	for _, l := range lots {
		assert.True(t, l.QuantityRemaining.Equal(l.InitialQuantity), l.ID)
		assert.True(t, l.Active, l.ID)
	}
	moves, err := f.store.Repos().Movements.ListByReference(context.Background(), orgID, entity.ReferenceAreaTransfer, req.ID)
	require.NoError(t, err)
	assert.Empty(t, moves)

	current, err := f.uc.Get(context.Background(), orgID, req.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.TransferStatusApproved, current.Status)
	require.NotNil(t, current.ConfirmationCode)
	assert.True(t, current.Items[0].QuantitySent.IsZero())
}

func TestWorkflow_FalloDeNotificacionNoFallaOperacion(t *testing.T) {
	f := newFixture(t)
	f.notifier.err = errors.New("broker caído")

	req := f.create(t, nil, "1")
	assert.Equal(t, entity.TransferStatusPending, req.Status)
	assert.Len(t, f.notifier.types(), 1)
}

func TestRandomCodeGenerator_SeisDigitos(t *testing.T) {
	g := transfer.RandomCodeGenerator{}
	for i := 0; i < 50; i++ {
		code, err := g.Generate()
		require.NoError(t, err)
		assert.Len(t, code, transfer.CodeLength)
		assert.Regexp(t, `^[0-9]+$`, code)
	}
}
