package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/jhoicas/economato-api/internal/domain"
	"github.com/jhoicas/economato-api/internal/domain/entity"
	"github.com/jhoicas/economato-api/internal/domain/inventory"
	"github.com/shopspring/decimal"
)

type lotRepo struct{ view *view }

func (r *lotRepo) Create(_ context.Context, lot *entity.Lot) error {
	st, unlock := r.view.acquire()
	defer unlock()
	if _, ok := st.lots[lot.ID]; ok {
		return fmt.Errorf("lote %s ya existe", lot.ID)
	}
	st.lots[lot.ID] = *lot
	return nil
}

func (r *lotRepo) GetForUpdate(_ context.Context, id string) (*entity.Lot, error) {
	st, unlock := r.view.acquire()
	defer unlock()
	l, ok := st.lots[id]
	if !ok {
		return nil, nil
	}
	return &l, nil
}

func (r *lotRepo) ListForDepletion(ctx context.Context, productID, organizationID string) ([]*entity.Lot, error) {
	lots, err := r.ListByProduct(ctx, productID, organizationID, false)
	if err != nil {
		return nil, err
	}
	inventory.SortFIFO(lots)
	return lots, nil
}

func (r *lotRepo) Update(_ context.Context, lot *entity.Lot) error {
	st, unlock := r.view.acquire()
	defer unlock()
	if _, ok := st.lots[lot.ID]; !ok {
		return &domain.NotFoundError{Resource: "lote", ID: lot.ID}
	}
	st.lots[lot.ID] = *lot
	return nil
}

func (r *lotRepo) SumActive(_ context.Context, productID, organizationID string) (decimal.Decimal, error) {
	st, unlock := r.view.acquire()
	defer unlock()
	sum := decimal.Zero
	for _, l := range st.lots {
		if l.Active && l.ProductID == productID && l.OrganizationID == organizationID {
			sum = sum.Add(l.QuantityRemaining)
		}
	}
	return sum, nil
}

func (r *lotRepo) ListByProduct(_ context.Context, productID, organizationID string, includeInactive bool) ([]*entity.Lot, error) {
	st, unlock := r.view.acquire()
	defer unlock()
	var out []*entity.Lot
	for _, l := range st.lots {
		if l.ProductID != productID || l.OrganizationID != organizationID {
			continue
		}
		if !includeInactive && !l.Active {
			continue
		}
		lot := l
		out = append(out, &lot)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].AcquiredAt.Equal(out[j].AcquiredAt) {
			return out[i].AcquiredAt.Before(out[j].AcquiredAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

type ledgerRepo struct{ view *view }

func (r *ledgerRepo) Get(_ context.Context, productID, organizationID string) (*entity.StockLedgerEntry, error) {
	st, unlock := r.view.acquire()
	defer unlock()
	e, ok := st.ledger[ledgerKey{productID, organizationID}]
	if !ok {
		e = entity.StockLedgerEntry{ProductID: productID, OrganizationID: organizationID, TotalQuantity: decimal.Zero}
	}
	return &e, nil
}

func (r *ledgerRepo) GetForUpdate(ctx context.Context, productID, organizationID string) (*entity.StockLedgerEntry, error) {
	return r.Get(ctx, productID, organizationID)
}

func (r *ledgerRepo) Upsert(_ context.Context, entry *entity.StockLedgerEntry) error {
	st, unlock := r.view.acquire()
	defer unlock()
	st.ledger[ledgerKey{entry.ProductID, entry.OrganizationID}] = *entry
	return nil
}

type areaStockRepo struct{ view *view }

func (r *areaStockRepo) GetForUpdate(ctx context.Context, areaID, productID, organizationID string) (*entity.AreaInventoryEntry, error) {
	return r.Get(ctx, areaID, productID, organizationID)
}

func (r *areaStockRepo) Get(_ context.Context, areaID, productID, organizationID string) (*entity.AreaInventoryEntry, error) {
	st, unlock := r.view.acquire()
	defer unlock()
	e, ok := st.areaStock[areaKey{areaID, productID, organizationID}]
	if !ok {
		return nil, nil
	}
	return &e, nil
}

func (r *areaStockRepo) Upsert(_ context.Context, entry *entity.AreaInventoryEntry) error {
	st, unlock := r.view.acquire()
	defer unlock()
	st.areaStock[areaKey{entry.AreaID, entry.ProductID, entry.OrganizationID}] = *entry
	return nil
}

func (r *areaStockRepo) ListByArea(_ context.Context, organizationID, areaID string, limit, offset int) ([]*entity.AreaInventoryEntry, error) {
	st, unlock := r.view.acquire()
	defer unlock()
	var out []*entity.AreaInventoryEntry
	for _, e := range st.areaStock {
		if e.AreaID == areaID && e.OrganizationID == organizationID {
			entry := e
			out = append(out, &entry)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ProductID < out[j].ProductID })
	return page(out, limit, offset), nil
}

func (r *areaStockRepo) ListBelowMinimum(_ context.Context, organizationID, areaID string) ([]*entity.AreaInventoryEntry, error) {
	st, unlock := r.view.acquire()
	defer unlock()
	var out []*entity.AreaInventoryEntry
	for _, e := range st.areaStock {
		if e.AreaID == areaID && e.OrganizationID == organizationID && e.BelowMinimum() {
			entry := e
			out = append(out, &entry)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		di := out[i].MinQuantity.Sub(out[i].Quantity)
		dj := out[j].MinQuantity.Sub(out[j].Quantity)
		if !di.Equal(dj) {
			return di.GreaterThan(dj)
		}
		return out[i].ProductID < out[j].ProductID
	})
	return out, nil
}

type movementRepo struct{ view *view }

func (r *movementRepo) Create(_ context.Context, record *entity.MovementRecord) error {
	st, unlock := r.view.acquire()
	defer unlock()
	st.movements = append(st.movements, *record)
	return nil
}

func (r *movementRepo) ListByProduct(_ context.Context, organizationID, productID string, from, to *time.Time, limit, offset int) ([]*entity.MovementRecord, error) {
	st, unlock := r.view.acquire()
	defer unlock()
	var out []*entity.MovementRecord
	for i := len(st.movements) - 1; i >= 0; i-- {
		m := st.movements[i]
		if m.OrganizationID != organizationID || m.ProductID != productID {
			continue
		}
		if from != nil && m.CreatedAt.Before(*from) {
			continue
		}
		if to != nil && m.CreatedAt.After(*to) {
			continue
		}
		out = append(out, &m)
	}
	return page(out, limit, offset), nil
}

func (r *movementRepo) ListByReference(_ context.Context, organizationID, referenceType, referenceID string) ([]*entity.MovementRecord, error) {
	st, unlock := r.view.acquire()
	defer unlock()
	var out []*entity.MovementRecord
	for _, m := range st.movements {
		if m.OrganizationID == organizationID && m.ReferenceType == referenceType && m.ReferenceID == referenceID {
			rec := m
			out = append(out, &rec)
		}
	}
	return out, nil
}

type transferRepo struct{ view *view }

func (r *transferRepo) Create(_ context.Context, req *entity.TransferRequest) error {
	st, unlock := r.view.acquire()
	defer unlock()
	if _, ok := st.transfers[req.ID]; ok {
		return fmt.Errorf("solicitud %s ya existe", req.ID)
	}
	st.transfers[req.ID] = copyTransfer(*req)
	return nil
}

func (r *transferRepo) GetByID(_ context.Context, id string) (*entity.TransferRequest, error) {
	st, unlock := r.view.acquire()
	defer unlock()
	t, ok := st.transfers[id]
	if !ok {
		return nil, nil
	}
	t = copyTransfer(t)
	return &t, nil
}

func (r *transferRepo) GetForUpdate(ctx context.Context, id string) (*entity.TransferRequest, error) {
	return r.GetByID(ctx, id)
}

func (r *transferRepo) Update(_ context.Context, req *entity.TransferRequest) error {
	st, unlock := r.view.acquire()
	defer unlock()
	if _, ok := st.transfers[req.ID]; !ok {
		return &domain.NotFoundError{Resource: "solicitud de traslado", ID: req.ID}
	}
	st.transfers[req.ID] = copyTransfer(*req)
	return nil
}

func (r *transferRepo) ListByOrganization(_ context.Context, organizationID, status string, limit, offset int) ([]*entity.TransferRequest, error) {
	st, unlock := r.view.acquire()
	defer unlock()
	var out []*entity.TransferRequest
	for _, t := range st.transfers {
		if t.OrganizationID != organizationID || (status != "" && t.Status != status) {
			continue
		}
		req := copyTransfer(t)
		out = append(out, &req)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return page(out, limit, offset), nil
}

func (r *transferRepo) AppendStatusChange(_ context.Context, change *entity.TransferStatusChange) error {
	st, unlock := r.view.acquire()
	defer unlock()
	st.changes = append(st.changes, *change)
	return nil
}

func (r *transferRepo) ListStatusChanges(_ context.Context, requestID string) ([]*entity.TransferStatusChange, error) {
	st, unlock := r.view.acquire()
	defer unlock()
	var out []*entity.TransferStatusChange
	for _, c := range st.changes {
		if c.TransferRequestID == requestID {
			change := c
			out = append(out, &change)
		}
	}
	return out, nil
}

func (r *transferRepo) RedactConfirmationCodes(_ context.Context, requestID string) error {
	st, unlock := r.view.acquire()
	defer unlock()
	for i := range st.changes {
		if st.changes[i].TransferRequestID == requestID {
			st.changes[i].ConfirmationCode = nil
		}
	}
	return nil
}

type productRepo struct{ view *view }

func (r *productRepo) GetByID(_ context.Context, id string) (*entity.Product, error) {
	st, unlock := r.view.acquire()
	defer unlock()
	p, ok := st.products[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (r *productRepo) UpdateCost(_ context.Context, productID string, cost decimal.Decimal) error {
	st, unlock := r.view.acquire()
	defer unlock()
	p, ok := st.products[productID]
	if !ok {
		return &domain.NotFoundError{Resource: "producto", ID: productID}
	}
	p.Cost = cost
	st.products[productID] = p
	return nil
}

type areaRepo struct{ view *view }

func (r *areaRepo) GetByID(_ context.Context, id string) (*entity.Area, error) {
	st, unlock := r.view.acquire()
	defer unlock()
	a, ok := st.areas[id]
	if !ok {
		return nil, nil
	}
	return &a, nil
}

func (r *areaRepo) ListByOrganization(_ context.Context, organizationID string, limit, offset int) ([]*entity.Area, error) {
	st, unlock := r.view.acquire()
	defer unlock()
	var out []*entity.Area
	for _, a := range st.areas {
		if a.OrganizationID == organizationID {
			area := a
			out = append(out, &area)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return page(out, limit, offset), nil
}

// page aplica limit/offset; limit <= 0 devuelve todo desde offset.
func page[T any](items []T, limit, offset int) []T {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(items) {
		return []T{}
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
