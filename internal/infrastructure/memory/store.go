// Package memory implementa los puertos de repositorio y el TxRunner en memoria.
// Se usa con STORAGE_DRIVER=memory (desarrollo, demo) y en tests de casos de uso.
package memory

import (
	"context"
	"sync"

	"github.com/jhoicas/economato-api/internal/domain"
	"github.com/jhoicas/economato-api/internal/domain/entity"
	"github.com/jhoicas/economato-api/internal/domain/repository"
	"github.com/shopspring/decimal"
)

type ledgerKey struct{ productID, organizationID string }

type areaKey struct{ areaID, productID, organizationID string }

type state struct {
	products  map[string]entity.Product
	areas     map[string]entity.Area
	lots      map[string]entity.Lot
	ledger    map[ledgerKey]entity.StockLedgerEntry
	areaStock map[areaKey]entity.AreaInventoryEntry
	movements []entity.MovementRecord
	transfers map[string]entity.TransferRequest
	changes   []entity.TransferStatusChange
}

func newState() *state {
	return &state{
		products:  map[string]entity.Product{},
		areas:     map[string]entity.Area{},
		lots:      map[string]entity.Lot{},
		ledger:    map[ledgerKey]entity.StockLedgerEntry{},
		areaStock: map[areaKey]entity.AreaInventoryEntry{},
		transfers: map[string]entity.TransferRequest{},
	}
}

func (s *state) clone() *state {
	c := newState()
	for k, v := range s.products {
		c.products[k] = v
	}
	for k, v := range s.areas {
		c.areas[k] = v
	}
	for k, v := range s.lots {
		c.lots[k] = v
	}
	for k, v := range s.ledger {
		c.ledger[k] = v
	}
	for k, v := range s.areaStock {
		c.areaStock[k] = v
	}
	for k, v := range s.transfers {
		c.transfers[k] = copyTransfer(v)
	}
	c.movements = append(c.movements, s.movements...)
	c.changes = append(c.changes, s.changes...)
	return c
}

// Store estado en memoria. Run serializa las transacciones: cada una trabaja sobre una copia
// que solo reemplaza al estado si fn no retorna error.
type Store struct {
	mu sync.Mutex
	st *state
}

// NewStore crea un store vacío.
func NewStore() *Store {
	return &Store{st: newState()}
}

// Run implementa inventory.TxRunner.
func (s *Store) Run(ctx context.Context, fn func(repos repository.TxRepos) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	work := s.st.clone()
	if err := fn(reposFor(&view{tx: work})); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.st = work
	return nil
}

// Repos repositorios en modo autocommit, para lecturas fuera de transacción.
func (s *Store) Repos() repository.TxRepos {
	return reposFor(&view{store: s})
}

// Areas lector de áreas.
func (s *Store) Areas() repository.AreaRepository {
	return &areaRepo{view: &view{store: s}}
}

func reposFor(v *view) repository.TxRepos {
	return repository.TxRepos{
		Lots:      &lotRepo{view: v},
		Ledger:    &ledgerRepo{view: v},
		Areas:     &areaStockRepo{view: v},
		Movements: &movementRepo{view: v},
		Transfers: &transferRepo{view: v},
		Products:  &productRepo{view: v},
	}
}

// PutProduct registra o reemplaza un producto del catálogo.
func (s *Store) PutProduct(p entity.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.st.products[p.ID] = p
}

// PutArea registra o reemplaza un área.
func (s *Store) PutArea(a entity.Area) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.st.areas[a.ID] = a
}

// PutAreaInventory fija una fila de inventario de área (cantidad y umbrales).
func (s *Store) PutAreaInventory(e entity.AreaInventoryEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.st.areaStock[areaKey{e.AreaID, e.ProductID, e.OrganizationID}] = e
}

// SeedLot agrega un lote y deja el ledger en ceil(suma de lotes activos).
func (s *Store) SeedLot(l entity.Lot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.st.lots[l.ID] = l
	sum := decimal.Zero
	for _, lot := range s.st.lots {
		if lot.Active && lot.ProductID == l.ProductID && lot.OrganizationID == l.OrganizationID {
			sum = sum.Add(lot.QuantityRemaining)
		}
	}
	k := ledgerKey{l.ProductID, l.OrganizationID}
	entry := s.st.ledger[k]
	entry.ProductID = l.ProductID
	entry.OrganizationID = l.OrganizationID
	entry.TotalQuantity = domain.CeilQuantity(sum)
	entry.UpdatedAt = l.UpdatedAt
	s.st.ledger[k] = entry
}

// SetLedger fuerza el total del ledger. Solo para reproducir divergencias en tests.
func (s *Store) SetLedger(productID, organizationID string, total decimal.Decimal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := ledgerKey{productID, organizationID}
	entry := s.st.ledger[k]
	entry.ProductID = productID
	entry.OrganizationID = organizationID
	entry.TotalQuantity = total
	s.st.ledger[k] = entry
}

// view resuelve el estado sobre el que opera un repo: la copia de la tx o el estado del store bajo lock.
type view struct {
	store *Store
	tx    *state
}

func (v *view) acquire() (*state, func()) {
	if v.tx != nil {
		return v.tx, func() {}
	}
	v.store.mu.Lock()
	return v.store.st, v.store.mu.Unlock
}

func copyTransfer(t entity.TransferRequest) entity.TransferRequest {
	t.Items = append([]entity.TransferItem(nil), t.Items...)
	return t
}
