package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jhoicas/economato-api/internal/application/inventory"
	"github.com/jhoicas/economato-api/internal/domain/repository"
)

var _ inventory.TxRunner = (*TxRunner)(nil)

// TxRunner ejecuta callbacks dentro de una transacción PostgreSQL.
type TxRunner struct {
	pool *pgxpool.Pool
}

// NewTxRunner construye el runner con el pool.
func NewTxRunner(pool *pgxpool.Pool) *TxRunner {
	return &TxRunner{pool: pool}
}

// Run inicia una transacción READ COMMITTED, ejecuta fn con repos atados a la tx y hace Commit o Rollback.
// La consistencia entre escritores concurrentes la dan los SELECT ... FOR UPDATE de los repos.
func (r *TxRunner) Run(ctx context.Context, fn func(repos repository.TxRepos) error) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(reposFor(tx)); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// Repos repositorios sobre el pool (autocommit), para lecturas fuera de transacción.
func (r *TxRunner) Repos() repository.TxRepos {
	return reposFor(r.pool)
}

// Areas lector de áreas sobre el pool.
func (r *TxRunner) Areas() repository.AreaRepository {
	return NewAreaRepository(r.pool)
}

func reposFor(q Querier) repository.TxRepos {
	return repository.TxRepos{
		Lots:      NewLotRepository(q),
		Ledger:    NewStockLedgerRepository(q),
		Areas:     NewAreaInventoryRepository(q),
		Movements: NewMovementHistoryRepository(q),
		Transfers: NewTransferRequestRepository(q),
		Products:  NewProductRepository(q),
	}
}
