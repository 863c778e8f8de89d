package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jhoicas/backoffice-api/internal/application/ports"
	"github.com/jhoicas/backoffice-api/internal/domain/repository"
)

var _ ports.TxRunner = (*TxRunner)(nil)

// TxRunner ejecuta callbacks dentro de una transacción PostgreSQL.
type TxRunner struct {
	pool *pgxpool.Pool
}

// NewTxRunner construye el runner con el pool.
func NewTxRunner(pool *pgxpool.Pool) *TxRunner {
	return &TxRunner{pool: pool}
}

// Run inicia una transacción, ejecuta fn con repos atados a la tx y hace Commit o Rollback.
// Los hooks AfterCommit se ejecutan en orden tras un Commit exitoso.
func (r *TxRunner) Run(ctx context.Context, fn func(uow ports.UnitOfWork) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	uow := newTxUnit(tx)
	if err := fn(uow); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	for _, hook := range uow.hooks {
		hook()
	}
	return nil
}

type txUnit struct {
	users     *UserRepo
	companies *CompanyRepo
	logs      *ActionLogRepo
	hooks     []func()
}

func newTxUnit(tx pgx.Tx) *txUnit {
	return &txUnit{
		users:     NewUserRepository(tx),
		companies: NewCompanyRepository(tx),
		logs:      NewActionLogRepository(tx),
	}
}

func (u *txUnit) Users() repository.UserRepository        { return u.users }
func (u *txUnit) Companies() repository.CompanyRepository { return u.companies }
func (u *txUnit) Logs() repository.ActionLogRepository    { return u.logs }
func (u *txUnit) AfterCommit(fn func())                   { u.hooks = append(u.hooks, fn) }
