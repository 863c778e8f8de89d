package ports

import (
	"context"

	"github.com/jhoicas/backoffice-api/internal/domain/repository"
)

// UnitOfWork repositorios atados a una única transacción abierta.
// Los hooks registrados con AfterCommit corren solo si la transacción confirma.
type UnitOfWork interface {
	Users() repository.UserRepository
	Companies() repository.CompanyRepository
	Logs() repository.ActionLogRepository
	AfterCommit(fn func())
}

// TxRunner ejecuta fn dentro de una transacción: commit si fn devuelve nil, rollback en cualquier otro caso.
type TxRunner interface {
	Run(ctx context.Context, fn func(uow UnitOfWork) error) error
}
