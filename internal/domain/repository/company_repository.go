package repository

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/backoffice-api/internal/domain/entity"
)

// CompanyFilter criterios del listado de empresas.
type CompanyFilter struct {
	OwnerID     *int64
	Capital     *decimal.Decimal
	CreatedOn   *time.Time
	NameSort    SortDir
	ServiceSort SortDir
	Page
}

// CompanyRepository define el puerto de persistencia para Company (DIP).
// La implementación vive en infrastructure.
type CompanyRepository interface {
	FindByID(ctx context.Context, id int64, opts FindOptions) (*entity.Company, error)
	List(ctx context.Context, f CompanyFilter) ([]*entity.Company, int, error)
	Save(ctx context.Context, c *entity.Company) error
	Delete(ctx context.Context, id int64) error
}
