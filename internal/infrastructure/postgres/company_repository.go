package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/backoffice-api/internal/domain/entity"
	"github.com/jhoicas/backoffice-api/internal/domain/repository"
)

var _ repository.CompanyRepository = (*CompanyRepo)(nil)

var companySchema = &Schema[entity.Company]{
	Table:    "companies",
	Columns:  []string{"id", "name", "service", "capital", "price", "logo", "user_id", "created_at", "updated_at"},
	Writable: []string{"name", "service", "capital", "price", "logo", "user_id", "created_at", "updated_at"},
	Scan: func(row pgx.Row) (*entity.Company, error) {
		var c entity.Company
		err := row.Scan(&c.ID, &c.Name, &c.Service, &c.Capital, &c.Price, &c.Logo, &c.UserID, &c.CreatedAt, &c.UpdatedAt)
		if err != nil {
			return nil, err
		}
		return &c, nil
	},
	Values: func(c *entity.Company) []any {
		return []any{c.Name, c.Service, c.Capital, c.Price, c.Logo, c.UserID, c.CreatedAt, c.UpdatedAt}
	},
	GetID: func(c *entity.Company) int64 { return c.ID },
	SetID: func(c *entity.Company, id int64) { c.ID = id },
}

// CompanyRepo implementación del puerto CompanyRepository sobre PostgreSQL.
type CompanyRepo struct {
	store *Store[entity.Company]
}

// NewCompanyRepository construye el adaptador de persistencia para empresas.
func NewCompanyRepository(q Querier) *CompanyRepo {
	return &CompanyRepo{store: NewStore(q, companySchema)}
}

// FindByID obtiene una empresa por ID (opcionalmente bloqueando la fila).
func (r *CompanyRepo) FindByID(ctx context.Context, id int64, opts repository.FindOptions) (*entity.Company, error) {
	return r.store.FindOne(ctx, Query{Where: []Condition{Eq("id", id)}, ForUpdate: opts.ForUpdate})
}

// List lista empresas con filtros de propietario, capital exacto y día de alta.
func (r *CompanyRepo) List(ctx context.Context, f repository.CompanyFilter) ([]*entity.Company, int, error) {
	var conds []Condition
	if f.OwnerID != nil {
		conds = append(conds, Eq("user_id", *f.OwnerID))
	}
	if f.Capital != nil {
		conds = append(conds, Eq("capital", *f.Capital))
	}
	if f.CreatedOn != nil {
		from, to := repository.DayRange(*f.CreatedOn)
		conds = append(conds, Gte("created_at", from), Lt("created_at", to))
	}
	order := []Order{
		{Column: "name", Dir: f.NameSort},
		{Column: "service", Dir: f.ServiceSort},
		{Column: "id", Dir: repository.SortAsc},
	}
	return r.store.FindAndCount(ctx, Query{Where: conds, Order: order, Limit: f.Limit, Offset: f.Offset})
}

// Save inserta o actualiza la empresa.
func (r *CompanyRepo) Save(ctx context.Context, c *entity.Company) error {
	return r.store.Save(ctx, c)
}

// Delete borra físicamente la empresa.
func (r *CompanyRepo) Delete(ctx context.Context, id int64) error {
	return r.store.Delete(ctx, id)
}
