package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/backoffice-api/internal/domain"
	"github.com/jhoicas/backoffice-api/internal/domain/entity"
)

// CreateCompanyRequest datos de alta de una empresa.
type CreateCompanyRequest struct {
	Name    string           `json:"name" validate:"required,max=255"`
	Service string           `json:"service" validate:"required,max=255"`
	Capital *decimal.Decimal `json:"capital" validate:"required"`
	Price   *decimal.Decimal `json:"price" validate:"required"`
}

// Check valida reglas que las etiquetas no cubren (montos no negativos).
func (r CreateCompanyRequest) Check() error {
	if err := Validate(r); err != nil {
		return err
	}
	return checkAmounts(r.Capital, r.Price)
}

// UpdateCompanyRequest cambios parciales; al menos un campo o un logo.
type UpdateCompanyRequest struct {
	Name    *string          `json:"name" form:"name" validate:"omitempty,min=1,max=255"`
	Service *string          `json:"service" form:"service" validate:"omitempty,min=1,max=255"`
	Capital *decimal.Decimal `json:"capital" form:"capital"`
	Price   *decimal.Decimal `json:"price" form:"price"`
}

// Empty indica que no trae ningún campo.
func (r UpdateCompanyRequest) Empty() bool {
	return r.Name == nil && r.Service == nil && r.Capital == nil && r.Price == nil
}

// Check valida la petición; withFile indica si llega un logo junto con los campos.
func (r UpdateCompanyRequest) Check(withFile bool) error {
	if r.Empty() && !withFile {
		return domain.NewValidationError("", "at_least_one", "At least one field must be provided")
	}
	if err := Validate(r); err != nil {
		return err
	}
	return checkAmounts(r.Capital, r.Price)
}

// Los montos se guardan como NUMERIC(18, 2): como mucho 16 dígitos enteros y 2 decimales.
const amountScale = 2

var maxAmount = decimal.New(1, 18-amountScale)

func checkAmounts(capital, price *decimal.Decimal) error {
	if err := checkAmount("capital", capital); err != nil {
		return err
	}
	return checkAmount("price", price)
}

func checkAmount(field string, d *decimal.Decimal) error {
	switch {
	case d == nil:
		return nil
	case d.IsNegative():
		return domain.NewValidationError(field, "gte", field+" must be >= 0")
	case !d.Equal(d.Truncate(amountScale)):
		return domain.NewValidationError(field, "scale", field+" must have at most 2 decimal places")
	case d.GreaterThanOrEqual(maxAmount):
		return domain.NewValidationError(field, "lt", field+" must be less than "+maxAmount.String())
	}
	return nil
}

// CompanyQuery filtros del listado de empresas.
type CompanyQuery struct {
	Capital string `query:"capital"`
	Name    string `query:"name" validate:"omitempty,oneof=ASC DESC asc desc"`
	Service string `query:"service" validate:"omitempty,oneof=ASC DESC asc desc"`
	PageQuery
}

// CapitalFilter interpreta capital como decimal exacto; vacío = sin filtro.
func (q CompanyQuery) CapitalFilter() (*decimal.Decimal, error) {
	if q.Capital == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(q.Capital)
	if err != nil {
		return nil, domain.NewValidationError("capital", "decimal", "capital must be a number")
	}
	return &d, nil
}

// CompanyResponse salida de una empresa.
type CompanyResponse struct {
	ID        int64           `json:"id"`
	Name      string          `json:"name"`
	Service   string          `json:"service"`
	Capital   decimal.Decimal `json:"capital"`
	Price     decimal.Decimal `json:"price"`
	Logo      *string         `json:"logo"`
	UserID    int64           `json:"userId"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

// ToCompanyResponse convierte la entidad en la respuesta.
func ToCompanyResponse(c *entity.Company) *CompanyResponse {
	if c == nil {
		return nil
	}
	return &CompanyResponse{
		ID:        c.ID,
		Name:      c.Name,
		Service:   c.Service,
		Capital:   c.Capital,
		Price:     c.Price,
		Logo:      c.Logo,
		UserID:    c.UserID,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}
