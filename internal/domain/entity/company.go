package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Company empresa registrada en el back-office; siempre pertenece a un único usuario.
type Company struct {
	ID        int64
	Name      string
	Service   string
	Capital   decimal.Decimal
	Price     decimal.Decimal
	Logo      *string
	UserID    int64 // propietario
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewCompany instancia una empresa en memoria para el propietario ownerID.
func NewCompany(ownerID int64, name, service string, capital, price decimal.Decimal) *Company {
	now := time.Now().UTC()
	return &Company{
		Name:      name,
		Service:   service,
		Capital:   capital,
		Price:     price,
		UserID:    ownerID,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// OwnedBy indica si la empresa pertenece al usuario userID.
func (c *Company) OwnedBy(userID int64) bool {
	return c.UserID == userID
}

// Touch actualiza UpdatedAt.
func (c *Company) Touch() {
	c.UpdatedAt = time.Now().UTC()
}
