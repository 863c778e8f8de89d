package repository

import (
	"context"
	"time"

	"github.com/jhoicas/backoffice-api/internal/domain/entity"
)

// UserFilter criterios del listado de usuarios.
type UserFilter struct {
	Email     string // coincidencia parcial, sin distinguir mayúsculas
	Username  string
	CreatedOn *time.Time
	Roles     []entity.Role // vacío = todos
	Sort      SortDir       // por id
	Page
}

// UserRepository define el puerto de persistencia para User (DIP).
// Los métodos de lectura devuelven (nil, nil) cuando no hay fila.
type UserRepository interface {
	FindByID(ctx context.Context, id int64, opts FindOptions) (*entity.User, error)
	FindByEmail(ctx context.Context, email string, withDeleted bool) (*entity.User, error)
	FindByResetToken(ctx context.Context, token string) (*entity.User, error)
	List(ctx context.Context, f UserFilter) ([]*entity.User, int, error)
	Save(ctx context.Context, u *entity.User) error
	// UpdatePassword reemplaza el hash y limpia el token de reseteo de la fila que aún tiene token.
	UpdatePassword(ctx context.Context, id int64, token, passwordHash string) (bool, error)
	SoftDelete(ctx context.Context, id int64) error
	Restore(ctx context.Context, id int64) error
}
