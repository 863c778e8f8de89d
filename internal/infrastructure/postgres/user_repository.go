package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/backoffice-api/internal/domain"
	"github.com/jhoicas/backoffice-api/internal/domain/entity"
	"github.com/jhoicas/backoffice-api/internal/domain/repository"
)

var _ repository.UserRepository = (*UserRepo)(nil)

var userSchema = &Schema[entity.User]{
	Table: "users",
	Columns: []string{
		"id", "email", "username", "password_hash", "role", "avatar",
		"password_reset_token", "created_at", "updated_at", "deleted_at",
	},
	Writable: []string{
		"email", "username", "password_hash", "role", "avatar",
		"password_reset_token", "created_at", "updated_at",
	},
	SoftDelete: true,
	Scan: func(row pgx.Row) (*entity.User, error) {
		var u entity.User
		err := row.Scan(&u.ID, &u.Email, &u.Username, &u.PasswordHash, &u.Role, &u.Avatar,
			&u.PasswordResetToken, &u.CreatedAt, &u.UpdatedAt, &u.DeletedAt)
		if err != nil {
			return nil, err
		}
		return &u, nil
	},
	Values: func(u *entity.User) []any {
		return []any{u.Email, u.Username, u.PasswordHash, u.Role, u.Avatar,
			u.PasswordResetToken, u.CreatedAt, u.UpdatedAt}
	},
	GetID: func(u *entity.User) int64 { return u.ID },
	SetID: func(u *entity.User, id int64) { u.ID = id },
}

// UserRepo implementación del puerto UserRepository sobre PostgreSQL.
type UserRepo struct {
	store *Store[entity.User]
}

// NewUserRepository construye el adaptador de persistencia para usuarios (pool o tx).
func NewUserRepository(q Querier) *UserRepo {
	return &UserRepo{store: NewStore(q, userSchema)}
}

// FindByID obtiene un usuario por ID; opts permite bloquear la fila o incluir borrados.
func (r *UserRepo) FindByID(ctx context.Context, id int64, opts repository.FindOptions) (*entity.User, error) {
	return r.store.FindOne(ctx, Query{
		Where:       []Condition{Eq("id", id)},
		ForUpdate:   opts.ForUpdate,
		WithDeleted: opts.WithDeleted,
	})
}

// FindByEmail obtiene un usuario por email (comparación exacta).
func (r *UserRepo) FindByEmail(ctx context.Context, email string, withDeleted bool) (*entity.User, error) {
	return r.store.FindOne(ctx, Query{
		Where:       []Condition{Eq("email", email)},
		WithDeleted: withDeleted,
	})
}

// FindByResetToken obtiene el usuario que tiene pendiente el token de reseteo dado.
func (r *UserRepo) FindByResetToken(ctx context.Context, token string) (*entity.User, error) {
	return r.store.FindOne(ctx, Query{Where: []Condition{Eq("password_reset_token", token)}})
}

// List lista usuarios no borrados con filtros, orden por id y paginación.
func (r *UserRepo) List(ctx context.Context, f repository.UserFilter) ([]*entity.User, int, error) {
	var conds []Condition
	if f.Email != "" {
		conds = append(conds, Contains("email", f.Email))
	}
	if f.Username != "" {
		conds = append(conds, Contains("username", f.Username))
	}
	if f.CreatedOn != nil {
		from, to := repository.DayRange(*f.CreatedOn)
		conds = append(conds, Gte("created_at", from), Lt("created_at", to))
	}
	if len(f.Roles) > 0 {
		roles := make([]string, len(f.Roles))
		for i, role := range f.Roles {
			roles[i] = string(role)
		}
		conds = append(conds, Any("role", roles))
	}
	return r.store.FindAndCount(ctx, Query{
		Where:  conds,
		Order:  []Order{{Column: "id", Dir: f.Sort}},
		Limit:  f.Limit,
		Offset: f.Offset,
	})
}

// Save inserta o actualiza el usuario; un email repetido devuelve domain.ErrEmailAlreadyExists.
func (r *UserRepo) Save(ctx context.Context, u *entity.User) error {
	if err := r.store.Save(ctx, u); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return domain.ErrEmailAlreadyExists
		}
		return err
	}
	return nil
}

// UpdatePassword reemplaza el hash y limpia el token solo si la fila sigue teniendo ese token.
func (r *UserRepo) UpdatePassword(ctx context.Context, id int64, token, passwordHash string) (bool, error) {
	n, err := r.store.Update(ctx,
		[]Condition{Eq("id", id), Eq("password_reset_token", token), IsNull("deleted_at")},
		[]Assignment{
			{Column: "password_hash", Value: passwordHash},
			{Column: "password_reset_token", Value: nil},
			{Column: "updated_at", Value: nowUTC()},
		},
	)
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// SoftDelete marca el usuario como borrado.
func (r *UserRepo) SoftDelete(ctx context.Context, id int64) error {
	return r.store.SoftDelete(ctx, id)
}

// Restore revierte el borrado lógico.
func (r *UserRepo) Restore(ctx context.Context, id int64) error {
	return r.store.Restore(ctx, id)
}
