package dto

import (
	"time"

	"github.com/jhoicas/backoffice-api/internal/domain"
	"github.com/jhoicas/backoffice-api/internal/domain/entity"
)

// CreateUserRequest alta de usuario desde el panel de administración.
type CreateUserRequest struct {
	Email    string `json:"email" validate:"required,email,min=6,max=320"`
	Password string `json:"password" validate:"required,password"`
	Role     string `json:"role" validate:"omitempty,oneof=user admin"`
}

// UpdateUserRequest cambios de perfil; el avatar llega como archivo multipart aparte.
type UpdateUserRequest struct {
	Username string `json:"username" form:"username" validate:"omitempty,username"`
}

// Check exige un username o un avatar.
func (r UpdateUserRequest) Check(withFile bool) error {
	if r.Username == "" && !withFile {
		return domain.NewValidationError("username", "required", "username is required")
	}
	return Validate(r)
}

// UserQuery filtros del listado de usuarios.
type UserQuery struct {
	Email    string `query:"email" validate:"omitempty,max=320"`
	Username string `query:"username" validate:"omitempty,max=20"`
	PageQuery
}

// UserResponse salida de un usuario (sin hash, sin token de reseteo, sin relaciones).
type UserResponse struct {
	ID        int64      `json:"id"`
	Email     string     `json:"email"`
	Username  string     `json:"username"`
	Role      string     `json:"role"`
	Avatar    *string    `json:"avatar"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
	DeletedAt *time.Time `json:"deletedAt,omitempty"`
}

// ToUserResponse sanea la entidad para la respuesta.
func ToUserResponse(u *entity.User) *UserResponse {
	if u == nil {
		return nil
	}
	return &UserResponse{
		ID:        u.ID,
		Email:     u.Email,
		Username:  u.Username,
		Role:      string(u.Role),
		Avatar:    u.Avatar,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
		DeletedAt: u.DeletedAt,
	}
}
