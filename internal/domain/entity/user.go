package entity

import (
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Role rol de un usuario; decide qué puede hacer sobre otros usuarios y empresas.
type Role string

// Roles válidos para User.
const (
	RoleUser       Role = "user"
	RoleAdmin      Role = "admin"
	RoleSuperAdmin Role = "super_admin"
)

// Valid indica si r es uno de los roles conocidos.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleAdmin, RoleSuperAdmin:
		return true
	}
	return false
}

// Elevated indica si el rol tiene privilegios de administración.
func (r Role) Elevated() bool {
	return r == RoleAdmin || r == RoleSuperAdmin
}

// User representa una cuenta del sistema. DeletedAt != nil marca el borrado lógico.
type User struct {
	ID                 int64
	Email              string
	Username           string
	PasswordHash       string // bcrypt hash, nunca plano en dominio después de persistir
	Role               Role
	Avatar             *string
	PasswordResetToken *string
	CreatedAt          time.Time
	UpdatedAt          time.Time
	DeletedAt          *time.Time
}

// NewUser instancia un usuario en memoria (sin ID hasta que se persiste).
// El username por defecto es la parte local del email con la primera letra en mayúscula.
func NewUser(email, passwordHash string, role Role) *User {
	if role == "" {
		role = RoleUser
	}
	now := time.Now().UTC()
	return &User{
		Email:        email,
		Username:     DefaultUsername(email),
		PasswordHash: passwordHash,
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// DefaultUsername deriva el username inicial a partir del email: "a.b@x.com" -> "A.b".
func DefaultUsername(email string) string {
	local, _, _ := strings.Cut(email, "@")
	if local == "" {
		return ""
	}
	first, size := utf8.DecodeRuneInString(local)
	return cases.Upper(language.Und).String(string(first)) + local[size:]
}

// IsDeleted indica si el usuario está borrado lógicamente.
func (u *User) IsDeleted() bool {
	return u.DeletedAt != nil
}

// Touch actualiza UpdatedAt.
func (u *User) Touch() {
	u.UpdatedAt = time.Now().UTC()
}
