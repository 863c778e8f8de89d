// Package policy concentra las reglas de autorización: una tabla declarativa
// rol × recurso × acción evaluada antes del handler, más las reglas por fila que
// los casos de uso aplican sobre la fila ya bloqueada.
package policy

import (
	"github.com/jhoicas/backoffice-api/internal/domain"
	"github.com/jhoicas/backoffice-api/internal/domain/entity"
)

// Resource recurso protegido.
type Resource string

const (
	Profile   Resource = "profile"
	Users     Resource = "users"
	Companies Resource = "companies"
	Logs      Resource = "logs"
)

// Action operación sobre un recurso.
type Action string

const (
	Read        Action = "read"
	List        Action = "list"
	ListOwn     Action = "list-own"
	Create      Action = "create"
	Update      Action = "update"
	Delete      Action = "delete"
	DeleteMedia Action = "delete-media"
	Restore     Action = "restore"
	Stream      Action = "stream"
)

type grant map[Resource][]Action

var userGrant = grant{
	Profile:   {Read, Update, DeleteMedia},
	Companies: {Create, Read, Update, Delete, DeleteMedia, ListOwn},
}

var table = map[entity.Role]grant{
	entity.RoleUser: userGrant,
	entity.RoleAdmin: {
		Profile:   userGrant[Profile],
		Users:     {List, Create, Update, Delete},
		Companies: append(append([]Action(nil), userGrant[Companies]...), List),
	},
	entity.RoleSuperAdmin: {
		Profile:   userGrant[Profile],
		Users:     {List, Create, Update, Delete, Restore},
		Companies: append(append([]Action(nil), userGrant[Companies]...), List),
		Logs:      {List, Stream},
	},
}

// Allowed indica si role puede ejecutar action sobre res según la tabla.
func Allowed(role entity.Role, res Resource, action Action) bool {
	for _, a := range table[role][res] {
		if a == action {
			return true
		}
	}
	return false
}

// Actor usuario autenticado que ejecuta la operación.
type Actor struct {
	ID    int64
	Email string
	Role  entity.Role
}

// CanAssignRole verifica que el actor pueda crear usuarios con el rol target.
// Un admin solo crea usuarios "user"; nadie crea super admins por la API.
func CanAssignRole(actor Actor, target entity.Role) error {
	switch {
	case !target.Valid():
		return domain.NewValidationError("role", "enum", "rol inválido")
	case target == entity.RoleSuperAdmin:
		return domain.ErrForbidden
	case actor.Role == entity.RoleSuperAdmin:
		return nil
	case actor.Role == entity.RoleAdmin && target == entity.RoleUser:
		return nil
	}
	return domain.ErrForbidden
}

// CanManageUser verifica que el actor pueda modificar o borrar a target desde el panel de administración.
func CanManageUser(actor Actor, target *entity.User) error {
	if target.Role == entity.RoleSuperAdmin {
		return domain.ErrForbidden
	}
	switch actor.Role {
	case entity.RoleSuperAdmin:
		return nil
	case entity.RoleAdmin:
		if target.Role == entity.RoleUser {
			return nil
		}
	}
	return domain.ErrForbidden
}

// CanDeleteUser agrega a CanManageUser la prohibición de borrarse a sí mismo.
func CanDeleteUser(actor Actor, target *entity.User) error {
	if actor.ID == target.ID {
		return domain.ErrSelfDelete
	}
	return CanManageUser(actor, target)
}

// CanAccessCompany verifica propiedad: un "user" solo accede a sus empresas.
func CanAccessCompany(actor Actor, c *entity.Company) error {
	if actor.Role.Elevated() || c.OwnedBy(actor.ID) {
		return nil
	}
	return domain.ErrForbidden
}

// VisibleRoles roles que el actor puede ver en el listado de usuarios.
func VisibleRoles(actor Actor) []entity.Role {
	switch actor.Role {
	case entity.RoleSuperAdmin:
		return []entity.Role{entity.RoleUser, entity.RoleAdmin}
	case entity.RoleAdmin:
		return []entity.Role{entity.RoleUser}
	}
	return nil
}
