package policy_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jhoicas/backoffice-api/internal/application/policy"
	"github.com/jhoicas/backoffice-api/internal/domain"
	"github.com/jhoicas/backoffice-api/internal/domain/entity"
)

var (
	user       = policy.Actor{ID: 1, Role: entity.RoleUser}
	admin      = policy.Actor{ID: 2, Role: entity.RoleAdmin}
	superAdmin = policy.Actor{ID: 3, Role: entity.RoleSuperAdmin}
)

func TestAllowed_Tabla(t *testing.T) {
	cases := []struct {
		role   entity.Role
		res    policy.Resource
		action policy.Action
		want   bool
	}{
		{entity.RoleUser, policy.Profile, policy.Update, true},
		{entity.RoleUser, policy.Users, policy.List, false},
		{entity.RoleUser, policy.Companies, policy.ListOwn, true},
		{entity.RoleUser, policy.Companies, policy.List, false},
		{entity.RoleUser, policy.Logs, policy.List, false},
		{entity.RoleAdmin, policy.Users, policy.Delete, true},
		{entity.RoleAdmin, policy.Users, policy.Restore, false},
		{entity.RoleAdmin, policy.Companies, policy.List, true},
		{entity.RoleAdmin, policy.Logs, policy.List, false},
		{entity.RoleSuperAdmin, policy.Logs, policy.List, true},
		{entity.RoleSuperAdmin, policy.Logs, policy.Stream, true},
		{entity.RoleSuperAdmin, policy.Users, policy.Restore, true},
		{entity.Role("ghost"), policy.Profile, policy.Read, false},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, policy.Allowed(c.role, c.res, c.action), "%s %s %s", c.role, c.res, c.action)
	}
}

func TestAllowed_AdminNoModificaTablaDeUser(t *testing.T) {
	// El grant de admin extiende el de user; no debe filtrarse hacia user.
	assert.False(t, policy.Allowed(entity.RoleUser, policy.Companies, policy.List))
}

func TestCanAssignRole(t *testing.T) {
	assert.NoError(t, policy.CanAssignRole(admin, entity.RoleUser))
	assert.ErrorIs(t, policy.CanAssignRole(admin, entity.RoleAdmin), domain.ErrForbidden)
	assert.NoError(t, policy.CanAssignRole(superAdmin, entity.RoleAdmin))
	assert.ErrorIs(t, policy.CanAssignRole(superAdmin, entity.RoleSuperAdmin), domain.ErrForbidden)
	assert.ErrorIs(t, policy.CanAssignRole(superAdmin, "root"), domain.ErrInvalidInput)
	assert.ErrorIs(t, policy.CanAssignRole(user, entity.RoleUser), domain.ErrForbidden)
}

func TestCanManageUser(t *testing.T) {
	plain := &entity.User{ID: 10, Role: entity.RoleUser}
	otherAdmin := &entity.User{ID: 11, Role: entity.RoleAdmin}
	root := &entity.User{ID: 12, Role: entity.RoleSuperAdmin}

	assert.NoError(t, policy.CanManageUser(admin, plain))
	assert.ErrorIs(t, policy.CanManageUser(admin, otherAdmin), domain.ErrForbidden)
	assert.NoError(t, policy.CanManageUser(superAdmin, otherAdmin))
	assert.ErrorIs(t, policy.CanManageUser(superAdmin, root), domain.ErrForbidden)
	assert.ErrorIs(t, policy.CanManageUser(user, plain), domain.ErrForbidden)
}

func TestCanDeleteUser_NuncaASiMismo(t *testing.T) {
	for _, a := range []policy.Actor{user, admin, superAdmin} {
		self := &entity.User{ID: a.ID, Role: a.Role}
		err := policy.CanDeleteUser(a, self)
		assert.ErrorIs(t, err, domain.ErrForbidden, "rol %s", a.Role)
		assert.ErrorIs(t, err, domain.ErrSelfDelete)
	}
}

func TestCanAccessCompany(t *testing.T) {
	own := &entity.Company{ID: 1, UserID: user.ID}
	foreign := &entity.Company{ID: 2, UserID: 99}

	assert.NoError(t, policy.CanAccessCompany(user, own))
	assert.ErrorIs(t, policy.CanAccessCompany(user, foreign), domain.ErrForbidden)
	assert.NoError(t, policy.CanAccessCompany(admin, foreign))
	assert.NoError(t, policy.CanAccessCompany(superAdmin, foreign))
}

func TestVisibleRoles(t *testing.T) {
	assert.Equal(t, []entity.Role{entity.RoleUser}, policy.VisibleRoles(admin))
	assert.NotContains(t, policy.VisibleRoles(superAdmin), entity.RoleSuperAdmin)
	assert.Empty(t, policy.VisibleRoles(user))
}
