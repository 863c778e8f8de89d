package usecase_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"github.com/jhoicas/backoffice-api/internal/application/auth"
	"github.com/jhoicas/backoffice-api/internal/application/dto"
	"github.com/jhoicas/backoffice-api/internal/application/policy"
	"github.com/jhoicas/backoffice-api/internal/application/usecase"
	"github.com/jhoicas/backoffice-api/internal/domain/entity"
	"github.com/jhoicas/backoffice-api/internal/testutil/memstore"
	"github.com/jhoicas/backoffice-api/pkg/logger"
)

type env struct {
	ctx       context.Context
	store     *memstore.Store
	media     *memstore.Media
	pub       *memstore.Publisher
	audit     *usecase.ActionLogUseCase
	users     *usecase.UserUseCase
	companies *usecase.CompanyUseCase
}

func newEnv(t *testing.T) *env {
	t.Helper()
	store := memstore.New()
	media := memstore.NewMedia()
	pub := memstore.NewPublisher()
	log := logger.Nop()
	audit := usecase.NewActionLogUseCase(store.Logs(), store, pub, log)
	return &env{
		ctx:       context.Background(),
		store:     store,
		media:     media,
		pub:       pub,
		audit:     audit,
		users:     usecase.NewUserUseCase(store.Users(), store, media, audit, auth.BcryptHasher{Cost: bcrypt.MinCost}, "avatars", log),
		companies: usecase.NewCompanyUseCase(store.Companies(), store, media, audit, "logos", log),
	}
}

func (e *env) putUser(email string, role entity.Role) policy.Actor {
	u := e.store.PutUser(entity.User{Email: email, Username: entity.DefaultUsername(email), Role: role})
	return policy.Actor{ID: u.ID, Email: u.Email, Role: u.Role}
}

func (e *env) putCompany(owner policy.Actor, name string, logo *string) entity.Company {
	return e.store.PutCompany(entity.Company{
		Name:    name,
		Service: "consulting",
		Capital: decimal.NewFromInt(1000),
		Price:   decimal.RequireFromString("99.90"),
		UserID:  owner.ID,
		Logo:    logo,
	})
}

func strPtr(s string) *string { return &s }

func pngUpload() *dto.FileUpload {
	return &dto.FileUpload{Path: "/tmp/upload.png", ContentType: "image/png"}
}
