package usecase

import (
	"context"
	"fmt"

	"github.com/jhoicas/backoffice-api/internal/application/dto"
	"github.com/jhoicas/backoffice-api/internal/application/policy"
	"github.com/jhoicas/backoffice-api/internal/application/ports"
	"github.com/jhoicas/backoffice-api/internal/domain"
	"github.com/jhoicas/backoffice-api/internal/domain/entity"
	"github.com/jhoicas/backoffice-api/internal/domain/repository"
	"github.com/jhoicas/backoffice-api/pkg/logger"
)

// CompanyUseCase aplica reglas de negocio para empresas.
type CompanyUseCase struct {
	repo    repository.CompanyRepository
	folder  string
	mutator *mutationRunner
}

// NewCompanyUseCase construye el caso de uso. folder es la carpeta de logos en el host de medios.
func NewCompanyUseCase(
	repo repository.CompanyRepository,
	tx ports.TxRunner,
	media ports.MediaStorage,
	audit *ActionLogUseCase,
	folder string,
	log *logger.Logger,
) *CompanyUseCase {
	return &CompanyUseCase{
		repo:   repo,
		folder: folder,
		mutator: &mutationRunner{
			tx:    tx,
			media: media,
			audit: audit,
			log:   log.WithComponent("companies"),
		},
	}
}

// Create registra una empresa cuyo propietario es el actor.
func (uc *CompanyUseCase) Create(ctx context.Context, actor policy.Actor, in dto.CreateCompanyRequest) (*dto.CompanyResponse, error) {
	if err := in.Check(); err != nil {
		return nil, err
	}
	var created *entity.Company
	err := uc.mutator.run(ctx, func(m *mutation) error {
		owner, err := m.uow.Users().FindByID(ctx, actor.ID, repository.FindOptions{})
		if err != nil {
			return err
		}
		if owner == nil {
			return domain.ErrUserNotFound
		}
		c := entity.NewCompany(owner.ID, in.Name, in.Service, *in.Capital, *in.Price)
		if err := m.uow.Companies().Save(ctx, c); err != nil {
			return err
		}
		created = c
		return m.audit(companyLog(entity.ActionCreate, actor, c, "created %s"))
	})
	if err != nil {
		return nil, err
	}
	return dto.ToCompanyResponse(created), nil
}

// Get devuelve la empresa id si el actor puede verla.
func (uc *CompanyUseCase) Get(ctx context.Context, actor policy.Actor, id int64) (*dto.CompanyResponse, error) {
	c, err := uc.repo.FindByID(ctx, id, repository.FindOptions{})
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, domain.ErrCompanyNotFound
	}
	if err := policy.CanAccessCompany(actor, c); err != nil {
		return nil, err
	}
	return dto.ToCompanyResponse(c), nil
}

// Update aplica cambios parciales y, si llega, un logo nuevo.
func (uc *CompanyUseCase) Update(ctx context.Context, actor policy.Actor, id int64, in dto.UpdateCompanyRequest, logo *dto.FileUpload) (*dto.CompanyResponse, error) {
	if err := in.Check(logo != nil); err != nil {
		return nil, err
	}
	var updated *entity.Company
	err := uc.mutator.run(ctx, func(m *mutation) error {
		c, err := lockCompany(ctx, m.uow, actor, id)
		if err != nil {
			return err
		}
		if in.Name != nil {
			c.Name = *in.Name
		}
		if in.Service != nil {
			c.Service = *in.Service
		}
		if in.Capital != nil {
			c.Capital = *in.Capital
		}
		if in.Price != nil {
			c.Price = *in.Price
		}
		if logo != nil {
			if err := uc.replaceLogo(m, c, logo); err != nil {
				return err
			}
		}
		c.Touch()
		if err := m.uow.Companies().Save(ctx, c); err != nil {
			return err
		}
		updated = c
		return m.audit(companyLog(entity.ActionUpdate, actor, c, "updated %s"))
	})
	if err != nil {
		return nil, err
	}
	return dto.ToCompanyResponse(updated), nil
}

// ChangeLogo sube un logo nuevo; el anterior se borra tras el commit.
func (uc *CompanyUseCase) ChangeLogo(ctx context.Context, actor policy.Actor, id int64, logo *dto.FileUpload) (*dto.CompanyResponse, error) {
	if logo == nil {
		return nil, domain.NewValidationError("logo", "required", "logo is required")
	}
	var updated *entity.Company
	err := uc.mutator.run(ctx, func(m *mutation) error {
		c, err := lockCompany(ctx, m.uow, actor, id)
		if err != nil {
			return err
		}
		if err := uc.replaceLogo(m, c, logo); err != nil {
			return err
		}
		c.Touch()
		if err := m.uow.Companies().Save(ctx, c); err != nil {
			return err
		}
		updated = c
		return m.audit(companyLog(entity.ActionUpdate, actor, c, "updated %s logo"))
	})
	if err != nil {
		return nil, err
	}
	return dto.ToCompanyResponse(updated), nil
}

// DeleteLogo desvincula el logo; el archivo se borra tras el commit.
func (uc *CompanyUseCase) DeleteLogo(ctx context.Context, actor policy.Actor, id int64) (*dto.CompanyResponse, error) {
	var updated *entity.Company
	err := uc.mutator.run(ctx, func(m *mutation) error {
		c, err := lockCompany(ctx, m.uow, actor, id)
		if err != nil {
			return err
		}
		if c.Logo == nil {
			return domain.ErrLogoMissing
		}
		m.deleteAfterCommit(c.Logo)
		c.Logo = nil
		c.Touch()
		if err := m.uow.Companies().Save(ctx, c); err != nil {
			return err
		}
		updated = c
		return m.audit(companyLog(entity.ActionDelete, actor, c, "deleted %s logo"))
	})
	if err != nil {
		return nil, err
	}
	return dto.ToCompanyResponse(updated), nil
}

// Delete borra la empresa de forma definitiva; el logo se borra tras el commit.
func (uc *CompanyUseCase) Delete(ctx context.Context, actor policy.Actor, id int64) error {
	return uc.mutator.run(ctx, func(m *mutation) error {
		c, err := lockCompany(ctx, m.uow, actor, id)
		if err != nil {
			return err
		}
		if err := m.uow.Companies().Delete(ctx, c.ID); err != nil {
			return err
		}
		m.deleteAfterCommit(c.Logo)
		return m.audit(companyLog(entity.ActionDelete, actor, c, "deleted %s"))
	})
}

// List lista todas las empresas (admin y super admin).
func (uc *CompanyUseCase) List(ctx context.Context, q dto.CompanyQuery) (*dto.ListResponse[dto.CompanyResponse], error) {
	return uc.list(ctx, nil, q)
}

// ListOwn lista las empresas del actor.
func (uc *CompanyUseCase) ListOwn(ctx context.Context, actor policy.Actor, q dto.CompanyQuery) (*dto.ListResponse[dto.CompanyResponse], error) {
	owner := actor.ID
	return uc.list(ctx, &owner, q)
}

func (uc *CompanyUseCase) list(ctx context.Context, owner *int64, q dto.CompanyQuery) (*dto.ListResponse[dto.CompanyResponse], error) {
	if err := dto.Validate(q); err != nil {
		return nil, err
	}
	q.Normalize()
	capital, err := q.CapitalFilter()
	if err != nil {
		return nil, err
	}
	day, err := q.CreatedOn()
	if err != nil {
		return nil, err
	}
	companies, total, err := uc.repo.List(ctx, repository.CompanyFilter{
		OwnerID:     owner,
		Capital:     capital,
		CreatedOn:   day,
		NameSort:    dto.ParseSort(q.Name),
		ServiceSort: dto.ParseSort(q.Service),
		Page:        q.Page(),
	})
	if err != nil {
		return nil, err
	}
	out := make([]dto.CompanyResponse, 0, len(companies))
	for _, c := range companies {
		out = append(out, *dto.ToCompanyResponse(c))
	}
	return dto.NewListResponse(out, total, q.Page()), nil
}

func (uc *CompanyUseCase) replaceLogo(m *mutation, c *entity.Company, logo *dto.FileUpload) error {
	url, err := m.upload(uc.folder, c.ID, logo)
	if err != nil {
		return err
	}
	m.deleteAfterCommit(c.Logo)
	c.Logo = &url
	return nil
}

// lockCompany bloquea la fila y verifica que el actor pueda operar sobre ella.
func lockCompany(ctx context.Context, uow ports.UnitOfWork, actor policy.Actor, id int64) (*entity.Company, error) {
	c, err := uow.Companies().FindByID(ctx, id, repository.FindOptions{ForUpdate: true})
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, domain.ErrCompanyNotFound
	}
	if err := policy.CanAccessCompany(actor, c); err != nil {
		return nil, err
	}
	return c, nil
}

// companyLog arma la entrada de auditoría; reason lleva %s para el nombre de la empresa.
func companyLog(action entity.LogAction, actor policy.Actor, c *entity.Company, reason string) LogParams {
	id := c.ID
	return LogParams{
		Action:     action,
		UserID:     actor.ID,
		CompanyID:  &id,
		EntityName: entity.EntityCompany,
		EntityID:   &id,
		Reason:     string(actor.Role) + " " + fmt.Sprintf(reason, c.Name),
	}
}
