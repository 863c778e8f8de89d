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

// UserUseCase aplica reglas de negocio para usuarios: perfil propio y panel de administración.
type UserUseCase struct {
	repo    repository.UserRepository
	hasher  ports.PasswordHasher
	folder  string
	mutator *mutationRunner
}

// NewUserUseCase construye el caso de uso. folder es la carpeta de avatares en el host de medios.
func NewUserUseCase(
	repo repository.UserRepository,
	tx ports.TxRunner,
	media ports.MediaStorage,
	audit *ActionLogUseCase,
	hasher ports.PasswordHasher,
	folder string,
	log *logger.Logger,
) *UserUseCase {
	return &UserUseCase{
		repo:   repo,
		hasher: hasher,
		folder: folder,
		mutator: &mutationRunner{
			tx:    tx,
			media: media,
			audit: audit,
			log:   log.WithComponent("users"),
		},
	}
}

// GetMe devuelve el perfil del actor.
func (uc *UserUseCase) GetMe(ctx context.Context, actor policy.Actor) (*dto.UserResponse, error) {
	u, err := uc.repo.FindByID(ctx, actor.ID, repository.FindOptions{})
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, domain.ErrUserNotFound
	}
	return dto.ToUserResponse(u), nil
}

// List lista los usuarios visibles para el actor: un admin solo ve "user" y nadie ve super admins.
func (uc *UserUseCase) List(ctx context.Context, actor policy.Actor, q dto.UserQuery) (*dto.ListResponse[dto.UserResponse], error) {
	roles := policy.VisibleRoles(actor)
	if len(roles) == 0 {
		return nil, domain.ErrForbidden
	}
	if err := dto.Validate(q); err != nil {
		return nil, err
	}
	q.Normalize()
	day, err := q.CreatedOn()
	if err != nil {
		return nil, err
	}
	users, total, err := uc.repo.List(ctx, repository.UserFilter{
		Email:     q.Email,
		Username:  q.Username,
		CreatedOn: day,
		Roles:     roles,
		Sort:      q.SortDir(),
		Page:      q.Page(),
	})
	if err != nil {
		return nil, err
	}
	out := make([]dto.UserResponse, 0, len(users))
	for _, u := range users {
		out = append(out, *dto.ToUserResponse(u))
	}
	return dto.NewListResponse(out, total, q.Page()), nil
}

// Create da de alta un usuario desde el panel. El email no puede existir, ni siquiera borrado.
func (uc *UserUseCase) Create(ctx context.Context, actor policy.Actor, in dto.CreateUserRequest) (*dto.UserResponse, error) {
	if err := dto.Validate(in); err != nil {
		return nil, err
	}
	role := entity.Role(in.Role)
	if role == "" {
		role = entity.RoleUser
	}
	if err := policy.CanAssignRole(actor, role); err != nil {
		return nil, err
	}
	hash, err := uc.hasher.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	var created *entity.User
	err = uc.mutator.run(ctx, func(m *mutation) error {
		users := m.uow.Users()
		existing, err := users.FindByEmail(ctx, in.Email, true)
		if err != nil {
			return err
		}
		if existing != nil {
			return domain.ErrEmailAlreadyExists
		}
		u := entity.NewUser(in.Email, hash, role)
		if err := users.Save(ctx, u); err != nil {
			return err
		}
		created = u
		return m.audit(userLog(entity.ActionCreate, actor, u, "created %s"))
	})
	if err != nil {
		return nil, err
	}
	return dto.ToUserResponse(created), nil
}

// UpdateProfile cambia el username y/o el avatar del propio actor.
func (uc *UserUseCase) UpdateProfile(ctx context.Context, actor policy.Actor, in dto.UpdateUserRequest, avatar *dto.FileUpload) (*dto.UserResponse, error) {
	return uc.update(ctx, actor, actor.ID, in, avatar, true)
}

// UpdateUser cambia otro usuario desde el panel; un admin solo modifica usuarios "user".
func (uc *UserUseCase) UpdateUser(ctx context.Context, actor policy.Actor, targetID int64, in dto.UpdateUserRequest, avatar *dto.FileUpload) (*dto.UserResponse, error) {
	return uc.update(ctx, actor, targetID, in, avatar, false)
}

func (uc *UserUseCase) update(ctx context.Context, actor policy.Actor, targetID int64, in dto.UpdateUserRequest, avatar *dto.FileUpload, self bool) (*dto.UserResponse, error) {
	if err := in.Check(avatar != nil); err != nil {
		return nil, err
	}
	var updated *entity.User
	err := uc.mutator.run(ctx, func(m *mutation) error {
		u, err := lockUser(ctx, m.uow, targetID)
		if err != nil {
			return err
		}
		if !self {
			if err := policy.CanManageUser(actor, u); err != nil {
				return err
			}
		}
		if in.Username != "" {
			u.Username = in.Username
		}
		if avatar != nil {
			if err := uc.replaceAvatar(m, u, avatar); err != nil {
				return err
			}
		}
		u.Touch()
		if err := m.uow.Users().Save(ctx, u); err != nil {
			return err
		}
		updated = u
		return m.audit(userLog(entity.ActionUpdate, actor, u, "updated %s"))
	})
	if err != nil {
		return nil, err
	}
	return dto.ToUserResponse(updated), nil
}

// ChangeAvatar sube un avatar nuevo para el actor; el anterior se borra tras el commit.
func (uc *UserUseCase) ChangeAvatar(ctx context.Context, actor policy.Actor, avatar *dto.FileUpload) (*dto.UserResponse, error) {
	if avatar == nil {
		return nil, domain.NewValidationError("avatar", "required", "avatar is required")
	}
	var updated *entity.User
	err := uc.mutator.run(ctx, func(m *mutation) error {
		u, err := lockUser(ctx, m.uow, actor.ID)
		if err != nil {
			return err
		}
		if err := uc.replaceAvatar(m, u, avatar); err != nil {
			return err
		}
		u.Touch()
		if err := m.uow.Users().Save(ctx, u); err != nil {
			return err
		}
		updated = u
		return m.audit(userLog(entity.ActionUpdate, actor, u, "updated avatar of %s"))
	})
	if err != nil {
		return nil, err
	}
	return dto.ToUserResponse(updated), nil
}

// DeleteAvatar desvincula el avatar del actor; el archivo se borra tras el commit.
func (uc *UserUseCase) DeleteAvatar(ctx context.Context, actor policy.Actor) (*dto.UserResponse, error) {
	var updated *entity.User
	err := uc.mutator.run(ctx, func(m *mutation) error {
		u, err := lockUser(ctx, m.uow, actor.ID)
		if err != nil {
			return err
		}
		if u.Avatar == nil {
			return domain.ErrAvatarMissing
		}
		m.deleteAfterCommit(u.Avatar)
		u.Avatar = nil
		u.Touch()
		if err := m.uow.Users().Save(ctx, u); err != nil {
			return err
		}
		updated = u
		return m.audit(userLog(entity.ActionDelete, actor, u, "deleted avatar of %s"))
	})
	if err != nil {
		return nil, err
	}
	return dto.ToUserResponse(updated), nil
}

// Delete borra lógicamente a targetID. Nadie puede borrarse a sí mismo.
func (uc *UserUseCase) Delete(ctx context.Context, actor policy.Actor, targetID int64) error {
	if actor.ID == targetID {
		return domain.ErrSelfDelete
	}
	return uc.mutator.run(ctx, func(m *mutation) error {
		u, err := lockUser(ctx, m.uow, targetID)
		if err != nil {
			return err
		}
		if err := policy.CanDeleteUser(actor, u); err != nil {
			return err
		}
		if err := m.uow.Users().SoftDelete(ctx, u.ID); err != nil {
			return err
		}
		return m.audit(userLog(entity.ActionDelete, actor, u, "deleted %s"))
	})
}

// Restore deshace el borrado lógico de targetID. Conflict si el usuario no estaba borrado.
func (uc *UserUseCase) Restore(ctx context.Context, actor policy.Actor, targetID int64) (*dto.UserResponse, error) {
	var restored *entity.User
	err := uc.mutator.run(ctx, func(m *mutation) error {
		users := m.uow.Users()
		u, err := users.FindByID(ctx, targetID, repository.FindOptions{ForUpdate: true, WithDeleted: true})
		if err != nil {
			return err
		}
		if u == nil {
			return domain.ErrUserNotFound
		}
		if err := policy.CanManageUser(actor, u); err != nil {
			return err
		}
		if !u.IsDeleted() {
			return fmt.Errorf("%w: el usuario no está borrado", domain.ErrConflict)
		}
		if err := users.Restore(ctx, u.ID); err != nil {
			return err
		}
		u.DeletedAt = nil
		restored = u
		return m.audit(userLog(entity.ActionUpdate, actor, u, "restored %s"))
	})
	if err != nil {
		return nil, err
	}
	return dto.ToUserResponse(restored), nil
}

func (uc *UserUseCase) replaceAvatar(m *mutation, u *entity.User, avatar *dto.FileUpload) error {
	url, err := m.upload(uc.folder, u.ID, avatar)
	if err != nil {
		return err
	}
	m.deleteAfterCommit(u.Avatar)
	u.Avatar = &url
	return nil
}

func lockUser(ctx context.Context, uow ports.UnitOfWork, id int64) (*entity.User, error) {
	u, err := uow.Users().FindByID(ctx, id, repository.FindOptions{ForUpdate: true})
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, domain.ErrUserNotFound
	}
	return u, nil
}

// userLog arma la entrada de auditoría; reason lleva %s para el email del usuario afectado.
func userLog(action entity.LogAction, actor policy.Actor, target *entity.User, reason string) LogParams {
	id := target.ID
	return LogParams{
		Action:     action,
		UserID:     actor.ID,
		EntityName: entity.EntityUser,
		EntityID:   &id,
		Reason:     string(actor.Role) + " " + fmt.Sprintf(reason, target.Email),
	}
}
