package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/jhoicas/backoffice-api/internal/application/dto"
	"github.com/jhoicas/backoffice-api/internal/application/ports"
	"github.com/jhoicas/backoffice-api/internal/application/usecase"
	"github.com/jhoicas/backoffice-api/internal/domain"
	"github.com/jhoicas/backoffice-api/internal/domain/entity"
	"github.com/jhoicas/backoffice-api/internal/domain/repository"
	"github.com/jhoicas/backoffice-api/pkg/jwt"
)

const resetTokenBytes = 20

// JWTConfig configuración para generación de tokens.
type JWTConfig struct {
	AccessSecret  string
	RefreshSecret string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	Issuer        string
}

// AuthUseCase casos de uso de autenticación: registro, login, refresh y reseteo de contraseña.
type AuthUseCase struct {
	userRepo repository.UserRepository
	tx       ports.TxRunner
	audit    *usecase.ActionLogUseCase
	hasher   ports.PasswordHasher
	jwtCfg   JWTConfig
}

// NewAuthUseCase construye el caso de uso de auth.
func NewAuthUseCase(
	userRepo repository.UserRepository,
	tx ports.TxRunner,
	audit *usecase.ActionLogUseCase,
	hasher ports.PasswordHasher,
	jwtCfg JWTConfig,
) *AuthUseCase {
	return &AuthUseCase{userRepo: userRepo, tx: tx, audit: audit, hasher: hasher, jwtCfg: jwtCfg}
}

// Register crea un usuario con rol "user". Devuelve ErrEmailAlreadyExists si el email ya existe,
// incluidos los usuarios borrados.
func (uc *AuthUseCase) Register(ctx context.Context, in dto.RegisterRequest) (*dto.UserResponse, error) {
	if err := dto.Validate(in); err != nil {
		return nil, err
	}
	u, err := uc.createUser(ctx, in.Email, in.Password, entity.RoleUser)
	if err != nil {
		return nil, err
	}
	return dto.ToUserResponse(u), nil
}

func (uc *AuthUseCase) createUser(ctx context.Context, email, password string, role entity.Role) (*entity.User, error) {
	hash, err := uc.hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	var created *entity.User
	err = uc.tx.Run(ctx, func(uow ports.UnitOfWork) error {
		existing, err := uow.Users().FindByEmail(ctx, email, true)
		if err != nil {
			return err
		}
		if existing != nil {
			return domain.ErrEmailAlreadyExists
		}
		u := entity.NewUser(email, hash, role)
		if err := uow.Users().Save(ctx, u); err != nil {
			return err
		}
		created = u
		_, err = uc.audit.Log(ctx, uow, selfLog(entity.ActionCreate, u, "registered"))
		return err
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// ValidateUser devuelve el usuario si email y password coinciden; (nil, nil) si no.
// Solo los fallos del sistema devuelven error.
func (uc *AuthUseCase) ValidateUser(ctx context.Context, email, password string) (*entity.User, error) {
	u, err := uc.userRepo.FindByEmail(ctx, email, false)
	if err != nil {
		return nil, err
	}
	if u == nil || !uc.hasher.Compare(u.PasswordHash, password) {
		return nil, nil
	}
	return u, nil
}

// IssueTokens firma el par access/refresh para u.
func (uc *AuthUseCase) IssueTokens(u *entity.User) (*dto.TokenPair, error) {
	p := jwt.Payload{UserID: u.ID, Email: u.Email, Role: string(u.Role)}
	access, err := jwt.Generate(uc.jwtCfg.AccessSecret, p, jwt.AccessToken, uc.jwtCfg.Issuer, uc.jwtCfg.AccessTTL)
	if err != nil {
		return nil, err
	}
	refresh, err := jwt.Generate(uc.jwtCfg.RefreshSecret, p, jwt.RefreshToken, uc.jwtCfg.Issuer, uc.jwtCfg.RefreshTTL)
	if err != nil {
		return nil, err
	}
	return &dto.TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// Login verifica las credenciales y emite un par de tokens.
func (uc *AuthUseCase) Login(ctx context.Context, in dto.LoginRequest) (*dto.TokenPair, error) {
	if err := dto.Validate(in); err != nil {
		return nil, err
	}
	u, err := uc.ValidateUser(ctx, in.Email, in.Password)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, domain.ErrInvalidCredentials
	}
	return uc.IssueTokens(u)
}

// Refresh valida el refresh token, recarga el usuario y emite un par nuevo.
func (uc *AuthUseCase) Refresh(ctx context.Context, refreshToken string) (*dto.TokenPair, error) {
	if refreshToken == "" {
		return nil, domain.ErrUnauthorized
	}
	claims, err := jwt.Parse(uc.jwtCfg.RefreshSecret, refreshToken, jwt.RefreshToken)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUnauthorized, err)
	}
	u, err := uc.userRepo.FindByID(ctx, claims.UserID, repository.FindOptions{})
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, domain.ErrUnauthorized
	}
	return uc.IssueTokens(u)
}

// ResetPassword genera y guarda un token de reseteo para email.
func (uc *AuthUseCase) ResetPassword(ctx context.Context, in dto.ResetPasswordRequest) (*dto.ResetPasswordResponse, error) {
	if err := dto.Validate(in); err != nil {
		return nil, err
	}
	token, err := newResetToken()
	if err != nil {
		return nil, err
	}
	err = uc.tx.Run(ctx, func(uow ports.UnitOfWork) error {
		u, err := uow.Users().FindByEmail(ctx, in.Email, false)
		if err != nil {
			return err
		}
		if u == nil {
			return domain.ErrUnauthorized
		}
		u.PasswordResetToken = &token
		u.Touch()
		if err := uow.Users().Save(ctx, u); err != nil {
			return err
		}
		_, err = uc.audit.Log(ctx, uow, selfLog(entity.ActionUpdate, u, "requested password reset for"))
		return err
	})
	if err != nil {
		return nil, err
	}
	return &dto.ResetPasswordResponse{Token: token}, nil
}

// SetPassword reemplaza la contraseña del usuario que tiene token y consume el token.
func (uc *AuthUseCase) SetPassword(ctx context.Context, in dto.SetPasswordRequest) error {
	if err := dto.Validate(in); err != nil {
		return err
	}
	hash, err := uc.hasher.Hash(in.Password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	return uc.tx.Run(ctx, func(uow ports.UnitOfWork) error {
		u, err := uow.Users().FindByResetToken(ctx, in.Token)
		if err != nil {
			return err
		}
		if u == nil {
			return domain.ErrUnauthorized
		}
		ok, err := uow.Users().UpdatePassword(ctx, u.ID, in.Token, hash)
		if err != nil {
			return err
		}
		if !ok {
			return domain.ErrUnauthorized
		}
		_, err = uc.audit.Log(ctx, uow, selfLog(entity.ActionUpdate, u, "set a new password for"))
		return err
	})
}

// EnsureSuperAdmin crea el super admin si no existe. Devuelve true si lo creó.
// Un email ocupado por otro rol es un conflicto.
func (uc *AuthUseCase) EnsureSuperAdmin(ctx context.Context, email, password string) (bool, error) {
	if err := dto.Validate(dto.RegisterRequest{Email: email, Password: password}); err != nil {
		return false, err
	}
	existing, err := uc.userRepo.FindByEmail(ctx, email, true)
	if err != nil {
		return false, err
	}
	if existing != nil {
		if existing.Role == entity.RoleSuperAdmin {
			return false, nil
		}
		return false, fmt.Errorf("%w: %s ya existe con rol %s", domain.ErrConflict, email, existing.Role)
	}
	if _, err := uc.createUser(ctx, email, password, entity.RoleSuperAdmin); err != nil {
		if errors.Is(err, domain.ErrEmailAlreadyExists) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func newResetToken() (string, error) {
	b := make([]byte, resetTokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("reset token: %w", err)
	}
	return hex.EncodeToString(b), nil
}

func selfLog(action entity.LogAction, u *entity.User, verb string) usecase.LogParams {
	id := u.ID
	return usecase.LogParams{
		Action:     action,
		UserID:     u.ID,
		EntityName: entity.EntityUser,
		EntityID:   &id,
		Reason:     fmt.Sprintf("%s %s %s", u.Role, verb, u.Email),
	}
}
