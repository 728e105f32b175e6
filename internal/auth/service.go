package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/marketdesk/marketdesk/internal/users"
	"github.com/marketdesk/marketdesk/pkg/auth/session"
	"github.com/marketdesk/marketdesk/pkg/config"
	"github.com/marketdesk/marketdesk/pkg/db"
	"github.com/marketdesk/marketdesk/pkg/db/models"
	"github.com/marketdesk/marketdesk/pkg/enums"
	pkgerrors "github.com/marketdesk/marketdesk/pkg/errors"
	"github.com/marketdesk/marketdesk/pkg/logger"
	"github.com/marketdesk/marketdesk/pkg/validation"
	"gorm.io/gorm"
)

const (
	invalidCredentialsMessage = "invalid email or password"
	duplicateEmailMessage     = "Email ID already exists"
)

// Service covers account creation and credential checks.
type Service interface {
	Signup(ctx context.Context, input SignupInput) (*users.UserDTO, error)
	Login(ctx context.Context, input LoginInput) (*session.Data, error)
	EnsureBootstrapAdmin(ctx context.Context, cfg config.BootstrapConfig) error
	CreateAccount(ctx context.Context, input CreateAccountInput) (*users.UserDTO, error)
}

type passwordHasher interface {
	Hash(plaintext string) (string, error)
	Verify(plaintext, digest string) bool
}

type txRunner interface {
	DB() *gorm.DB
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// ServiceParams bundles the dependencies required to build an auth service.
type ServiceParams struct {
	DB     txRunner
	Hasher passwordHasher
	Logger *logger.Logger
}

type service struct {
	db     txRunner
	users  *users.Repository
	hasher passwordHasher
	logg   *logger.Logger
}

// NewService constructs the auth service with the provided dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.DB == nil {
		return nil, fmt.Errorf("database client is required")
	}
	if params.Hasher == nil {
		return nil, fmt.Errorf("password hasher is required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	return &service{
		db:     params.DB,
		users:  users.NewRepository(params.DB.DB()),
		hasher: params.Hasher,
		logg:   params.Logger,
	}, nil
}

func (s *service) Signup(ctx context.Context, input SignupInput) (*users.UserDTO, error) {
	input.FullName = strings.TrimSpace(input.FullName)
	input.Email = users.NormalizeEmail(input.Email)
	if err := validation.Struct(input); err != nil {
		return nil, err
	}

	user, err := s.createUser(ctx, users.CreateUserDTO{
		FullName: input.FullName,
		Email:    input.Email,
		Phone:    input.Phone,
		Role:     enums.RoleCustomer,
	}, input.Password)
	if err != nil {
		return nil, err
	}

	logCtx := s.logg.WithUserID(ctx, user.ID)
	s.logg.Info(logCtx, "customer signed up")
	return user, nil
}

func (s *service) Login(ctx context.Context, input LoginInput) (*session.Data, error) {
	if err := validation.Struct(input); err != nil {
		return nil, err
	}

	user, err := s.users.FindByEmail(ctx, input.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup user")
	}
	if !user.IsActive || !s.hasher.Verify(input.Password, user.PasswordHash) {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}

	return &session.Data{
		UserID:      user.ID,
		DisplayName: user.FullName,
		Role:        user.Role.Normalize(),
	}, nil
}

func (s *service) EnsureBootstrapAdmin(ctx context.Context, cfg config.BootstrapConfig) error {
	exists, err := s.users.ExistsByID(ctx, models.BootstrapAdminID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check bootstrap admin")
	}
	if exists {
		return nil
	}

	logCtx := s.logg.WithField(ctx, "email", users.NormalizeEmail(cfg.AdminEmail))
	if cfg.AdminPassword == "" {
		s.logg.Warn(logCtx, "bootstrap admin missing and no password configured; skipping")
		return nil
	}

	var phone *string
	if cfg.AdminPhone != "" {
		phone = &cfg.AdminPhone
	}
	input := CreateAccountInput{
		FullName: strings.TrimSpace(cfg.AdminName),
		Email:    users.NormalizeEmail(cfg.AdminEmail),
		Password: cfg.AdminPassword,
		Phone:    phone,
		Role:     enums.RoleAdmin,
	}
	if err := validation.Struct(input); err != nil {
		return err
	}

	user, err := s.createUser(ctx, users.CreateUserDTO{
		ID:       models.BootstrapAdminID,
		FullName: input.FullName,
		Email:    input.Email,
		Phone:    input.Phone,
		Role:     enums.RoleAdmin,
	}, input.Password)
	if err != nil {
		return err
	}

	s.logg.Info(s.logg.WithUserID(logCtx, user.ID), "bootstrap admin created")
	return nil
}

func (s *service) CreateAccount(ctx context.Context, input CreateAccountInput) (*users.UserDTO, error) {
	input.FullName = strings.TrimSpace(input.FullName)
	input.Email = users.NormalizeEmail(input.Email)
	if err := validation.Struct(input); err != nil {
		return nil, err
	}
	role, err := enums.ParseRole(string(input.Role))
	if err != nil {
		return nil, pkgerrors.Invalid("role", "Role must be one of: admin, seller, customer")
	}

	user, err := s.createUser(ctx, users.CreateUserDTO{
		FullName: input.FullName,
		Email:    input.Email,
		Phone:    input.Phone,
		Role:     role,
	}, input.Password)
	if err != nil {
		return nil, err
	}

	logCtx := s.logg.WithActorRole(s.logg.WithUserID(ctx, user.ID), string(role))
	s.logg.Info(logCtx, "account created")
	return user, nil
}

// createUser hashes the password and inserts the row, mapping both the
// pre-check and a unique-index race to the same duplicate email error.
func (s *service) createUser(ctx context.Context, dto users.CreateUserDTO, password string) (*users.UserDTO, error) {
	digest, err := s.hasher.Hash(password)
	if err != nil {
		if typed := pkgerrors.As(err); typed != nil {
			return nil, typed
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}
	dto.PasswordHash = digest

	var created *users.UserDTO
	err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.users.WithTx(tx)

		if _, err := repo.FindByEmail(ctx, dto.Email); err == nil {
			return pkgerrors.Invalid("email", duplicateEmailMessage)
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check user email")
		}

		user, err := repo.Create(ctx, dto)
		if err != nil {
			if db.IsUniqueViolation(err, "") {
				return pkgerrors.Invalid("email", duplicateEmailMessage)
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create user")
		}
		created = users.FromModel(user)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}
