package admins

import (
	"context"
	"fmt"
	"strings"

	"github.com/crestline/estatesite/internal/apierr"
	"github.com/crestline/estatesite/internal/auth"
	"github.com/crestline/estatesite/internal/telemetry/tracing"
	"github.com/crestline/estatesite/pkg"

	log "github.com/sirupsen/logrus"
)

const (
	MinPasswordLength = 8
	// bcrypt refuses anything longer
	MaxPasswordLength = 72
)

var (
	ErrUsernameRequired = apierr.New(apierr.Validation, "username is required")
	ErrInvalidEmail     = apierr.New(apierr.Validation, "a valid email is required")
	ErrPasswordTooShort = apierr.Newf(apierr.Validation, "password must be at least %d characters", MinPasswordLength)
	ErrPasswordTooLong  = apierr.Newf(apierr.Validation, "password must be at most %d bytes", MaxPasswordLength)
	ErrInvalidRole      = apierr.New(apierr.Validation, "role must be admin or super_admin")
	ErrAccountExists    = apierr.New(apierr.Conflict, "username or email already exists")
	ErrUsernameTaken    = apierr.New(apierr.Conflict, "username already exists")
	ErrEmailTaken       = apierr.New(apierr.Conflict, "email already exists")
	ErrLastSuperAdmin   = auth.ErrLastSuperAdmin
	ErrDeleteOwnAccount = apierr.New(apierr.Conflict, "you cannot delete your own account")
)

//go:generate mockgen -source=service.go -destination=service_mocks_test.go -package=admins_test

type accountsRepo interface {
	List(ctx context.Context) ([]auth.Account, error)
	GetByID(ctx context.Context, id int) (*auth.Account, error)
	Create(ctx context.Context, account *auth.Account) (*auth.Account, error)
	Update(ctx context.Context, account *auth.Account) error
	Delete(ctx context.Context, id int) error
	CountActiveSuperAdmins(ctx context.Context) (int, error)
}

type CreateAccountRequest struct {
	Username string    `json:"username"`
	Email    string    `json:"email"`
	Password string    `json:"password"`
	Role     auth.Role `json:"role"`
	FullName string    `json:"fullName"`
}

// UpdateAccountRequest carries only the fields to change.
type UpdateAccountRequest struct {
	Email    *string    `json:"email"`
	FullName *string    `json:"fullName"`
	Role     *auth.Role `json:"role"`
	IsActive *bool      `json:"isActive"`
	Password *string    `json:"password"`
}

type Service struct {
	repo         accountsRepo
	passwordCost int
}

func NewService(repo accountsRepo, passwordCost int) *Service {
	if passwordCost <= 0 {
		passwordCost = pkg.DefaultPasswordHashCost
	}
	return &Service{
		repo:         repo,
		passwordCost: passwordCost,
	}
}

func (s *Service) List(ctx context.Context) ([]auth.Account, error) {
	accounts, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	return accounts, nil
}

func (s *Service) Get(ctx context.Context, id int) (*auth.Account, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) Create(ctx context.Context, req CreateAccountRequest) (*auth.Account, error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.admins.create")
	var err error
	defer func() { tracing.EndSpanWithErrCheck(span, err) }()

	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(req.Email)
	if req.Role == "" {
		req.Role = auth.RoleAdmin
	}
	if err = validateCreate(req); err != nil {
		return nil, err
	}

	hash, err := pkg.HashPasswordWithCost(req.Password, s.passwordCost)
	if err != nil {
		err = fmt.Errorf("hash password: %w", err)
		return nil, err
	}

	account, err := s.repo.Create(ctx, &auth.Account{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: hash,
		Role:         req.Role,
		FullName:     strings.TrimSpace(req.FullName),
		IsActive:     true,
	})
	if err != nil {
		if pkg.IsUniqueViolationError(err) {
			err = conflictError(err)
			return nil, err
		}
		err = fmt.Errorf("create account: %w", err)
		return nil, err
	}

	log.Infof("admin account created: %d [%s] role [%s]", account.ID, account.Username, account.Role)
	return account, nil
}

func (s *Service) Update(ctx context.Context, id int, req UpdateAccountRequest) (*auth.Account, error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.admins.update")
	var err error
	defer func() { tracing.EndSpanWithErrCheck(span, err) }()

	if err = validateUpdate(req); err != nil {
		return nil, err
	}

	account, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	updated := *account
	updated.PasswordHash = ""
	if req.Email != nil {
		updated.Email = strings.TrimSpace(*req.Email)
	}
	if req.FullName != nil {
		updated.FullName = strings.TrimSpace(*req.FullName)
	}
	if req.Role != nil {
		updated.Role = *req.Role
	}
	if req.IsActive != nil {
		updated.IsActive = *req.IsActive
	}
	if req.Password != nil && *req.Password != "" {
		updated.PasswordHash, err = pkg.HashPasswordWithCost(*req.Password, s.passwordCost)
		if err != nil {
			err = fmt.Errorf("hash password: %w", err)
			return nil, err
		}
	}

	if err = s.guardLastSuperAdmin(ctx, account, &updated); err != nil {
		return nil, err
	}

	if err = s.repo.Update(ctx, &updated); err != nil {
		if pkg.IsUniqueViolationError(err) {
			err = conflictError(err)
		}
		return nil, err
	}

	log.Infof("admin account updated: %d [%s]", updated.ID, updated.Username)
	updated.PasswordHash = ""
	return &updated, nil
}

func (s *Service) ToggleActive(ctx context.Context, id int) (*auth.Account, error) {
	account, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	isActive := !account.IsActive
	return s.Update(ctx, id, UpdateAccountRequest{IsActive: &isActive})
}

func (s *Service) Delete(ctx context.Context, actor auth.Identity, id int) error {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.admins.delete")
	var err error
	defer func() { tracing.EndSpanWithErrCheck(span, err) }()

	if actor.AccountID == id {
		err = ErrDeleteOwnAccount
		return err
	}

	account, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err = s.guardLastSuperAdmin(ctx, account, nil); err != nil {
		return err
	}

	if err = s.repo.Delete(ctx, id); err != nil {
		return err
	}

	log.Warnf("admin account deleted: %d [%s] by %d", id, account.Username, actor.AccountID)
	return nil
}

// guardLastSuperAdmin rejects changes that would leave no active super_admin.
// A nil after means the account is being deleted. The repo repeats the check
// under a row lock, this one answers early without opening a transaction.
func (s *Service) guardLastSuperAdmin(ctx context.Context, before, after *auth.Account) error {
	if before.Role != auth.RoleSuperAdmin || !before.IsActive {
		return nil
	}
	if after != nil && after.Role == auth.RoleSuperAdmin && after.IsActive {
		return nil
	}

	count, err := s.repo.CountActiveSuperAdmins(ctx)
	if err != nil {
		return fmt.Errorf("count super admins: %w", err)
	}
	if count <= 1 {
		return ErrLastSuperAdmin
	}
	return nil
}

func conflictError(err error) error {
	switch pkg.UniqueViolationConstraint(err) {
	case "admin_account_username_key":
		return ErrUsernameTaken
	case "admin_account_email_key":
		return ErrEmailTaken
	default:
		return ErrAccountExists
	}
}

func validateCreate(req CreateAccountRequest) error {
	if req.Username == "" {
		return ErrUsernameRequired
	}
	if !pkg.IsEmail(req.Email) {
		return ErrInvalidEmail
	}
	if err := validatePassword(req.Password); err != nil {
		return err
	}
	if !req.Role.Valid() {
		return ErrInvalidRole
	}
	return nil
}

func validateUpdate(req UpdateAccountRequest) error {
	if req.Email != nil && !pkg.IsEmail(strings.TrimSpace(*req.Email)) {
		return ErrInvalidEmail
	}
	if req.Role != nil && !req.Role.Valid() {
		return ErrInvalidRole
	}
	if req.Password != nil && *req.Password != "" {
		return validatePassword(*req.Password)
	}
	return nil
}

func validatePassword(password string) error {
	switch {
	case len(password) < MinPasswordLength:
		return ErrPasswordTooShort
	case len(password) > MaxPasswordLength:
		return ErrPasswordTooLong
	}
	return nil
}
