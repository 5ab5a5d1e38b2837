package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/crestline/estatesite/internal/apierr"
	"github.com/crestline/estatesite/internal/telemetry/tracing"
	"github.com/crestline/estatesite/pkg"

	log "github.com/sirupsen/logrus"
)

var (
	ErrInvalidCredentials = apierr.New(apierr.Unauthenticated, "invalid username or password")
	ErrMissingCredentials = apierr.New(apierr.Validation, "username and password are required")
)

//go:generate mockgen -source=service.go -destination=service_mocks_test.go -package=auth_test

type accountsStore interface {
	GetByUsername(ctx context.Context, username string) (*Account, error)
	GetByID(ctx context.Context, id int) (*Account, error)
	TouchLastLogin(ctx context.Context, id int, at time.Time) error
}

type LoginResult struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
	User      *Account  `json:"user"`
}

type Service struct {
	accounts     accountsStore
	tokens       *TokenManager
	passwordCost int
	now          func() time.Time

	dummyHashOnce sync.Once
	dummyHash     string
}

func NewService(accounts accountsStore, tokens *TokenManager, passwordCost int) *Service {
	if passwordCost <= 0 {
		passwordCost = pkg.DefaultPasswordHashCost
	}
	return &Service{
		accounts:     accounts,
		tokens:       tokens,
		passwordCost: passwordCost,
		now:          time.Now,
	}
}

// Login checks the credentials and issues a session token. Unknown, inactive and
// wrong-password accounts fail the same way and cost one bcrypt comparison each.
func (s *Service) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.auth.login")
	var err error
	defer func() { tracing.EndSpanWithErrCheck(span, err) }()

	if username == "" || password == "" {
		err = ErrMissingCredentials
		return nil, err
	}

	account, err := s.accounts.GetByUsername(ctx, username)
	if err != nil {
		if !errors.Is(err, ErrAccountNotFound) {
			err = fmt.Errorf("get account: %w", err)
			return nil, err
		}
		pkg.CheckPasswordHash(password, s.getDummyHash())
		log.Tracef("login for unknown user [%s]", username)
		err = ErrInvalidCredentials
		return nil, err
	}

	passwordOK := pkg.CheckPasswordHash(password, account.PasswordHash)
	if !passwordOK || !account.IsActive {
		log.Tracef("login rejected for [%s], password ok: %t, active: %t", username, passwordOK, account.IsActive)
		err = ErrInvalidCredentials
		return nil, err
	}

	loginAt := s.now()
	if touchErr := s.accounts.TouchLastLogin(ctx, account.ID, loginAt); touchErr != nil {
		log.Errorf("update last login for account %d: %s", account.ID, touchErr)
	} else {
		account.LastLoginAt = &loginAt
	}

	token, expiresAt, err := s.tokens.Issue(account)
	if err != nil {
		return nil, err
	}

	log.Infof("admin [%s] logged in, session valid until %s", account.Username, expiresAt)
	return &LoginResult{
		Token:     token,
		ExpiresAt: expiresAt,
		User:      account,
	}, nil
}

// Logout has nothing to revoke, tokens simply expire.
func (s *Service) Logout(_ context.Context, identity Identity) {
	log.Infof("admin account %d logged out", identity.AccountID)
}

// Authenticate verifies a bearer token.
func (s *Service) Authenticate(_ context.Context, token string) (Identity, error) {
	claims, err := s.tokens.Verify(token)
	if err != nil {
		return Identity{}, err
	}
	return Identity{
		AccountID: claims.AccountID,
		Role:      claims.Role,
	}, nil
}

// CurrentAccount loads the account behind a verified identity.
// Deleted or deactivated accounts no longer hold a valid session.
func (s *Service) CurrentAccount(ctx context.Context, identity Identity) (*Account, error) {
	account, err := s.accounts.GetByID(ctx, identity.AccountID)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, fmt.Errorf("get account: %w", err)
	}
	if !account.IsActive {
		return nil, ErrInvalidToken
	}
	return account, nil
}

func (s *Service) getDummyHash() string {
	s.dummyHashOnce.Do(func() {
		hash, err := pkg.HashPasswordWithCost("not-a-real-password", s.passwordCost)
		if err != nil {
			log.Errorf("generate dummy password hash: %s", err)
			return
		}
		s.dummyHash = hash
	})
	return s.dummyHash
}
