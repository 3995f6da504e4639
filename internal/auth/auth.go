package auth

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"golang.org/x/crypto/bcrypt"

	"basecode-go/internal/repository"
	"basecode-go/pkg/config"
	"basecode-go/pkg/model"
)

var (
	ErrInvalidToken         = errors.New("invalid token")
	ErrInvalidTwoFactorCode = errors.New("invalid two-factor code")
	ErrTwoFactorNotSetUp    = errors.New("two-factor authentication is not set up")
)

// UserStore is the persistence the account service needs
type UserStore interface {
	FindByID(ctx context.Context, id string) (*model.AppUser, error)
	FindByUserName(ctx context.Context, userName string) (*model.AppUser, error)
	FindByEmail(ctx context.Context, email string) (*model.AppUser, error)
	Create(ctx context.Context, user *model.AppUser) error
	UpdatePassword(ctx context.Context, id, passwordHash, securityStamp string) error
	UpdateTwoFactor(ctx context.Context, id string, enabled bool, secret sql.NullString) error
}

// AccountService handles sign-in, registration and password reset
type AccountService struct {
	users         UserStore
	jwtSecret     []byte
	issuer        string
	sessionTTL    time.Duration
	rememberMeTTL time.Duration
	resetTokenTTL time.Duration
	totpIssuer    string
	encryptionKey string
	hashCost      int
}

// NewAccountService creates a new account service
func NewAccountService(users UserStore, cfg config.AuthConfig) *AccountService {
	return &AccountService{
		users:         users,
		jwtSecret:     []byte(cfg.Secret),
		issuer:        cfg.Issuer,
		sessionTTL:    cfg.SessionTTL,
		rememberMeTTL: cfg.RememberMeTTL,
		resetTokenTTL: cfg.ResetTokenTTL,
		totpIssuer:    cfg.TOTPIssuer,
		encryptionKey: cfg.Secret,
		hashCost:      bcrypt.DefaultCost,
	}
}

// HashPassword creates a bcrypt hash of the password
func HashPassword(password string, cost int) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	return string(bytes), err
}

// CheckPassword compares password with hash
func CheckPassword(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

// SignIn checks the password of the account registered under email.
// Users with an authenticator get SignInRequiresTwoFactor and must finish with SignInTwoFactor.
func (s *AccountService) SignIn(ctx context.Context, email, password string) (model.SignInResult, *model.AppUser, error) {
	user, err := s.FindUserByName(ctx, email)
	if err != nil {
		return model.SignInFailed, nil, err
	}
	if user == nil || !CheckPassword(password, user.PasswordHash) {
		return model.SignInFailed, nil, nil
	}

	if user.TwoFactorEnabled {
		return model.SignInRequiresTwoFactor, user, nil
	}
	return model.SignInSucceeded, user, nil
}

// FindUserByName returns nil when no account has the user name
func (s *AccountService) FindUserByName(ctx context.Context, userName string) (*model.AppUser, error) {
	return orNil(s.users.FindByUserName(ctx, userName))
}

// FindUser returns nil when no account has the e-mail
func (s *AccountService) FindUser(ctx context.Context, email string) (*model.AppUser, error) {
	return orNil(s.users.FindByEmail(ctx, email))
}

// FindUserByID returns nil when no account has the id
func (s *AccountService) FindUserByID(ctx context.Context, id string) (*model.AppUser, error) {
	return orNil(s.users.FindByID(ctx, id))
}

func orNil(user *model.AppUser, err error) (*model.AppUser, error) {
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

// ResetPassword sets a new password when code is a valid reset token for the user.
// The security stamp is rotated, so the token and existing sign-in cookies stop working.
func (s *AccountService) ResetPassword(ctx context.Context, user *model.AppUser, code, password string) (model.IdentityResult, error) {
	claims, err := s.parseToken(code, purposeResetPassword)
	if err != nil || claims.Subject != user.ID || claims.Stamp != user.SecurityStamp {
		return model.IdentityFailed(invalidTokenError()), nil
	}

	if errs := ValidatePassword(password); len(errs) > 0 {
		return model.IdentityFailed(errs...), nil
	}

	hash, err := HashPassword(password, s.hashCost)
	if err != nil {
		return model.IdentityResult{}, err
	}
	stamp := newSecurityStamp()
	if err := s.users.UpdatePassword(ctx, user.ID, hash, stamp); err != nil {
		return model.IdentityResult{}, err
	}

	user.PasswordHash = hash
	user.SecurityStamp = stamp
	return model.IdentitySuccess, nil
}
