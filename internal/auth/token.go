package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"basecode-go/pkg/model"
)

const (
	purposeSession       = "Session"
	purposeTwoFactor     = "TwoFactor"
	purposeResetPassword = "ResetPassword"

	twoFactorTokenTTL = 5 * time.Minute
)

// tokenClaims is the payload of every token the service signs. Purpose keeps a
// token minted for one flow from being accepted by another.
type tokenClaims struct {
	Purpose    string `json:"purpose"`
	Email      string `json:"email,omitempty"`
	Stamp      string `json:"stamp,omitempty"`
	RememberMe bool   `json:"remember_me,omitempty"`
	jwt.RegisteredClaims
}

// AuthTicket is a signed sign-in cookie value
type AuthTicket struct {
	Token string
	// Persistent tickets survive a browser restart
	Persistent bool
	ExpiresAt  time.Time
}

// IssueAuthTicket signs the sign-in cookie for user
func (s *AccountService) IssueAuthTicket(user *model.AppUser, rememberMe bool) (*AuthTicket, error) {
	ttl := s.sessionTTL
	if rememberMe {
		ttl = s.rememberMeTTL
	}
	expiresAt := time.Now().Add(ttl)

	token, err := s.sign(tokenClaims{
		Purpose:          purposeSession,
		Email:            user.Email,
		Stamp:            user.SecurityStamp,
		RegisteredClaims: s.registered(user.ID, expiresAt),
	})
	if err != nil {
		return nil, err
	}
	return &AuthTicket{Token: token, Persistent: rememberMe, ExpiresAt: expiresAt}, nil
}

// Authenticate resolves a sign-in cookie to its user. A changed security stamp
// (password reset) invalidates the cookie.
func (s *AccountService) Authenticate(ctx context.Context, token string) (*model.AppUser, error) {
	claims, err := s.parseToken(token, purposeSession)
	if err != nil {
		return nil, err
	}

	user, err := s.FindUserByID(ctx, claims.Subject)
	if err != nil {
		return nil, err
	}
	if user == nil || user.SecurityStamp != claims.Stamp {
		return nil, ErrInvalidToken
	}
	return user, nil
}

// IssueTwoFactorTicket signs the short-lived cookie carried between the password and authenticator steps
func (s *AccountService) IssueTwoFactorTicket(user *model.AppUser, rememberMe bool) (string, error) {
	return s.sign(tokenClaims{
		Purpose:          purposeTwoFactor,
		Stamp:            user.SecurityStamp,
		RememberMe:       rememberMe,
		RegisteredClaims: s.registered(user.ID, time.Now().Add(twoFactorTokenTTL)),
	})
}

// ParseTwoFactorTicket returns the user id and remember-me choice of a two-factor ticket
func (s *AccountService) ParseTwoFactorTicket(token string) (string, bool, error) {
	claims, err := s.parseToken(token, purposeTwoFactor)
	if err != nil {
		return "", false, err
	}
	return claims.Subject, claims.RememberMe, nil
}

// GeneratePasswordResetToken returns a one-day token bound to the user's current security stamp
func (s *AccountService) GeneratePasswordResetToken(user *model.AppUser) (string, error) {
	return s.sign(tokenClaims{
		Purpose:          purposeResetPassword,
		Stamp:            user.SecurityStamp,
		RegisteredClaims: s.registered(user.ID, time.Now().Add(s.resetTokenTTL)),
	})
}

func (s *AccountService) registered(subject string, expiresAt time.Time) jwt.RegisteredClaims {
	now := time.Now()
	return jwt.RegisteredClaims{
		Issuer:    s.issuer,
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}
}

func (s *AccountService) sign(claims tokenClaims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("sign %s token: %w", claims.Purpose, err)
	}
	return signed, nil
}

func (s *AccountService) parseToken(token, purpose string) (*tokenClaims, error) {
	claims := &tokenClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return s.jwtSecret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if claims.Purpose != purpose || claims.Subject == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
