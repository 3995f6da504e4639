package auth

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"database/sql"
	"encoding/base32"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/pquerna/otp/totp"

	"basecode-go/pkg/model"
)

// TOTPSecretSize is the size of the TOTP secret
const TOTPSecretSize = 20

// GenerateTOTPSecret generates a new random TOTP secret
func GenerateTOTPSecret() (string, error) {
	secret := make([]byte, TOTPSecretSize)
	if _, err := rand.Read(secret); err != nil {
		return "", err
	}

	// Authenticator apps expect unpadded base32
	return base32.StdEncoding.WithPadding(base32.NoPadding).EncodeToString(secret), nil
}

// GenerateTOTPQRCodeURL builds the otpauth:// URL authenticator apps scan
func GenerateTOTPQRCodeURL(secret, accountName, issuer string) string {
	return fmt.Sprintf(
		"otpauth://totp/%s:%s?algorithm=SHA1&digits=6&issuer=%s&period=30&secret=%s",
		url.PathEscape(issuer),
		url.PathEscape(accountName),
		url.QueryEscape(issuer),
		strings.TrimSpace(secret),
	)
}

// ValidateTOTP checks if the provided TOTP code is valid for the given secret
func ValidateTOTP(secret, code string) bool {
	return totp.Validate(strings.TrimSpace(code), secret)
}

// EncryptTOTPSecret seals the TOTP secret with AES-GCM before it is stored
func EncryptTOTPSecret(secret, encryptionKey string) (string, error) {
	gcm, err := newGCM(encryptionKey)
	if err != nil {
		return "", err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", err
	}

	sealed := gcm.Seal(nonce, nonce, []byte(secret), nil)
	return hex.EncodeToString(sealed), nil
}

// DecryptTOTPSecret opens a secret produced by EncryptTOTPSecret
func DecryptTOTPSecret(encryptedSecret sql.NullString, encryptionKey string) (string, error) {
	if !encryptedSecret.Valid {
		return "", ErrTwoFactorNotSetUp
	}

	sealed, err := hex.DecodeString(encryptedSecret.String)
	if err != nil {
		return "", err
	}

	gcm, err := newGCM(encryptionKey)
	if err != nil {
		return "", err
	}
	if len(sealed) < gcm.NonceSize() {
		return "", errors.New("encrypted secret too short")
	}

	nonce, ciphertext := sealed[:gcm.NonceSize()], sealed[gcm.NonceSize():]
	secret, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", err
	}
	return string(secret), nil
}

func newGCM(encryptionKey string) (cipher.AEAD, error) {
	// Create a fixed-size key from the encryption key using SHA-256
	hash := sha256.Sum256([]byte(encryptionKey))
	block, err := aes.NewCipher(hash[:])
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

// SetupTwoFactor stores a fresh authenticator secret for the user. Two-factor
// sign-in stays off until EnableTwoFactor confirms a code.
func (s *AccountService) SetupTwoFactor(ctx context.Context, user *model.AppUser) (*model.TwoFactorSetup, error) {
	secret, err := GenerateTOTPSecret()
	if err != nil {
		return nil, err
	}

	encryptedSecret, err := EncryptTOTPSecret(secret, s.encryptionKey)
	if err != nil {
		return nil, err
	}

	stored := sql.NullString{String: encryptedSecret, Valid: true}
	if err := s.users.UpdateTwoFactor(ctx, user.ID, false, stored); err != nil {
		return nil, err
	}
	user.TwoFactorEnabled = false
	user.TwoFactorSecret = stored

	return &model.TwoFactorSetup{
		Secret:    secret,
		QRCodeURL: GenerateTOTPQRCodeURL(secret, user.Email, s.totpIssuer),
	}, nil
}

// EnableTwoFactor verifies the code against the pending secret and enables two-factor sign-in
func (s *AccountService) EnableTwoFactor(ctx context.Context, user *model.AppUser, code string) error {
	if err := s.verifyCode(user, code); err != nil {
		return err
	}

	if err := s.users.UpdateTwoFactor(ctx, user.ID, true, user.TwoFactorSecret); err != nil {
		return err
	}
	user.TwoFactorEnabled = true
	return nil
}

// DisableTwoFactor turns two-factor sign-in off and forgets the secret
func (s *AccountService) DisableTwoFactor(ctx context.Context, user *model.AppUser) error {
	if err := s.users.UpdateTwoFactor(ctx, user.ID, false, sql.NullString{}); err != nil {
		return err
	}
	user.TwoFactorEnabled = false
	user.TwoFactorSecret = sql.NullString{}
	return nil
}

// SignInTwoFactor completes a sign-in that SignIn answered with SignInRequiresTwoFactor
func (s *AccountService) SignInTwoFactor(ctx context.Context, userID, code string) (*model.AppUser, error) {
	user, err := s.FindUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil || !user.TwoFactorEnabled {
		return nil, ErrInvalidTwoFactorCode
	}

	if err := s.verifyCode(user, code); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *AccountService) verifyCode(user *model.AppUser, code string) error {
	secret, err := DecryptTOTPSecret(user.TwoFactorSecret, s.encryptionKey)
	if err != nil {
		if errors.Is(err, ErrTwoFactorNotSetUp) {
			return err
		}
		return fmt.Errorf("decrypt two-factor secret: %w", err)
	}

	if !ValidateTOTP(secret, code) {
		return ErrInvalidTwoFactorCode
	}
	return nil
}

// BeginTwoFactorSetup returns the pending authenticator secret for the user,
// creating one when none is stored yet.
func (s *AccountService) BeginTwoFactorSetup(ctx context.Context, user *model.AppUser) (*model.TwoFactorSetup, error) {
	if user.TwoFactorEnabled || !user.TwoFactorSecret.Valid {
		return s.SetupTwoFactor(ctx, user)
	}

	secret, err := DecryptTOTPSecret(user.TwoFactorSecret, s.encryptionKey)
	if err != nil {
		// an unreadable secret is replaced
		return s.SetupTwoFactor(ctx, user)
	}
	return &model.TwoFactorSetup{
		Secret:    secret,
		QRCodeURL: GenerateTOTPQRCodeURL(secret, user.Email, s.totpIssuer),
	}, nil
}
