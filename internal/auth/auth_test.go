package auth

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/pquerna/otp/totp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"basecode-go/internal/repository"
	"basecode-go/pkg/config"
	"basecode-go/pkg/model"
)

type mockUserStore struct {
	mock.Mock
}

func (m *mockUserStore) FindByID(ctx context.Context, id string) (*model.AppUser, error) {
	args := m.Called(ctx, id)
	user, _ := args.Get(0).(*model.AppUser)
	return user, args.Error(1)
}

func (m *mockUserStore) FindByUserName(ctx context.Context, userName string) (*model.AppUser, error) {
	args := m.Called(ctx, userName)
	user, _ := args.Get(0).(*model.AppUser)
	return user, args.Error(1)
}

func (m *mockUserStore) FindByEmail(ctx context.Context, email string) (*model.AppUser, error) {
	args := m.Called(ctx, email)
	user, _ := args.Get(0).(*model.AppUser)
	return user, args.Error(1)
}

func (m *mockUserStore) Create(ctx context.Context, user *model.AppUser) error {
	return m.Called(ctx, user).Error(0)
}

func (m *mockUserStore) UpdatePassword(ctx context.Context, id, passwordHash, securityStamp string) error {
	return m.Called(ctx, id, passwordHash, securityStamp).Error(0)
}

func (m *mockUserStore) UpdateTwoFactor(ctx context.Context, id string, enabled bool, secret sql.NullString) error {
	return m.Called(ctx, id, enabled, secret).Error(0)
}

func newTestService(t *testing.T) (*AccountService, *mockUserStore) {
	t.Helper()
	store := &mockUserStore{}
	svc := NewAccountService(store, config.AuthConfig{
		Secret:        "test-secret",
		Issuer:        "basecode-test",
		SessionTTL:    time.Hour,
		RememberMeTTL: 14 * 24 * time.Hour,
		ResetTokenTTL: 24 * time.Hour,
		TOTPIssuer:    "BaseCode",
	})
	svc.hashCost = bcrypt.MinCost
	t.Cleanup(func() { store.AssertExpectations(t) })
	return svc, store
}

func newTestUser(t *testing.T, password string) *model.AppUser {
	t.Helper()
	hash, err := HashPassword(password, bcrypt.MinCost)
	require.NoError(t, err)
	return &model.AppUser{
		ID:            "user-1",
		UserName:      "ada@example.com",
		Email:         "ada@example.com",
		PasswordHash:  hash,
		SecurityStamp: "STAMP1",
	}
}

func descriptions(r model.IdentityResult) []string {
	var out []string
	for _, e := range r.Errors {
		out = append(out, e.Description)
	}
	return out
}

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		password string
		want     []string
	}{
		{"Passw0rd!", nil},
		{"Pa0!", []string{"PasswordTooShort"}},
		{"password", []string{"PasswordRequiresNonAlphanumeric", "PasswordRequiresDigit", "PasswordRequiresUpper"}},
		{"PASSWORD1!", []string{"PasswordRequiresLower"}},
		{"", []string{"PasswordTooShort", "PasswordRequiresNonAlphanumeric", "PasswordRequiresDigit", "PasswordRequiresLower", "PasswordRequiresUpper"}},
	}

	for _, tt := range tests {
		t.Run(tt.password, func(t *testing.T) {
			var codes []string
			for _, e := range ValidatePassword(tt.password) {
				codes = append(codes, e.Code)
			}
			assert.Equal(t, tt.want, codes)
		})
	}
}

func TestRegister(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	store.On("FindByUserName", ctx, "new@example.com").Return(nil, repository.ErrNotFound)
	store.On("Create", ctx, mock.MatchedBy(func(u *model.AppUser) bool {
		return u.ID != "" && u.SecurityStamp != "" && CheckPassword("Passw0rd!", u.PasswordHash)
	})).Return(nil)

	user := &model.AppUser{UserName: "new@example.com", Email: "new@example.com"}
	result, err := svc.Register(ctx, user, "Passw0rd!")
	require.NoError(t, err)
	assert.True(t, result.Succeeded())
	assert.NotEmpty(t, user.ID)
}

func TestRegister_DuplicateAndWeakPassword(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	store.On("FindByUserName", ctx, "ada@example.com").Return(&model.AppUser{ID: "user-1"}, nil)

	result, err := svc.Register(ctx, &model.AppUser{UserName: "ada@example.com"}, "weak")
	require.NoError(t, err)
	assert.False(t, result.Succeeded())
	assert.Contains(t, descriptions(result), "Passwords must be at least 6 characters.")
	assert.Contains(t, descriptions(result), "User name 'ada@example.com' is already taken.")
	store.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestRegister_ConcurrentDuplicate(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	store.On("FindByUserName", ctx, "race@example.com").Return(nil, repository.ErrNotFound)
	store.On("Create", ctx, mock.Anything).Return(fmt.Errorf("create user: %w", repository.ErrDuplicate))

	result, err := svc.Register(ctx, &model.AppUser{UserName: "race@example.com"}, "Passw0rd!")
	require.NoError(t, err)
	assert.Equal(t, []string{"User name 'race@example.com' is already taken."}, descriptions(result))
}

func TestSignIn(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()
	user := newTestUser(t, "Passw0rd!")

	store.On("FindByUserName", ctx, "ada@example.com").Return(user, nil)
	store.On("FindByUserName", ctx, "nobody@example.com").Return(nil, repository.ErrNotFound)

	result, signedIn, err := svc.SignIn(ctx, "ada@example.com", "Passw0rd!")
	require.NoError(t, err)
	assert.Equal(t, model.SignInSucceeded, result)
	assert.Equal(t, user, signedIn)

	result, signedIn, err = svc.SignIn(ctx, "ada@example.com", "wrong")
	require.NoError(t, err)
	assert.Equal(t, model.SignInFailed, result)
	assert.Nil(t, signedIn)

	result, _, err = svc.SignIn(ctx, "nobody@example.com", "Passw0rd!")
	require.NoError(t, err)
	assert.Equal(t, model.SignInFailed, result)

	user.TwoFactorEnabled = true
	result, signedIn, err = svc.SignIn(ctx, "ada@example.com", "Passw0rd!")
	require.NoError(t, err)
	assert.Equal(t, model.SignInRequiresTwoFactor, result)
	assert.Equal(t, user, signedIn)
}

func TestResetPassword(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()
	user := newTestUser(t, "Passw0rd!")

	token, err := svc.GeneratePasswordResetToken(user)
	require.NoError(t, err)

	store.On("UpdatePassword", ctx, "user-1", mock.Anything, mock.Anything).Return(nil).Once()

	result, err := svc.ResetPassword(ctx, user, token, "N3wPassw0rd!")
	require.NoError(t, err)
	assert.True(t, result.Succeeded())
	assert.True(t, CheckPassword("N3wPassw0rd!", user.PasswordHash))
	assert.NotEqual(t, "STAMP1", user.SecurityStamp)

	// the stamp rotated, so the token is spent
	result, err = svc.ResetPassword(ctx, user, token, "An0therPass!")
	require.NoError(t, err)
	assert.Equal(t, []string{"Invalid token."}, descriptions(result))
}

func TestResetPassword_RejectsForeignAndMalformedTokens(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	user := newTestUser(t, "Passw0rd!")
	other := &model.AppUser{ID: "user-2", SecurityStamp: "STAMP1"}

	foreign, err := svc.GeneratePasswordResetToken(other)
	require.NoError(t, err)

	for _, code := range []string{foreign, "garbage", ""} {
		result, err := svc.ResetPassword(ctx, user, code, "N3wPassw0rd!")
		require.NoError(t, err)
		assert.Equal(t, []string{"Invalid token."}, descriptions(result))
	}
}

func TestResetPassword_WeakPassword(t *testing.T) {
	svc, _ := newTestService(t)
	user := newTestUser(t, "Passw0rd!")

	token, err := svc.GeneratePasswordResetToken(user)
	require.NoError(t, err)

	result, err := svc.ResetPassword(context.Background(), user, token, "short")
	require.NoError(t, err)
	assert.False(t, result.Succeeded())
	assert.Equal(t, "STAMP1", user.SecurityStamp)
}

func TestAuthTicket(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()
	user := newTestUser(t, "Passw0rd!")

	ticket, err := svc.IssueAuthTicket(user, true)
	require.NoError(t, err)
	assert.True(t, ticket.Persistent)
	assert.WithinDuration(t, time.Now().Add(14*24*time.Hour), ticket.ExpiresAt, time.Minute)

	store.On("FindByID", ctx, "user-1").Return(user, nil)

	got, err := svc.Authenticate(ctx, ticket.Token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", got.ID)

	user.SecurityStamp = "ROTATED"
	_, err = svc.Authenticate(ctx, ticket.Token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestAuthTicket_WrongPurposeRejected(t *testing.T) {
	svc, _ := newTestService(t)
	user := newTestUser(t, "Passw0rd!")

	reset, err := svc.GeneratePasswordResetToken(user)
	require.NoError(t, err)

	_, err = svc.Authenticate(context.Background(), reset)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, _, err = svc.ParseTwoFactorTicket(reset)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestAuthTicket_OtherSecretRejected(t *testing.T) {
	svc, _ := newTestService(t)
	user := newTestUser(t, "Passw0rd!")

	forged := NewAccountService(nil, config.AuthConfig{Secret: "other", Issuer: "basecode-test", SessionTTL: time.Hour})
	ticket, err := forged.IssueAuthTicket(user, false)
	require.NoError(t, err)

	_, err = svc.Authenticate(context.Background(), ticket.Token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTwoFactorTicket(t *testing.T) {
	svc, _ := newTestService(t)
	user := newTestUser(t, "Passw0rd!")

	token, err := svc.IssueTwoFactorTicket(user, true)
	require.NoError(t, err)

	userID, rememberMe, err := svc.ParseTwoFactorTicket(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", userID)
	assert.True(t, rememberMe)
}

func TestTwoFactorFlow(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()
	user := newTestUser(t, "Passw0rd!")

	store.On("UpdateTwoFactor", ctx, "user-1", false, mock.MatchedBy(func(s sql.NullString) bool { return s.Valid })).Return(nil).Once()
	setup, err := svc.SetupTwoFactor(ctx, user)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(setup.QRCodeURL, "otpauth://totp/BaseCode:ada@example.com?"))
	assert.NotEqual(t, setup.Secret, user.TwoFactorSecret.String, "secret is stored encrypted")

	assert.ErrorIs(t, svc.EnableTwoFactor(ctx, user, "000000"), ErrInvalidTwoFactorCode)

	code, err := totp.GenerateCode(setup.Secret, time.Now())
	require.NoError(t, err)

	store.On("UpdateTwoFactor", ctx, "user-1", true, user.TwoFactorSecret).Return(nil).Once()
	require.NoError(t, svc.EnableTwoFactor(ctx, user, code))
	assert.True(t, user.TwoFactorEnabled)

	store.On("FindByID", ctx, "user-1").Return(user, nil)
	signedIn, err := svc.SignInTwoFactor(ctx, "user-1", code)
	require.NoError(t, err)
	assert.Equal(t, user, signedIn)

	store.On("UpdateTwoFactor", ctx, "user-1", false, sql.NullString{}).Return(nil).Once()
	require.NoError(t, svc.DisableTwoFactor(ctx, user))
	assert.False(t, user.TwoFactorEnabled)

	_, err = svc.SignInTwoFactor(ctx, "user-1", code)
	assert.ErrorIs(t, err, ErrInvalidTwoFactorCode)
}

func TestTOTPSecretEncryption(t *testing.T) {
	sealed, err := EncryptTOTPSecret("JBSWY3DPEHPK3PXP", "key")
	require.NoError(t, err)

	again, err := EncryptTOTPSecret("JBSWY3DPEHPK3PXP", "key")
	require.NoError(t, err)
	assert.NotEqual(t, sealed, again, "nonce is random")

	secret, err := DecryptTOTPSecret(sql.NullString{String: sealed, Valid: true}, "key")
	require.NoError(t, err)
	assert.Equal(t, "JBSWY3DPEHPK3PXP", secret)

	_, err = DecryptTOTPSecret(sql.NullString{String: sealed, Valid: true}, "other-key")
	assert.Error(t, err)

	_, err = DecryptTOTPSecret(sql.NullString{}, "key")
	assert.ErrorIs(t, err, ErrTwoFactorNotSetUp)
}

func TestBeginTwoFactorSetup_ReusesPendingSecret(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()
	user := newTestUser(t, "Passw0rd!")

	store.On("UpdateTwoFactor", ctx, "user-1", false, mock.MatchedBy(func(s sql.NullString) bool { return s.Valid })).Return(nil).Once()
	first, err := svc.BeginTwoFactorSetup(ctx, user)
	require.NoError(t, err)

	again, err := svc.BeginTwoFactorSetup(ctx, user)
	require.NoError(t, err)
	assert.Equal(t, first.Secret, again.Secret)
	assert.Equal(t, first.QRCodeURL, again.QRCodeURL)
}
