package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"basecode-go/internal/auth"
	"basecode-go/internal/middleware"
	"basecode-go/pkg/model"
	"basecode-go/web"
)

func init() {
	gin.SetMode(gin.TestMode)
}

const (
	authCookie    = "basecode_auth"
	sessionCookie = "basecode_session"
	validToken    = "signed-in"
)

var testSessionKey = []byte("0123456789abcdef0123456789abcdef")

var signedInUser = &model.AppUser{ID: "user-1", UserName: "ada@example.com", Email: "ada@example.com", FirstName: "Ada"}

type fakeAuthenticator struct{}

func (fakeAuthenticator) Authenticate(_ context.Context, token string) (*model.AppUser, error) {
	if token == validToken {
		u := *signedInUser
		return &u, nil
	}
	return nil, auth.ErrInvalidToken
}

type mockExceptionMailer struct {
	mock.Mock
}

func (m *mockExceptionMailer) SendExceptionEmail(ctx context.Context, name, message, stackTrace string) (bool, error) {
	args := m.Called(ctx, name, message, stackTrace)
	return args.Bool(0), args.Error(1)
}

type mockRegionService struct {
	mock.Mock
}

func (m *mockRegionService) Find(ctx context.Context, id int) (*model.Region, error) {
	args := m.Called(ctx, id)
	r, _ := args.Get(0).(*model.Region)
	return r, args.Error(1)
}

func (m *mockRegionService) FindRegions(ctx context.Context, search model.RegionSearch) (*model.PaginatedList[model.Region], error) {
	args := m.Called(ctx, search)
	l, _ := args.Get(0).(*model.PaginatedList[model.Region])
	return l, args.Error(1)
}

func (m *mockRegionService) Create(ctx context.Context, region *model.Region) error {
	return m.Called(ctx, region).Error(0)
}

func (m *mockRegionService) Update(ctx context.Context, region model.Region) (*model.UpdateRegionResult, error) {
	args := m.Called(ctx, region)
	r, _ := args.Get(0).(*model.UpdateRegionResult)
	return r, args.Error(1)
}

func (m *mockRegionService) DeleteByID(ctx context.Context, id int) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockRegionService) GetRegionDropdownItems(ctx context.Context, selected string) ([]model.SelectListItem, error) {
	args := m.Called(ctx, selected)
	items, _ := args.Get(0).([]model.SelectListItem)
	return items, args.Error(1)
}

type mockRegionRules struct {
	mock.Mock
}

func (m *mockRegionRules) CanAdd(ctx context.Context, region *model.Region) (*model.ValidationResult, error) {
	args := m.Called(ctx, region)
	r, _ := args.Get(0).(*model.ValidationResult)
	return r, args.Error(1)
}

func (m *mockRegionRules) CanUpdate(ctx context.Context, region *model.Region) (*model.ValidationResult, error) {
	args := m.Called(ctx, region)
	r, _ := args.Get(0).(*model.ValidationResult)
	return r, args.Error(1)
}

func (m *mockRegionRules) CanDelete(ctx context.Context, id int) (*model.ValidationResult, error) {
	args := m.Called(ctx, id)
	r, _ := args.Get(0).(*model.ValidationResult)
	return r, args.Error(1)
}

type mockAccountService struct {
	mock.Mock
}

func (m *mockAccountService) SignIn(ctx context.Context, email, password string) (model.SignInResult, *model.AppUser, error) {
	args := m.Called(ctx, email, password)
	u, _ := args.Get(1).(*model.AppUser)
	return args.Get(0).(model.SignInResult), u, args.Error(2)
}

func (m *mockAccountService) SignInTwoFactor(ctx context.Context, userID, code string) (*model.AppUser, error) {
	args := m.Called(ctx, userID, code)
	u, _ := args.Get(0).(*model.AppUser)
	return u, args.Error(1)
}

func (m *mockAccountService) IssueAuthTicket(user *model.AppUser, rememberMe bool) (*auth.AuthTicket, error) {
	args := m.Called(user, rememberMe)
	t, _ := args.Get(0).(*auth.AuthTicket)
	return t, args.Error(1)
}

func (m *mockAccountService) IssueTwoFactorTicket(user *model.AppUser, rememberMe bool) (string, error) {
	args := m.Called(user, rememberMe)
	return args.String(0), args.Error(1)
}

func (m *mockAccountService) ParseTwoFactorTicket(token string) (string, bool, error) {
	args := m.Called(token)
	return args.String(0), args.Bool(1), args.Error(2)
}

func (m *mockAccountService) Register(ctx context.Context, user *model.AppUser, password string) (model.IdentityResult, error) {
	args := m.Called(ctx, user, password)
	return args.Get(0).(model.IdentityResult), args.Error(1)
}

func (m *mockAccountService) FindUser(ctx context.Context, email string) (*model.AppUser, error) {
	args := m.Called(ctx, email)
	u, _ := args.Get(0).(*model.AppUser)
	return u, args.Error(1)
}

func (m *mockAccountService) GeneratePasswordResetToken(user *model.AppUser) (string, error) {
	args := m.Called(user)
	return args.String(0), args.Error(1)
}

func (m *mockAccountService) ResetPassword(ctx context.Context, user *model.AppUser, code, password string) (model.IdentityResult, error) {
	args := m.Called(ctx, user, code, password)
	return args.Get(0).(model.IdentityResult), args.Error(1)
}

func (m *mockAccountService) BeginTwoFactorSetup(ctx context.Context, user *model.AppUser) (*model.TwoFactorSetup, error) {
	args := m.Called(ctx, user)
	s, _ := args.Get(0).(*model.TwoFactorSetup)
	return s, args.Error(1)
}

func (m *mockAccountService) EnableTwoFactor(ctx context.Context, user *model.AppUser, code string) error {
	return m.Called(ctx, user, code).Error(0)
}

func (m *mockAccountService) DisableTwoFactor(ctx context.Context, user *model.AppUser) error {
	return m.Called(ctx, user).Error(0)
}

type mockPasswordMailer struct {
	mock.Mock
}

func (m *mockPasswordMailer) SendForgotPasswordEmail(ctx context.Context, user *model.AppUser, link string) (bool, error) {
	args := m.Called(ctx, user, link)
	return args.Bool(0), args.Error(1)
}

type testApp struct {
	router     *gin.Engine
	regions    *mockRegionService
	rules      *mockRegionRules
	accounts   *mockAccountService
	mailer     *mockPasswordMailer
	exceptions *mockExceptionMailer
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()

	renderer, err := web.NewRenderer()
	require.NoError(t, err)

	app := &testApp{
		regions:    &mockRegionService{},
		rules:      &mockRegionRules{},
		accounts:   &mockAccountService{},
		mailer:     &mockPasswordMailer{},
		exceptions: &mockExceptionMailer{},
	}
	t.Cleanup(func() {
		app.regions.AssertExpectations(t)
		app.rules.AssertExpectations(t)
		app.accounts.AssertExpectations(t)
		app.mailer.AssertExpectations(t)
		app.exceptions.AssertExpectations(t)
	})

	logger := zap.NewNop()
	reporter := NewErrorReporter(app.exceptions, logger)
	cookie := middleware.CookieSettings{Name: authCookie}

	app.router = NewRouter(RouterConfig{
		Renderer:      renderer,
		Static:        web.Static(),
		Authenticator: fakeAuthenticator{},
		Cookie:        cookie,
		Sessions:      middleware.NewSessionStore(testSessionKey, false),
		SessionName:   sessionCookie,
		Logger:        logger,
	}, Handlers{
		Home:     NewHomeHandler(),
		Account:  NewAccountHandler(app.accounts, app.mailer, app.regions, reporter, AccountSettings{Cookie: cookie, BaseURL: "https://basecode.test/"}, logger),
		Region:   NewRegionHandler(app.regions, app.rules, reporter, logger),
		Reporter: reporter,
	})
	return app
}

type requestOption func(*http.Request)

func signedIn(r *http.Request) {
	r.AddCookie(&http.Cookie{Name: authCookie, Value: validToken})
}

func withCookies(cookies []*http.Cookie) requestOption {
	return func(r *http.Request) {
		for _, c := range cookies {
			r.AddCookie(c)
		}
	}
}

func (a *testApp) get(target string, opts ...requestOption) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	for _, opt := range opts {
		opt(req)
	}
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	return rec
}

func (a *testApp) post(target string, form url.Values, opts ...requestOption) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	for _, opt := range opts {
		opt(req)
	}
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	return rec
}

func cookieNamed(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}
