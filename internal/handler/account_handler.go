package handler

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"basecode-go/internal/auth"
	"basecode-go/internal/middleware"
	"basecode-go/pkg/model"
)

// AccountService is the identity behaviour behind the account pages
type AccountService interface {
	SignIn(ctx context.Context, email, password string) (model.SignInResult, *model.AppUser, error)
	SignInTwoFactor(ctx context.Context, userID, code string) (*model.AppUser, error)
	IssueAuthTicket(user *model.AppUser, rememberMe bool) (*auth.AuthTicket, error)
	IssueTwoFactorTicket(user *model.AppUser, rememberMe bool) (string, error)
	ParseTwoFactorTicket(token string) (string, bool, error)
	Register(ctx context.Context, user *model.AppUser, password string) (model.IdentityResult, error)
	FindUser(ctx context.Context, email string) (*model.AppUser, error)
	GeneratePasswordResetToken(user *model.AppUser) (string, error)
	ResetPassword(ctx context.Context, user *model.AppUser, code, password string) (model.IdentityResult, error)
	BeginTwoFactorSetup(ctx context.Context, user *model.AppUser) (*model.TwoFactorSetup, error)
	EnableTwoFactor(ctx context.Context, user *model.AppUser, code string) error
	DisableTwoFactor(ctx context.Context, user *model.AppUser) error
}

// PasswordMailer sends the reset link
type PasswordMailer interface {
	SendForgotPasswordEmail(ctx context.Context, user *model.AppUser, url string) (bool, error)
}

// RegionLister fills the region dropdown
type RegionLister interface {
	GetRegionDropdownItems(ctx context.Context, selected string) ([]model.SelectListItem, error)
}

// AccountSettings configures cookies and absolute links
type AccountSettings struct {
	Cookie middleware.CookieSettings
	// BaseURL prefixes links sent by mail; the request host is used when empty
	BaseURL string
}

// AccountHandler serves sign-in, registration and password pages
type AccountHandler struct {
	accounts AccountService
	mailer   PasswordMailer
	regions  RegionLister
	reporter *ErrorReporter
	settings AccountSettings
	logger   *zap.Logger
}

// NewAccountHandler creates a new account handler
func NewAccountHandler(accounts AccountService, mailer PasswordMailer, regions RegionLister, reporter *ErrorReporter, settings AccountSettings, logger *zap.Logger) *AccountHandler {
	registerValidation()
	return &AccountHandler{
		accounts: accounts,
		mailer:   mailer,
		regions:  regions,
		reporter: reporter,
		settings: settings,
		logger:   logger.Named("account"),
	}
}

// RegisterRoutes registers the anonymous account routes
func (h *AccountHandler) RegisterRoutes(router gin.IRoutes) {
	router.GET("/Account/Login", h.Login)
	router.POST("/Account/Login", h.LoginPost)
	router.GET("/Account/LoginWith2fa", h.LoginWith2fa)
	router.POST("/Account/LoginWith2fa", h.LoginWith2faPost)
	router.GET("/Account/Register", h.Register)
	router.POST("/Account/Register", h.RegisterPost)
	router.GET("/Account/ForgotPassword", h.ForgotPassword)
	router.POST("/Account/ForgotPassword", h.ForgotPasswordPost)
	router.GET("/Account/ForgotPasswordConfirmation", h.ForgotPasswordConfirmation)
	router.GET("/Account/ResetPassword", h.ResetPassword)
	router.POST("/Account/ResetPassword", h.ResetPasswordPost)
	router.GET("/Account/ResetPasswordConfirmation", h.ResetPasswordConfirmation)
}

// RegisterProtectedRoutes registers the routes that need a signed-in user
func (h *AccountHandler) RegisterProtectedRoutes(router gin.IRoutes) {
	router.POST("/Account/Logout", h.Logout)
	router.GET("/Account/AccessDenied", h.AccessDenied)
	router.GET("/Account/TwoFactor", h.TwoFactor)
	router.POST("/Account/TwoFactor", h.TwoFactorPost)
	router.POST("/Account/TwoFactor/Disable", h.DisableTwoFactor)
}

type formData[T any] struct {
	Form T
}

type registerData struct {
	Form    model.RegisterForm
	Regions []model.SelectListItem
}

type twoFactorData struct {
	Enabled bool
	Setup   *model.TwoFactorSetup
}

func returnURL(c *gin.Context) string {
	return c.Query("ReturnUrl")
}

func (h *AccountHandler) twoFactorCookie() middleware.CookieSettings {
	return middleware.CookieSettings{Name: h.settings.Cookie.Name + "_2fa", Secure: h.settings.Cookie.Secure}
}

func (h *AccountHandler) signIn(c *gin.Context, user *model.AppUser, rememberMe bool) error {
	ticket, err := h.accounts.IssueAuthTicket(user, rememberMe)
	if err != nil {
		return err
	}
	middleware.SetAuthCookie(c, h.settings.Cookie, ticket.Token, ticket.Persistent, ticket.ExpiresAt)
	h.logger.Info("user signed in", zap.String("user_id", user.ID))
	return nil
}

// Login handles GET /Account/Login
func (h *AccountHandler) Login(c *gin.Context) {
	page := newPage(c, "Log in", &formData[model.LoginForm]{})
	page.ReturnURL = returnURL(c)
	c.HTML(http.StatusOK, "account/login", page)
}

// LoginPost handles POST /Account/Login
func (h *AccountHandler) LoginPost(c *gin.Context) {
	data := &formData[model.LoginForm]{}
	page := newPage(c, "Log in", data)
	page.ReturnURL = returnURL(c)

	if err := c.ShouldBind(&data.Form); err != nil {
		addBindingErrors(page, err)
		page.AddError(model.ErrorInvalidLogin)
		c.HTML(http.StatusOK, "account/login", page)
		return
	}

	ctx := c.Request.Context()
	result, user, err := h.accounts.SignIn(ctx, data.Form.Email, data.Form.Password)
	if err == nil {
		switch result {
		case model.SignInSucceeded:
			if err = h.signIn(c, user, data.Form.RememberMe); err == nil {
				redirectToLocal(c, page.ReturnURL)
				return
			}
		case model.SignInRequiresTwoFactor:
			var token string
			if token, err = h.accounts.IssueTwoFactorTicket(user, data.Form.RememberMe); err == nil {
				middleware.SetAuthCookie(c, h.twoFactorCookie(), token, false, time.Time{})
				target := "/Account/LoginWith2fa?RememberMe=" + strconv.FormatBool(data.Form.RememberMe)
				if page.ReturnURL != "" {
					target += "&ReturnUrl=" + url.QueryEscape(page.ReturnURL)
				}
				c.Redirect(http.StatusFound, target)
				return
			}
		}
	}

	if err != nil {
		page.AddError(h.reporter.Report(c, err))
	} else {
		h.logger.Info("failed sign-in", zap.String("email", data.Form.Email))
	}
	page.AddError(model.ErrorInvalidLogin)
	c.HTML(http.StatusOK, "account/login", page)
}

// LoginWith2fa handles GET /Account/LoginWith2fa
func (h *AccountHandler) LoginWith2fa(c *gin.Context) {
	token, _ := c.Cookie(h.twoFactorCookie().Name)
	_, rememberMe, err := h.accounts.ParseTwoFactorTicket(token)
	if err != nil {
		c.Redirect(http.StatusFound, middleware.LoginPath)
		return
	}

	page := newPage(c, "Two-factor authentication", &formData[model.LoginWith2faForm]{Form: model.LoginWith2faForm{RememberMe: rememberMe}})
	page.ReturnURL = returnURL(c)
	c.HTML(http.StatusOK, "account/login_with_2fa", page)
}

// LoginWith2faPost handles POST /Account/LoginWith2fa
func (h *AccountHandler) LoginWith2faPost(c *gin.Context) {
	token, _ := c.Cookie(h.twoFactorCookie().Name)
	userID, rememberMe, err := h.accounts.ParseTwoFactorTicket(token)
	if err != nil {
		c.Redirect(http.StatusFound, middleware.LoginPath)
		return
	}

	data := &formData[model.LoginWith2faForm]{}
	page := newPage(c, "Two-factor authentication", data)
	page.ReturnURL = returnURL(c)

	if err := c.ShouldBind(&data.Form); err != nil {
		addBindingErrors(page, err)
		data.Form.RememberMe = rememberMe
		c.HTML(http.StatusOK, "account/login_with_2fa", page)
		return
	}
	data.Form.RememberMe = rememberMe

	user, err := h.accounts.SignInTwoFactor(c.Request.Context(), userID, strings.TrimSpace(data.Form.TwoFactorCode))
	if err == nil {
		if err = h.signIn(c, user, rememberMe); err == nil {
			middleware.ClearAuthCookie(c, h.twoFactorCookie())
			redirectToLocal(c, page.ReturnURL)
			return
		}
	}

	if errors.Is(err, auth.ErrInvalidTwoFactorCode) || errors.Is(err, auth.ErrTwoFactorNotSetUp) {
		h.logger.Info("invalid authenticator code", zap.String("user_id", userID))
	} else {
		page.AddError(h.reporter.Report(c, err))
	}
	page.AddError(model.ErrorInvalidCode)
	c.HTML(http.StatusOK, "account/login_with_2fa", page)
}

func (h *AccountHandler) renderRegister(c *gin.Context, page *Page, data *registerData) {
	selected := ""
	if data.Form.RegionID > 0 {
		selected = strconv.Itoa(data.Form.RegionID)
	}
	items, err := h.regions.GetRegionDropdownItems(c.Request.Context(), selected)
	if err != nil {
		page.AddError(h.reporter.Report(c, err))
	}
	data.Regions = items
	c.HTML(http.StatusOK, "account/register", page)
}

// Register handles GET /Account/Register
func (h *AccountHandler) Register(c *gin.Context) {
	data := &registerData{}
	page := newPage(c, "Register", data)
	page.ReturnURL = returnURL(c)
	h.renderRegister(c, page, data)
}

// RegisterPost handles POST /Account/Register
func (h *AccountHandler) RegisterPost(c *gin.Context) {
	data := &registerData{}
	page := newPage(c, "Register", data)
	page.ReturnURL = returnURL(c)

	if err := c.ShouldBind(&data.Form); err != nil {
		addBindingErrors(page, err)
		page.AddError(model.ErrorInvalidRegister)
		h.renderRegister(c, page, data)
		return
	}

	form := data.Form
	user := &model.AppUser{
		UserName:     strings.TrimSpace(form.Email),
		Email:        strings.TrimSpace(form.Email),
		EmailAddress: strings.TrimSpace(form.Email),
		FirstName:    strings.TrimSpace(form.FirstName),
		LastName:     strings.TrimSpace(form.LastName),
	}
	if form.RegionID > 0 {
		user.RegionID = sql.NullInt64{Int64: int64(form.RegionID), Valid: true}
	}

	result, err := h.accounts.Register(c.Request.Context(), user, form.Password)
	if err == nil && result.Succeeded() {
		h.logger.Info("user registered", zap.String("user_id", user.ID))
		if err = h.signIn(c, user, false); err == nil {
			redirectToLocal(c, page.ReturnURL)
			return
		}
	}

	if err != nil {
		page.AddError(h.reporter.Report(c, err))
	} else {
		page.AddIdentityErrors(result)
	}
	page.AddError(model.ErrorInvalidRegister)
	h.renderRegister(c, page, data)
}

// Logout handles POST /Account/Logout
func (h *AccountHandler) Logout(c *gin.Context) {
	middleware.ClearAuthCookie(c, h.settings.Cookie)
	h.logger.Info("user signed out", zap.String("user_id", c.GetString(middleware.UserIDKey)))
	c.Redirect(http.StatusFound, "/")
}

// ForgotPassword handles GET /Account/ForgotPassword
func (h *AccountHandler) ForgotPassword(c *gin.Context) {
	c.HTML(http.StatusOK, "account/forgot_password", newPage(c, "Forgot your password?", &formData[model.ForgotPasswordForm]{}))
}

// ForgotPasswordPost handles POST /Account/ForgotPassword.
// Unknown addresses get the same confirmation page as known ones.
func (h *AccountHandler) ForgotPasswordPost(c *gin.Context) {
	data := &formData[model.ForgotPasswordForm]{}
	page := newPage(c, "Forgot your password?", data)

	if err := c.ShouldBind(&data.Form); err != nil {
		addBindingErrors(page, err)
		page.AddError(model.ErrorInvalidForgotPassword)
		c.HTML(http.StatusOK, "account/forgot_password", page)
		return
	}

	sent, err := h.sendResetLink(c, data.Form.Email)
	if err == nil && sent {
		c.Redirect(http.StatusFound, "/Account/ForgotPasswordConfirmation")
		return
	}

	if err != nil {
		page.AddError(h.reporter.Report(c, err))
	}
	page.AddError(model.ErrorInvalidForgotPassword)
	c.HTML(http.StatusOK, "account/forgot_password", page)
}

// sendResetLink reports true when the user is unknown so callers cannot tell the difference
func (h *AccountHandler) sendResetLink(c *gin.Context, email string) (bool, error) {
	ctx := c.Request.Context()
	user, err := h.accounts.FindUser(ctx, email)
	if err != nil {
		return false, err
	}
	if user == nil {
		return true, nil
	}

	code, err := h.accounts.GeneratePasswordResetToken(user)
	if err != nil {
		return false, err
	}
	query := url.Values{"userId": {user.ID}, "code": {code}}
	link := h.baseURL(c) + "/Account/ResetPassword?" + query.Encode()

	return h.mailer.SendForgotPasswordEmail(ctx, user, link)
}

func (h *AccountHandler) baseURL(c *gin.Context) string {
	if h.settings.BaseURL != "" {
		return strings.TrimRight(h.settings.BaseURL, "/")
	}
	scheme := "http"
	if c.Request.TLS != nil || strings.EqualFold(c.GetHeader("X-Forwarded-Proto"), "https") {
		scheme = "https"
	}
	return scheme + "://" + c.Request.Host
}

// ForgotPasswordConfirmation handles GET /Account/ForgotPasswordConfirmation
func (h *AccountHandler) ForgotPasswordConfirmation(c *gin.Context) {
	c.HTML(http.StatusOK, "account/forgot_password_confirmation", newPage(c, "Forgot password confirmation", nil))
}

// ResetPassword handles GET /Account/ResetPassword
func (h *AccountHandler) ResetPassword(c *gin.Context) {
	code := c.Query("code")
	if code == "" {
		renderError(c, http.StatusBadRequest, model.ErrorResetCodeRequired)
		return
	}
	form := model.ResetPasswordForm{Code: code}
	c.HTML(http.StatusOK, "account/reset_password", newPage(c, "Reset password", &formData[model.ResetPasswordForm]{Form: form}))
}

// ResetPasswordPost handles POST /Account/ResetPassword.
// Unknown addresses are sent to the confirmation page.
func (h *AccountHandler) ResetPasswordPost(c *gin.Context) {
	data := &formData[model.ResetPasswordForm]{}
	page := newPage(c, "Reset password", data)

	if err := c.ShouldBind(&data.Form); err != nil {
		addBindingErrors(page, err)
		page.AddError(model.ErrorInvalidResetPassword)
		c.HTML(http.StatusOK, "account/reset_password", page)
		return
	}

	ctx := c.Request.Context()
	user, err := h.accounts.FindUser(ctx, data.Form.Email)
	if err == nil && user == nil {
		c.Redirect(http.StatusFound, "/Account/ResetPasswordConfirmation")
		return
	}

	var result model.IdentityResult
	if err == nil {
		result, err = h.accounts.ResetPassword(ctx, user, data.Form.Code, data.Form.Password)
		if err == nil && result.Succeeded() {
			h.logger.Info("password reset", zap.String("user_id", user.ID))
			c.Redirect(http.StatusFound, "/Account/ResetPasswordConfirmation")
			return
		}
	}

	if err != nil {
		page.AddError(h.reporter.Report(c, err))
	} else {
		page.AddIdentityErrors(result)
	}
	page.AddError(model.ErrorInvalidResetPassword)
	c.HTML(http.StatusOK, "account/reset_password", page)
}

// ResetPasswordConfirmation handles GET /Account/ResetPasswordConfirmation
func (h *AccountHandler) ResetPasswordConfirmation(c *gin.Context) {
	c.HTML(http.StatusOK, "account/reset_password_confirmation", newPage(c, "Reset password confirmation", nil))
}

// AccessDenied handles GET /Account/AccessDenied
func (h *AccountHandler) AccessDenied(c *gin.Context) {
	c.HTML(http.StatusForbidden, "account/access_denied", newPage(c, "Access denied", nil))
}

// TwoFactor handles GET /Account/TwoFactor
func (h *AccountHandler) TwoFactor(c *gin.Context) {
	user := middleware.CurrentUser(c)
	data := &twoFactorData{Enabled: user.TwoFactorEnabled}
	page := newPage(c, "Two-factor authentication", data)

	if !user.TwoFactorEnabled {
		setup, err := h.accounts.BeginTwoFactorSetup(c.Request.Context(), user)
		if err != nil {
			page.AddError(h.reporter.Report(c, err))
		}
		data.Setup = setup
	}
	c.HTML(http.StatusOK, "account/two_factor", page)
}

// TwoFactorPost handles POST /Account/TwoFactor and enables two-factor sign-in
func (h *AccountHandler) TwoFactorPost(c *gin.Context) {
	user := middleware.CurrentUser(c)
	data := &twoFactorData{Enabled: user.TwoFactorEnabled}
	page := newPage(c, "Two-factor authentication", data)

	var form model.TwoFactorVerifyForm
	if err := c.ShouldBind(&form); err != nil {
		addBindingErrors(page, err)
	} else if err := h.accounts.EnableTwoFactor(c.Request.Context(), user, strings.TrimSpace(form.Code)); err == nil {
		h.logger.Info("two-factor enabled", zap.String("user_id", user.ID))
		setFlash(c, model.MessageInfo, model.TwoFactorEnabled)
		c.Redirect(http.StatusFound, "/Account/TwoFactor")
		return
	} else if errors.Is(err, auth.ErrInvalidTwoFactorCode) || errors.Is(err, auth.ErrTwoFactorNotSetUp) {
		page.AddError(model.ErrorInvalidCode)
	} else {
		page.AddError(h.reporter.Report(c, err))
	}

	setup, setupErr := h.accounts.BeginTwoFactorSetup(c.Request.Context(), user)
	if setupErr != nil {
		page.AddError(h.reporter.Report(c, setupErr))
	}
	data.Setup = setup
	c.HTML(http.StatusOK, "account/two_factor", page)
}

// DisableTwoFactor handles POST /Account/TwoFactor/Disable
func (h *AccountHandler) DisableTwoFactor(c *gin.Context) {
	user := middleware.CurrentUser(c)
	if err := h.accounts.DisableTwoFactor(c.Request.Context(), user); err != nil {
		setFlash(c, model.MessageError, h.reporter.Report(c, err))
		c.Redirect(http.StatusFound, "/Account/TwoFactor")
		return
	}
	h.logger.Info("two-factor disabled", zap.String("user_id", user.ID))
	setFlash(c, model.MessageInfo, model.TwoFactorDisabled)
	c.Redirect(http.StatusFound, "/Account/TwoFactor")
}
