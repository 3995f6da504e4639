package model

import (
	"database/sql"
	"strings"
	"time"
)

// AppUser represents an application user with its identity and profile data
type AppUser struct {
	ID                 string         `db:"id" json:"id"`
	UserName           string         `db:"user_name" json:"user_name"`
	NormalizedUserName string         `db:"normalized_user_name" json:"-"`
	Email              string         `db:"email" json:"email"`
	NormalizedEmail    string         `db:"normalized_email" json:"-"`
	EmailConfirmed     bool           `db:"email_confirmed" json:"email_confirmed"`
	PasswordHash       string         `db:"password_hash" json:"-"`
	SecurityStamp      string         `db:"security_stamp" json:"-"`
	TwoFactorEnabled   bool           `db:"two_factor_enabled" json:"two_factor_enabled"`
	TwoFactorSecret    sql.NullString `db:"two_factor_secret" json:"-"`
	FirstName          string         `db:"first_name" json:"first_name"`
	LastName           string         `db:"last_name" json:"last_name"`
	EmailAddress       string         `db:"email_address" json:"email_address"`
	RegionID           sql.NullInt64  `db:"region_id" json:"region_id"`
	RowVersion         int64          `db:"row_version" json:"-"`
	CreatedAt          time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time      `db:"updated_at" json:"updated_at"`
}

// DisplayName returns the name used in greetings
func (u AppUser) DisplayName() string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		return u.UserName
	}
	return name
}

// Normalize upper-cases a user name or e-mail for case-insensitive lookups
func Normalize(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// LoginForm is posted by the login page
type LoginForm struct {
	Email      string `form:"Email" display:"Email" binding:"required,email"`
	Password   string `form:"Password" display:"Password" binding:"required"`
	RememberMe bool   `form:"RememberMe"`
}

// LoginWith2faForm is posted by the second sign-in step
type LoginWith2faForm struct {
	TwoFactorCode string `form:"TwoFactorCode" display:"Authenticator code" binding:"required,len=6,numeric"`
	RememberMe    bool   `form:"RememberMe"`
}

// RegisterForm is posted by the registration page
type RegisterForm struct {
	Email           string `form:"Email" display:"Email" binding:"required,email"`
	Password        string `form:"Password" display:"Password" binding:"required,strlen=6~100"`
	ConfirmPassword string `form:"ConfirmPassword" display:"Confirm password" binding:"eqfield=Password"`
	FirstName       string `form:"FirstName" display:"First name" binding:"strlen=0~100"`
	LastName        string `form:"LastName" display:"Last name" binding:"strlen=0~100"`
	RegionID        int    `form:"RegionId" display:"Region"`
}

// ForgotPasswordForm is posted by the forgot password page
type ForgotPasswordForm struct {
	Email string `form:"Email" display:"Email" binding:"required,email"`
}

// ResetPasswordForm is posted by the reset password page
type ResetPasswordForm struct {
	Email           string `form:"Email" display:"Email" binding:"required,email"`
	Password        string `form:"Password" display:"Password" binding:"required,strlen=6~100"`
	ConfirmPassword string `form:"ConfirmPassword" display:"Confirm password" binding:"eqfield=Password"`
	Code            string `form:"Code" display:"Code" binding:"required"`
}

// TwoFactorVerifyForm is posted to enable two-factor sign-in
type TwoFactorVerifyForm struct {
	Code string `form:"Code" display:"Verification code" binding:"required,len=6,numeric"`
}

// TwoFactorSetup contains info for authenticator app setup
type TwoFactorSetup struct {
	Secret    string
	QRCodeURL string
}

// IdentityError is one failure reported by an identity operation
type IdentityError struct {
	Code        string
	Description string
}

// IdentityResult is the outcome of an identity operation
type IdentityResult struct {
	Errors []IdentityError
}

// Succeeded reports whether the operation produced no errors
func (r IdentityResult) Succeeded() bool {
	return len(r.Errors) == 0
}

// IdentitySuccess is the successful IdentityResult
var IdentitySuccess = IdentityResult{}

// IdentityFailed builds a failed IdentityResult
func IdentityFailed(errs ...IdentityError) IdentityResult {
	return IdentityResult{Errors: errs}
}

// SignInResult is the outcome of a password sign-in
type SignInResult int

const (
	SignInFailed SignInResult = iota
	SignInSucceeded
	SignInRequiresTwoFactor
)
