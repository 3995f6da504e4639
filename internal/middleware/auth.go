package middleware

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"basecode-go/pkg/model"
)

const (
	// UserKey holds the signed-in *model.AppUser in the gin context
	UserKey   = "user"
	// UserIDKey holds the signed-in user's id
	UserIDKey = "user_id"

	LoginPath = "/Account/Login"
)

// Authenticator resolves a sign-in cookie to its user
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*model.AppUser, error)
}

// CookieSettings describes the sign-in cookie
type CookieSettings struct {
	Name   string
	Secure bool
}

// LoadUser reads the sign-in cookie and stores the user in the context.
// An invalid or stale cookie is cleared and the request continues anonymously.
func LoadUser(authenticator Authenticator, cookie CookieSettings, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(cookie.Name)
		if err != nil || token == "" {
			c.Next()
			return
		}

		user, err := authenticator.Authenticate(c.Request.Context(), token)
		if err != nil || user == nil {
			if err != nil {
				logger.Debug("discarding sign-in cookie", zap.Error(err))
			}
			ClearAuthCookie(c, cookie)
			c.Next()
			return
		}

		c.Set(UserKey, user)
		c.Set(UserIDKey, user.ID)
		c.Next()
	}
}

// RequireAuth redirects anonymous requests to the login page with a ReturnUrl back here
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if CurrentUser(c) == nil {
			c.Redirect(http.StatusFound, LoginPath+"?ReturnUrl="+url.QueryEscape(c.Request.URL.RequestURI()))
			c.Abort()
			return
		}
		c.Next()
	}
}

// CurrentUser returns the signed-in user, or nil
func CurrentUser(c *gin.Context) *model.AppUser {
	v, ok := c.Get(UserKey)
	if !ok {
		return nil
	}
	user, _ := v.(*model.AppUser)
	return user
}

// SetAuthCookie writes the sign-in cookie. Persistent tickets get an expiry, others last for the browser session.
func SetAuthCookie(c *gin.Context, cookie CookieSettings, token string, persistent bool, expiresAt time.Time) {
	maxAge := 0
	if persistent {
		maxAge = int(time.Until(expiresAt).Seconds())
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(cookie.Name, token, maxAge, "/", "", cookie.Secure, true)
}

// ClearAuthCookie removes the sign-in cookie
func ClearAuthCookie(c *gin.Context, cookie CookieSettings) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(cookie.Name, "", -1, "/", "", cookie.Secure, true)
}
