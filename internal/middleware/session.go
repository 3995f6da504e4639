package middleware

import (
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
)

// NewSessionStore returns the signed cookie store that carries flash messages between requests
func NewSessionStore(key []byte, secure bool) sessions.Store {
	store := cookie.NewStore(key)
	store.Options(sessions.Options{
		Path:     "/",
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
	return store
}
