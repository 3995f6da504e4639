package middleware

import (
	"net/http"

	"github.com/gorilla/csrf"
	"go.uber.org/zap"

	"basecode-go/pkg/config"
)

// CSRFFieldName is the hidden form field carrying the token
const CSRFFieldName = "__RequestVerificationToken"

// CSRF protects every unsafe request with a double-submit token.
// Without secure cookies requests are treated as plain HTTP so the Referer check does not reject them.
func CSRF(cfg config.ServerConfig, logger *zap.Logger) func(http.Handler) http.Handler {
	protect := csrf.Protect(
		[]byte(cfg.CSRFKey),
		csrf.Secure(cfg.SecureCookies),
		csrf.Path("/"),
		csrf.HttpOnly(true),
		csrf.SameSite(csrf.SameSiteLaxMode),
		csrf.FieldName(CSRFFieldName),
		csrf.ErrorHandler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			logger.Warn("csrf validation failed",
				zap.String("path", r.URL.Path),
				zap.Error(csrf.FailureReason(r)),
			)
			http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
		})),
	)

	return func(next http.Handler) http.Handler {
		protected := protect(next)
		if cfg.SecureCookies {
			return protected
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			protected.ServeHTTP(w, csrf.PlaintextHTTPRequest(r))
		})
	}
}
