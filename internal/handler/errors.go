package handler

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"runtime/debug"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"basecode-go/internal/middleware"
	"basecode-go/internal/repository"
	"basecode-go/pkg/model"
)

// ExceptionMailer notifies administrators about unexpected errors
type ExceptionMailer interface {
	SendExceptionEmail(ctx context.Context, name, message, stackTrace string) (bool, error)
}

// ErrorReporter logs unexpected errors, mails them to the administrators and
// picks the message shown to the user
type ErrorReporter struct {
	mailer ExceptionMailer
	logger *zap.Logger
}

// NewErrorReporter creates a new error reporter
func NewErrorReporter(mailer ExceptionMailer, logger *zap.Logger) *ErrorReporter {
	return &ErrorReporter{mailer: mailer, logger: logger}
}

// Report handles err and returns the message for the validation summary.
// When the exception mail cannot be sent the message names the failing layer.
func (r *ErrorReporter) Report(c *gin.Context, err error) string {
	return r.report(c, err, errorTrace(err))
}

func (r *ErrorReporter) report(c *gin.Context, err error, trace string) string {
	if err == nil {
		return ""
	}
	_ = c.Error(err)
	r.logger.Error("request failed",
		zap.String("path", c.Request.URL.Path),
		zap.String("request_id", c.GetString(middleware.RequestIDKey)),
		zap.Error(err),
	)

	sent, mailErr := r.mailer.SendExceptionEmail(c.Request.Context(), errorName(err), err.Error(), trace)
	if mailErr != nil {
		r.logger.Warn("exception email not sent", zap.Error(mailErr))
	}
	if sent {
		return model.ErrorProcessing
	}

	switch {
	case repository.IsDatabaseError(err):
		return model.ErrorDatabase
	case isNetworkError(err):
		return model.ErrorNetworkTransport
	default:
		return model.ErrorProcessing
	}
}

// Recovery renders the error page for panics and reports them like any other error.
// The mailed trace is the goroutine stack at the panic.
func (r *ErrorReporter) Recovery(render func(c *gin.Context, status int, message string)) gin.HandlerFunc {
	return gin.CustomRecoveryWithWriter(nil, func(c *gin.Context, recovered any) {
		err, ok := recovered.(error)
		if !ok {
			err = fmt.Errorf("panic: %v", recovered)
		}
		message := r.report(c, err, string(debug.Stack()))
		render(c, http.StatusInternalServerError, message)
		c.Abort()
	})
}

// errorName is the innermost error's type, used as the exception mail subject
func errorName(err error) string {
	for {
		next := errors.Unwrap(err)
		if next == nil {
			return fmt.Sprintf("%T", err)
		}
		err = next
	}
}

// errorTrace lists the wrapped errors, outermost first, one "type: message" line each
func errorTrace(err error) string {
	var b strings.Builder
	for ; err != nil; err = errors.Unwrap(err) {
		fmt.Fprintf(&b, "%T: %v\n", err, err)
	}
	return b.String()
}

func isNetworkError(err error) bool {
	var netErr net.Error
	return errors.As(err, &netErr)
}
