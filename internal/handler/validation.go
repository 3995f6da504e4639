package handler

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"

	"basecode-go/pkg/model"
)

var registerOnce sync.Once

// registerValidation teaches gin's validator the strlen and notblank tags and the display names used in messages
func registerValidation() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			if name := f.Tag.Get("display"); name != "" {
				return name
			}
			return f.Name
		})
		_ = v.RegisterValidation("strlen", validateStrlen)
		_ = v.RegisterValidation("notblank", validators.NotBlank)
	})
}

// validateStrlen checks "min~max" against the rune count of a string
func validateStrlen(fl validator.FieldLevel) bool {
	if fl.Field().Kind() != reflect.String {
		return false
	}
	minLen, maxLen, ok := strlenBounds(fl.Param())
	if !ok {
		return false
	}
	n := utf8.RuneCountInString(fl.Field().String())
	return n >= minLen && n <= maxLen
}

func strlenBounds(param string) (int, int, bool) {
	lo, hi, found := strings.Cut(param, "~")
	if !found {
		return 0, 0, false
	}
	minLen, err1 := strconv.Atoi(lo)
	maxLen, err2 := strconv.Atoi(hi)
	if err1 != nil || err2 != nil {
		return 0, 0, false
	}
	return minLen, maxLen, true
}

// addBindingErrors turns a binding error into field and form messages on the page
func addBindingErrors(p *Page, err error) {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		p.AddError(model.ErrorModel)
		return
	}
	for _, fe := range verrs {
		if _, exists := p.Errors[fe.StructField()]; exists {
			continue
		}
		p.Errors[fe.StructField()] = validationMessage(fe)
	}
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "notblank":
		return fmt.Sprintf("The %s field is required.", fe.Field())
	case "strlen":
		lo, hi, _ := strings.Cut(fe.Param(), "~")
		return fmt.Sprintf("The %s must be at least %s and at max %s characters long.", fe.Field(), lo, hi)
	case "email":
		return fmt.Sprintf("The %s field is not a valid e-mail address.", fe.Field())
	case "eqfield":
		return "The password and confirmation password do not match."
	case "len":
		return fmt.Sprintf("The %s must be %s characters long.", fe.Field(), fe.Param())
	case "numeric":
		return fmt.Sprintf("The %s must contain only digits.", fe.Field())
	default:
		return fmt.Sprintf("The %s field is not valid.", fe.Field())
	}
}
