package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/google/uuid"

	"basecode-go/internal/repository"
	"basecode-go/pkg/model"
)

const minPasswordLength = 6

// Register creates the user with a hashed password. Policy failures and a
// taken user name come back in the IdentityResult, not as an error.
func (s *AccountService) Register(ctx context.Context, user *model.AppUser, password string) (model.IdentityResult, error) {
	var errs []model.IdentityError
	if strings.TrimSpace(user.UserName) == "" {
		errs = append(errs, model.IdentityError{
			Code:        "InvalidUserName",
			Description: fmt.Sprintf("User name '%s' is invalid, can only contain letters or digits.", user.UserName),
		})
	}
	errs = append(errs, ValidatePassword(password)...)

	// Check if username already exists
	existing, err := s.FindUserByName(ctx, user.UserName)
	if err != nil {
		return model.IdentityResult{}, err
	}
	if existing != nil {
		errs = append(errs, duplicateUserNameError(user.UserName))
	}
	if len(errs) > 0 {
		return model.IdentityFailed(errs...), nil
	}

	hashedPassword, err := HashPassword(password, s.hashCost)
	if err != nil {
		return model.IdentityResult{}, err
	}

	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	user.PasswordHash = hashedPassword
	user.SecurityStamp = newSecurityStamp()

	if err := s.users.Create(ctx, user); err != nil {
		// lost a race with a concurrent registration
		if errors.Is(err, repository.ErrDuplicate) {
			return model.IdentityFailed(duplicateUserNameError(user.UserName)), nil
		}
		return model.IdentityResult{}, err
	}
	return model.IdentitySuccess, nil
}

// ValidatePassword applies the password policy: six characters with a digit,
// a lowercase letter, an uppercase letter and a symbol.
func ValidatePassword(password string) []model.IdentityError {
	var errs []model.IdentityError
	if len(password) < minPasswordLength {
		errs = append(errs, model.IdentityError{
			Code:        "PasswordTooShort",
			Description: fmt.Sprintf("Passwords must be at least %d characters.", minPasswordLength),
		})
	}

	var hasDigit, hasLower, hasUpper, hasSymbol bool
	for _, r := range password {
		switch {
		case r >= '0' && r <= '9':
			hasDigit = true
		case r >= 'a' && r <= 'z':
			hasLower = true
		case r >= 'A' && r <= 'Z':
			hasUpper = true
		case !unicode.IsLetter(r) && !unicode.IsDigit(r):
			hasSymbol = true
		}
	}

	if !hasSymbol {
		errs = append(errs, model.IdentityError{
			Code:        "PasswordRequiresNonAlphanumeric",
			Description: "Passwords must have at least one non alphanumeric character.",
		})
	}
	if !hasDigit {
		errs = append(errs, model.IdentityError{
			Code:        "PasswordRequiresDigit",
			Description: "Passwords must have at least one digit ('0'-'9').",
		})
	}
	if !hasLower {
		errs = append(errs, model.IdentityError{
			Code:        "PasswordRequiresLower",
			Description: "Passwords must have at least one lowercase ('a'-'z').",
		})
	}
	if !hasUpper {
		errs = append(errs, model.IdentityError{
			Code:        "PasswordRequiresUpper",
			Description: "Passwords must have at least one uppercase ('A'-'Z').",
		})
	}
	return errs
}

func duplicateUserNameError(userName string) model.IdentityError {
	return model.IdentityError{
		Code:        "DuplicateUserName",
		Description: fmt.Sprintf("User name '%s' is already taken.", userName),
	}
}

func invalidTokenError() model.IdentityError {
	return model.IdentityError{Code: "InvalidToken", Description: "Invalid token."}
}

func newSecurityStamp() string {
	return strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))
}
