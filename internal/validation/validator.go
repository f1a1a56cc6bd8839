// Package validation checks raw registration, login and license input.
// All functions are pure; failures are reported as apperr kinds.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/redmonkez12/trailpass/internal/apperr"
)

// MinPasswordLength is counted in characters as supplied.
const MinPasswordLength = 6

// local@domain.tld with exactly one @ and a dot inside the domain part.
var emailShape = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Registration is the input checked by ValidateRegistration.
type Registration struct {
	Email    string `json:"email" validate:"notblank,emailshape"`
	Password string `json:"password" validate:"notblank,min=6"`
	Name     string `json:"name" validate:"notblank"`
}

// Login is the input checked by ValidateLogin. Format is not re-checked at
// login time.
type Login struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// LicenseRequest is the input checked by ValidateLicenseRequest.
// The user id is resolved by the registry rather than checked here, so an
// empty id reports as an unknown user.
type LicenseRequest struct {
	UserID string `json:"userId"`
	Type   string `json:"type" validate:"notblank"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	_ = v.RegisterValidation("emailshape", func(fl validator.FieldLevel) bool {
		return IsEmailShaped(fl.Field().String())
	})

	// Report JSON names in messages
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return v
}

// IsEmailShaped reports whether email looks like local@domain.tld. No DNS or
// deliverability check is made.
func IsEmailShaped(email string) bool {
	if strings.Count(email, "@") != 1 {
		return false
	}
	return emailShape.MatchString(email)
}

// ValidateRegistration checks presence, email shape and password strength, in
// that order of precedence.
func ValidateRegistration(in Registration) error {
	return check(in)
}

// ValidateLogin checks presence only.
func ValidateLogin(in Login) error {
	return check(in)
}

// ValidateLicenseRequest checks that a license type was supplied.
func ValidateLicenseRequest(in LicenseRequest) error {
	return check(in)
}

func check(in any) error {
	err := validate.Struct(in)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validate input: %w", err)
	}

	var missing, badEmail, weak []string
	for _, fe := range verrs {
		switch fe.Tag() {
		case "notblank", "required":
			missing = append(missing, fe.Field())
		case "emailshape":
			badEmail = append(badEmail, fe.Field())
		case "min":
			weak = append(weak, fe.Field())
		default:
			return fmt.Errorf("unexpected validation tag %q on %s", fe.Tag(), fe.Field())
		}
	}

	switch {
	case len(missing) > 0:
		return apperr.New(apperr.KindMissingFields, "missing required fields: "+strings.Join(missing, ", "))
	case len(badEmail) > 0:
		return apperr.ErrInvalidEmailFormat
	case len(weak) > 0:
		return apperr.ErrWeakPassword
	}
	return nil
}
