package dto

import (
	"errors"
	"reflect"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"

	"github.com/jhoicas/backoffice-api/internal/domain"
)

const (
	passwordSpecials = " !\"#$%&'()*+,-./:;<=>?@[\\]^_`{|}~"
	passwordBanned   = "\"'=;-"
	usernameSpecials = "!@#$%^&*_+-=~?"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		for _, tag := range []string{"json", "query", "form"} {
			name, _, _ := strings.Cut(f.Tag.Get(tag), ",")
			if name != "" && name != "-" {
				return name
			}
		}
		return f.Name
	})
	_ = v.RegisterValidation("password", func(fl validator.FieldLevel) bool {
		return IsStrongPassword(fl.Field().String())
	})
	_ = v.RegisterValidation("username", func(fl validator.FieldLevel) bool {
		return IsValidUsername(fl.Field().String())
	})
	return v
}

// Validate aplica las etiquetas `validate` de in y devuelve un *domain.ValidationError con cada problema.
func Validate(in any) error {
	err := validate.Struct(in)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return domain.NewValidationError("", "invalid", err.Error())
	}
	issues := make([]domain.Issue, 0, len(verrs))
	for _, fe := range verrs {
		issues = append(issues, domain.Issue{Field: fe.Field(), Rule: fe.Tag(), Message: issueMessage(fe)})
	}
	return &domain.ValidationError{Issues: issues}
}

func issueMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "email":
		return "Email is invalid"
	case "password":
		return "Password must be at least 8 characters and no more 30 characters, including uppercase letters, one number and Latin letters only. Space symbol is not included."
	case "username":
		return "Username must be 4-20 letters, digits or !@#$%^&*_+-=~? without two special symbols in a row"
	case "oneof":
		return fe.Field() + " must be one of: " + fe.Param()
	case "min", "max", "gte", "lte":
		return fe.Field() + " must satisfy " + fe.Tag() + "=" + fe.Param()
	}
	return fe.Field() + " is invalid"
}

// IsStrongPassword: 8-30 caracteres, al menos una mayúscula latina, un dígito y un símbolo;
// sin espacios, sin cirílico y sin ninguno de "'=;-.
func IsStrongPassword(s string) bool {
	n := utf8.RuneCountInString(s)
	if n < 8 || n > 30 {
		return false
	}
	var upper, digit, special bool
	for _, r := range s {
		switch {
		case unicode.IsSpace(r), unicode.Is(unicode.Cyrillic, r), strings.ContainsRune(passwordBanned, r):
			return false
		case r >= 'A' && r <= 'Z':
			upper = true
		case r >= '0' && r <= '9':
			digit = true
		case strings.ContainsRune(passwordSpecials, r):
			special = true
		}
	}
	return upper && digit && special
}

// IsValidUsername: 4-20 letras (latinas o cirílicas), dígitos o !@#$%^&*_+-=~?, sin dos símbolos seguidos.
func IsValidUsername(s string) bool {
	n := utf8.RuneCountInString(s)
	if n < 4 || n > 20 {
		return false
	}
	prevSpecial := false
	for _, r := range s {
		special := strings.ContainsRune(usernameSpecials, r)
		switch {
		case special:
			if prevSpecial {
				return false
			}
		case r < utf8.RuneSelf && (unicode.IsLetter(r) || unicode.IsDigit(r)):
		case unicode.Is(unicode.Cyrillic, r) && unicode.IsLetter(r):
		default:
			return false
		}
		prevSpecial = special
	}
	return true
}
