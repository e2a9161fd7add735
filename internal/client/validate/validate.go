// Package validate checks sign-up and profile forms before anything is sent
// to the remote store.
package validate

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/dmitrijs2005/dmoclinic/internal/common"
	"github.com/go-playground/validator/v10"
)

const (
	passwordMinLength = 6
	passwordSpecials  = "$@#!%*?&"
)

var phoneRe = regexp.MustCompile(`^01[0-9]{9}$`)

var v = newValidator()

func newValidator() *validator.Validate {
	val := validator.New(validator.WithRequiredStructEnabled())
	must(val.RegisterValidation("password", func(fl validator.FieldLevel) bool {
		return isPassword(fl.Field().String())
	}))
	must(val.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
		return phoneRe.MatchString(fl.Field().String())
	}))
	must(val.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	}))
	return val
}

func must(err error) {
	if err != nil {
		panic(err)
	}
}

// isPassword requires at least six characters including an ASCII lowercase
// letter, an ASCII uppercase letter and one of $@#!%*?&.
func isPassword(s string) bool {
	if strings.ContainsAny(s, "\r\n") || len([]rune(s)) < passwordMinLength {
		return false
	}
	var lower, upper, special bool
	for _, r := range s {
		switch {
		case 'a' <= r && r <= 'z':
			lower = true
		case 'A' <= r && r <= 'Z':
			upper = true
		case strings.ContainsRune(passwordSpecials, r):
			special = true
		}
	}
	return lower && upper && special
}

// SignupForm is what a new account is created from. The password is checked
// here and handed to the auth provider; it is never stored.
type SignupForm struct {
	FirstName   string `validate:"notblank"`
	LastName    string `validate:"notblank"`
	Email       string `validate:"required,email"`
	Password    string `validate:"password"`
	PhoneNumber string `validate:"phone"`
}

// Form validates f and reports every failing field.
func Form(f SignupForm) error {
	return wrap(v.Struct(f))
}

func Email(s string) error {
	return wrap(v.Var(s, "required,email"))
}

func Password(s string) error {
	return wrap(v.Var(s, "password"))
}

func Phone(s string) error {
	return wrap(v.Var(s, "phone"))
}

func Name(s string) error {
	return wrap(v.Var(s, "notblank"))
}

func wrap(err error) error {
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		if fe.Field() == "" {
			msgs = append(msgs, "failed "+fe.Tag())
			continue
		}
		msgs = append(msgs, fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag()))
	}
	return fmt.Errorf("%w: %s", common.ErrInvalidInput, strings.Join(msgs, ", "))
}
