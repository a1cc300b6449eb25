package httpserver

import (
	"errors"
	"net/http"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

const (
	EmailMaxLength    = 254
	PasswordMinLength = 8
	PasswordMaxLength = 256
)

const (
	msgFieldRequired    = "This field is required"
	msgEmailTooLong     = "Email must be at most 254 characters"
	msgInvalidEmail     = "Invalid email"
	msgPasswordTooShort = "Password must be at least 8 characters"
	msgPasswordTooLong  = "Password must be at most 256 characters"
	msgPasswordMismatch = "Password doesn't match"
	msgEmailTaken       = "Email is already taken"
	msgBadCredentials   = "Incorrect email or password"
)

// https://html.spec.whatwg.org/multipage/input.html#valid-e-mail-address
var emailRe = regexp.MustCompile("^[a-zA-Z0-9.!#$%&'*+/=?^_`{|}~-]+@[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?(?:\\.[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?)*$")

type signupForm struct {
	Email           string `form:"email" validate:"required,max=254,html_email"`
	Password        string `form:"password" validate:"required,min=8,max=256"`
	ConfirmPassword string `form:"confirm_password" validate:"required,eqfield=Password"`
}

type signinForm struct {
	Email    string `form:"email" validate:"required,html_email"`
	Password string `form:"password" validate:"required"`
	Next     string `form:"next"`
}

func parseSignupForm(r *http.Request) (signupForm, error) {
	if err := r.ParseForm(); err != nil {
		return signupForm{}, err
	}
	return signupForm{
		Email:           strings.TrimSpace(r.PostForm.Get("email")),
		Password:        r.PostForm.Get("password"),
		ConfirmPassword: r.PostForm.Get("confirm_password"),
	}, nil
}

func parseSigninForm(r *http.Request) (signinForm, error) {
	if err := r.ParseForm(); err != nil {
		return signinForm{}, err
	}
	return signinForm{
		Email:    strings.TrimSpace(r.PostForm.Get("email")),
		Password: r.PostForm.Get("password"),
		Next:     r.PostForm.Get("next"),
	}, nil
}

// formState is what the form partials render: echoed values, per-field errors and
// the field to focus.
type formState struct {
	Email  string
	Next   string
	Errors map[string]string
	Focus  string
}

func (f formState) Error(field string) string { return f.Errors[field] }

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		return fld.Tag.Get("form")
	})
	_ = v.RegisterValidation("html_email", func(fl validator.FieldLevel) bool {
		return emailRe.MatchString(fl.Field().String())
	})
	return v
}

// fieldErrors maps validation failures to display messages, keyed by form field name.
// It returns nil when err is not a validation failure.
func fieldErrors(err error) map[string]string {
	var ves validator.ValidationErrors
	if !errors.As(err, &ves) {
		return nil
	}
	out := make(map[string]string, len(ves))
	for _, fe := range ves {
		out[fe.Field()] = message(fe)
	}
	return out
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return msgFieldRequired
	case "html_email":
		return msgInvalidEmail
	case "eqfield":
		return msgPasswordMismatch
	case "min":
		return msgPasswordTooShort
	case "max":
		if fe.Field() == "email" {
			return msgEmailTooLong
		}
		return msgPasswordTooLong
	}
	return fe.Error()
}

// focusOf picks the first errored field in display order.
func focusOf(errs map[string]string, order ...string) string {
	for _, f := range order {
		if _, ok := errs[f]; ok {
			return f
		}
	}
	return ""
}
