package httpserver

import (
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/and161185/authsite/internal/errs"
	"github.com/and161185/authsite/internal/service"
)

// Handlers serves the account pages and form posts.
type Handlers struct {
	auth     service.AuthService
	views    *views
	validate *validator.Validate
	jar      cookieJar
	log      *zap.Logger
}

func (h *Handlers) page(w http.ResponseWriter, r *http.Request, status int, name string, form formState) {
	data := pageData{Form: form}
	if p, ok := PrincipalFromCtx(r.Context()); ok {
		data.Principal = &p
	}
	block := "content"
	if renderOptionsFromCtx(r.Context()).UseLayout {
		block = "layout"
	}
	if err := h.views.render(w, status, name, block, data); err != nil {
		h.fail(w, r, "render page", err)
	}
}

func (h *Handlers) partial(w http.ResponseWriter, r *http.Request, status int, page, block string, form formState) {
	if err := h.views.render(w, status, page, block, pageData{Form: form}); err != nil {
		h.fail(w, r, "render form", err)
	}
}

// fail logs a system failure and answers with a generic 500.
func (h *Handlers) fail(w http.ResponseWriter, r *http.Request, msg string, err error) {
	h.log.Error(msg, zap.Error(err), zap.String("path", r.URL.Path))
	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}

func (h *Handlers) Home(w http.ResponseWriter, r *http.Request) {
	h.page(w, r, http.StatusOK, "home", formState{})
}

func (h *Handlers) NotFound(w http.ResponseWriter, r *http.Request) {
	h.page(w, r, http.StatusNotFound, "not_found", formState{})
}

func (h *Handlers) Protected(w http.ResponseWriter, r *http.Request) {
	h.page(w, r, http.StatusOK, "protected", formState{})
}

func (h *Handlers) SignupPage(w http.ResponseWriter, r *http.Request) {
	h.page(w, r, http.StatusOK, "signup", formState{Focus: "email"})
}

// Signup validates the form, creates the account and signs it in.
func (h *Handlers) Signup(w http.ResponseWriter, r *http.Request) {
	form, err := parseSignupForm(r)
	if err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	state := formState{Email: form.Email}

	if fe := fieldErrors(h.validate.Struct(form)); fe != nil {
		state.Errors = fe
		state.Focus = focusOf(fe, "email", "password", "confirm_password")
		h.partial(w, r, http.StatusUnprocessableEntity, "signup", "signup_form", state)
		return
	}

	issued, err := h.auth.SignUp(r.Context(), form.Email, form.Password)
	switch {
	case err == nil:
		h.jar.set(w, issued)
		clientRedirect(w, http.StatusCreated, homeRoute)
	case errors.Is(err, errs.ErrAlreadyExists):
		state.Errors = map[string]string{"email": msgEmailTaken}
		state.Focus = "email"
		h.partial(w, r, http.StatusConflict, "signup", "signup_form", state)
	default:
		h.fail(w, r, "sign up", err)
	}
}

func (h *Handlers) SigninPage(w http.ResponseWriter, r *http.Request) {
	h.page(w, r, http.StatusOK, "signin", formState{Next: r.URL.Query().Get("next"), Focus: "email"})
}

// Signin validates the form, checks the credentials and starts a session.
func (h *Handlers) Signin(w http.ResponseWriter, r *http.Request) {
	form, err := parseSigninForm(r)
	if err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	state := formState{Email: form.Email, Next: form.Next}

	if fe := fieldErrors(h.validate.Struct(form)); fe != nil {
		state.Errors = fe
		state.Focus = focusOf(fe, "email", "password")
		h.partial(w, r, http.StatusUnprocessableEntity, "signin", "signin_form", state)
		return
	}

	issued, err := h.auth.SignIn(r.Context(), form.Email, form.Password)
	switch {
	case err == nil:
		h.jar.set(w, issued)
		clientRedirect(w, http.StatusOK, safeNext(form.Next))
	case errors.Is(err, errs.ErrInvalidCredentials):
		state.Errors = map[string]string{"general": msgBadCredentials}
		state.Focus = "email"
		h.partial(w, r, http.StatusUnauthorized, "signin", "signin_form", state)
	default:
		h.fail(w, r, "sign in", err)
	}
}

// Logout revokes the current session, if any, and expires the cookie.
func (h *Handlers) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.auth.SignOut(r.Context(), sessionCookie(r)); err != nil {
		h.fail(w, r, "log out", err)
		return
	}
	h.jar.clear(w)
	clientRedirect(w, http.StatusNoContent, homeRoute)
}
