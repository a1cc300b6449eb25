// Package httpserver is the server-rendered HTML front end over the auth service.
package httpserver

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/and161185/authsite/internal/service"
)

// Options configures the router.
type Options struct {
	SecureCookie bool
}

// New builds the handlers and wires them into a chi router.
func New(auth service.AuthService, opts Options, log *zap.Logger) (http.Handler, error) {
	if log == nil {
		log = zap.NewNop()
	}
	v, err := loadViews()
	if err != nil {
		return nil, fmt.Errorf("load views: %w", err)
	}
	h := &Handlers{
		auth:     auth,
		views:    v,
		validate: newValidator(),
		jar:      cookieJar{secure: opts.SecureCookie},
		log:      log,
	}

	r := chi.NewRouter()
	r.Use(
		middleware.RequestID,
		Recover(log),
		Logging(log),
		CacheControl("no-cache"),
		Render,
		Session(auth, h.jar),
	)

	r.Get("/", h.Home)
	r.Group(func(r chi.Router) {
		r.Use(RedirectAuthenticated)
		r.Get("/signup", h.SignupPage)
		r.Get("/signin", h.SigninPage)
	})
	r.Post("/signup", h.Signup)
	r.Post("/signin", h.Signin)
	r.Post("/logout", h.Logout)
	r.Group(func(r chi.Router) {
		r.Use(RequireAuth, CacheControl("no-cache, private"))
		r.Get("/protected", h.Protected)
	})
	r.NotFound(h.NotFound)

	return r, nil
}
