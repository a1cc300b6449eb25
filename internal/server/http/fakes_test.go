package httpserver

import (
	"context"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/and161185/authsite/internal/errs"
	"github.com/and161185/authsite/internal/model"
	"github.com/and161185/authsite/internal/service"
)

// fakeAuth keeps accounts and sessions in memory. Cookie values are "sess-<email>".
type fakeAuth struct {
	mu        sync.Mutex
	passwords map[string]string
	sessions  map[string]model.Principal

	signUpErr  error
	signInErr  error
	signOutErr error

	signUpCalls int
	signInCalls int
	signedOut   []string
}

var _ service.AuthService = (*fakeAuth)(nil)

func newFakeAuth() *fakeAuth {
	return &fakeAuth{passwords: map[string]string{}, sessions: map[string]model.Principal{}}
}

func (f *fakeAuth) issue(email string) model.Issued {
	token := "sess-" + email
	f.sessions[token] = model.Principal{AccountID: uuid.Must(uuid.NewV4()), Email: email}
	return model.Issued{Cookie: token, ExpiresAt: time.Now().Add(time.Hour)}
}

func (f *fakeAuth) SignUp(_ context.Context, email, password string) (model.Issued, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.signUpCalls++
	if f.signUpErr != nil {
		return model.Issued{}, f.signUpErr
	}
	email = service.NormalizeEmail(email)
	if _, ok := f.passwords[email]; ok {
		return model.Issued{}, errs.ErrAlreadyExists
	}
	f.passwords[email] = password
	return f.issue(email), nil
}

func (f *fakeAuth) SignIn(_ context.Context, email, password string) (model.Issued, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.signInCalls++
	if f.signInErr != nil {
		return model.Issued{}, f.signInErr
	}
	email = service.NormalizeEmail(email)
	if pw, ok := f.passwords[email]; !ok || pw != password {
		return model.Issued{}, errs.ErrInvalidCredentials
	}
	return f.issue(email), nil
}

func (f *fakeAuth) SignOut(_ context.Context, cookie string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.signOutErr != nil {
		return f.signOutErr
	}
	f.signedOut = append(f.signedOut, cookie)
	delete(f.sessions, cookie)
	return nil
}

func (f *fakeAuth) Resolve(_ context.Context, cookie string) (model.Principal, model.Issued, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.sessions[cookie]
	if !ok {
		return model.Principal{}, model.Issued{}, false
	}
	return p, model.Issued{Cookie: cookie, ExpiresAt: time.Now().Add(time.Hour)}, true
}

// signedIn registers an account and returns its session cookie value.
func (f *fakeAuth) signedIn(email string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.passwords[email] = "password123"
	return f.issue(email).Cookie
}

func newTestRouter(t *testing.T, auth *fakeAuth) http.Handler {
	t.Helper()
	h, err := New(auth, Options{SecureCookie: true}, zaptest.NewLogger(t))
	require.NoError(t, err)
	return h
}

func findCookie(res *http.Response, name string) *http.Cookie {
	for _, c := range res.Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}
