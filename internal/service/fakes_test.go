package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/gofrs/uuid/v5"

	pkgcrypto "github.com/and161185/authsite/internal/crypto"
	"github.com/and161185/authsite/internal/errs"
	"github.com/and161185/authsite/internal/model"
	"github.com/and161185/authsite/internal/repository"
)

var testParams = pkgcrypto.Params{Memory: 64, Time: 1, Threads: 1, KeyLen: 32, SaltLen: 16}

type fakeAccounts struct {
	mu      sync.Mutex
	byEmail map[string]*model.Account

	createErr error
	getErr    error
}

var _ repository.AccountRepository = (*fakeAccounts)(nil)

func newFakeAccounts() *fakeAccounts {
	return &fakeAccounts{byEmail: map[string]*model.Account{}}
}

// Create mimics the unique constraint: the check and the insert are one step.
func (f *fakeAccounts) Create(_ context.Context, email, hash string) (*model.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return nil, f.createErr
	}
	if _, exists := f.byEmail[email]; exists {
		return nil, errs.ErrAlreadyExists
	}
	a := &model.Account{ID: uuid.Must(uuid.NewV4()), Email: email, PasswordHash: hash, CreatedAt: time.Now()}
	f.byEmail[email] = a
	c := *a
	return &c, nil
}

func (f *fakeAccounts) GetByID(_ context.Context, id uuid.UUID) (*model.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	for _, a := range f.byEmail {
		if a.ID == id {
			c := *a
			return &c, nil
		}
	}
	return nil, errs.ErrNotFound
}

func (f *fakeAccounts) GetByEmail(_ context.Context, email string) (*model.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	a, ok := f.byEmail[email]
	if !ok {
		return nil, errs.ErrNotFound
	}
	c := *a
	return &c, nil
}

func (f *fakeAccounts) setPasswordHash(email, hash string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.byEmail[email].PasswordHash = hash
}

func (f *fakeAccounts) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.byEmail)
}

type fakeSessions struct {
	mu   sync.Mutex
	rows map[string]model.Session

	createErr error
	getErr    error
	deleteErr error

	deleteCalls int
}

var _ repository.SessionRepository = (*fakeSessions)(nil)

func newFakeSessions() *fakeSessions {
	return &fakeSessions{rows: map[string]model.Session{}}
}

func (f *fakeSessions) Create(_ context.Context, s *model.Session) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	f.rows[s.Token] = *s
	return nil
}

func (f *fakeSessions) Get(_ context.Context, token string) (*model.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	s, ok := f.rows[token]
	if !ok {
		return nil, errs.ErrNotFound
	}
	return &s, nil
}

func (f *fakeSessions) Touch(_ context.Context, token string, exp time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.rows[token]
	if !ok {
		return errs.ErrNotFound
	}
	s.ExpiresAt = exp
	f.rows[token] = s
	return nil
}

func (f *fakeSessions) Delete(_ context.Context, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleteCalls++
	if f.deleteErr != nil {
		return f.deleteErr
	}
	delete(f.rows, token)
	return nil
}

func (f *fakeSessions) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for k, s := range f.rows {
		if !s.ExpiresAt.After(now) {
			delete(f.rows, k)
			n++
		}
	}
	return n, nil
}

func (f *fakeSessions) only() model.Session {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range f.rows {
		return s
	}
	return model.Session{}
}

func (f *fakeSessions) len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.rows)
}

// stubHasher records which path the authenticator took.
type stubHasher struct {
	verifyOK  bool
	verifyErr error
	dummyErr  error
	hashErr   error

	verifyCalls int
	dummyCalls  int
}

func (h *stubHasher) Hash(_ context.Context, pw []byte) (string, error) {
	if h.hashErr != nil {
		return "", h.hashErr
	}
	return "hash:" + string(pw), nil
}

func (h *stubHasher) Verify(context.Context, []byte, string) (bool, error) {
	h.verifyCalls++
	return h.verifyOK, h.verifyErr
}

func (h *stubHasher) VerifyDummy(context.Context, []byte) error {
	h.dummyCalls++
	return h.dummyErr
}

var errBoom = errors.New("boom")

type clock struct {
	mu sync.Mutex
	t  time.Time
}

func newClock() *clock { return &clock{t: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)} }

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}
