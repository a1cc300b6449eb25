package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	pkgcrypto "github.com/and161185/authsite/internal/crypto"
	"github.com/and161185/authsite/internal/errs"
)

type authFixture struct {
	svc      *AuthServiceImpl
	accounts *fakeAccounts
	sessions *fakeSessions
}

func newAuthFixture(t *testing.T) authFixture {
	t.Helper()
	accounts := newFakeAccounts()
	sessions := newFakeSessions()
	sm, err := NewSessionManager(sessions, accounts, []byte("0123456789abcdef0123456789abcdef"), time.Hour, zap.NewNop())
	require.NoError(t, err)
	svc := NewAuthService(accounts, pkgcrypto.NewHasher(2, testParams), sm)
	return authFixture{svc: svc, accounts: accounts, sessions: sessions}
}

func TestNormalizeEmail(t *testing.T) {
	t.Parallel()
	require.Equal(t, "a@example.com", NormalizeEmail("  A@Example.COM "))
	require.Equal(t, "", NormalizeEmail("   "))
}

func TestAuth_SignUp_SignsIn(t *testing.T) {
	t.Parallel()
	f := newAuthFixture(t)
	ctx := context.Background()

	issued, err := f.svc.SignUp(ctx, "A@example.com", "password123")
	require.NoError(t, err)
	require.NotEmpty(t, issued.Cookie)

	p, _, ok := f.svc.Resolve(ctx, issued.Cookie)
	require.True(t, ok)
	require.Equal(t, "a@example.com", p.Email)

	acc, err := f.accounts.GetByEmail(ctx, "a@example.com")
	require.NoError(t, err)
	require.NotEqual(t, "password123", acc.PasswordHash)
}

func TestAuth_SignUp_Validation(t *testing.T) {
	t.Parallel()
	f := newAuthFixture(t)

	_, err := f.svc.SignUp(context.Background(), " ", "password123")
	require.ErrorIs(t, err, errs.ErrInvalidInput)
	_, err = f.svc.SignUp(context.Background(), "a@example.com", "")
	require.ErrorIs(t, err, errs.ErrInvalidInput)
	require.Equal(t, 0, f.accounts.count())
}

func TestAuth_SignUp_Duplicate(t *testing.T) {
	t.Parallel()
	f := newAuthFixture(t)
	ctx := context.Background()

	_, err := f.svc.SignUp(ctx, "a@example.com", "password123")
	require.NoError(t, err)

	_, err = f.svc.SignUp(ctx, "a@example.com", "another-password")
	require.ErrorIs(t, err, errs.ErrAlreadyExists)
	require.Equal(t, 1, f.accounts.count())
	require.Equal(t, 1, f.sessions.len(), "losing attempt must not issue a session")
}

func TestAuth_SignUp_ConcurrentDuplicates(t *testing.T) {
	t.Parallel()
	f := newAuthFixture(t)
	ctx := context.Background()

	const n = 6
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		ok, dup int
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.SignUp(ctx, "race@example.com", "password123")
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				ok++
			case errors.Is(err, errs.ErrAlreadyExists):
				dup++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	require.Equal(t, 1, ok)
	require.Equal(t, n-1, dup)
	require.Equal(t, 1, f.accounts.count())
}

func TestAuth_SignUp_Failures(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	accounts := newFakeAccounts()
	sessions := newFakeSessions()
	sm, err := NewSessionManager(sessions, accounts, []byte("k"), time.Hour, nil)
	require.NoError(t, err)

	svc := NewAuthService(accounts, &stubHasher{hashErr: errs.ErrWorkerUnavailable}, sm)
	_, err = svc.SignUp(ctx, "a@example.com", "password123")
	require.ErrorIs(t, err, errs.ErrWorkerUnavailable)
	require.Equal(t, 0, accounts.count())

	svc = NewAuthService(accounts, &stubHasher{}, sm)
	accounts.createErr = errBoom
	_, err = svc.SignUp(ctx, "a@example.com", "password123")
	require.ErrorIs(t, err, errBoom)
	accounts.createErr = nil

	sessions.createErr = errBoom
	_, err = svc.SignUp(ctx, "b@example.com", "password123")
	require.ErrorIs(t, err, errBoom)
}

func TestAuth_SignInScenario(t *testing.T) {
	t.Parallel()
	f := newAuthFixture(t)
	ctx := context.Background()

	_, err := f.svc.SignUp(ctx, "a@example.com", "password123")
	require.NoError(t, err)

	issued, err := f.svc.SignIn(ctx, "a@example.com", "password123")
	require.NoError(t, err)
	_, _, ok := f.svc.Resolve(ctx, issued.Cookie)
	require.True(t, ok)

	_, errWrong := f.svc.SignIn(ctx, "a@example.com", "wrong")
	require.ErrorIs(t, errWrong, errs.ErrInvalidCredentials)

	_, errMissing := f.svc.SignIn(ctx, "missing@example.com", "x")
	require.ErrorIs(t, errMissing, errs.ErrInvalidCredentials)
	require.Equal(t, errWrong, errMissing)
}

func TestAuth_SignIn_StorageFailure(t *testing.T) {
	t.Parallel()
	f := newAuthFixture(t)

	f.accounts.getErr = errBoom
	_, err := f.svc.SignIn(context.Background(), "a@example.com", "password123")
	require.ErrorIs(t, err, errBoom)
	require.NotErrorIs(t, err, errs.ErrInvalidCredentials)
}

func TestAuth_SignOut(t *testing.T) {
	t.Parallel()
	f := newAuthFixture(t)
	ctx := context.Background()

	issued, err := f.svc.SignUp(ctx, "a@example.com", "password123")
	require.NoError(t, err)

	require.NoError(t, f.svc.SignOut(ctx, issued.Cookie))
	_, _, ok := f.svc.Resolve(ctx, issued.Cookie)
	require.False(t, ok)

	require.NoError(t, f.svc.SignOut(ctx, issued.Cookie))
	require.NoError(t, f.svc.SignOut(ctx, ""))
}
