package crypto

import (
	"context"
	"fmt"
	"runtime"
	"sync"

	"golang.org/x/sync/semaphore"

	"github.com/and161185/authsite/internal/errs"
)

// Hasher runs Argon2id work on a bounded set of worker goroutines so that
// concurrent requests never queue more KDF computations than there are CPUs.
type Hasher struct {
	params Params
	sem    *semaphore.Weighted

	dummyOnce sync.Once
	dummy     string
	dummyErr  error
}

// NewHasher constructs a Hasher with at most workers concurrent computations.
// workers <= 0 means runtime.GOMAXPROCS(0).
func NewHasher(workers int, p Params) *Hasher {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &Hasher{params: p, sem: semaphore.NewWeighted(int64(workers))}
}

// Hash derives a salted PHC hash of password.
func (h *Hasher) Hash(ctx context.Context, password []byte) (string, error) {
	var (
		encoded string
		err     error
	)
	if werr := h.run(ctx, func() { encoded, err = GenerateHash(password, h.params) }); werr != nil {
		return "", werr
	}
	if err != nil {
		return "", fmt.Errorf("%w: %v", errs.ErrHashing, err)
	}
	return encoded, nil
}

// Verify reports whether password matches encoded. A malformed hash is reported as a mismatch.
func (h *Hasher) Verify(ctx context.Context, password []byte, encoded string) (bool, error) {
	var ok bool
	if err := h.run(ctx, func() { ok = CompareHash(password, encoded) }); err != nil {
		return false, err
	}
	return ok, nil
}

// VerifyDummy spends the same work as Verify against a throwaway hash.
func (h *Hasher) VerifyDummy(ctx context.Context, password []byte) error {
	var err error
	werr := h.run(ctx, func() {
		h.dummyOnce.Do(func() {
			h.dummy, h.dummyErr = GenerateHash([]byte("dummy-password"), h.params)
		})
		if h.dummyErr != nil {
			err = fmt.Errorf("%w: %v", errs.ErrHashing, h.dummyErr)
			return
		}
		_ = CompareHash(password, h.dummy)
	})
	if werr != nil {
		return werr
	}
	return err
}

// run executes fn on a worker goroutine and waits for it or for ctx.
// Results written by fn must only be read when run returns nil.
func (h *Hasher) run(ctx context.Context, fn func()) error {
	if err := h.sem.Acquire(ctx, 1); err != nil {
		return fmt.Errorf("%w: %v", errs.ErrWorkerUnavailable, err)
	}

	done := make(chan error, 1)
	go func() {
		defer h.sem.Release(1)
		defer func() {
			if r := recover(); r != nil {
				done <- fmt.Errorf("%w: worker panic: %v", errs.ErrWorkerUnavailable, r)
			}
		}()
		fn()
		done <- nil
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return fmt.Errorf("%w: %v", errs.ErrWorkerUnavailable, ctx.Err())
	}
}
