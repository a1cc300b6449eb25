package httpserver

import (
	"context"

	"github.com/and161185/authsite/internal/model"
)

type ctxKey string

const (
	principalKey ctxKey = "authsite.principal"
	renderKey    ctxKey = "authsite.render"
)

// WithPrincipal stores the signed-in account in context.
func WithPrincipal(ctx context.Context, p model.Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

// PrincipalFromCtx fetches the signed-in account from context.
func PrincipalFromCtx(ctx context.Context) (model.Principal, bool) {
	v := ctx.Value(principalKey)
	if v == nil {
		return model.Principal{}, false
	}
	p, ok := v.(model.Principal)
	return p, ok
}

// RenderOptions tells handlers whether to wrap the page in the base layout.
type RenderOptions struct {
	UseLayout bool
}

func withRenderOptions(ctx context.Context, o RenderOptions) context.Context {
	return context.WithValue(ctx, renderKey, o)
}

func renderOptionsFromCtx(ctx context.Context) RenderOptions {
	if o, ok := ctx.Value(renderKey).(RenderOptions); ok {
		return o
	}
	return RenderOptions{UseLayout: true}
}
