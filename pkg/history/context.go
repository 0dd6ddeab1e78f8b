package history

import (
	"context"

	"github.com/vango-dev/navhist/internal/errors"
)

type contextKey struct{}

// NewContext returns a copy of ctx carrying h.
func NewContext(ctx context.Context, h *History) context.Context {
	return context.WithValue(ctx, contextKey{}, h)
}

// FromContext returns the History attached to ctx, if any.
func FromContext(ctx context.Context) (*History, bool) {
	h, ok := ctx.Value(contextKey{}).(*History)
	return h, ok && h != nil
}

// MustFromContext returns the History attached to ctx and panics when
// there is none.
func MustFromContext(ctx context.Context) *History {
	h, ok := FromContext(ctx)
	if !ok {
		panic(errors.New("E001").
			WithSuggestion("Wrap the context with history.NewContext(ctx, h)"))
	}
	return h
}
