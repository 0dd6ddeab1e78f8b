package history

import (
	"context"
	"testing"

	"github.com/vango-dev/navhist/internal/errors"
)

func TestContext(t *testing.T) {
	h := NewMemory(MemoryOptions{})
	ctx := NewContext(context.Background(), h)

	got, ok := FromContext(ctx)
	if !ok || got != h {
		t.Fatalf("FromContext() = %v, %v", got, ok)
	}
	if MustFromContext(ctx) != h {
		t.Error("MustFromContext() returned a different History")
	}

	if _, ok := FromContext(context.Background()); ok {
		t.Error("FromContext() found a History in an empty context")
	}
	if _, ok := FromContext(NewContext(context.Background(), nil)); ok {
		t.Error("FromContext() accepted a nil History")
	}
}

func TestMustFromContextPanics(t *testing.T) {
	defer func() {
		r := recover()
		err, ok := r.(error)
		if !ok {
			t.Fatalf("recovered %v, want error", r)
		}
		if !errors.HasCode(err, "E001") {
			t.Errorf("panic error = %v, want E001", err)
		}
	}()
	MustFromContext(context.Background())
}
