package errors

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		code    string
		wantMsg string
		wantCat Category
	}{
		{
			name:    "runtime error",
			code:    "E001",
			wantMsg: "History used outside provider",
			wantCat: CategoryRuntime,
		},
		{
			name:    "protocol error",
			code:    "E060",
			wantMsg: "WebSocket connection failed",
			wantCat: CategoryProtocol,
		},
		{
			name:    "config error",
			code:    "E121",
			wantMsg: "Invalid history mode",
			wantCat: CategoryConfig,
		},
		{
			name:    "unknown error code",
			code:    "E999",
			wantMsg: "Unknown error",
			wantCat: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := New(tt.code)
			if err.Message != tt.wantMsg {
				t.Errorf("Message = %q, want %q", err.Message, tt.wantMsg)
			}
			if err.Category != tt.wantCat {
				t.Errorf("Category = %q, want %q", err.Category, tt.wantCat)
			}
			if err.Code != tt.code {
				t.Errorf("Code = %q, want %q", err.Code, tt.code)
			}
		})
	}
}

func TestNewf(t *testing.T) {
	err := Newf(CategoryCLI, "unknown command %q", "jump")
	if err.Message != `unknown command "jump"` {
		t.Errorf("Message = %q", err.Message)
	}
	if err.Code != "" {
		t.Errorf("Code = %q, want empty", err.Code)
	}
	if err.Error() != `unknown command "jump"` {
		t.Errorf("Error() = %q", err.Error())
	}
}

func TestWrapAndUnwrap(t *testing.T) {
	cause := errors.New("connection reset")
	err := New("E060").Wrap(cause)

	if !errors.Is(err, cause) {
		t.Error("errors.Is should find the wrapped cause")
	}
	if got := err.Error(); got != "E060: WebSocket connection failed: connection reset" {
		t.Errorf("Error() = %q", got)
	}
}

func TestFromError(t *testing.T) {
	if FromError(nil, "E060") != nil {
		t.Error("FromError(nil) should be nil")
	}

	existing := New("E061")
	wrapped := fmt.Errorf("read: %w", existing)
	if got := FromError(wrapped, "E060"); got != existing {
		t.Error("FromError should return the NavError already in the chain")
	}

	plain := errors.New("boom")
	got := FromError(plain, "E063")
	if got.Code != "E063" || !errors.Is(got, plain) {
		t.Errorf("FromError(plain) = %+v", got)
	}
}

func TestHasCode(t *testing.T) {
	err := fmt.Errorf("load: %w", New("E120"))
	if !HasCode(err, "E120") {
		t.Error("HasCode should see E120 through wrapping")
	}
	if HasCode(err, "E121") {
		t.Error("HasCode matched the wrong code")
	}
	if HasCode(errors.New("plain"), "E120") {
		t.Error("HasCode matched a plain error")
	}
}

func TestFormat(t *testing.T) {
	DisableColors()
	defer EnableColors()

	err := New("E060").
		Wrap(errors.New("dial tcp: refused")).
		WithSuggestion("Start the server with 'navhist serve'")

	out := err.Format()
	for _, want := range []string{
		"ERROR E060: WebSocket connection failed",
		"Cause: dial tcp: refused",
		"Hint: Start the server with 'navhist serve'",
		"Learn more: https://navhist.dev/docs/errors/E060",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("Format() missing %q in:\n%s", want, out)
		}
	}
}

func TestRegistryCodesHaveTemplates(t *testing.T) {
	for _, code := range GetAllCodes() {
		tmpl, ok := GetTemplate(code)
		if !ok {
			t.Fatalf("GetTemplate(%q) not found", code)
		}
		if tmpl.Message == "" || tmpl.Category == "" {
			t.Errorf("%s: incomplete template %+v", code, tmpl)
		}
		if !strings.HasSuffix(tmpl.DocURL, code) {
			t.Errorf("%s: DocURL %q does not end with the code", code, tmpl.DocURL)
		}
	}
}

func TestWrapText(t *testing.T) {
	lines := wrapText("one two three four five six", 9)
	for _, l := range lines {
		if len(l) > 9 {
			t.Errorf("line %q longer than 9", l)
		}
	}
	if strings.Join(lines, " ") != "one two three four five six" {
		t.Errorf("wrapText lost words: %v", lines)
	}
}
