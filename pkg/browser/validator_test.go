package browser

import (
	"errors"
	"strings"
	"testing"
)

func TestCheckOptions(t *testing.T) {
	v := newOptionsValidator()

	tests := []struct {
		name    string
		opts    FinderOptions
		wantErr bool
		field   string
	}{
		{
			name: "zero options are valid",
			opts: FinderOptions{},
		},
		{
			name: "any is valid",
			opts: FinderOptions{BrowserType: BrowserTypeAny},
		},
		{
			name: "concrete type is valid",
			opts: FinderOptions{BrowserType: "release"},
		},
		{
			name: "exact with executable is valid",
			opts: FinderOptions{BrowserType: BrowserTypeExact, BrowserExecutable: "/opt/chrome"},
		},
		{
			name:    "exact without executable",
			opts:    FinderOptions{BrowserType: BrowserTypeExact},
			wantErr: true,
			field:   "browser_executable",
		},
		{
			name:    "executable without exact",
			opts:    FinderOptions{BrowserExecutable: "/opt/chrome"},
			wantErr: true,
			field:   "browser_executable",
		},
		{
			name: "cros with remote is valid",
			opts: FinderOptions{BrowserType: BrowserTypeCros, CrosRemote: &CrosRemote{Host: "dut-1"}},
		},
		{
			name: "cros guest with remote is valid",
			opts: FinderOptions{BrowserType: BrowserTypeCrosGuest, CrosRemote: &CrosRemote{Host: "dut-1"}},
		},
		{
			name:    "cros without remote",
			opts:    FinderOptions{BrowserType: BrowserTypeCros},
			wantErr: true,
			field:   "cros_remote",
		},
		{
			name:    "remote without cros type",
			opts:    FinderOptions{BrowserType: "release", CrosRemote: &CrosRemote{Host: "dut-1"}},
			wantErr: true,
			field:   "cros_remote",
		},
		{
			name:    "remote without host",
			opts:    FinderOptions{BrowserType: BrowserTypeCros, CrosRemote: &CrosRemote{}},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.checkOptions(tt.opts)
			if !tt.wantErr {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}

			var confErr *ConfigurationError
			if !errors.As(err, &confErr) {
				t.Fatalf("expected *ConfigurationError, got %T: %v", err, err)
			}
			if tt.field != "" && confErr.Field != tt.field {
				t.Errorf("expected field %q, got %q", tt.field, confErr.Field)
			}
		})
	}
}

func TestConfigurationErrorMessageNamesType(t *testing.T) {
	v := newOptionsValidator()

	err := v.checkOptions(FinderOptions{BrowserType: BrowserTypeExact})
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), `"exact"`) {
		t.Errorf("expected the message to name the exact type, got %q", err.Error())
	}
}

func TestBrowserTypeRequiredErrorListsTypes(t *testing.T) {
	err := newBrowserTypeRequiredError([]string{"stable", "canary", "stable"})

	msg := err.Error()
	if !strings.Contains(msg, "browser type must be specified") {
		t.Errorf("unexpected message: %q", msg)
	}
	if !strings.Contains(msg, "canary") || !strings.Contains(msg, "stable") {
		t.Errorf("expected the message to list available types, got %q", msg)
	}

	if !errors.Is(err, &BrowserTypeRequiredError{}) {
		t.Error("expected errors.Is to match by kind")
	}
}
