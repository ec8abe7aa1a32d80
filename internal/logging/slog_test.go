package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name     string
		opts     Options
		wantJSON bool
		wantErr  bool
	}{
		{name: "defaults", opts: Options{}},
		{name: "json debug", opts: Options{Level: "debug", Format: "JSON"}, wantJSON: true},
		{name: "bad level", opts: Options{Level: "loud"}, wantErr: true},
		{name: "bad format", opts: Options{Format: "xml"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			tt.opts.Writer = &buf
			logger, err := New(tt.opts)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			logger.Info("hello")
			if got := json.Valid(bytes.TrimSpace(buf.Bytes())); got != tt.wantJSON {
				t.Errorf("json output = %v, want %v: %q", got, tt.wantJSON, buf.String())
			}
		})
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"":      slog.LevelInfo,
		"debug": slog.LevelDebug,
		"WARN":  slog.LevelWarn,
		"error": slog.LevelError,
	}
	for name, want := range tests {
		got, err := ParseLevel(name)
		if err != nil {
			t.Errorf("ParseLevel(%q) error: %v", name, err)
		}
		if got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", name, got, want)
		}
	}
}

func TestAttrs(t *testing.T) {
	if a := Tool("calendar_get_now"); a.Key != KeyTool || a.Value.String() != "calendar_get_now" {
		t.Errorf("Tool() = %v", a)
	}
	if a := Account("work"); a.Key != KeyAccount || a.Value.String() != "work" {
		t.Errorf("Account() = %v", a)
	}
	if a := Status("success"); a.Key != KeyStatus {
		t.Errorf("Status() = %v", a)
	}
	if a := Calendar("primary"); a.Value.String() != "primary" {
		t.Errorf("Calendar(primary) = %v", a)
	}
	if a := Calendar("jane@example.com"); !strings.HasPrefix(a.Value.String(), "user:") {
		t.Errorf("Calendar(email) should be hashed, got %v", a)
	}
}

func TestWindow(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	start := time.Date(2025, 12, 9, 0, 0, 0, 0, time.UTC)

	logger.Info("search", Window(start, start.Add(24*time.Hour)))
	out := buf.String()
	if !strings.Contains(out, "window.start=2025-12-09T00:00:00Z") || !strings.Contains(out, "window.end=2025-12-10T00:00:00Z") {
		t.Errorf("unexpected window output: %q", out)
	}
}

func TestErr(t *testing.T) {
	if a := Err(errors.New("boom")); a.Key != KeyError || a.Value.String() != "boom" {
		t.Errorf("Err() = %v", a)
	}

	var buf bytes.Buffer
	slog.New(slog.NewTextHandler(&buf, nil)).Info("ok", Err(nil))
	if strings.Contains(buf.String(), KeyError) {
		t.Errorf("nil error should be omitted, got %q", buf.String())
	}
}

func TestAnonymizeEmail(t *testing.T) {
	if AnonymizeEmail("") != "" {
		t.Error("empty email should stay empty")
	}

	a := AnonymizeEmail("Jane@Example.com")
	b := AnonymizeEmail(" jane@example.com ")
	if a != b {
		t.Errorf("hash should ignore case and whitespace: %q vs %q", a, b)
	}
	if !strings.HasPrefix(a, "user:") || len(a) != len("user:")+16 {
		t.Errorf("unexpected hash format %q", a)
	}
	if strings.Contains(a, "jane") {
		t.Error("hash leaks the address")
	}
	if AnonymizeEmail("john@example.com") == a {
		t.Error("different emails should hash differently")
	}

	if attr := UserHash("jane@example.com"); attr.Key != KeyUserHash || attr.Value.String() != a {
		t.Errorf("UserHash() = %v", attr)
	}
}

func TestSanitizeToken(t *testing.T) {
	tests := map[string]string{
		"":            "<empty>",
		"ya29.secret": "[token:11 chars]",
	}
	for in, want := range tests {
		if got := SanitizeToken(in); got != want {
			t.Errorf("SanitizeToken(%q) = %q, want %q", in, got, want)
		}
	}
}
