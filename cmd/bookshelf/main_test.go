package main

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadDotEnv(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		env, err := loadDotEnv(t.TempDir())
		if err != nil {
			t.Fatal(err)
		}
		if len(env) != 0 {
			t.Errorf("env = %v, want empty", env)
		}
	})

	t.Run("parses entries", func(t *testing.T) {
		dir := t.TempDir()
		content := "# comment\n\nHTTP=:9090\n LOG_LEVEL = debug \nGEO_DB=\"/tmp/geo db.mmdb\"\nnot a pair\n"
		if err := os.WriteFile(filepath.Join(dir, ".env"), []byte(content), 0o600); err != nil {
			t.Fatal(err)
		}
		env, err := loadDotEnv(dir)
		if err != nil {
			t.Fatal(err)
		}
		want := map[string]string{"HTTP": ":9090", "LOG_LEVEL": "debug", "GEO_DB": "/tmp/geo db.mmdb"}
		if len(env) != len(want) {
			t.Fatalf("env = %v, want %v", env, want)
		}
		for k, v := range want {
			if env[k] != v {
				t.Errorf("env[%q] = %q, want %q", k, env[k], v)
			}
		}
	})

	for _, line := range []string{"HTTP='x'", "HTTP=\"unterminated"} {
		t.Run(line, func(t *testing.T) {
			dir := t.TempDir()
			if err := os.WriteFile(filepath.Join(dir, ".env"), []byte(line+"\n"), 0o600); err != nil {
				t.Fatal(err)
			}
			if _, err := loadDotEnv(dir); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
	}
	for _, tt := range tests {
		got, err := parseLogLevel(tt.in)
		if err != nil {
			t.Errorf("parseLogLevel(%q) error = %v", tt.in, err)
		} else if got != tt.want {
			t.Errorf("parseLogLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
	if _, err := parseLogLevel("verbose"); err == nil {
		t.Error("parseLogLevel(verbose) expected error")
	}
}

func TestDropEmptyAttr(t *testing.T) {
	dropped := []slog.Attr{
		slog.String("s", ""),
		slog.Bool("b", false),
		slog.Int("i", 0),
		slog.Duration("d", 0),
		slog.Time("t", time.Time{}),
		slog.Any("n", nil),
		slog.String("ip", "127.0.0.1"),
		slog.String("ip", "::1"),
	}
	for _, a := range dropped {
		if got := dropEmptyAttr(a); !got.Equal(slog.Attr{}) {
			t.Errorf("dropEmptyAttr(%v) = %v, want empty", a, got)
		}
	}
	kept := []slog.Attr{
		slog.String("s", "x"),
		slog.Bool("b", true),
		slog.Int("i", 3),
		slog.String("ip", "192.0.2.1"),
	}
	for _, a := range kept {
		if got := dropEmptyAttr(a); !got.Equal(a) {
			t.Errorf("dropEmptyAttr(%v) = %v, want unchanged", a, got)
		}
	}
}

func TestPrintVersion(t *testing.T) {
	var buf bytes.Buffer
	printVersion(&buf)
	if !strings.HasPrefix(buf.String(), "bookshelf ") {
		t.Errorf("printVersion() = %q", buf.String())
	}
	if !strings.Contains(buf.String(), "Go version:") {
		t.Errorf("printVersion() missing Go version: %q", buf.String())
	}
}
