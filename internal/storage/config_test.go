package storage

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadServerConfig(t *testing.T) {
	t.Run("creates defaults", func(t *testing.T) {
		dir := t.TempDir()
		cfg, err := LoadServerConfig(dir)
		if err != nil {
			t.Fatal(err)
		}
		want := DefaultServerConfig()
		if *cfg != want {
			t.Errorf("LoadServerConfig() = %+v, want %+v", cfg, want)
		}
		data, err := os.ReadFile(filepath.Join(dir, ConfigFile))
		if err != nil {
			t.Fatalf("config file not written: %v", err)
		}
		if !strings.Contains(string(data), "data_file: books.json") {
			t.Errorf("unexpected content:\n%s", data)
		}
	})

	t.Run("partial file keeps defaults", func(t *testing.T) {
		dir := t.TempDir()
		content := "data_file: library.json\nrate_limits:\n  write_per_min: 0\n"
		if err := os.WriteFile(filepath.Join(dir, ConfigFile), []byte(content), 0o600); err != nil {
			t.Fatal(err)
		}
		cfg, err := LoadServerConfig(dir)
		if err != nil {
			t.Fatal(err)
		}
		if cfg.DataFile != "library.json" {
			t.Errorf("DataFile = %q", cfg.DataFile)
		}
		if cfg.RateLimits.WritePerMin != 0 {
			t.Errorf("WritePerMin = %d, want 0", cfg.RateLimits.WritePerMin)
		}
		if cfg.RateLimits.ReadPerMin != 6000 {
			t.Errorf("ReadPerMin = %d, want default 6000", cfg.RateLimits.ReadPerMin)
		}
		if cfg.MaxRequestBodyBytes != 1024*1024 {
			t.Errorf("MaxRequestBodyBytes = %d", cfg.MaxRequestBodyBytes)
		}
	})

	t.Run("invalid", func(t *testing.T) {
		tests := []struct {
			name    string
			content string
		}{
			{"bad yaml", "data_file: [\n"},
			{"empty data file", "data_file: \"\"\n"},
			{"negative body limit", "max_request_body_bytes: -1\n"},
			{"negative read limit", "rate_limits:\n  read_per_min: -5\n"},
			{"history without email", "history:\n  enabled: true\n  author_email: nobody\n"},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				dir := t.TempDir()
				if err := os.WriteFile(filepath.Join(dir, ConfigFile), []byte(tt.content), 0o600); err != nil {
					t.Fatal(err)
				}
				if _, err := LoadServerConfig(dir); err == nil {
					t.Error("LoadServerConfig() succeeded")
				}
			})
		}
	})
}

func TestServerConfig_DataPath(t *testing.T) {
	cfg := DefaultServerConfig()
	if got, want := cfg.DataPath("data"), filepath.Join("data", "books.json"); got != want {
		t.Errorf("DataPath() = %q, want %q", got, want)
	}
	abs := filepath.Join(t.TempDir(), "elsewhere.json")
	cfg.DataFile = abs
	if got := cfg.DataPath("data"); got != abs {
		t.Errorf("DataPath() = %q, want %q", got, abs)
	}
}
