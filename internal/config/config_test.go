package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"
)

func TestLoadFileWithEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
server:
  port: "9090"
telegram:
  token: file-token
  admin_ids: "1,2"
postgres:
  url: postgres://file/db
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv("BOT_TOKEN", "env-token")
	t.Setenv("REDIS_DB", "3")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Telegram.Token != "env-token" {
		t.Fatalf("expected env to win, got %q", cfg.Telegram.Token)
	}
	if cfg.Server.Port != "9090" || cfg.Postgres.URL != "postgres://file/db" {
		t.Fatalf("file values lost: %+v", cfg)
	}
	if cfg.Redis.DB != 3 {
		t.Fatalf("expected redis db 3, got %d", cfg.Redis.DB)
	}
}

func TestLoadMissingFileIsFine(t *testing.T) {
	t.Setenv("BOT_TOKEN", "env-token")
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Telegram.Token != "env-token" {
		t.Fatalf("expected env applied, got %q", cfg.Telegram.Token)
	}
}

func TestValidateRequiresToken(t *testing.T) {
	cfg := Config{}
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected error without token")
	}
	cfg.Telegram.Token = "t"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestAdminIDsSkipsMalformed(t *testing.T) {
	cfg := Config{}
	cfg.Telegram.AdminIDs = "1, 42,abc,, 7"
	if got := cfg.AdminIDs(); !reflect.DeepEqual(got, []int64{1, 42, 7}) {
		t.Fatalf("unexpected ids %v", got)
	}
}

func TestLaunchableWebAppURL(t *testing.T) {
	cases := []struct {
		raw  string
		want string
	}{
		{"https://quiz.example.com/app", "https://quiz.example.com/app"},
		{"", ""},
		{"http://quiz.example.com/app", ""},
		{"https://localhost:8080/app", ""},
		{"https://127.0.0.1/app", ""},
		{"https://quizhost/app", ""},
		{"not a url", ""},
	}
	for _, tc := range cases {
		cfg := Config{}
		cfg.Telegram.WebAppURL = tc.raw
		if got := cfg.LaunchableWebAppURL(); got != tc.want {
			t.Fatalf("LaunchableWebAppURL(%q) = %q, want %q", tc.raw, got, tc.want)
		}
	}
}

func TestTTLDuration(t *testing.T) {
	if got := TTLDuration("", time.Hour); got != time.Hour {
		t.Fatalf("expected fallback, got %v", got)
	}
	if got := TTLDuration("90s", time.Hour); got != 90*time.Second {
		t.Fatalf("expected parsed value, got %v", got)
	}
	if got := TTLDuration("bogus", time.Hour); got != time.Hour {
		t.Fatalf("expected fallback on parse error, got %v", got)
	}
}
