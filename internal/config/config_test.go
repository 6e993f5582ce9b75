package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Listen != ":8080" {
		t.Errorf("Listen = %q, want :8080", cfg.Listen)
	}
	if cfg.Storage.Driver != "fs" || cfg.Storage.Root != "decorations" {
		t.Errorf("storage = %+v", cfg.Storage)
	}
	if cfg.Visits.FlushEvery != 10 {
		t.Errorf("FlushEvery = %d, want 10", cfg.Visits.FlushEvery)
	}
	if cfg.Repo != cfg.Owner {
		t.Errorf("Repo = %q, want owner %q", cfg.Repo, cfg.Owner)
	}
}

func TestLoadFileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profileart.yaml")
	data := []byte(`
listen: ":9000"
owner: octocat
storage:
  root: /srv/decorations
visits:
  driver: sqlite
  flush_every: 3
  cooldown: 30m
`)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("PROFILEART_LISTEN", ":9100")
	t.Setenv("PROFILEART_GITHUB_TOKEN", "secret")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Listen != ":9100" {
		t.Errorf("env should override file, Listen = %q", cfg.Listen)
	}
	if cfg.Owner != "octocat" || cfg.Repo != "octocat" {
		t.Errorf("owner/repo = %q/%q", cfg.Owner, cfg.Repo)
	}
	if cfg.Storage.Root != "/srv/decorations" {
		t.Errorf("Root = %q", cfg.Storage.Root)
	}
	if cfg.Visits.Driver != "sqlite" || cfg.Visits.FlushEvery != 3 || cfg.Visits.Cooldown != 30*time.Minute {
		t.Errorf("visits = %+v", cfg.Visits)
	}
	if cfg.GitHub.Token != "secret" {
		t.Errorf("Token = %q", cfg.GitHub.Token)
	}
}

func TestLoadRejectsUnknownDrivers(t *testing.T) {
	t.Setenv("PROFILEART_STORAGE_DRIVER", "ftp")
	if _, err := Load(""); err == nil {
		t.Fatal("expected error for unknown storage driver")
	}
}

func TestLoadRequiresBucketForS3(t *testing.T) {
	t.Setenv("PROFILEART_STORAGE_DRIVER", "s3")
	if _, err := Load(""); err == nil {
		t.Fatal("expected error without bucket")
	}
	t.Setenv("PROFILEART_STORAGE_S3_BUCKET", "art")
	if _, err := Load(""); err != nil {
		t.Fatalf("Load: %v", err)
	}
}

func TestSlogLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug": slog.LevelDebug,
		"WARN":  slog.LevelWarn,
		"error": slog.LevelError,
		"":      slog.LevelInfo,
		"loud":  slog.LevelInfo,
	}
	for in, want := range cases {
		c := Config{LogLevel: in}
		if got := c.SlogLevel(); got != want {
			t.Errorf("SlogLevel(%q) = %v, want %v", in, got, want)
		}
	}
}
