package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "engine.ini")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadFileSystemBackend(t *testing.T) {
	path := writeConfig(t, `
[General]
log_level = DEBUG
log_file = /tmp/engine.log

[Repository]
type = file_system
workflows_path = /var/lib/engine/workflows
credentials_path = /var/lib/engine/credentials.json

[WebDriver]
default_browser = firefox
implicit_wait = 15

[Security]
password_hash_method = argon2
password_salt_length = 32
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.General.LogLevel != LogDebug {
		t.Errorf("expected DEBUG, got %s", cfg.General.LogLevel)
	}
	if cfg.Repository.Type != RepositoryFileSystem {
		t.Errorf("expected file_system, got %s", cfg.Repository.Type)
	}
	if cfg.WebDriver.DefaultBrowser != "firefox" {
		t.Errorf("expected firefox, got %s", cfg.WebDriver.DefaultBrowser)
	}
	if cfg.Security.PasswordSaltLength != 32 {
		t.Errorf("expected 32, got %d", cfg.Security.PasswordSaltLength)
	}
}

func TestLoadRejectsBadBrowser(t *testing.T) {
	path := writeConfig(t, `
[Repository]
type = file_system
workflows_path = /tmp/wf

[WebDriver]
default_browser = netscape
`)
	if _, err := Load(path); err == nil {
		t.Fatal("expected an error for an unsupported browser")
	}
}

func TestLoadRejectsShortSalt(t *testing.T) {
	path := writeConfig(t, `
[Repository]
type = file_system
workflows_path = /tmp/wf

[Security]
password_salt_length = 4
`)
	if _, err := Load(path); err == nil {
		t.Fatal("expected an error for a too-short salt length")
	}
}

func TestLoadDatabaseBackendRequiresDBPath(t *testing.T) {
	path := writeConfig(t, `
[Repository]
type = database
`)
	if _, err := Load(path); err == nil {
		t.Fatal("expected an error when db_path is missing for the database backend")
	}
}
