package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	if cfg.ServerPort != "5000" {
		t.Errorf("ServerPort = %q", cfg.ServerPort)
	}
	if cfg.EditWindow() != time.Hour {
		t.Errorf("EditWindow = %v", cfg.EditWindow())
	}
	if cfg.TokenTTL() != 7*24*time.Hour {
		t.Errorf("TokenTTL = %v", cfg.TokenTTL())
	}
	if !reflect.DeepEqual(cfg.Doctors, []string{"Dr. Sharma", "Dr. Verma", "Dr. Gupta"}) {
		t.Errorf("Doctors = %v", cfg.Doctors)
	}
	if cfg.MailProvider != "auto" {
		t.Errorf("MailProvider = %q", cfg.MailProvider)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("EDIT_WINDOW_MINUTES", "15")
	t.Setenv("DOCTORS", "Dr. A , Dr. B,,")
	t.Setenv("ALLOWED_ORIGINS", "http://a.test,http://b.test")
	t.Setenv("DB_DRIVER", "SQLite")

	cfg := Load()
	if cfg.EditWindow() != 15*time.Minute {
		t.Errorf("EditWindow = %v", cfg.EditWindow())
	}
	if !reflect.DeepEqual(cfg.Doctors, []string{"Dr. A", "Dr. B"}) {
		t.Errorf("Doctors = %#v", cfg.Doctors)
	}
	if !reflect.DeepEqual(cfg.Origins(), []string{"http://a.test", "http://b.test"}) {
		t.Errorf("Origins = %v", cfg.Origins())
	}
	if cfg.DBDriver != "sqlite" {
		t.Errorf("DBDriver = %q", cfg.DBDriver)
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := "DOCTORS:\n  - Dr. Rao\n  - Dr. Iyer\nSERVER_PORT: \"9000\"\n"
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("CONFIG_FILE", path)

	cfg := Load()
	if !reflect.DeepEqual(cfg.Doctors, []string{"Dr. Rao", "Dr. Iyer"}) {
		t.Errorf("Doctors = %v", cfg.Doctors)
	}
	if cfg.ServerPort != "9000" {
		t.Errorf("ServerPort = %q", cfg.ServerPort)
	}
}

func TestOriginsFallsBackToFrontend(t *testing.T) {
	cfg := &Config{FrontendURL: "http://localhost:3000"}
	if !reflect.DeepEqual(cfg.Origins(), []string{"http://localhost:3000"}) {
		t.Errorf("Origins = %v", cfg.Origins())
	}
}

func TestEditWindowFallsBackWhenNotPositive(t *testing.T) {
	for _, v := range []string{"0", "-5", "abc"} {
		t.Setenv("EDIT_WINDOW_MINUTES", v)
		if got := Load().EditWindow(); got != time.Hour {
			t.Errorf("EDIT_WINDOW_MINUTES=%q: EditWindow = %v, want 1h", v, got)
		}
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"release with defaults", Config{GinMode: "release", JWTSecret: defaultJWTSecret, AdminPassword: "s3cret-pass"}, true},
		{"release with default admin password", Config{GinMode: "release", JWTSecret: "long-random", AdminPassword: defaultAdminPassword}, true},
		{"release with empty secret", Config{GinMode: "release", AdminPassword: "s3cret-pass"}, true},
		{"release configured", Config{GinMode: "release", JWTSecret: "long-random", AdminPassword: "s3cret-pass"}, false},
		{"debug with defaults", Config{GinMode: "debug", JWTSecret: defaultJWTSecret, AdminPassword: defaultAdminPassword}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
