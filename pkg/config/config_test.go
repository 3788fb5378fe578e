package config

import (
	"os"
	"testing"
)

func setEnv(t *testing.T, key, value string) {
	t.Helper()
	old, had := os.LookupEnv(key)
	if err := os.Setenv(key, value); err != nil {
		t.Fatalf("setenv %s: %v", key, err)
	}
	t.Cleanup(func() {
		if had {
			os.Setenv(key, old)
			return
		}
		os.Unsetenv(key)
	})
}

func TestLoadBuildsDSNFromParts(t *testing.T) {
	setEnv(t, "QANZ_APP_ENV", "dev")
	setEnv(t, "QANZ_JWT_SECRET", "test-secret")
	setEnv(t, "QANZ_DB_DSN", "")
	setEnv(t, "QANZ_DB_HOST", "localhost")
	setEnv(t, "QANZ_DB_USER", "qanz")
	setEnv(t, "QANZ_DB_PASSWORD", "pw")
	setEnv(t, "QANZ_DB_NAME", "qanz")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	want := "postgres://qanz:pw@localhost:5432/qanz?sslmode=disable"
	if cfg.DB.DSN != want {
		t.Fatalf("unexpected dsn: %s", cfg.DB.DSN)
	}
	if !cfg.App.IsDev() || cfg.App.IsProd() {
		t.Fatalf("unexpected env classification: %+v", cfg.App)
	}
}

func TestLoadRejectsMissingDB(t *testing.T) {
	setEnv(t, "QANZ_APP_ENV", "dev")
	setEnv(t, "QANZ_JWT_SECRET", "test-secret")
	setEnv(t, "QANZ_DB_DSN", "")
	setEnv(t, "QANZ_DB_HOST", "")
	setEnv(t, "QANZ_DB_USER", "")
	setEnv(t, "QANZ_DB_NAME", "")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for missing db config")
	}
}

func TestFeesRate(t *testing.T) {
	f := FeesConfig{PlatformRate: "0.125"}
	rate, err := f.Rate()
	if err != nil {
		t.Fatalf("rate: %v", err)
	}
	if rate.String() != "0.125" {
		t.Fatalf("unexpected rate: %s", rate)
	}

	for _, bad := range []string{"", "abc", "-0.1", "1.5"} {
		f := FeesConfig{PlatformRate: bad}
		if _, err := f.Rate(); err == nil {
			t.Fatalf("expected error for rate %q", bad)
		}
	}
}
