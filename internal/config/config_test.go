package config

import "testing"

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"APP_ENV", "PORT", "KV_MODE", "SQLITE_PATH", "DATABASE_URL", "DATABASE_URL_POOLED",
		"DATABASE_URL_DIRECT", "DOSE_INITIAL_TARGET_BG", "DOSE_RESET_TARGET_BG", "AUTH_MODE", "BLOB_MODE"} {
		t.Setenv(key, "")
	}

	cfg := Load()

	if cfg.Env != "local" || cfg.Port != 8080 {
		t.Fatalf("unexpected env/port: %s/%d", cfg.Env, cfg.Port)
	}
	if cfg.Dose.InitialTargetBG != 130 || cfg.Dose.ResetTargetBG != 100 {
		t.Fatalf("unexpected dose defaults: %+v", cfg.Dose)
	}
	if cfg.KVMode != KVModeAuto || cfg.ResolveKVMode() != KVModeMemory {
		t.Fatalf("expected auto resolving to memory, got %s/%s", cfg.KVMode, cfg.ResolveKVMode())
	}
	if cfg.AuthMode != AuthModeNone || cfg.AuthRequired {
		t.Fatalf("expected auth disabled, got mode=%s required=%t", cfg.AuthMode, cfg.AuthRequired)
	}
	if cfg.Blob.Mode != BlobModeLocal {
		t.Fatalf("expected blob mode local, got %s", cfg.Blob.Mode)
	}
}

func TestLoadUnknownModesFallBack(t *testing.T) {
	t.Setenv("KV_MODE", "redis")
	t.Setenv("AUTH_MODE", "siwa")

	cfg := Load()
	if cfg.KVMode != KVModeAuto {
		t.Fatalf("expected KV_MODE fallback to auto, got %s", cfg.KVMode)
	}
	if cfg.AuthMode != AuthModeNone {
		t.Fatalf("expected AUTH_MODE fallback to none, got %s", cfg.AuthMode)
	}
}

func TestResolveKVMode(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		want string
	}{
		{"explicit sqlite", Config{KVMode: KVModeSQLite, DatabaseURL: "postgres://x"}, KVModeSQLite},
		{"auto with database", Config{KVMode: KVModeAuto, DatabaseURL: "postgres://x", SQLitePath: "a.db"}, KVModePostgres},
		{"auto with sqlite path", Config{KVMode: KVModeAuto, SQLitePath: "a.db"}, KVModeSQLite},
		{"auto empty", Config{KVMode: KVModeAuto}, KVModeMemory},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.cfg.ResolveKVMode(); got != tt.want {
				t.Fatalf("expected %s, got %s", tt.want, got)
			}
		})
	}
}

func TestLoadDoseOverrides(t *testing.T) {
	t.Setenv("DOSE_INITIAL_TARGET_BG", "110")
	t.Setenv("DOSE_RESET_TARGET_BG", "-5")

	cfg := Load()
	if cfg.Dose.InitialTargetBG != 110 {
		t.Fatalf("expected 110, got %v", cfg.Dose.InitialTargetBG)
	}
	if cfg.Dose.ResetTargetBG != 100 {
		t.Fatalf("expected invalid reset target to fall back to 100, got %v", cfg.Dose.ResetTargetBG)
	}
}
