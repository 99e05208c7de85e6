package main

import (
	"fmt"
	"os"
	"strings"

	_ "github.com/joho/godotenv/autoload"

	"github.com/fdg312/insulin-calc/internal/config"
	"github.com/fdg312/insulin-calc/internal/dbmigrate"
	"github.com/fdg312/insulin-calc/internal/httpserver"
	"github.com/fdg312/insulin-calc/internal/logging"
)

func main() {
	cfg := config.Load()
	logging.Setup(cfg.LogLevel, os.Stderr, isDeployed(cfg))
	log := logging.Log

	printStartupBanner(cfg)

	if cfg.RunMigrationsOnStartup {
		dbURL, source, _, err := dbmigrate.SelectDatabaseURL(cfg, true)
		if err != nil {
			log.Fatalf("FATAL startup migrations: %v", err)
		}

		log.WithField("using", source).Info("startup migrations: command=up")
		if err := dbmigrate.Run("up", dbURL); err != nil {
			log.Fatalf("FATAL startup migrations failed: %v", err)
		}
		log.Info("startup migrations: completed")
	}

	validateProductionConfig(cfg)

	server, err := httpserver.New(cfg, log)
	if err != nil {
		log.Fatalf("FATAL server: %v", err)
	}
	defer server.Close()

	if err := server.Start(); err != nil {
		log.Fatal(err)
	}
}

func isDeployed(cfg *config.Config) bool {
	return cfg.Env == "production" || cfg.Env == "staging"
}

// printStartupBanner logs a one-time summary of the resolved configuration.
// Secrets are printed only as "set" / "not set".
func printStartupBanner(cfg *config.Config) {
	log := logging.Log

	log.Info("========== Insulin Calc API ==========")
	log.Infof("  env              = %s", cfg.Env)
	log.Infof("  port             = %d", cfg.Port)
	log.Infof("  log_level        = %s", config.NonEmptyOrDash(cfg.LogLevel))

	log.Info("---- storage ----")
	log.Infof("  kv_mode          = %s (resolved=%s)", cfg.KVMode, cfg.ResolveKVMode())
	log.Infof("  sqlite_path      = %s", config.NonEmptyOrDash(cfg.SQLitePath))
	log.Infof("  runtime_url      = %s", describeDBURL(cfg.DatabaseURL, cfg.DatabaseURLPooled))
	log.Infof("  direct           = %s", config.SetOrNot(cfg.DatabaseURLDirect))
	log.Infof("  migrations_on_startup = %t", cfg.RunMigrationsOnStartup)

	log.Info("---- auth ----")
	log.Infof("  auth_mode        = %s", cfg.AuthMode)
	log.Infof("  auth_required    = %t", cfg.AuthRequired)
	log.Infof("  jwt_secret       = %s", secretStatus(cfg.JWTSecret, "change_me"))

	log.Info("---- blob ----")
	log.Infof("  blob_mode        = %s", cfg.Blob.Mode)
	if cfg.Blob.Mode != config.BlobModeLocal || cfg.KVMode == config.KVModeS3 {
		log.Infof("  s3: %s", cfg.Blob.S3.DiagnosticsSummary())
	}

	log.Info("---- dose ----")
	log.Infof("  initial_target_bg = %g", cfg.Dose.InitialTargetBG)
	log.Infof("  reset_target_bg   = %g", cfg.Dose.ResetTargetBG)

	log.Info("======================================")
}

// validateProductionConfig performs fatal checks that only matter in non-local envs.
func validateProductionConfig(cfg *config.Config) {
	log := logging.Log
	isProd := isDeployed(cfg)

	needsS3 := cfg.Blob.Mode == config.BlobModeS3 || cfg.KVMode == config.KVModeS3
	if needsS3 {
		if missing := cfg.Blob.S3.MissingRequired(); len(missing) > 0 {
			log.Fatalf("FATAL blob: s3 storage requested but S3 config is incomplete, missing: %s", strings.Join(missing, ", "))
		}
	}

	if isProd && cfg.AuthMode == config.AuthModeDev {
		log.Warnf("auth: AUTH_MODE=dev issues tokens without credentials in %s", cfg.Env)
	}

	if isProd && cfg.AuthRequired && cfg.JWTSecret == "change_me" {
		log.Fatalf("FATAL auth: JWT_SECRET must not be 'change_me' in %s with AUTH_REQUIRED=1", cfg.Env)
	}

	if isProd && cfg.ResolveKVMode() == config.KVModeMemory {
		log.Warnf("storage: %s runs with in-memory KV, dose inputs will not survive restarts", cfg.Env)
	}
}

func secretStatus(v, insecureDefault string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return "not set"
	}
	if v == insecureDefault {
		return fmt.Sprintf("set (DEFAULT, insecure '%s')", insecureDefault)
	}
	return "set (custom)"
}

func describeDBURL(runtime, pooled string) string {
	if runtime == "" {
		return "not set"
	}
	if pooled != "" && runtime == pooled {
		return "set (via DATABASE_URL_POOLED)"
	}
	return "set"
}
