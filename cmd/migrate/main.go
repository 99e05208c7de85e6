package main

import (
	"os"

	_ "github.com/joho/godotenv/autoload"

	"github.com/fdg312/insulin-calc/internal/config"
	"github.com/fdg312/insulin-calc/internal/dbmigrate"
	"github.com/fdg312/insulin-calc/internal/logging"
)

func main() {
	log := logging.Log

	if len(os.Args) < 2 {
		log.Fatalf("usage: go run ./cmd/migrate [up|status|down]")
	}

	command := os.Args[1]
	if err := dbmigrate.ValidateCommand(command); err != nil {
		log.Fatal(err)
	}

	cfg := config.Load()
	logging.Setup(cfg.LogLevel, os.Stderr, false)

	dbURL, source, warning, err := dbmigrate.SelectDatabaseURL(cfg, false)
	if err != nil {
		log.Fatal(err)
	}

	if warning != "" {
		log.Warnf("migrate: %s", warning)
	}
	log.WithFields(map[string]any{"command": command, "using": source}).Info("migrate: starting")

	if err := dbmigrate.Run(command, dbURL); err != nil {
		log.Fatal(err)
	}

	log.Infof("migrate: %s completed successfully", command)
}
