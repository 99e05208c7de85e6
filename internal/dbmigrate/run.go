package dbmigrate

import (
	"database/sql"
	"fmt"

	"github.com/fdg312/insulin-calc/migrations"
	"github.com/pressly/goose/v3"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// Commands lists the goose commands exposed by cmd/migrate.
var Commands = []string{"up", "status", "down"}

// ValidateCommand reports whether command is one of Commands.
func ValidateCommand(command string) error {
	for _, c := range Commands {
		if c == command {
			return nil
		}
	}
	return fmt.Errorf("unsupported command %q (allowed: up, status, down)", command)
}

// Run applies the embedded migrations with goose.
func Run(command string, dbURL string) error {
	if err := ValidateCommand(command); err != nil {
		return err
	}
	if dbURL == "" {
		return fmt.Errorf("database URL is empty")
	}

	db, err := sql.Open("pgx", dbURL)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}

	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}

	if err := goose.Run(command, db, "."); err != nil {
		return fmt.Errorf("goose %s failed: %w", command, err)
	}

	return nil
}
