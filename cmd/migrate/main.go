package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/noah-isme/lessonplan-api/migrations"
	"github.com/noah-isme/lessonplan-api/pkg/config"
	"github.com/noah-isme/lessonplan-api/pkg/database"
	"github.com/noah-isme/lessonplan-api/pkg/logger"
)

const usage = `usage: migrate <command> [arg]

commands:
  up            apply all pending migrations
  down          roll back all migrations
  steps N       apply N migrations (negative rolls back)
  force V       set the schema version without running migrations
  version       print the current schema version
`

func main() {
	flag.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	flag.Parse()
	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck
	sugar := logr.Sugar()

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		sugar.Fatalw("failed to connect to database", "error", err)
	}
	migrator, err := database.NewMigrator(db.DB, migrations.Files)
	if err != nil {
		sugar.Fatalw("failed to create migrator", "error", err)
	}
	defer migrator.Close() //nolint:errcheck

	if err := run(migrator, flag.Arg(0), flag.Arg(1)); err != nil {
		sugar.Fatalw("migration failed", "command", flag.Arg(0), "error", err)
	}
	version, dirty, err := migrator.Version()
	if err != nil {
		sugar.Fatalw("failed to read version", "error", err)
	}
	sugar.Infow("schema version", "version", version, "dirty", dirty)
}

func run(m *database.Migrator, command, arg string) error {
	switch command {
	case "up":
		return m.Up()
	case "down":
		return m.Down()
	case "steps":
		n, err := strconv.Atoi(arg)
		if err != nil {
			return fmt.Errorf("steps needs an integer argument: %w", err)
		}
		return m.Steps(n)
	case "force":
		v, err := strconv.Atoi(arg)
		if err != nil {
			return fmt.Errorf("force needs a version argument: %w", err)
		}
		return m.Force(v)
	case "version":
		return nil
	default:
		return fmt.Errorf("unknown command %q", command)
	}
}
