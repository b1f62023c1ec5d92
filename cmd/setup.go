package main

import (
	"context"
	"fmt"
	"os"

	"github.com/desertthunder/ytdj/internal/shared"
	"github.com/urfave/cli/v3"
)

// SetupDatabase initializes the database and runs migrations.
func (r *Runner) SetupDatabase(ctx context.Context, cmd *cli.Command) error {
	cfg := r.config.Database
	if path := cmd.String("path"); path != "" {
		cfg.Path = path
	}

	r.logger.Info("initializing database", "path", cfg.Path)

	db, err := shared.NewDatabase(cfg.Path)
	if err != nil {
		return fmt.Errorf("failed to create database: %w", err)
	}
	defer db.Close()

	shared.ConfigureDatabase(db, cfg.MaxOpenConns, cfg.MaxIdleConns)

	if cmd.Bool("rollback") {
		r.logger.Info("rolling back latest migration")
		if err := shared.RollbackMigration(db); err != nil {
			return fmt.Errorf("failed to roll back migration: %w", err)
		}
	} else {
		r.logger.Info("running database migrations")
		if err := shared.RunMigrations(db); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	status, err := shared.Migrations(db)
	if err != nil {
		return fmt.Errorf("failed to read migration status: %w", err)
	}
	if cmd.Bool("json") {
		return r.writeJSON(status, true)
	}

	r.writePlainHeader("Migrations: " + cfg.Path)
	for _, m := range status {
		mark := " "
		if m.Applied {
			mark = "✓"
		}
		r.writePlain("[%s] %04d %s\n", mark, m.Version, m.Name)
	}
	if cfg.Path == shared.MemoryDatabase {
		r.writePlainln("Note: %s is discarded when this process exits; set database.path to keep the chart catalog.", shared.MemoryDatabase)
	}
	return nil
}

// SetupConfig writes the example configuration to --output unless it already exists.
func (r *Runner) SetupConfig(ctx context.Context, cmd *cli.Command) error {
	path := cmd.String("output")
	if path == "" {
		path = r.configPath
	}
	if path == "" {
		path = defaultConfigPath
	}

	if _, err := os.Stat(path); err == nil {
		if !cmd.Bool("force") {
			return fmt.Errorf("%w: %s already exists, pass --force to overwrite", shared.ErrInvalidArgument, path)
		}
		if err := os.Remove(path); err != nil {
			return fmt.Errorf("failed to replace config file: %w", err)
		}
	}

	if err := shared.CreateConfigFile(path); err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	if _, err := shared.LoadConfig(path); err != nil {
		return fmt.Errorf("created config does not load: %w", err)
	}

	r.logger.Info("config file created", "path", path)
	r.writePlain("✓ Configuration written to %s\n", path)
	r.writePlainln("Next steps:")
	r.writePlain("1. Set RAPIDAPI_KEY (or lyrics.rapidapi_key) for the lyrics fallback\n")
	r.writePlain("2. Point catalog.proxy_url at the ytmusicapi proxy\n")
	r.writePlain("3. Run 'ytdj serve'\n")
	return nil
}
