package main

import (
	"context"
	"fmt"
	"os"

	"dreamstate-ticketing/internal/config"
	"dreamstate-ticketing/internal/database"
	"dreamstate-ticketing/internal/database/migrations"
	"dreamstate-ticketing/internal/logger"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var dir string
	var seed bool
	var target uint

	flagSet := pflag.NewFlagSet("migrate", pflag.ContinueOnError)
	flagSet.StringVar(&dir, "dir", "./migrations", "directory holding the SQL migrations")
	flagSet.BoolVar(&seed, "seed", false, "with up: also apply the demo-data migrations")
	flagSet.UintVar(&target, "version", 0, "with to: target schema version")
	flagSet.BoolP("help", "h", false, "show help")

	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if err == pflag.ErrHelp {
			printHelp(flagSet)
			return nil
		}
		return err
	}
	if help, _ := flagSet.GetBool("help"); help {
		printHelp(flagSet)
		return nil
	}

	args := flagSet.Args()
	if len(args) != 1 {
		printHelp(flagSet)
		return fmt.Errorf("expected exactly one command")
	}

	godotenv.Load()
	cfg := config.Load()
	log := logger.NewLogger("migrate")
	defer log.Close()

	bunDB, err := database.Connect(context.Background(), cfg.Database, log)
	if err != nil {
		return err
	}
	defer bunDB.Close()

	runner := migrations.NewRunner(bunDB, migrations.MigrateOptions{MigrationsDir: dir, SeedData: seed}, log)
	defer runner.Close()

	switch args[0] {
	case "up":
		if seed {
			err = runner.MigrateUp()
		} else {
			err = runner.RunMigrations()
		}
	case "down":
		err = runner.MigrateDown()
	case "to":
		if !flagSet.Changed("version") {
			return fmt.Errorf("to needs --version")
		}
		err = runner.MigrateTo(target)
	case "version":
	default:
		return fmt.Errorf("unknown command %q", args[0])
	}
	if err != nil {
		return err
	}

	version, dirty, err := runner.Version()
	if err != nil {
		return err
	}
	fmt.Printf("schema version %d (dirty: %t)\n", version, dirty)
	return nil
}

func printHelp(flagSet *pflag.FlagSet) {
	fmt.Fprintf(os.Stderr, `migrate applies the SQL migrations to the configured Postgres database.

Usage:
  migrate [flags] up|down|to|version

Commands:
  up        bring the schema to the service version (all versions with --seed)
  down      roll back every migration
  to        migrate up or down to --version
  version   print the applied version

Flags:
%s`, flagSet.FlagUsages())
}
