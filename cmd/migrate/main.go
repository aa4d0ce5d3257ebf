package main

import (
	"errors"
	"flag"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/phamphong9981/phamnguyenbang-fe-sub001/internal/config"
	"github.com/phamphong9981/phamnguyenbang-fe-sub001/internal/logger"
	"github.com/rs/zerolog"
)

// migrateLogger routes golang-migrate's progress lines through zerolog.
type migrateLogger struct {
	log     zerolog.Logger
	verbose bool
}

func (l migrateLogger) Printf(format string, v ...any) {
	l.log.Info().Msg(strings.TrimSpace(fmt.Sprintf(format, v...)))
}

func (l migrateLogger) Verbose() bool { return l.verbose }

func main() {
	var (
		migrationDir string
		lockTimeout  time.Duration
		verbose      bool
		yes          bool
	)
	flag.StringVar(&migrationDir, "path", "migrations", "Path to migration files")
	flag.DurationVar(&lockTimeout, "lock-timeout", 15*time.Second, "How long to wait for the schema lock")
	flag.BoolVar(&verbose, "v", false, "Log every migration step")
	flag.BoolVar(&yes, "yes", false, "Confirm destructive commands (down)")
	flag.Parse()

	cfg := config.Load()
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat).With().Str("component", "migrate").Logger()
	if cfg.DatabaseURL == "" {
		log.Fatal().Msg("DATABASE_URL is not set")
	}

	args := flag.Args()
	if len(args) < 1 {
		printUsage()
		return
	}

	m, err := migrate.New("file://"+migrationDir, cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Str("path", migrationDir).Msg("Migration failed to initialize")
	}
	defer m.Close()
	m.Log = migrateLogger{log: log, verbose: verbose}
	m.LockTimeout = lockTimeout

	switch command := args[0]; command {
	case "up":
		if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			log.Fatal().Err(err).Msg("Up failed")
		}
		printVersion(m)
	case "down":
		// Dropping the schema removes every graded submission.
		if !yes {
			log.Fatal().Msg("down drops all exam groups and submissions; rerun with -yes")
		}
		if err := m.Down(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			log.Fatal().Err(err).Msg("Down failed")
		}
		fmt.Println("Migrated down successfully")
	case "steps":
		n := intArg(args, log, "steps requires a signed count, e.g. steps -1")
		if n < 0 && !yes {
			log.Fatal().Int("steps", n).Msg("Negative steps roll back tables; rerun with -yes")
		}
		if err := m.Steps(n); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			log.Fatal().Err(err).Int("steps", n).Msg("Steps failed")
		}
		printVersion(m)
	case "version":
		printVersion(m)
	case "force":
		v := intArg(args, log, "force requires version argument")
		if err := m.Force(v); err != nil {
			log.Fatal().Err(err).Int("version", v).Msg("Force failed")
		}
		fmt.Printf("Forced version to %d\n", v)
	default:
		log.Error().Str("command", command).Msg("Unknown command")
		printUsage()
	}
}

func intArg(args []string, log zerolog.Logger, usage string) int {
	if len(args) < 2 {
		log.Fatal().Msg(usage)
	}
	n, err := strconv.Atoi(args[1])
	if err != nil {
		log.Fatal().Err(err).Str("arg", args[1]).Msg("Not a number")
	}
	return n
}

func printVersion(m *migrate.Migrate) {
	version, dirty, err := m.Version()
	switch {
	case errors.Is(err, migrate.ErrNilVersion):
		fmt.Println("No migrations applied")
	case err != nil:
		fmt.Printf("Version unknown: %v\n", err)
	default:
		fmt.Printf("Version: %d, Dirty: %t\n", version, dirty)
	}
}

func printUsage() {
	fmt.Println("Usage: migrate [flags] <command>")
	fmt.Println("Commands: up, down, steps <n>, version, force <version>")
	fmt.Println("Flags:")
	flag.PrintDefaults()
}
