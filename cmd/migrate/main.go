package main

import (
	"flag"
	"fmt"
	"io/fs"
	"os"

	"github.com/kdimtricp/fairyland/internal/database"
	"github.com/kdimtricp/fairyland/internal/logging"
)

func main() {
	var (
		dbType         = flag.String("db", "sqlite", "Database type (postgres or sqlite)")
		sqlitePath     = flag.String("path", "./fairyland.db", "SQLite database file")
		host           = flag.String("host", "localhost", "Database host")
		port           = flag.Int("port", 5432, "Database port")
		user           = flag.String("user", "fairyland", "Database user")
		password       = flag.String("password", "fairyland_dev", "Database password")
		dbName         = flag.String("name", "fairyland", "Database name")
		migrationsPath = flag.String("migrations", "", "Directory with .sql migrations (default: built-in)")
		status         = flag.Bool("status", false, "Show migration status only")
	)
	flag.Parse()

	logger, err := logging.New(os.Stderr, "info", "console")
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	config := database.Config{
		Type:       *dbType,
		SQLitePath: *sqlitePath,
		Host:       *host,
		Port:       *port,
		User:       *user,
		Password:   *password,
		Name:       *dbName,
	}

	// Environment variables win over flags, as in the server.
	if env := os.Getenv("DB_TYPE"); env != "" {
		config.Type = env
	}
	if env := os.Getenv("DB_PATH"); env != "" {
		config.SQLitePath = env
	}
	if env := os.Getenv("DB_HOST"); env != "" {
		config.Host = env
	}
	if env := os.Getenv("DB_USER"); env != "" {
		config.User = env
	}
	if env := os.Getenv("DB_PASSWORD"); env != "" {
		config.Password = env
	}
	if env := os.Getenv("DB_NAME"); env != "" {
		config.Name = env
	}

	db, err := database.NewDB(config)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	var migrations fs.FS
	if *migrationsPath != "" {
		migrations = os.DirFS(*migrationsPath)
	} else if migrations, err = db.Migrations(); err != nil {
		logger.Fatal().Err(err).Msg("failed to load built-in migrations")
	}

	migrator := database.NewMigrator(db.Conn(), db.Type())

	if *status {
		all, err := migrator.LoadMigrations(migrations)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to load migrations")
		}
		pending, err := migrator.Pending(migrations)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to get migration status")
		}
		isPending := make(map[string]bool, len(pending))
		for _, m := range pending {
			isPending[m.Version] = true
		}

		fmt.Println("Migration Status:")
		fmt.Println("=================")
		for _, m := range all {
			state := "applied"
			if isPending[m.Version] {
				state = "pending"
			}
			fmt.Printf("%s - %s [%s]\n", m.Version, m.Name, state)
		}
		return
	}

	if err := migrator.Run(migrations); err != nil {
		logger.Fatal().Err(err).Msg("failed to run migrations")
	}
	logger.Info().Str("db", config.Type).Msg("migrations completed")
}
