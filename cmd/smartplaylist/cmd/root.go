package cmd

import (
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/solatis/smartplaylist/internal/core/config"
	"github.com/solatis/smartplaylist/internal/core/db"
	"github.com/solatis/smartplaylist/internal/core/logging"
)

const Version = "0.1.0"

var (
	configFile string
	dbURL      string
	logLevel   string
	logFormat  string
)

var rootCmd = &cobra.Command{
	Use:          "smartplaylist",
	Short:        "SmartPlaylist rule engine",
	Long:         `SmartPlaylist evaluates rule-based playlist definitions against a media library.`,
	SilenceUsage: true,
	Version:      Version,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path")
	rootCmd.PersistentFlags().StringVar(&dbURL, "db-url", "", "database connection URL (sqlite://path or postgres://...)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "json", "log format (json, text)")
}

func Execute() error {
	return rootCmd.Execute()
}

// environment is what every command needs: config, logger and database.
type environment struct {
	cfg    *config.PlaylistAPIConfig
	logger zerolog.Logger
	db     *sqlx.DB
}

func (e *environment) Close() error {
	return e.db.Close()
}

// setup loads configuration, configures logging and opens the database.
// --db-url overrides playlist_api.db_url.
func setup(cmd *cobra.Command) (*environment, error) {
	logger, err := logging.Setup(logLevel, logFormat, cmd.ErrOrStderr())
	if err != nil {
		return nil, err
	}

	cfg, err := config.LoadConfig(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if dbURL != "" {
		cfg.DBURL = dbURL
	}

	database, err := db.Open(cfg.DBURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	return &environment{cfg: cfg, logger: logger, db: database}, nil
}

// openStore returns a store after checking the schema is current.
func (e *environment) openStore() (*db.Store, error) {
	statuses, err := db.MigrateStatus(e.db)
	if err != nil {
		return nil, fmt.Errorf("failed to check migrations: %w", err)
	}
	for _, s := range statuses {
		if !s.Applied {
			return nil, fmt.Errorf("migration %s not applied - run 'smartplaylist migrate up' first", s.ID)
		}
	}
	return db.NewStore(e.db)
}
