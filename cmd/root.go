package cmd

import (
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/bibliotek-ia/bibliotek/internal/config"
	"github.com/bibliotek-ia/bibliotek/internal/logging"
)

// app carries what every subcommand shares
type app struct {
	configPath string
	logLevel   string
	dbPath     string
	cfg        *config.Config
}

func NewRootCmd() *cobra.Command {
	a := &app{}

	cmd := &cobra.Command{
		Use:   "bibliotek",
		Short: "Bookshelf photo analysis and reading library service",
		Long: `Bibliotek recommends books from a photo of your bookshelf.

A vision model identifies the titles on the shelf and the server keeps the ones
that match your chosen genres. Readers keep a library of rated books, and admins
get statistics, user management and library export from the same binary.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Load .env file if present (ignore errors)
			_ = godotenv.Load()

			cfg, err := config.Load(a.configPath)
			if err != nil {
				return err
			}
			if a.logLevel != "" {
				cfg.Logging.Level = a.logLevel
			}
			if a.dbPath != "" {
				cfg.Database.Path = a.dbPath
			}
			a.cfg = cfg

			logging.Setup(cfg.Logging.Level, cfg.Logging.Format, cmd.ErrOrStderr())
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&a.configPath, "config", "", "Path to a YAML config file (default: $"+config.PathEnvVar+" or ./bibliotek.yaml)")
	cmd.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "Log level: debug, info, warn or error")
	cmd.PersistentFlags().StringVar(&a.dbPath, "db", "", "Path to the SQLite database")

	// Add subcommands
	cmd.AddCommand(
		newServeCmd(a),
		newAnalyzeCmd(a),
		newUserCmd(a),
		newStatsCmd(a),
		newExportCmd(a),
		newImportCmd(a),
		newEvalCmd(a),
	)

	return cmd
}
