// Package cli implements the dss operator command line.
package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/fraatlas/backend/config"
	"github.com/fraatlas/backend/pkg/cache"
	"github.com/fraatlas/backend/pkg/database"
	"github.com/fraatlas/backend/pkg/logger"
)

// app carries the settings shared by every subcommand
type app struct {
	v       *viper.Viper
	cfgFile string
}

// Execute runs the root command
func Execute() error {
	return NewRootCommand().Execute()
}

// NewRootCommand builds the dss command tree. Settings resolve from flags,
// then FRA_* environment variables, then the YAML config file, then the
// API's environment defaults.
func NewRootCommand() *cobra.Command {
	a := &app{v: viper.New()}

	root := &cobra.Command{
		Use:   "dss",
		Short: "FRA Atlas decision support operator tool",
		Long: `dss scores forest rights claims against the welfare scheme catalog
and manages the stored recommendation sets.

Examples:
  dss migrate
  dss seed --claims 200 --state Jharkhand
  dss generate 7d4c1f0e-5a8b-4c1e-9d8e-2f3a4b5c6d7e --output yaml
  dss bulk --district Ranchi --limit 50`,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.initConfig()
		},
	}

	defaults := config.Load()
	a.v.SetDefault("database-url", defaults.DatabaseURL)
	a.v.SetDefault("db-driver", defaults.DBDriver)
	a.v.SetDefault("db-ssl-mode", defaults.DBSSLMode)
	a.v.SetDefault("log-level", defaults.LogLevel)
	a.v.SetDefault("export-dir", defaults.ExportDir)
	a.v.SetDefault("bulk-timeout", defaults.BulkTimeout)
	a.v.SetDefault("cache-enabled", defaults.CacheEnabled)
	a.v.SetDefault("redis-url", defaults.RedisURL)
	a.v.SetDefault("recommendation-cache-ttl", defaults.RecommendationCacheTTL)

	flags := root.PersistentFlags()
	flags.StringVar(&a.cfgFile, "config", "", "config file (default: $HOME/.fraatlas/config.yaml)")
	flags.String("database-url", "", "database connection string")
	flags.String("db-driver", "", "database driver (postgres or sqlite3)")
	flags.String("log-level", "", "log level (debug, info, warn, error)")
	flags.StringP("output", "o", "json", "output format (json or yaml)")

	for _, name := range []string{"database-url", "db-driver", "log-level", "output"} {
		_ = a.v.BindPFlag(name, flags.Lookup(name))
	}

	root.AddCommand(
		newSchemesCommand(a),
		newGenerateCommand(a),
		newBulkCommand(a),
		newSeedCommand(a),
		newMigrateCommand(a),
		newExportCommand(a),
		newVersionCommand(),
	)
	return root
}

// initConfig reads in the config file and ENV variables
func (a *app) initConfig() error {
	if a.cfgFile != "" {
		a.v.SetConfigFile(a.cfgFile)
	} else if home, err := os.UserHomeDir(); err == nil {
		a.v.AddConfigPath(filepath.Join(home, ".fraatlas"))
		a.v.SetConfigType("yaml")
		a.v.SetConfigName("config")
	}

	a.v.SetEnvPrefix("FRA")
	a.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	a.v.AutomaticEnv()

	if err := a.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if a.cfgFile != "" || !errors.As(err, &notFound) {
			return fmt.Errorf("failed to read config: %w", err)
		}
	}
	return nil
}

func (a *app) logger(cmd *cobra.Command) logger.Logger {
	return logger.NewWithWriter(cmd.ErrOrStderr(), a.v.GetString("log-level"), "text")
}

// openDB connects with the resolved driver settings
func (a *app) openDB() (*database.Client, error) {
	driver := a.v.GetString("db-driver")

	var ssl *database.SSLConfig
	if driver == database.DriverPostgres {
		ssl = &database.SSLConfig{Mode: a.v.GetString("db-ssl-mode")}
	}

	return database.Open(driver, a.v.GetString("database-url"), database.DefaultPoolConfig(), ssl)
}

// openCache connects to the redis instance the API caches recommendation
// sets in, so operator writes replace what the API serves. It returns nil
// when caching is disabled or redis cannot be reached.
func (a *app) openCache(log logger.Logger) *cache.Client {
	if !a.v.GetBool("cache-enabled") || a.v.GetString("redis-url") == "" {
		return nil
	}
	client, err := cache.NewClient(a.v.GetString("redis-url"))
	if err != nil {
		log.Warn("redis unavailable, API cache will serve older sets until they expire", "error", err)
		return nil
	}
	return client
}

// render writes v in the selected output format
func (a *app) render(w io.Writer, v interface{}) error {
	switch format := a.v.GetString("output"); format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unsupported output format %q", format)
	}
}
