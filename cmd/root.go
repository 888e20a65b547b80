// Package cmd wires the dcmtag2table commands.
package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"dcmtag2table/logging"
)

// EnvPrefix prefixes the environment variables read into the configuration.
const EnvPrefix = "DCMTAG2TABLE"

// NewRootCmd returns the root command with every subcommand attached.
func NewRootCmd() *cobra.Command {
	var cfgFile string

	root := &cobra.Command{
		Use:   "dcmtag2table",
		Short: "Tabulate DICOM tags across files",
		Long: `dcmtag2table reads DICOM files and extracts selected tags into CSV tables,
inverted indexes and an optional PostgreSQL catalog served over HTTP.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initConfig(cfgFile)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default is $HOME/.dcmtag2table.yaml)")
	flags.String("log-level", "info", "log level: debug, info, warn, error")
	flags.Bool("log-text", false, "log as text instead of JSON")
	viper.BindPFlag("log_level", flags.Lookup("log-level"))
	viper.BindPFlag("log_textlogging", flags.Lookup("log-text"))

	root.AddCommand(
		newTagsCmd(),
		newExportCmd(),
		newIndexCmd(),
		newSummaryCmd(),
		newImportCmd(),
		newServeCmd(),
		newMigrateCmd(),
	)
	return root
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// initConfig reads in config file and ENV variables if set.
func initConfig(cfgFile string) error {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else if home, err := os.UserHomeDir(); err == nil {
		viper.AddConfigPath(home)
		viper.SetConfigName(".dcmtag2table")
	}

	viper.SetEnvPrefix(EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("read config %s: %w", cfgFile, err)
		}
	}

	logger := logging.NewLogger()
	if used := viper.ConfigFileUsed(); used != "" {
		logger.WithField("module", "config").Debugf("using config file %s", filepath.Clean(used))
	}
	return nil
}

// commandLogger tags the configured logger with the command name.
func commandLogger(cmd *cobra.Command) logrus.FieldLogger {
	logger := logging.Logger
	if logger == nil {
		logger = logging.NewLogger()
	}
	logger.Out = cmd.ErrOrStderr()
	return logger.WithField("module", cmd.Name())
}
