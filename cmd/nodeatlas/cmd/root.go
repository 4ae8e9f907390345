// Package cmd implements the nodeatlas CLI commands.
package cmd

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/agentstation/nodeatlas/internal/cmd/output"
	"github.com/agentstation/nodeatlas/pkg/logging"
)

var (
	configFile   string
	outputFormat string
	verbose      bool
	quiet        bool

	// Version information set by main.
	Version = "dev"
	// Commit is the git commit hash.
	Commit = "unknown"
	// Date is the build date.
	Date = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "nodeatlas",
	Short: "Automation node catalog CLI",
	Long: `Nodeatlas maintains a catalog of automation platform nodes scraped
from the platform API, the public source repository, and the npm
registry, reconciled into one canonical entry per node type.

The catalog can be searched with synonym expansion, exported as
markdown, and projected into prompts for workflow generation.`,
	SilenceUsage: true,
}

// Execute runs the CLI.
func Execute(version, commit, date string) {
	Version = version
	Commit = commit
	Date = date

	ctx, cancel := signal.NotifyContext(context.Background(),
		syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (default is $HOME/.nodeatlas.yaml)")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "database path (default is $HOME/.nodeatlas/nodeatlas.db)")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "", "output format: table, json, yaml")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "only log warnings and errors")

	cobra.CheckErr(viper.BindPFlag("db", rootCmd.PersistentFlags().Lookup("db")))
	cobra.CheckErr(viper.BindPFlag("output", rootCmd.PersistentFlags().Lookup("output")))
}

// initConfig reads the config file and environment.
func initConfig() {
	if configFile != "" {
		viper.SetConfigFile(configFile)
	} else {
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)
		viper.AddConfigPath(home)
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".nodeatlas")
	}

	// .env.local overrides .env.
	for _, envFile := range []string{".env", ".env.local"} {
		_ = godotenv.Overload(envFile)
	}

	viper.SetEnvPrefix("NODEATLAS")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	_ = viper.ReadInConfig()

	configureLogging()
}

func configureLogging() {
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	if quiet {
		level = zerolog.WarnLevel
	}
	if envLevel := os.Getenv("LOG_LEVEL"); envLevel != "" {
		if parsed, err := zerolog.ParseLevel(envLevel); err == nil {
			level = parsed
		}
	}
	logging.SetDefault(logging.Default().Level(level))
}

// formatter resolves the output formatter for the current invocation.
func formatter() (output.Formatter, error) {
	format, err := output.ParseFormat(viper.GetString("output"))
	if err != nil {
		return nil, err
	}
	return output.New(output.DetectFormat(string(format))), nil
}
