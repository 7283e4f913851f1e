// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the research-assistant CLI.
// The serve command runs the HTTP API; search and ask expose the same
// aggregation and chat pipeline on the command line.
package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/pdiddy/research-assistant/internal/logging"
	"github.com/pdiddy/research-assistant/internal/secrets"
	"github.com/pdiddy/research-assistant/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// Populated by the root command before any subcommand runs.
var (
	cfg    types.Config
	logger *zap.Logger
)

// rootCmd is the base command for the research-assistant CLI.
var rootCmd = &cobra.Command{
	Use:   "research-assistant",
	Short: "Multi-source research search and retrieval-augmented chat",
	Long: `research-assistant searches literature, encyclopedia, trial registry, and
web sources concurrently and merges the answers into one deduplicated, ranked
list. The same search panel grounds an AI chat with verified research context.

Run "serve" for the HTTP API, or use "search" and "ask" directly.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		verbose, _ := cmd.Flags().GetBool("verbose")
		console, _ := cmd.Flags().GetBool("console-log")

		l, err := logging.New(verbose, console)
		if err != nil {
			return err
		}
		logger = l
		if used := viper.ConfigFileUsed(); used != "" {
			logger.Debug("using config file", zap.String("path", used))
		}

		c, err := loadConfig(viper.GetViper())
		if err != nil {
			return err
		}

		dir, _ := cmd.Flags().GetString("secrets-dir")
		s, err := secrets.Load(dir, logger)
		if err != nil {
			return err
		}
		secrets.Apply(&c, s)
		if len(s) > 0 {
			logger.Debug("loaded secrets", zap.Strings("keys", secretNames(s)))
		}

		cfg = c
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	cobra.OnInitialize(loadDotEnv, initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./research-assistant.yaml or ~/.config/research-assistant/config.yaml)")
	rootCmd.PersistentFlags().String("secrets-dir", ".secrets/", "directory of API key files")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().Bool("console-log", false, "log in console format instead of JSON")
}

// loadDotEnv exports .env into the process environment before viper reads it.
// Variables already set in the environment win.
func loadDotEnv() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintln(os.Stderr, "Warning: could not load .env:", err)
	}
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("research-assistant")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "research-assistant"))
		}
	}

	configureEnv(viper.GetViper())

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			fmt.Fprintln(os.Stderr, "Warning: could not read config:", err)
		}
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
