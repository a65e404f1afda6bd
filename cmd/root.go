package cmd

import (
	"log/slog"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/aicodeswitch/aicodeswitch/internal/config"
)

const (
	AppName = "aicodeswitch"
	Version = "0.1.0"

	DefaultHost = "127.0.0.1"
	DefaultPort = 8787
)

var (
	logger  *slog.Logger
	homeDir string
	baseDir string
	store   *config.FileStore
	cfgMgr  *config.Manager
)

func init() {
	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})
	logger = slog.New(handler)

	var err error
	homeDir, err = os.UserHomeDir()
	if err != nil {
		logger.Error("failed to get home directory", "error", err)
		os.Exit(1)
	}

	baseDir = filepath.Join(homeDir, "."+AppName)
	store = config.NewFileStore(filepath.Join(baseDir, "config.yaml"))
	cfgMgr = config.NewManager(store, logger)
}

var rootCmd = &cobra.Command{
	Use:     "aics",
	Short:   "aicodeswitch - local reverse proxy for AI coding clients",
	Long:    `Routes Claude Code and Codex-shaped clients to configurable upstream LLM providers, translating between the Messages, Chat-Completions, and Responses wire dialects.`,
	Version: Version,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		logger.Error("command execution failed", "error", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "enable verbose logging")
	rootCmd.PersistentFlags().StringP("host", "H", DefaultHost, "bind host")
	rootCmd.PersistentFlags().IntP("port", "p", DefaultPort, "bind port")

	rootCmd.AddCommand(startCmd)
	rootCmd.AddCommand(stopCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(launchCmd)
}

func setupLogging(verbose bool) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
}

func ensureConfigExists() error {
	if store.Exists() {
		return nil
	}

	color.Yellow("No configuration found at %s", store.Path())
	color.Cyan("Run 'aics config generate' to create a starter configuration.")

	return nil
}
