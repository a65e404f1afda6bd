package cmd

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/aicodeswitch/aicodeswitch/internal/process"
)

var launchCmd = &cobra.Command{
	Use:   "launch",
	Short: "Start the proxy if needed and exec a client pointed at it",
}

var launchClaudeCmd = &cobra.Command{
	Use:                "claude [args...]",
	Short:              "Launch Claude Code through the /claude-code route",
	Args:               cobra.ArbitraryArgs,
	DisableFlagParsing: true,
	RunE:               runLaunchClaude,
}

var launchCodexCmd = &cobra.Command{
	Use:                "codex [args...]",
	Short:              "Launch Codex through the /codex route",
	Args:               cobra.ArbitraryArgs,
	DisableFlagParsing: true,
	RunE:               runLaunchCodex,
}

func init() {
	launchCmd.AddCommand(launchClaudeCmd)
	launchCmd.AddCommand(launchCodexCmd)
}

func runLaunchClaude(cmd *cobra.Command, args []string) error {
	return runLaunch(cmd, args, "claude", "claude-code", func(env []string, baseURL, apiKey string) []string {
		env = filterEnv(env, "ANTHROPIC_BASE_URL")
		env = filterEnv(env, "ANTHROPIC_AUTH_TOKEN")
		env = filterEnv(env, "ANTHROPIC_API_KEY")

		if apiKey != "" {
			env = append(env, "ANTHROPIC_API_KEY="+apiKey)
		} else {
			env = append(env, "ANTHROPIC_AUTH_TOKEN=proxy")
		}

		return append(env, "ANTHROPIC_BASE_URL="+baseURL)
	})
}

func runLaunchCodex(cmd *cobra.Command, args []string) error {
	return runLaunch(cmd, args, "codex", "codex", func(env []string, baseURL, apiKey string) []string {
		env = filterEnv(env, "OPENAI_BASE_URL")
		env = filterEnv(env, "OPENAI_API_KEY")

		if apiKey != "" {
			env = append(env, "OPENAI_API_KEY="+apiKey)
		} else {
			env = append(env, "OPENAI_API_KEY=proxy")
		}

		return append(env, "OPENAI_BASE_URL="+baseURL)
	})
}

func runLaunch(cmd *cobra.Command, args []string, clientBinary, routePrefix string, setEnv func(env []string, baseURL, apiKey string) []string) error {
	host, _ := cmd.Flags().GetString("host")
	port, _ := cmd.Flags().GetInt("port")
	if host == "" {
		host = DefaultHost
	}
	if port == 0 {
		port = DefaultPort
	}

	procMgr := process.NewManager(baseDir)

	startedByUs, err := procMgr.StartServiceIfNeeded()
	if err != nil {
		return err
	}

	var apiKey string
	if store.Exists() {
		if err := store.Load(); err != nil {
			return fmt.Errorf("load configuration: %w", err)
		}
		appCfg, err := store.GetConfig(context.Background())
		if err == nil {
			apiKey = appCfg.APIKey
		}
	}

	baseURL := fmt.Sprintf("http://%s:%d/%s", host, port, routePrefix)
	env := setEnv(os.Environ(), baseURL, apiKey)

	procMgr.IncrementRef()
	defer func() {
		procMgr.DecrementRef()
		if startedByUs && procMgr.ReadRef() == 0 {
			color.Yellow("No more active sessions, stopping auto-started service...")
			_ = procMgr.Stop()
		}
	}()

	client := exec.Command(clientBinary, args...)
	client.Env = env
	client.Stdin = os.Stdin
	client.Stdout = os.Stdout
	client.Stderr = os.Stderr

	return client.Run()
}

func filterEnv(env []string, key string) []string {
	prefix := key + "="
	filtered := make([]string, 0, len(env))
	for _, e := range env {
		if !strings.HasPrefix(e, prefix) {
			filtered = append(filtered, e)
		}
	}
	return filtered
}
