package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/aicodeswitch/aicodeswitch/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
	Long:  `Manage the aicodeswitch vendor/service/route/rule configuration.`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE:  runConfigShow,
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration",
	RunE:  runConfigValidate,
}

var configGenerateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate an example configuration",
	RunE:  runConfigGenerate,
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configValidateCmd)
	configCmd.AddCommand(configGenerateCmd)

	configGenerateCmd.Flags().BoolP("force", "f", false, "overwrite an existing configuration file")
}

func runConfigShow(_ *cobra.Command, _ []string) error {
	if !store.Exists() {
		color.Yellow("No configuration found. Run 'aics config generate' to create one.")
		return nil
	}

	if err := store.Load(); err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	ctx := context.Background()

	vendors, err := store.GetVendors(ctx)
	if err != nil {
		return err
	}
	services, err := store.ListServices(ctx)
	if err != nil {
		return err
	}
	routes, err := store.ListActiveRoutes(ctx)
	if err != nil {
		return err
	}
	appCfg, err := store.GetConfig(ctx)
	if err != nil {
		return err
	}

	color.Blue("Config path: %s", store.Path())
	fmt.Printf("  %-15s: %v\n", "Logging", appCfg.EnableLogging)
	fmt.Printf("  %-15s: %s\n", "API Key", maskString(appCfg.APIKey))

	fmt.Println("\nVendors:")
	for _, v := range vendors {
		fmt.Printf("  - %s (%s)\n", v.Name, v.ID)
	}

	fmt.Println("\nServices:")
	for _, s := range services {
		fmt.Printf("  - %-20s sourceType=%-16s url=%s\n", s.Name, s.SourceType, s.APIURL)
	}

	fmt.Println("\nActive routes:")
	for _, r := range routes {
		rules, err := store.ListRules(ctx, r.ID)
		if err != nil {
			return err
		}
		fmt.Printf("  - %-12s %-20s rules=%d\n", r.TargetType, r.Name, len(rules))
	}

	return nil
}

func runConfigValidate(_ *cobra.Command, _ []string) error {
	if !store.Exists() {
		return errors.New("no configuration found")
	}

	if err := store.Load(); err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	ctx := context.Background()

	services, err := store.ListServices(ctx)
	if err != nil {
		return err
	}
	servicesByID := make(map[string]bool, len(services))
	for _, s := range services {
		servicesByID[s.ID] = true
	}

	routes, err := store.ListActiveRoutes(ctx)
	if err != nil {
		return err
	}

	var problems []string

	seenTarget := map[config.TargetType]bool{}
	for _, r := range routes {
		if seenTarget[r.TargetType] {
			problems = append(problems, fmt.Sprintf("multiple active routes for targetType %q", r.TargetType))
		}
		seenTarget[r.TargetType] = true

		rules, err := store.ListRules(ctx, r.ID)
		if err != nil {
			return err
		}

		hasDefault := false
		for _, rule := range rules {
			if rule.ContentType == config.ContentDefault {
				hasDefault = true
			}
			if !servicesByID[rule.TargetServiceID] {
				problems = append(problems, fmt.Sprintf("route %q rule %q references missing service %q", r.Name, rule.ID, rule.TargetServiceID))
			}
		}
		if !hasDefault {
			problems = append(problems, fmt.Sprintf("route %q has no default rule", r.Name))
		}
	}

	if len(problems) > 0 {
		color.Red("Configuration validation failed:")
		for _, p := range problems {
			fmt.Printf("  - %s\n", p)
		}
		return errors.New("configuration validation failed")
	}

	color.Green("Configuration is valid!")
	return nil
}

func runConfigGenerate(cmd *cobra.Command, _ []string) error {
	force, err := cmd.Flags().GetBool("force")
	if err != nil {
		return err
	}

	if store.Exists() && !force {
		color.Yellow("Configuration file already exists: %s", store.Path())
		color.Cyan("Use --force to overwrite, or 'aics config show' to view it.")
		return nil
	}

	vendor := config.Vendor{ID: "anthropic", Name: "Anthropic"}
	service := config.APIService{
		ID:         "claude-default",
		VendorID:   vendor.ID,
		Name:       "Claude default",
		APIURL:     "https://api.anthropic.com/v1/messages",
		APIKey:     "CHANGEME",
		SourceType: config.SourceClaudeChat,
	}
	route := config.Route{ID: "claude-code-route", Name: "Claude Code", TargetType: config.TargetClaudeCode, IsActive: true}
	rule := config.Rule{ID: "claude-code-default", RouteID: route.ID, ContentType: config.ContentDefault, TargetServiceID: service.ID}
	appCfg := config.AppConfig{EnableLogging: true}

	if err := store.Seed(
		[]config.Vendor{vendor},
		[]config.APIService{service},
		[]config.Route{route},
		[]config.Rule{rule},
		appCfg,
	); err != nil {
		return fmt.Errorf("write example configuration: %w", err)
	}

	color.Green("Example configuration created: %s", store.Path())
	color.Cyan("\nNext steps:")
	fmt.Println("1. Edit the configuration file to add vendors/services/routes for your providers")
	fmt.Println("2. Run 'aics config validate' to check it")
	fmt.Println("3. Start the proxy with 'aics start'")

	return nil
}

func maskString(s string) string {
	if s == "" {
		return "(not set)"
	}
	if len(s) <= 8 {
		return strings.Repeat("*", len(s))
	}
	return s[:4] + strings.Repeat("*", len(s)-8) + s[len(s)-4:]
}
