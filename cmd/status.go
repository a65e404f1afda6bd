package cmd

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/aicodeswitch/aicodeswitch/internal/process"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show proxy status",
	Long:  `Display the current status of the aicodeswitch proxy service.`,
	RunE:  runStatus,
}

func runStatus(_ *cobra.Command, _ []string) error {
	procMgr := process.NewManager(baseDir)

	running := procMgr.IsRunning()
	pid := procMgr.ReadPID()
	refs := procMgr.ReadRef()

	color.Blue("Status for %s:", AppName)
	fmt.Printf("  %-15s: %v\n", "Running", running)
	fmt.Printf("  %-15s: %d\n", "PID", pid)
	fmt.Printf("  %-15s: %s\n", "Config Path", store.Path())
	fmt.Printf("  %-15s: %d\n", "References", refs)
	fmt.Printf("  %-15s: v%s\n", "Version", Version)

	if !store.Exists() {
		color.Yellow("No configuration found; run 'aics config generate'.")
		return nil
	}

	if err := store.Load(); err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}
	if err := cfgMgr.Reload(context.Background()); err != nil {
		return fmt.Errorf("build config snapshot: %w", err)
	}

	snap := cfgMgr.Current()
	fmt.Println("\nActive routes:")
	for targetType, route := range snap.ActiveRoutes {
		rules := snap.RulesFor(route.ID)
		fmt.Printf("  - %-12s route=%-20s rules=%d\n", targetType, route.Name, len(rules))
	}
	fmt.Printf("\n  %-15s: %d\n", "Services", len(snap.ServicesByID))
	fmt.Printf("  %-15s: %d\n", "Vendors", len(snap.VendorsByID))

	return nil
}
