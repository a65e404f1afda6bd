package cmd

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/aicodeswitch/aicodeswitch/internal/process"
	"github.com/aicodeswitch/aicodeswitch/internal/proxy"
	"github.com/aicodeswitch/aicodeswitch/internal/reqlog"
	"github.com/aicodeswitch/aicodeswitch/internal/server"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the proxy",
	Long:  `Start the aicodeswitch proxy service in the foreground.`,
	RunE:  runStart,
}

func runStart(cmd *cobra.Command, _ []string) error {
	verbose, _ := cmd.Flags().GetBool("verbose")
	setupLogging(verbose)

	if err := ensureConfigExists(); err != nil {
		return err
	}

	if err := store.Load(); err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	ctx := context.Background()
	if err := cfgMgr.Reload(ctx); err != nil {
		return fmt.Errorf("build config snapshot: %w", err)
	}

	host, _ := cmd.Flags().GetString("host")
	port, _ := cmd.Flags().GetInt("port")

	color.Green("Starting %s v%s on %s:%d...", AppName, Version, host, port)

	procMgr := process.NewManager(baseDir)
	if err := procMgr.WritePID(); err != nil {
		return err
	}
	defer procMgr.CleanupPID()

	stopWatch, err := watchConfig(store.Path())
	if err != nil {
		logger.Warn("config hot-reload disabled", "error", err)
	} else {
		defer stopWatch()
	}

	sink := reqlog.NewMemorySink()
	engine := proxy.New(cfgMgr, sink, logger)

	srv := server.New(cfgMgr, engine, logger)
	return srv.Start(host, port)
}

// watchConfig reloads the config snapshot whenever the backing YAML file
// changes on disk, so an edit to routes/rules/services takes effect without
// restarting the process.
func watchConfig(path string) (func(), error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}

	if err := watcher.Add(path); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("watch %s: %w", path, err)
	}

	go func() {
		for {
			select {
			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}
				if err := store.Load(); err != nil {
					logger.Error("config reload: load failed", "error", err)
					continue
				}
				if err := cfgMgr.Reload(context.Background()); err != nil {
					logger.Error("config reload: snapshot rebuild failed", "error", err)
					continue
				}
				logger.Info("config reloaded", "path", path)
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Error("config watcher error", "error", err)
			}
		}
	}()

	return func() { watcher.Close() }, nil
}
