package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/lotworks/recontrack/internal/db"
	"github.com/lotworks/recontrack/internal/inventory"
	"github.com/lotworks/recontrack/internal/notify"
	"github.com/lotworks/recontrack/internal/scheduler"
	"github.com/lotworks/recontrack/internal/server"
)

func newServeCmd() *cobra.Command {
	var (
		configPath string
		port       int
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the Recontrack web server",
		Long:  "Launches the web UI and API, plus the scheduled snapshot job when configured.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, configPath, port)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "recon.yaml", "path to Recontrack config file")
	cmd.Flags().IntVarP(&port, "port", "p", 0, "port to listen on (overrides config)")
	return cmd
}

func runServe(cmd *cobra.Command, configPath string, port int) error {
	cfg, gormDB, err := connectFromConfig(configPath)
	if err != nil {
		return err
	}

	// Migrations are cheap and idempotent; serve must work on a fresh file.
	if err := db.AutoMigrate(gormDB); err != nil {
		return err
	}

	store, err := inventory.NewStore(gormDB, cfg.UploadsDir(), cfg.ArchiveDir())
	if err != nil {
		return err
	}
	notifier := notify.FromConfig(cfg.Notify)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		fmt.Fprintf(cmd.OutOrStdout(), "\nReceived %s, shutting down...\n", sig)
		cancel()
	}()

	sched := scheduler.New(gormDB, store, notifier)
	if err := sched.Start(cfg.Schedule.SnapshotCron); err != nil {
		return err
	}
	defer sched.Stop()

	if port <= 0 {
		port = cfg.Server.Port
	}

	return server.Start(ctx, server.StartOpts{
		DB:         gormDB,
		Store:      store,
		Notifier:   notifier,
		Dealership: cfg.Dealership,
		Port:       port,
		Out:        cmd.OutOrStdout(),
	})
}
