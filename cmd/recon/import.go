package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/lotworks/recontrack/internal/ingest"
	"github.com/lotworks/recontrack/internal/inventory"
)

func newImportCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "import <inventory.csv>",
		Short: "Import an inventory CSV",
		Long: `Imports a dealership inventory export. New stock numbers are created with
a fresh workflow; vehicles already on the lot get their descriptive fields
refreshed without touching recon progress. The file is archived and becomes
the current inventory file.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(cmd, configPath, args[0])
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "recon.yaml", "path to Recontrack config file")
	return cmd
}

func runImport(cmd *cobra.Command, configPath, csvPath string) error {
	cfg, gormDB, err := connectFromConfig(configPath)
	if err != nil {
		return err
	}

	f, err := os.Open(csvPath)
	if err != nil {
		return fmt.Errorf("open %s: %w", csvPath, err)
	}
	defer f.Close()

	summary, err := ingest.Import(gormDB, f)
	if err != nil {
		return err
	}

	// Archive a copy of the file as the new current inventory.
	store, err := inventory.NewStore(gormDB, cfg.UploadsDir(), cfg.ArchiveDir())
	if err != nil {
		return err
	}
	if _, err := f.Seek(0, 0); err != nil {
		return fmt.Errorf("rewind %s: %w", csvPath, err)
	}
	rec, err := store.SaveUpload(filepath.Base(csvPath), f,
		summary.Created+summary.Updated, len(summary.Skipped))
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Imported %s\n", rec.Filename)
	fmt.Fprintf(out, "  Created: %d\n", summary.Created)
	fmt.Fprintf(out, "  Updated: %d\n", summary.Updated)
	if len(summary.Skipped) > 0 {
		fmt.Fprintf(out, "  Skipped: %d\n", len(summary.Skipped))
		for _, s := range summary.Skipped {
			fmt.Fprintf(out, "    %s\n", s.String())
		}
	}
	return nil
}
