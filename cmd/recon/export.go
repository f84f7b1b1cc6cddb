package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/lotworks/recontrack/internal/export"
	"github.com/lotworks/recontrack/internal/vehicle"
)

func newExportCmd() *cobra.Command {
	var (
		configPath string
		format     string
		outPath    string
		status     string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export vehicles with workflow columns",
		Long:  "Exports the vehicle list as CSV (one column per stage plus Title In-House) or JSON (full workflow detail). Writes to stdout unless --out is given.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(cmd, configPath, format, outPath, status)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "recon.yaml", "path to Recontrack config file")
	cmd.Flags().StringVar(&format, "format", "csv", "output format (csv or json)")
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "write to file instead of stdout")
	cmd.Flags().StringVar(&status, "status", "", "filter by status")
	return cmd
}

func runExport(cmd *cobra.Command, configPath, format, outPath, status string) error {
	_, gormDB, err := connectFromConfig(configPath)
	if err != nil {
		return err
	}

	vehicles, err := vehicle.List(gormDB, vehicle.ListFilters{Status: status})
	if err != nil {
		return err
	}

	var w io.Writer = cmd.OutOrStdout()
	if outPath != "" {
		f, err := os.Create(outPath)
		if err != nil {
			return fmt.Errorf("create %s: %w", outPath, err)
		}
		defer f.Close()
		w = f
	}

	switch format {
	case "csv":
		err = export.WriteCSV(w, vehicles)
	case "json":
		err = export.WriteJSON(w, vehicles)
	default:
		return fmt.Errorf("unknown format %q (want csv or json)", format)
	}
	if err != nil {
		return err
	}

	if outPath != "" {
		fmt.Fprintf(cmd.OutOrStdout(), "Exported %d vehicles to %s\n", len(vehicles), outPath)
	}
	return nil
}
