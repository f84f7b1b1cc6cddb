package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/lotworks/recontrack/internal/models"
	"github.com/lotworks/recontrack/internal/vehicle"
	"github.com/lotworks/recontrack/internal/workflow"
)

func newVehicleCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "vehicle",
		Short: "Vehicle management commands",
	}

	cmd.AddCommand(newVehicleListCmd())
	cmd.AddCommand(newVehicleShowCmd())
	cmd.AddCommand(newVehicleAddCmd())
	cmd.AddCommand(newVehicleAssignCmd())
	cmd.AddCommand(newVehicleNoteCmd())
	cmd.AddCommand(newVehicleDeleteCmd())
	return cmd
}

func newVehicleListCmd() *cobra.Command {
	var (
		configPath string
		status     string
		detailerF  string
		makeF      string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List vehicles",
		Long:  "Lists vehicles with optional filters. Output is formatted as a table.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVehicleList(cmd, configPath, vehicle.ListFilters{
				Status:   status,
				Detailer: detailerF,
				Make:     makeF,
			})
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "recon.yaml", "path to Recontrack config file")
	cmd.Flags().StringVar(&status, "status", "", "filter by status")
	cmd.Flags().StringVar(&detailerF, "detailer", "", "filter by assigned detailer")
	cmd.Flags().StringVar(&makeF, "make", "", "filter by make")
	return cmd
}

func runVehicleList(cmd *cobra.Command, configPath string, filters vehicle.ListFilters) error {
	_, gormDB, err := connectFromConfig(configPath)
	if err != nil {
		return err
	}

	vehicles, err := vehicle.List(gormDB, filters)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(vehicles) == 0 {
		fmt.Fprintln(out, "No vehicles found.")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "STOCK\tYEAR\tMAKE\tMODEL\tSTATUS\tPROGRESS\tDETAILER")
	for i := range vehicles {
		v := &vehicles[i]
		d := v.AssignedDetailer
		if d == "" {
			d = "-"
		}
		progress := workflow.Progress(vehicle.State(v))
		fmt.Fprintf(w, "%s\t%d\t%s\t%s\t%s\t%d%%\t%s\n",
			v.StockNumber, v.Year, v.Make, truncate(v.Model, 24), v.Status, progress, d)
	}
	w.Flush()
	return nil
}

func newVehicleShowCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "show <stock-number>",
		Short: "Show vehicle details",
		Long:  "Displays full vehicle details including every workflow stage, sub-step, and the lot-ready checklist.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVehicleShow(cmd, configPath, args[0])
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "recon.yaml", "path to Recontrack config file")
	return cmd
}

func runVehicleShow(cmd *cobra.Command, configPath, stock string) error {
	_, gormDB, err := connectFromConfig(configPath)
	if err != nil {
		return err
	}

	v, err := vehicle.Get(gormDB, stock)
	if err != nil {
		return err
	}
	st := vehicle.State(v)

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Stock:       %s\n", v.StockNumber)
	if v.VIN != "" {
		fmt.Fprintf(out, "VIN:         %s\n", v.VIN)
	}
	fmt.Fprintf(out, "Vehicle:     %d %s %s\n", v.Year, v.Make, v.Model)
	if v.Color != "" {
		fmt.Fprintf(out, "Color:       %s\n", v.Color)
	}
	if v.Odometer > 0 {
		fmt.Fprintf(out, "Odometer:    %d\n", v.Odometer)
	}
	if v.DateIn != "" {
		fmt.Fprintf(out, "Date in:     %s\n", v.DateIn)
	}
	fmt.Fprintf(out, "Status:      %s\n", v.Status)
	fmt.Fprintf(out, "Progress:    %d%%\n", workflow.Progress(st))
	if v.AssignedDetailer != "" {
		fmt.Fprintf(out, "Detailer:    %s\n", v.AssignedDetailer)
	}
	if v.Notes != "" {
		fmt.Fprintf(out, "Notes:       %s\n", v.Notes)
	}

	fmt.Fprintln(out, "\nWorkflow:")
	for _, stage := range workflow.Stages {
		rec := st[stage.Name]
		fmt.Fprintf(out, "  [%s] %s", checkMark(rec.Completed), stage.Name)
		if rec.CompletedAt != "" {
			fmt.Fprintf(out, "  (%s)", rec.CompletedAt)
		}
		fmt.Fprintln(out)
		for _, sub := range stage.SubSteps {
			done := rec.SubSteps[sub.ID] != nil && rec.SubSteps[sub.ID].Completed
			fmt.Fprintf(out, "      [%s] %s\n", checkMark(done), sub.Name)
		}
		if stage.HasInHouse {
			fmt.Fprintf(out, "      [%s] %s\n", checkMark(rec.InHouse), workflow.TitleInHouseLabel)
		}
	}

	elig := workflow.LotReadyEligibility(st)
	if elig.Eligible {
		fmt.Fprintln(out, "\nLot ready: eligible")
	} else {
		fmt.Fprintf(out, "\nLot ready: missing %v\n", elig.Missing)
	}
	return nil
}

func newVehicleAddCmd() *cobra.Command {
	var (
		configPath string
		vin        string
		year       int
		makeF      string
		model      string
		body       string
		color      string
		odometer   int
		source     string
		dateIn     string
		notes      string
	)

	cmd := &cobra.Command{
		Use:   "add <stock-number>",
		Short: "Add a single vehicle",
		Long:  "Adds one vehicle by hand with a fresh workflow. Bulk intake should use 'recon import'.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}
			v, err := vehicle.Create(gormDB, models.Vehicle{
				StockNumber: args[0],
				VIN:         vin,
				Year:        year,
				Make:        makeF,
				Model:       model,
				Body:        body,
				Color:       color,
				Odometer:    odometer,
				Source:      source,
				DateIn:      dateIn,
				Notes:       notes,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added vehicle %s (%s)\n", v.StockNumber, v.Status)
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "recon.yaml", "path to Recontrack config file")
	cmd.Flags().StringVar(&vin, "vin", "", "VIN")
	cmd.Flags().IntVar(&year, "year", 0, "model year")
	cmd.Flags().StringVar(&makeF, "make", "", "make")
	cmd.Flags().StringVar(&model, "model", "", "model")
	cmd.Flags().StringVar(&body, "body", "", "body style")
	cmd.Flags().StringVar(&color, "color", "", "color")
	cmd.Flags().IntVar(&odometer, "odometer", 0, "odometer reading")
	cmd.Flags().StringVar(&source, "source", "", "vehicle source (trade, auction, ...)")
	cmd.Flags().StringVar(&dateIn, "date-in", "", "intake date (YYYY-MM-DD, default today)")
	cmd.Flags().StringVar(&notes, "notes", "", "free-form notes")
	return cmd
}

func newVehicleAssignCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "assign <stock-number> <detailer>",
		Short: "Assign a detailer to a vehicle",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}
			v, err := vehicle.AssignDetailer(gormDB, args[0], args[1])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Assigned %s to %s\n", v.AssignedDetailer, v.StockNumber)
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "recon.yaml", "path to Recontrack config file")
	return cmd
}

func newVehicleNoteCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "note <stock-number> <notes>",
		Short: "Set the notes on a vehicle",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}
			notes := strings.Join(args[1:], " ")
			v, err := vehicle.SetNotes(gormDB, args[0], notes)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Notes updated for %s\n", v.StockNumber)
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "recon.yaml", "path to Recontrack config file")
	return cmd
}

func newVehicleDeleteCmd() *cobra.Command {
	var (
		configPath string
		yes        bool
	)

	cmd := &cobra.Command{
		Use:   "delete <stock-number>",
		Short: "Delete a vehicle",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}
			if !yes {
				return fmt.Errorf("pass --yes to confirm deleting %s", args[0])
			}
			if err := vehicle.Delete(gormDB, args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted vehicle %s\n", args[0])
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "recon.yaml", "path to Recontrack config file")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "confirm deletion")
	return cmd
}

func checkMark(done bool) string {
	if done {
		return "x"
	}
	return " "
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
