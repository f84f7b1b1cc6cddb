package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lotworks/recontrack/internal/vehicle"
	"github.com/lotworks/recontrack/internal/workflow"
)

func newStageCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stage",
		Short: "Workflow stage operations",
		Long:  "Completes, reopens, and inspects workflow stages for a vehicle. Stage names: " + strings.Join(workflow.StageNames(), ", ") + ".",
	}

	cmd.AddCommand(newStageCompleteCmd())
	cmd.AddCommand(newStageUncompleteCmd())
	cmd.AddCommand(newStageSubStepCmd())
	cmd.AddCommand(newStageTitleCmd())
	cmd.AddCommand(newStageLotReadyCmd())
	return cmd
}

func newStageCompleteCmd() *cobra.Command {
	var (
		configPath string
		notes      string
	)

	cmd := &cobra.Command{
		Use:   "complete <stock-number> <stage>",
		Short: "Mark a stage complete",
		Long:  "Marks a workflow stage complete. Stages may be completed in any order; completing a stage with sub-steps completes all of them.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}
			v, err := vehicle.CompleteStage(gormDB, args[0], args[1], notes)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s complete (now %s, %d%%)\n",
				v.StockNumber, args[1], v.Status, workflow.Progress(vehicle.State(v)))
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "recon.yaml", "path to Recontrack config file")
	cmd.Flags().StringVar(&notes, "notes", "", "notes to record on the stage")
	return cmd
}

func newStageUncompleteCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "uncomplete <stock-number> <stage>",
		Short: "Reopen a completed stage",
		Long:  "Clears a stage's completion, its sub-steps, and its notes. The cached status drops only if a later stage was not already complete.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}
			v, err := vehicle.UncompleteStage(gormDB, args[0], args[1])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s reopened (now %s)\n", v.StockNumber, args[1], v.Status)
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "recon.yaml", "path to Recontrack config file")
	return cmd
}

func newStageSubStepCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "substep <stock-number> <stage> <substep-id>",
		Short: "Toggle a stage sub-step",
		Long:  "Toggles one sub-step (e.g. the Mechanical stage's email-service, mechanic-pickup, mechanic-return). Completing the last sub-step completes the stage.",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}
			v, err := vehicle.ToggleSubStep(gormDB, args[0], args[1], args[2])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: toggled %s/%s (now %s, %d%%)\n",
				v.StockNumber, args[1], args[2], v.Status, workflow.Progress(vehicle.State(v)))
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "recon.yaml", "path to Recontrack config file")
	return cmd
}

func newStageTitleCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "title <stock-number>",
		Short: "Toggle the title in-house flag",
		Long:  "Toggles whether the vehicle's title is physically in-house. Setting it completes the Title stage; clearing it leaves the stage alone.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}
			v, err := vehicle.ToggleTitleInHouse(gormDB, args[0])
			if err != nil {
				return err
			}
			st := vehicle.State(v)
			fmt.Fprintf(cmd.OutOrStdout(), "%s: title in-house = %t\n",
				v.StockNumber, st[workflow.StageTitle].InHouse)
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "recon.yaml", "path to Recontrack config file")
	return cmd
}

func newStageLotReadyCmd() *cobra.Command {
	var (
		configPath string
		check      bool
	)

	cmd := &cobra.Command{
		Use:   "lot-ready <stock-number>",
		Short: "Move a vehicle to Lot Ready",
		Long: `Moves a vehicle to Lot Ready once the gate is met: Mechanical, Detailing,
and Photos complete, and the title in-house. With --check, reports
eligibility without changing anything.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			if check {
				elig, err := vehicle.Eligibility(gormDB, args[0])
				if err != nil {
					return err
				}
				if elig.Eligible {
					fmt.Fprintf(out, "%s is eligible for Lot Ready\n", args[0])
				} else {
					fmt.Fprintf(out, "%s is not eligible: missing %s\n",
						args[0], strings.Join(elig.Missing, ", "))
				}
				return nil
			}

			v, err := vehicle.MoveToLotReady(gormDB, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "%s is now %s\n", v.StockNumber, v.Status)
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "recon.yaml", "path to Recontrack config file")
	cmd.Flags().BoolVar(&check, "check", false, "report eligibility without moving")
	return cmd
}
