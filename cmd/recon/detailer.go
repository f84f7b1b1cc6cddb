package main

import (
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/lotworks/recontrack/internal/detailer"
)

func newDetailerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "detailer",
		Short: "Detailer roster commands",
	}

	cmd.AddCommand(newDetailerListCmd())
	cmd.AddCommand(newDetailerAddCmd())
	cmd.AddCommand(newDetailerUpdateCmd())
	cmd.AddCommand(newDetailerRemoveCmd())
	return cmd
}

func newDetailerListCmd() *cobra.Command {
	var (
		configPath string
		activeOnly bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List detailers",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}
			list, err := detailer.List(gormDB, activeOnly)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(list) == 0 {
				fmt.Fprintln(out, "No detailers found.")
				return nil
			}
			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tEMAIL\tPHONE\tACTIVE")
			for _, d := range list {
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%t\n", d.ID, d.Name, d.Email, d.Phone, d.Active)
			}
			w.Flush()
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "recon.yaml", "path to Recontrack config file")
	cmd.Flags().BoolVar(&activeOnly, "active", false, "only active detailers")
	return cmd
}

func newDetailerAddCmd() *cobra.Command {
	var (
		configPath string
		email      string
		phone      string
	)

	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Add a detailer",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}
			d, err := detailer.Add(gormDB, args[0], email, phone)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added detailer %s (id %d)\n", d.Name, d.ID)
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "recon.yaml", "path to Recontrack config file")
	cmd.Flags().StringVar(&email, "email", "", "email address")
	cmd.Flags().StringVar(&phone, "phone", "", "phone number")
	return cmd
}

func newDetailerUpdateCmd() *cobra.Command {
	var (
		configPath string
		name       string
		email      string
		phone      string
		active     bool
		inactive   bool
	)

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update a detailer",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseUint(args[0], 10, 32)
			if err != nil {
				return fmt.Errorf("invalid detailer id %q", args[0])
			}
			_, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}

			var opts detailer.UpdateOpts
			if cmd.Flags().Changed("name") {
				opts.Name = &name
			}
			if cmd.Flags().Changed("email") {
				opts.Email = &email
			}
			if cmd.Flags().Changed("phone") {
				opts.Phone = &phone
			}
			if active {
				t := true
				opts.Active = &t
			}
			if inactive {
				f := false
				opts.Active = &f
			}

			d, err := detailer.Update(gormDB, uint(id), opts)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated detailer %s (active: %t)\n", d.Name, d.Active)
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "recon.yaml", "path to Recontrack config file")
	cmd.Flags().StringVar(&name, "name", "", "new name")
	cmd.Flags().StringVar(&email, "email", "", "new email")
	cmd.Flags().StringVar(&phone, "phone", "", "new phone")
	cmd.Flags().BoolVar(&active, "active", false, "mark active")
	cmd.Flags().BoolVar(&inactive, "inactive", false, "mark inactive")
	return cmd
}

func newDetailerRemoveCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "remove <id>",
		Short: "Remove a detailer",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseUint(args[0], 10, 32)
			if err != nil {
				return fmt.Errorf("invalid detailer id %q", args[0])
			}
			_, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}
			if err := detailer.Remove(gormDB, uint(id)); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed detailer %d\n", id)
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "recon.yaml", "path to Recontrack config file")
	return cmd
}
