package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

func (a *cli) configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration helpers",
	}

	var instrument bool
	validate := &cobra.Command{
		Use:   "validate",
		Short: "Load and validate --config without touching any file or instrument",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.configPath == "" {
				return errors.New("--config is required")
			}
			if instrument {
				if err := a.cfg.ValidateInstrument(); err != nil {
					return err
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "config %s looks good\n", a.configPath)
			return nil
		},
	}
	validate.Flags().BoolVar(&instrument, "instrument", false, "also require a usable OPC UA section")

	cmd.AddCommand(validate)
	return cmd
}
