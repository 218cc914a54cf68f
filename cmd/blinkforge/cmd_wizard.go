package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mrsinham/blinkforge/cmd/blinkforge/wizard"
	"github.com/mrsinham/blinkforge/internal/config"
)

func newWizardCmd() *cobra.Command {
	var fromConfig string

	cmd := &cobra.Command{
		Use:   "wizard",
		Short: "Configure and launch a run interactively",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := loggerFor(cmd, "warn")
			if err != nil {
				return err
			}

			res, ok, err := wizard.Run(fromConfig, "")
			if err != nil {
				return err
			}
			if !ok {
				return nil // cancelled
			}

			out := cmd.OutOrStdout()
			if res.Action.Saves() {
				if err := config.Save(res.Config, res.ConfigPath); err != nil {
					return err
				}
				fmt.Fprintf(out, "Configuration saved to %s\n", res.ConfigPath)
			}
			if !res.Action.Runs() {
				return nil
			}
			return runSimulation(cmd.Context(), out, logger, res.Config, runOptions{
				Output:    res.Output,
				Formats:   res.Formats,
				Precision: -1,
			})
		},
	}

	cmd.Flags().StringVar(&fromConfig, "from", "", "Start from an existing YAML configuration")
	return cmd
}
