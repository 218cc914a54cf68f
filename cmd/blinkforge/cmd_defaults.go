package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mrsinham/blinkforge/internal/config"
)

func newDefaultsCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "defaults",
		Short: "Print the default configuration as YAML",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Default()
			if output != "" {
				if err := config.Save(cfg, output); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Configuration saved to %s\n", output)
				return nil
			}

			data, err := config.Encode(cfg)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Write to this file instead of stdout")
	return cmd
}
