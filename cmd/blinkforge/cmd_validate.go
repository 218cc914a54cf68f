package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mrsinham/blinkforge/internal/blink"
)

func newValidateCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check a configuration and print the resolved plan",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := loggerFor(cmd, "warn")
			if err != nil {
				return err
			}
			cfg, err := loadConfig(configPath, logger)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if err := cfg.Validate(); err != nil {
				var joined interface{ Unwrap() []error }
				if errors.As(err, &joined) {
					for _, e := range joined.Unwrap() {
						fmt.Fprintf(out, "  ✗ %v\n", e)
					}
				}
				return fmt.Errorf("configuration is invalid")
			}

			plan := blink.Schedule(cfg.Frames, cfg.ExpectedBlinks())
			fmt.Fprintln(out, "✓ Configuration is valid")
			fmt.Fprintf(out, "  Frames: %d\n", plan.Frames)
			fmt.Fprintf(out, "  Events: %d (one every %d frames)\n", plan.Blinks, plan.FramesPerBlink)
			fmt.Fprintf(out, "  Particle: radius %g nm at (%g, %g)\n",
				cfg.Particle.Radius, cfg.Particle.CenterX, cfg.Particle.CenterY)
			for _, q := range cfg.Quantities() {
				d := q.Distribution()
				s, _ := d.Sampler()
				lo, hi := s.Bounds()
				fmt.Fprintf(out, "  %-15s %-9s %s bounds=[%g, %g] acceptance=%.3f\n",
					q.Name, d.Family, d.Parameters(), lo, hi, s.Mass())
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "YAML configuration file (defaults if empty)")
	return cmd
}
