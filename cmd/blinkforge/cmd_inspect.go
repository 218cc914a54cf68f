package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/mrsinham/blinkforge/internal/blink"
	"github.com/mrsinham/blinkforge/internal/export"
)

func newInspectCmd() *cobra.Command {
	var (
		configPath string
		jsonOut    bool
	)

	cmd := &cobra.Command{
		Use:   "inspect <table>",
		Short: "Print statistics of an exported table (.csv or .arrow)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := loggerFor(cmd, "warn")
			if err != nil {
				return err
			}
			cfg, err := loadConfig(configPath, logger)
			if err != nil {
				return err
			}

			path := args[0]
			events, err := readTable(path)
			if err != nil {
				return err
			}

			summary := export.Summarize(export.RunInfo{}, events, cfg.Particle.Disk())
			summary.RunID = ""
			summary.Outputs = []string{path}

			out := cmd.OutOrStdout()
			if jsonOut {
				return export.EncodeSummary(out, summary)
			}

			fmt.Fprintf(out, "%s: %d localizations", path, summary.Events)
			if summary.Events > 0 {
				fmt.Fprintf(out, ", frames %d-%d", summary.FirstFrame, summary.LastFrame)
			}
			fmt.Fprintln(out)
			if summary.Events == 0 {
				return nil
			}

			fmt.Fprintln(out, statsTable(summary))
			fmt.Fprintf(out, "Radial uniformity: chi2=%.2f over %d equal-area rings %v\n",
				summary.RingChiSquare, len(summary.RingCounts), summary.RingCounts)
			return nil
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "Configuration the table was generated with (for the particle geometry)")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output the statistics as JSON")
	return cmd
}

func readTable(path string) ([]blink.Event, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case export.FormatArrow.Extension():
		return export.ReadArrow(path)
	default:
		return export.ReadCSVFile(path)
	}
}

func statsTable(s export.Summary) string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("field", "min", "max", "mean", "stddev")
	for _, name := range export.FieldNames[2:] {
		fs := s.Fields[name]
		t.Row(name,
			fmt.Sprintf("%.2f", fs.Min),
			fmt.Sprintf("%.2f", fs.Max),
			fmt.Sprintf("%.2f", fs.Mean),
			fmt.Sprintf("%.2f", fs.StdDev))
	}
	return t.String()
}
