// Package wizard provides an interactive TUI for configuring a simulation run.
package wizard

import (
	"fmt"
	"strconv"

	"github.com/mrsinham/blinkforge/internal/config"
	"github.com/mrsinham/blinkforge/internal/export"
)

// Action is what the user chose to do with the configuration.
type Action string

const (
	ActionRun        Action = "run"
	ActionSave       Action = "save"
	ActionRunAndSave Action = "run_save"
	ActionCancel     Action = "cancel"
)

// Runs reports whether the action starts a simulation.
func (a Action) Runs() bool {
	return a == ActionRun || a == ActionRunAndSave
}

// Saves reports whether the action writes the configuration file.
func (a Action) Saves() bool {
	return a == ActionSave || a == ActionRunAndSave
}

// State holds the form values. huh binds to strings, so numeric fields are
// kept as text and parsed by Apply.
type State struct {
	Frames         string
	BlinksPerFrame string
	Radius         string
	Seed           string
	Output         string
	ConfigPath     string
	Formats        []string
	Action         string
}

// NewState fills the form from an existing configuration.
func NewState(cfg *config.Config, output string) *State {
	if output == "" {
		output = "localizations.csv"
	}
	return &State{
		Frames:         strconv.Itoa(cfg.Frames),
		BlinksPerFrame: strconv.FormatFloat(cfg.BlinksPerFrame, 'f', -1, 64),
		Radius:         strconv.FormatFloat(cfg.Particle.Radius, 'f', -1, 64),
		Seed:           strconv.FormatInt(cfg.Seed, 10),
		Output:         output,
		ConfigPath:     "blinkforge.yaml",
		Formats:        []string{string(export.FormatCSV)},
		Action:         string(ActionRun),
	}
}

// Apply parses the form values into cfg and validates the result.
func (s *State) Apply(cfg *config.Config) error {
	frames, err := strconv.Atoi(s.Frames)
	if err != nil {
		return fmt.Errorf("frames: %w", err)
	}
	rate, err := strconv.ParseFloat(s.BlinksPerFrame, 64)
	if err != nil {
		return fmt.Errorf("blinks per frame: %w", err)
	}
	radius, err := strconv.ParseFloat(s.Radius, 64)
	if err != nil {
		return fmt.Errorf("radius: %w", err)
	}
	seed, err := strconv.ParseInt(s.Seed, 10, 64)
	if err != nil {
		return fmt.Errorf("seed: %w", err)
	}

	cfg.Frames = frames
	cfg.BlinksPerFrame = rate
	cfg.Particle.Radius = radius
	cfg.Seed = seed
	return cfg.Validate()
}

// OutputFormats returns the selected formats.
func (s *State) OutputFormats() ([]export.Format, error) {
	return export.ParseFormats(s.Formats...)
}

func validatePositiveInt(s string) error {
	n, err := strconv.Atoi(s)
	if err != nil {
		return fmt.Errorf("must be a number")
	}
	if n <= 0 {
		return fmt.Errorf("must be greater than 0")
	}
	return nil
}

func validatePositiveFloat(s string) error {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("must be a number")
	}
	if f <= 0 {
		return fmt.Errorf("must be greater than 0")
	}
	return nil
}

func validateRate(s string) error {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("must be a number")
	}
	if f < 0 || f > 1 {
		return fmt.Errorf("must be between 0 and 1")
	}
	return nil
}

func validateSeed(s string) error {
	if _, err := strconv.ParseInt(s, 10, 64); err != nil {
		return fmt.Errorf("must be an integer (0 derives it from the output path)")
	}
	return nil
}

func validateRequired(name string) func(string) error {
	return func(s string) error {
		if s == "" {
			return fmt.Errorf("%s is required", name)
		}
		return nil
	}
}
