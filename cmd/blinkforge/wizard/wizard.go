package wizard

import (
	"fmt"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/mrsinham/blinkforge/internal/config"
	"github.com/mrsinham/blinkforge/internal/export"
)

// Phase is the current wizard screen.
type Phase int

const (
	PhaseForm Phase = iota
	PhaseSummary
	PhaseDone
)

// Result is the outcome of a completed wizard.
type Result struct {
	Config     *config.Config
	Output     string
	Formats    []export.Format
	ConfigPath string
	Action     Action
}

// Wizard is the bubbletea model driving the form and summary screens.
type Wizard struct {
	cfg   *config.Config
	state *State
	phase Phase

	form    *huh.Form
	summary *huh.Form

	width    int
	applyErr error

	cancelled bool
}

// NewWizard creates a wizard editing cfg. A nil cfg starts from the defaults.
func NewWizard(cfg *config.Config, output string) *Wizard {
	if cfg == nil {
		cfg = config.Default()
	}
	w := &Wizard{
		cfg:   cfg,
		state: NewState(cfg, output),
		phase: PhaseForm,
		width: 64,
	}
	w.form = w.newForm()
	return w
}

func (w *Wizard) newForm() *huh.Form {
	s := w.state
	formats := make([]huh.Option[string], 0, 3)
	for _, f := range []export.Format{export.FormatCSV, export.FormatArrow, export.FormatSQLite} {
		formats = append(formats, huh.NewOption(string(f), string(f)))
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Key("frames").
				Title("Frames").
				Value(&s.Frames).
				Validate(validatePositiveInt),

			huh.NewInput().
				Key("blinks_per_frame").
				Title("Blinks per Frame").
				Value(&s.BlinksPerFrame).
				Validate(validateRate),

			huh.NewInput().
				Key("radius").
				Title("Particle Radius (nm)").
				Value(&s.Radius).
				Validate(validatePositiveFloat),

			huh.NewInput().
				Key("seed").
				Title("Seed").
				Value(&s.Seed).
				Validate(validateSeed),
		),
		huh.NewGroup(
			huh.NewInput().
				Key("output").
				Title("Output Path").
				Value(&s.Output).
				Validate(validateRequired("output path")),

			huh.NewMultiSelect[string]().
				Key("formats").
				Title("Output Formats").
				Options(formats...).
				Value(&s.Formats).
				Validate(func(v []string) error {
					if len(v) == 0 {
						return fmt.Errorf("select at least one format")
					}
					return nil
				}),
		),
	).WithShowHelp(false).WithShowErrors(true)
}

func (w *Wizard) newSummaryForm() *huh.Form {
	s := w.state
	return huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Key("action").
				Title("Action").
				Options(
					huh.NewOption("Run simulation", string(ActionRun)),
					huh.NewOption("Save configuration", string(ActionSave)),
					huh.NewOption("Save and run", string(ActionRunAndSave)),
					huh.NewOption("Cancel", string(ActionCancel)),
				).
				Value(&s.Action),
		),
		huh.NewGroup(
			huh.NewInput().
				Key("config_path").
				Title("Config File").
				Value(&s.ConfigPath).
				Validate(validateRequired("config file")),
		).WithHideFunc(func() bool { return !Action(s.Action).Saves() }),
	).WithShowHelp(false).WithShowErrors(true)
}

// Init implements tea.Model.
func (w *Wizard) Init() tea.Cmd {
	return w.form.Init()
}

// Update implements tea.Model.
func (w *Wizard) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			w.cancelled = true
			return w, tea.Quit
		case "esc":
			if w.phase == PhaseSummary {
				return w.transitionToForm()
			}
			w.cancelled = true
			return w, tea.Quit
		}
	case tea.WindowSizeMsg:
		w.width = msg.Width
	}

	switch w.phase {
	case PhaseForm:
		return w.updateForm(msg)
	case PhaseSummary:
		return w.updateSummary(msg)
	}
	return w, nil
}

func (w *Wizard) updateForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	model, cmd := w.form.Update(msg)
	if f, ok := model.(*huh.Form); ok {
		w.form = f
	}
	if w.form.State != huh.StateCompleted {
		return w, cmd
	}

	// Apply to a copy so a rejected edit leaves the loaded config intact.
	candidate := *w.cfg
	if err := w.state.Apply(&candidate); err != nil {
		w.applyErr = err
		return w.transitionToForm()
	}
	*w.cfg = candidate
	w.applyErr = nil
	return w.transitionToSummary()
}

func (w *Wizard) updateSummary(msg tea.Msg) (tea.Model, tea.Cmd) {
	model, cmd := w.summary.Update(msg)
	if f, ok := model.(*huh.Form); ok {
		w.summary = f
	}
	if w.summary.State != huh.StateCompleted {
		return w, cmd
	}

	if Action(w.state.Action) == ActionCancel {
		w.cancelled = true
	}
	w.phase = PhaseDone
	return w, tea.Quit
}

func (w *Wizard) transitionToForm() (tea.Model, tea.Cmd) {
	w.phase = PhaseForm
	w.form = w.newForm()
	return w, w.form.Init()
}

func (w *Wizard) transitionToSummary() (tea.Model, tea.Cmd) {
	w.phase = PhaseSummary
	w.summary = w.newSummaryForm()
	return w, w.summary.Init()
}

// View implements tea.Model.
func (w *Wizard) View() string {
	if w.cancelled {
		return "Cancelled.\n"
	}

	switch w.phase {
	case PhaseForm:
		key := ""
		if focused := w.form.GetFocusedField(); focused != nil {
			key = focused.GetKey()
		}
		parts := []string{
			titleStyle.Render("BLINKFORGE WIZARD - Simulation"),
			w.form.View(),
			renderHelp(key, w.width),
		}
		if w.applyErr != nil {
			parts = append(parts, errorStyle.Render(w.applyErr.Error()))
		}
		parts = append(parts, "Tab: Next field | Enter: Submit | Esc: Cancel")
		return lipgloss.JoinVertical(lipgloss.Left, parts...)
	case PhaseSummary:
		return lipgloss.JoinVertical(lipgloss.Left,
			titleStyle.Render("BLINKFORGE WIZARD - Summary"),
			renderSummary(w.cfg, w.state),
			"",
			w.summary.View(),
			"",
			"Enter: Confirm | Esc: Back",
		)
	}
	return ""
}

// Result returns the wizard outcome. ok is false when the user cancelled.
func (w *Wizard) Result() (res Result, ok bool, err error) {
	if w.cancelled || w.phase != PhaseDone {
		return Result{}, false, nil
	}
	formats, err := w.state.OutputFormats()
	if err != nil {
		return Result{}, false, err
	}
	return Result{
		Config:     w.cfg,
		Output:     w.state.Output,
		Formats:    formats,
		ConfigPath: w.state.ConfigPath,
		Action:     Action(w.state.Action),
	}, true, nil
}

// Run starts the wizard, optionally from a YAML configuration file.
func Run(fromConfig, output string) (Result, bool, error) {
	var cfg *config.Config
	if fromConfig != "" {
		absPath, err := filepath.Abs(fromConfig)
		if err != nil {
			return Result{}, false, fmt.Errorf("resolving config path: %w", err)
		}
		loaded, err := config.LoadFromFile(absPath)
		if err != nil {
			return Result{}, false, fmt.Errorf("loading config: %w", err)
		}
		cfg = loaded
	}

	w := NewWizard(cfg, output)
	p := tea.NewProgram(w, tea.WithAltScreen())

	finalModel, err := p.Run()
	if err != nil {
		return Result{}, false, fmt.Errorf("running wizard: %w", err)
	}
	if fw, ok := finalModel.(*Wizard); ok {
		return fw.Result()
	}
	return Result{}, false, nil
}
