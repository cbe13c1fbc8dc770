// Package wizard is the interactive editor behind `lcovreport init`.
package wizard

import (
	"fmt"
	"io"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/felixgeelhaar/lcovreport/internal/application"
	"github.com/felixgeelhaar/lcovreport/internal/domain"
	"github.com/felixgeelhaar/lcovreport/internal/infrastructure/config"
)

type (
	wizardState int

	initWizardModel struct {
		state     wizardState
		base      application.Config
		allMin    float64
		changeMin float64
		title     string
		cursor    int
		confirmed bool
		aborted   bool
	}
)

const (
	stateIntro wizardState = iota
	stateEdit
	stateConfirm
)

// Editable rows in stateEdit.
const (
	rowAllFiles = iota
	rowChangedFiles
	rowTitle
	rowCount
)

const step = 5

// Run shows the wizard and returns the edited config. The bool is false when
// the user cancelled.
func Run(cfg application.Config, stdout io.Writer, stdin io.Reader) (application.Config, bool, error) {
	return runInitWizard(cfg, stdout, stdin)
}

func runInitWizard(cfg application.Config, stdout io.Writer, stdin io.Reader) (application.Config, bool, error) {
	model := newInitWizardModel(cfg)
	program := tea.NewProgram(model, tea.WithInput(stdin), tea.WithOutput(stdout))
	res, err := program.Run()
	if err != nil {
		return cfg, false, err
	}
	finalModel, ok := res.(*initWizardModel)
	if !ok {
		return cfg, false, fmt.Errorf("unexpected wizard state")
	}
	if finalModel.aborted || !finalModel.confirmed {
		return cfg, false, nil
	}
	return finalModel.toConfig(), true, nil
}

func newInitWizardModel(cfg application.Config) *initWizardModel {
	return &initWizardModel{
		state:     stateIntro,
		base:      cfg,
		allMin:    cfg.Policy.AllFilesMin.Value(),
		changeMin: cfg.Policy.ChangedFilesMin.Value(),
		title:     cfg.Title,
	}
}

func (m *initWizardModel) Init() tea.Cmd {
	return nil
}

func (m *initWizardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	if m.state == stateEdit && m.cursor == rowTitle {
		switch key.Type {
		case tea.KeyRunes, tea.KeySpace:
			m.title += string(key.Runes)
			if key.Type == tea.KeySpace && len(key.Runes) == 0 {
				m.title += " "
			}
			return m, nil
		case tea.KeyBackspace:
			if r := []rune(m.title); len(r) > 0 {
				m.title = string(r[:len(r)-1])
			}
			return m, nil
		}
	}
	switch key.String() {
	case "ctrl+c", "q":
		m.aborted = true
		return m, tea.Quit
	case "enter":
		switch m.state {
		case stateIntro:
			m.state = stateEdit
		case stateEdit:
			m.state = stateConfirm
		case stateConfirm:
			m.confirmed = true
			return m, tea.Quit
		}
	case "esc":
		if m.state == stateConfirm {
			m.state = stateEdit
		}
	case "up":
		if m.state == stateEdit {
			m.moveCursor(-1)
		}
	case "down", "tab":
		if m.state == stateEdit {
			m.moveCursor(1)
		}
	case "left", "-":
		if m.state == stateEdit {
			m.adjustSelection(-step)
		}
	case "right", "+":
		if m.state == stateEdit {
			m.adjustSelection(step)
		}
	}
	return m, nil
}

func (m *initWizardModel) View() string {
	switch m.state {
	case stateIntro:
		return m.viewIntro()
	case stateEdit:
		return m.viewEdit()
	case stateConfirm:
		return m.viewConfirm()
	default:
		return ""
	}
}

func (m *initWizardModel) moveCursor(delta int) {
	m.cursor += delta
	if m.cursor < 0 {
		m.cursor = 0
	}
	if m.cursor >= rowCount {
		m.cursor = rowCount - 1
	}
}

func (m *initWizardModel) adjustSelection(delta float64) {
	switch m.cursor {
	case rowAllFiles:
		m.allMin = clamp(m.allMin+delta, 0, 100)
	case rowChangedFiles:
		m.changeMin = clamp(m.changeMin+delta, 0, 100)
	}
}

func (m *initWizardModel) viewIntro() string {
	var b strings.Builder
	fmt.Fprintf(&b, "\nlcovreport init wizard\n\n")
	fmt.Fprintf(&b, "Coverage is read from %s.\n", strings.Join(m.base.Coverage.Files, ", "))
	fmt.Fprintf(&b, "The wizard helps you set the minimum coverage for all files and for changed files.\n\n")
	fmt.Fprintf(&b, "Press Enter to continue, or Ctrl+C to cancel.\n")
	return b.String()
}

func (m *initWizardModel) viewEdit() string {
	var b strings.Builder
	fmt.Fprintf(&b, "\nReview and adjust thresholds\n\n")
	fmt.Fprintf(&b, "Use ↑/↓ to move, ←/→ or +/- to change values, type to edit the title.\n")
	fmt.Fprintf(&b, "A minimum of 0 disables the check.\n\n")
	rows := []string{
		fmt.Sprintf("All files minimum: %s", describe(m.allMin)),
		fmt.Sprintf("Changed files minimum: %s", describe(m.changeMin)),
		fmt.Sprintf("Report title: %s", m.titleOrPlaceholder()),
	}
	for idx, row := range rows {
		prefix := "  "
		if m.cursor == idx {
			prefix = "> "
		}
		fmt.Fprintf(&b, "%s%s\n", prefix, row)
	}
	fmt.Fprintf(&b, "\nEnter to continue, Ctrl+C to cancel.\n")
	return b.String()
}

func (m *initWizardModel) viewConfirm() string {
	var b strings.Builder
	fmt.Fprintf(&b, "\nReady to write configuration\n\n")
	fmt.Fprintf(&b, "All files minimum: %s\n", describe(m.allMin))
	fmt.Fprintf(&b, "Changed files minimum: %s\n", describe(m.changeMin))
	fmt.Fprintf(&b, "Report title: %s\n", m.titleOrPlaceholder())
	fmt.Fprintf(&b, "\nPress Enter to save, Esc to go back, q to cancel.\n")
	return b.String()
}

func (m *initWizardModel) titleOrPlaceholder() string {
	if strings.TrimSpace(m.title) == "" {
		return "(none)"
	}
	return m.title
}

func (m *initWizardModel) toConfig() application.Config {
	cfg := m.base
	cfg.Coverage.Files = append([]string(nil), m.base.Coverage.Files...)
	cfg.Policy = domain.Policy{
		AllFilesMin:     thresholdOf(m.allMin),
		ChangedFilesMin: thresholdOf(m.changeMin),
	}
	cfg.Title = strings.TrimSpace(m.title)
	return cfg
}

func thresholdOf(v float64) domain.Threshold {
	t, err := domain.NewThreshold(v)
	if err != nil {
		return domain.NoThreshold()
	}
	return t
}

func describe(v float64) string {
	t := thresholdOf(v)
	if !t.Enabled() {
		return "disabled"
	}
	return config.FormatThreshold(t) + "%"
}

func clamp(value, min, max float64) float64 {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}
