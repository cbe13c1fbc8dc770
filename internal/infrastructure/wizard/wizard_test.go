package wizard

import (
	"bytes"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/felixgeelhaar/lcovreport/internal/application"
	"github.com/felixgeelhaar/lcovreport/internal/domain"
)

func TestInitWizardModelAdjustsThresholds(t *testing.T) {
	model := newInitWizardModel(minimalConfig())

	model.adjustSelection(5)
	if model.allMin != 85 {
		t.Fatalf("expected all files min 85, got %.0f", model.allMin)
	}

	model.cursor = rowChangedFiles
	model.adjustSelection(-5)
	if model.changeMin != 0 {
		t.Fatalf("expected changed files min clamped to 0, got %.0f", model.changeMin)
	}

	model.cursor = rowTitle
	model.adjustSelection(5)
	if model.allMin != 85 || model.changeMin != 0 {
		t.Fatalf("title row must not change thresholds")
	}
}

func TestInitWizardModelConfigOutput(t *testing.T) {
	model := newInitWizardModel(minimalConfig())
	model.cursor = rowChangedFiles
	model.adjustSelection(10)
	model.title = "  web  "

	cfg := model.toConfig()
	if got := cfg.Policy.AllFilesMin.Value(); got != 80 {
		t.Fatalf("expected all files min 80, got %.0f", got)
	}
	if got := cfg.Policy.ChangedFilesMin.Value(); got != 10 {
		t.Fatalf("expected changed files min 10, got %.0f", got)
	}
	if cfg.Title != "web" {
		t.Fatalf("expected trimmed title, got %q", cfg.Title)
	}
	if len(cfg.Coverage.Files) != 1 || cfg.Coverage.Files[0] != "coverage/lcov.info" {
		t.Fatalf("expected coverage files preserved, got %v", cfg.Coverage.Files)
	}
}

func TestInitWizardZeroDisables(t *testing.T) {
	model := newInitWizardModel(minimalConfig())
	model.allMin = 0

	cfg := model.toConfig()
	if cfg.Policy.AllFilesMin.Enabled() {
		t.Fatalf("expected 0 to disable the check")
	}
}

func TestRunInitWizardCompletes(t *testing.T) {
	var out bytes.Buffer
	stdin := strings.NewReader("\r\r\r")
	cfg, confirmed, err := runInitWizard(minimalConfig(), &out, stdin)
	if err != nil {
		t.Fatalf("wizard error: %v", err)
	}
	if !confirmed {
		t.Fatalf("expected wizard to confirm")
	}
	if !cfg.Policy.AllFilesMin.Equals(minimalConfig().Policy.AllFilesMin) {
		t.Fatalf("unexpected all files min %s", cfg.Policy.AllFilesMin)
	}
}

func TestInitWizardMoveCursor(t *testing.T) {
	model := newInitWizardModel(minimalConfig())
	model.moveCursor(1)
	if model.cursor != 1 {
		t.Fatalf("expected cursor 1, got %d", model.cursor)
	}
	model.moveCursor(-5)
	if model.cursor != 0 {
		t.Fatalf("expected cursor 0, got %d", model.cursor)
	}
	model.moveCursor(rowCount + 5)
	if model.cursor != rowTitle {
		t.Fatalf("expected cursor at last row, got %d", model.cursor)
	}
}

func TestInitWizardClamp(t *testing.T) {
	if clamp(-5, 0, 10) != 0 {
		t.Fatalf("expected clamp to min")
	}
	if clamp(20, 0, 10) != 10 {
		t.Fatalf("expected clamp to max")
	}
	if clamp(5, 0, 10) != 5 {
		t.Fatalf("expected clamp to keep value")
	}
}

func TestInitWizardUpdateTransitions(t *testing.T) {
	model := newInitWizardModel(minimalConfig())
	model.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if model.state != stateEdit {
		t.Fatalf("expected edit state, got %d", model.state)
	}
	model.Update(tea.KeyMsg{Type: tea.KeyDown})
	model.Update(tea.KeyMsg{Type: tea.KeyRight})
	if model.changeMin != 5 {
		t.Fatalf("expected changed files min 5, got %.0f", model.changeMin)
	}
	model.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if model.state != stateConfirm {
		t.Fatalf("expected confirm state, got %d", model.state)
	}
	model.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if model.state != stateEdit {
		t.Fatalf("expected edit state on esc, got %d", model.state)
	}
}

func TestInitWizardEditsTitle(t *testing.T) {
	model := newInitWizardModel(minimalConfig())
	model.state = stateEdit
	model.cursor = rowTitle

	model.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("qa")})
	model.Update(tea.KeyMsg{Type: tea.KeySpace, Runes: []rune(" ")})
	model.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("xy")})
	model.Update(tea.KeyMsg{Type: tea.KeyBackspace})

	if model.aborted {
		t.Fatalf("typing q in the title must not abort")
	}
	if model.title != "qa x" {
		t.Fatalf("expected title %q, got %q", "qa x", model.title)
	}
}

func TestInitWizardViews(t *testing.T) {
	model := newInitWizardModel(minimalConfig())
	if !strings.Contains(model.View(), "coverage/lcov.info") {
		t.Fatalf("expected intro to list coverage files")
	}

	model.state = stateEdit
	view := model.View()
	if !strings.Contains(view, "> All files minimum: 80%") {
		t.Fatalf("expected selected all files row, got:\n%s", view)
	}
	if !strings.Contains(view, "Changed files minimum: disabled") {
		t.Fatalf("expected disabled changed files row, got:\n%s", view)
	}

	model.state = stateConfirm
	if !strings.Contains(model.View(), "Report title: (none)") {
		t.Fatalf("expected title placeholder in confirm view")
	}
}

func minimalConfig() application.Config {
	cfg := application.DefaultConfig()
	cfg.Policy = domain.Policy{AllFilesMin: domain.MustThreshold(80)}
	return cfg
}
