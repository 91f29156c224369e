package controller

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	m "github.com/mouse-blink/gorewrite/internal/model"
)

// TUI implements UI using Bubble Tea for interactive display.
type TUI struct {
	output io.Writer
	input  io.Reader

	mu      sync.Mutex
	program *tea.Program
	done    chan struct{}
	err     error
}

// NewTUI creates a new TUI.
func NewTUI(output io.Writer) *TUI {
	return &TUI{output: output}
}

// Start launches the Bubble Tea program in the background.
func (t *TUI) Start(options ...StartOption) error {
	cfg := &StartConfig{}
	for _, opt := range options {
		opt(cfg)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.program != nil {
		return nil
	}

	model := newResultsModel(cfg.mode)
	if width, height, ok := terminalSize(t.output); ok {
		model.width = width
		model.height = height
	}

	opts := []tea.ProgramOption{tea.WithOutput(t.output), tea.WithAltScreen(), tea.WithMouseCellMotion()}
	if t.input != nil {
		opts = append(opts, tea.WithInput(t.input))
	}

	t.program = tea.NewProgram(model, opts...)
	t.done = make(chan struct{})

	go func() {
		defer close(t.done)

		if _, err := t.program.Run(); err != nil {
			t.mu.Lock()
			t.err = err
			t.mu.Unlock()
		}
	}()

	return nil
}

// Close stops the program and waits for it to restore the terminal.
func (t *TUI) Close() {
	program, done := t.running()
	if program == nil {
		return
	}

	program.Quit()
	<-done
}

// Wait blocks until the user quits the program.
func (t *TUI) Wait() {
	if _, done := t.running(); done != nil {
		<-done
	}
}

// Err returns the error the program exited with, if any.
func (t *TUI) Err() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.err
}

func (t *TUI) running() (*tea.Program, chan struct{}) {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.program, t.done
}

// DisplayRecipes prints the recipe list; it is short enough to not need
// an interactive program.
func (t *TUI) DisplayRecipes(recipes []m.RecipeInfo) error {
	_, err := fmt.Fprint(t.output, renderRecipes(recipes))
	return err
}

// DisplayRoundResults forwards the results of a round to the program.
func (t *TUI) DisplayRoundResults(round int, results []m.Result) {
	if program, _ := t.running(); program != nil {
		program.Send(newRoundMsg(round, results))
	}
}

// DisplayRun shows the final state of a run.
func (t *TUI) DisplayRun(run m.Run, err error) error {
	if program, _ := t.running(); program != nil {
		program.Send(runMsg{run: run, err: err})
	}

	return err
}

func terminalSize(w io.Writer) (int, int, bool) {
	f, ok := w.(*os.File)
	if !ok {
		return 0, 0, false
	}

	width, height, err := term.GetSize(int(f.Fd()))
	if err != nil {
		return 0, 0, false
	}

	return width, height, true
}

func renderRecipes(recipes []m.RecipeInfo) string {
	if len(recipes) == 0 {
		return "No recipes registered\n"
	}

	idWidth := 0
	for _, info := range recipes {
		idWidth = max(idWidth, lipgloss.Width(info.ID))
	}

	idStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("14")).Bold(true).Width(idWidth + 2)
	descStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("252"))

	var b strings.Builder

	b.WriteString(titleStyle().Render("gorewrite recipes"))
	b.WriteString("\n\n")

	for _, info := range recipes {
		b.WriteString("  ")
		b.WriteString(idStyle.Render(info.ID))
		b.WriteString(descStyle.Render(info.Description))
		b.WriteString("\n")
	}

	return b.String()
}
