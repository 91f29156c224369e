// Package controller provides the output adapters that display rewrite
// results: plain tables for pipes and CI, and a Bubble Tea TUI for terminals.
package controller

import (
	m "github.com/mouse-blink/gorewrite/internal/model"
)

// StartMode defines the mode of operation for the UI.
type StartMode int

// Available StartMode values.
const (
	ModeRun StartMode = iota
	ModeView
)

// StartOption is a functional option for Start method.
type StartOption func(*StartConfig)

// StartConfig holds configuration for starting the UI.
type StartConfig struct {
	mode StartMode
}

// WithRunMode sets the UI to follow a running rewrite.
func WithRunMode() StartOption {
	return func(c *StartConfig) {
		c.mode = ModeRun
	}
}

// WithViewMode sets the UI to browse a stored run.
func WithViewMode() StartOption {
	return func(c *StartConfig) {
		c.mode = ModeView
	}
}

// UI defines the interface for displaying rewrite progress and results.
// Implementations can use different output methods (simple text, TUI, etc).
type UI interface {
	Start(options ...StartOption) error
	Close()
	Wait() // Wait for UI to finish (user closes it)
	DisplayRecipes(recipes []m.RecipeInfo) error
	DisplayRoundResults(round int, results []m.Result)
	DisplayRun(run m.Run, err error) error
}
