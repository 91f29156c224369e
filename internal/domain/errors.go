package domain

import (
	"errors"
	"fmt"

	m "github.com/mouse-blink/gorewrite/internal/model"
)

var (
	// ErrFinalized is returned by a controller that no longer accepts rounds.
	ErrFinalized = errors.New("controller finalized")
	// ErrLedgerSealed is returned when appending to a sealed ledger.
	ErrLedgerSealed = errors.New("ledger sealed")
	// ErrChangesFound is returned in check mode when at least one unit changed.
	ErrChangesFound = errors.New("recipes produced changes")
	// ErrDisabled is returned by a resolver when rewriting is switched off.
	ErrDisabled = errors.New("rewriting disabled")
)

// ConfigurationError reports that the recipe set could not be resolved.
// It is fatal for the invocation.
type ConfigurationError struct {
	Err error
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration: %v", e.Err)
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

// ConversionError reports that one unit could not be converted to a lossless
// tree. The unit is skipped; other units are unaffected.
type ConversionError struct {
	Unit   m.UnitID
	Reason string
	Err    error
}

func (e *ConversionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("converting %s: %s: %v", e.Unit, e.Reason, e.Err)
	}

	return fmt.Sprintf("converting %s: %s", e.Unit, e.Reason)
}

func (e *ConversionError) Unwrap() error {
	return e.Err
}

// RecipeExecutionError reports a recipe that failed on one unit.
type RecipeExecutionError struct {
	RecipeID string
	Unit     m.UnitID
	Err      error
}

func (e *RecipeExecutionError) Error() string {
	return fmt.Sprintf("recipe %s on %s: %v", e.RecipeID, e.Unit, e.Err)
}

func (e *RecipeExecutionError) Unwrap() error {
	return e.Err
}
