// Package model defines the data structures shared by the rewrite pipeline.
package model

import (
	"go/ast"
	"go/token"
	"go/types"
)

// Path represents a file system path.
type Path string

// UnitID identifies a compilation unit across processing rounds. Hosts use
// the file path, relative to the project root when one is known.
type UnitID string

// Unit is one compilation unit as the host presents it in a round: a parsed,
// and possibly type-checked, Go file. The pipeline treats every field as
// read-only.
type Unit struct {
	ID UnitID
	// Package is the import path, or the package name when the host has none.
	Package string
	Fset    *token.FileSet
	File    *ast.File
	// Src holds the bytes the host parsed File from.
	Src []byte
	// Info and Types are nil when the host did not type-check the unit.
	Info  *types.Info
	Types *types.Package
}

// Round is one host processing round.
type Round struct {
	Number int
	Units  []Unit
	// Final is set when the host has no further rounds to offer.
	Final bool
}

// RecipeInfo describes a registered recipe for listing.
type RecipeInfo struct {
	ID          string
	DisplayName string
	Description string
}
