package domain

import (
	"crypto/sha256"

	m "github.com/mouse-blink/gorewrite/internal/model"
)

type unitKey struct {
	id  m.UnitID
	sum [sha256.Size]byte
}

// Collector selects the units of a round that have not been collected yet
// during the current invocation. A unit is identified by its id and the
// content it was parsed from, so a unit the host presents again with new
// content is collected again.
type Collector struct {
	seen map[unitKey]struct{}
}

// NewCollector creates an empty collector.
func NewCollector() *Collector {
	return &Collector{seen: make(map[unitKey]struct{})}
}

// UnitsForRound returns the new units of round in host order and marks them
// as seen.
func (c *Collector) UnitsForRound(round m.Round) []m.Unit {
	var units []m.Unit

	for _, unit := range round.Units {
		key := unitKey{id: unit.ID, sum: sha256.Sum256(unit.Src)}
		if _, ok := c.seen[key]; ok {
			continue
		}

		c.seen[key] = struct{}{}
		units = append(units, unit)
	}

	return units
}

// Seen returns the number of distinct units collected so far.
func (c *Collector) Seen() int {
	return len(c.seen)
}

// Reset forgets every collected unit.
func (c *Collector) Reset() {
	c.seen = make(map[unitKey]struct{})
}
