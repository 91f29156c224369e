package adapter

import (
	"context"
	"io"
	"sync"

	m "github.com/mouse-blink/gorewrite/internal/model"
)

// StaticSource presents a fixed sequence of rounds. Rounds without a number
// are numbered by position, starting at 1.
type StaticSource struct {
	mu     sync.Mutex
	rounds []m.Round
	next   int
}

// NewStaticSource creates a StaticSource over rounds.
func NewStaticSource(rounds ...m.Round) *StaticSource {
	return &StaticSource{rounds: rounds}
}

// Next returns the next round, or io.EOF once every round was returned.
func (s *StaticSource) Next(ctx context.Context) (m.Round, error) {
	if err := ctx.Err(); err != nil {
		return m.Round{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.next >= len(s.rounds) {
		return m.Round{}, io.EOF
	}

	round := s.rounds[s.next]
	s.next++

	if round.Number == 0 {
		round.Number = s.next
	}

	return round, nil
}
