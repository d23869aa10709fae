package services

import (
	"math/rand/v2"
	"sync"
)

// RandomSource yields uniform draws in [0,1). Outcome engines take one so tests can pin results.
type RandomSource interface {
	Float64() float64
}

type globalSource struct{}

func (globalSource) Float64() float64 {
	return rand.Float64()
}

// NewRandomSource returns the process-wide generator, safe for concurrent use.
func NewRandomSource() RandomSource {
	return globalSource{}
}

type seededSource struct {
	mu  sync.Mutex
	rng *rand.Rand
}

func (s *seededSource) Float64() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.Float64()
}

// NewSeededRandomSource returns a reproducible source.
func NewSeededRandomSource(seed uint64) RandomSource {
	return &seededSource{rng: rand.New(rand.NewPCG(seed, seed))}
}

// FixedSource replays the given draws in order and then repeats the last one.
type FixedSource struct {
	mu    sync.Mutex
	draws []float64
	next  int
}

func NewFixedSource(draws ...float64) *FixedSource {
	return &FixedSource{draws: draws}
}

func (f *FixedSource) Float64() float64 {
	f.mu.Lock()
	defer f.mu.Unlock()

	if len(f.draws) == 0 {
		return 0
	}
	if f.next >= len(f.draws) {
		return f.draws[len(f.draws)-1]
	}
	d := f.draws[f.next]
	f.next++
	return d
}
