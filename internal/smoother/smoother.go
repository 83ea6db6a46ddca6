// Package smoother stabilizes a noisy stream of per-frame labels by majority
// vote over a fixed-size window of the most recent observations.
package smoother

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidConfiguration is returned when a smoother is constructed with a non-positive capacity.
	ErrInvalidConfiguration = errors.New("invalid smoother configuration")

	// ErrEmptyWindow is returned when a majority is requested from an empty window.
	ErrEmptyWindow = errors.New("empty window")

	// ErrNotAvailable is returned by Current before the first observation.
	ErrNotAvailable = errors.New("no stabilized label available")
)

// Smoother keeps the last K labels and reports the most frequent one.
//
// When several labels share the highest count, the one whose earliest
// occurrence in the window is oldest wins. The result depends only on the
// window contents.
//
// A Smoother is not safe for concurrent use. Track independent streams with
// independent instances.
type Smoother[L comparable] struct {
	buf    []L
	start  int // index of the oldest label in buf
	size   int
	counts map[L]int

	current L
	ok      bool
}

// New returns a smoother with an empty window of the given capacity.
func New[L comparable](capacity int) (*Smoother[L], error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("%w: capacity must be > 0, got %d", ErrInvalidConfiguration, capacity)
	}
	return &Smoother[L]{
		buf:    make([]L, capacity),
		counts: make(map[L]int, capacity),
	}, nil
}

// Observe appends label to the window, evicting the oldest label when the
// window is full, and returns the majority label of the updated window.
func (s *Smoother[L]) Observe(label L) L {
	if s.size == len(s.buf) {
		oldest := s.buf[s.start]
		s.counts[oldest]--
		if s.counts[oldest] == 0 {
			delete(s.counts, oldest)
		}
		s.buf[s.start] = label
		s.start = (s.start + 1) % len(s.buf)
	} else {
		s.buf[(s.start+s.size)%len(s.buf)] = label
		s.size++
	}
	s.counts[label]++

	// The window holds at least the label just added.
	s.current, _ = s.majority()
	s.ok = true
	return s.current
}

// Current returns the last computed majority label without modifying state.
func (s *Smoother[L]) Current() (L, error) {
	if !s.ok {
		var zero L
		return zero, ErrNotAvailable
	}
	return s.current, nil
}

// Reset empties the window. The capacity is unchanged.
func (s *Smoother[L]) Reset() {
	var zero L
	for i := range s.buf {
		s.buf[i] = zero
	}
	s.start = 0
	s.size = 0
	clear(s.counts)
	s.current = zero
	s.ok = false
}

// Capacity returns the maximum window size.
func (s *Smoother[L]) Capacity() int {
	return len(s.buf)
}

// Len returns the number of labels currently in the window.
func (s *Smoother[L]) Len() int {
	return s.size
}

// Window returns a copy of the window contents, oldest first.
func (s *Smoother[L]) Window() []L {
	out := make([]L, s.size)
	for i := range s.size {
		out[i] = s.buf[(s.start+i)%len(s.buf)]
	}
	return out
}

// majority scans the window from oldest to newest so that the first label to
// reach the highest count is the one with the oldest first occurrence.
func (s *Smoother[L]) majority() (L, error) {
	var best L
	if s.size == 0 {
		return best, ErrEmptyWindow
	}
	bestCount := 0
	for i := range s.size {
		label := s.buf[(s.start+i)%len(s.buf)]
		if c := s.counts[label]; c > bestCount {
			best, bestCount = label, c
		}
	}
	return best, nil
}
