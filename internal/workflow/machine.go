package workflow

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidStatus     = errors.New("invalid status")
	ErrInvalidHold       = errors.New("invalid hold")
	ErrIllegalTransition = errors.New("illegal status transition")
	ErrNoChange          = errors.New("status unchanged")
)

// TransitionError describes a rejected edge of the machine. Hold is set when the rejected
// change was a hold placement on a project that is already closed.
type TransitionError struct {
	From Status
	To   Status
	Hold Hold
}

func (e *TransitionError) Error() string {
	if e.Hold != HoldNone {
		return fmt.Sprintf("cannot put a %s project on hold %s", e.From, e.Hold)
	}
	if e.From.IsTerminal() {
		return fmt.Sprintf("cannot move project from %s to %s: %s is a terminal status", e.From, e.To, e.From)
	}
	return fmt.Sprintf("cannot move project from %s to %s", e.From, e.To)
}

func (e *TransitionError) Unwrap() error { return ErrIllegalTransition }

// Machine is the table of legal status edges shared by the backend and its clients.
type Machine struct {
	edges map[Status][]Status
}

// NewMachine builds a machine from an adjacency list. Unknown statuses are rejected.
func NewMachine(edges map[Status][]Status) (*Machine, error) {
	m := &Machine{edges: make(map[Status][]Status, len(edges))}
	for from, targets := range edges {
		if !from.IsValid() {
			return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, from)
		}
		for _, to := range targets {
			if !to.IsValid() {
				return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, to)
			}
		}
		m.edges[from] = append([]Status(nil), targets...)
	}
	return m, nil
}

// DefaultMachine is the bidding pipeline used across the platform.
var DefaultMachine = mustMachine(map[Status][]Status{
	StatusAwaitingApproval:  {StatusAwaitingTakeoff, StatusDenied, StatusAbandoned},
	StatusAwaitingTakeoff:   {StatusTakeoffInProgress, StatusAbandoned},
	StatusTakeoffInProgress: {StatusTakeoffComplete, StatusAwaitingTakeoff, StatusAbandoned},
	StatusTakeoffComplete:   {StatusBidReceived, StatusTakeoffInProgress, StatusAbandoned},
	StatusBidReceived:       {StatusBidSubmitted, StatusAbandoned},
	StatusBidSubmitted:      {StatusWon, StatusLost, StatusBidReceived, StatusAbandoned},
})

func mustMachine(edges map[Status][]Status) *Machine {
	m, err := NewMachine(edges)
	if err != nil {
		panic(err)
	}
	return m
}

// Can reports whether from -> to is a legal edge.
func (m *Machine) Can(from, to Status) bool {
	for _, s := range m.edges[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Next lists the statuses reachable from the given one in a single step.
func (m *Machine) Next(from Status) []Status {
	return append([]Status(nil), m.edges[from]...)
}

// Transition validates a requested change.
// It returns ErrNoChange when from == to so callers can treat it as idempotent.
func (m *Machine) Transition(from, to Status) error {
	if !from.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, from)
	}
	if !to.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, to)
	}
	if from == to {
		return ErrNoChange
	}
	if !m.Can(from, to) {
		return &TransitionError{From: from, To: to}
	}
	return nil
}
