package workflow

import (
	"fmt"
	"strings"
)

// Status is the stored lifecycle value of a project.
type Status string

const (
	StatusAwaitingApproval  Status = "awaiting_approval"
	StatusAwaitingTakeoff   Status = "awaiting_takeoff"
	StatusTakeoffInProgress Status = "takeoff_in_progress"
	StatusTakeoffComplete   Status = "takeoff_complete"
	StatusBidReceived       Status = "bid_recieved" // wire value, misspelled upstream
	StatusBidSubmitted      Status = "bid_submitted"
	StatusWon               Status = "won"
	StatusLost              Status = "lost"
	StatusAbandoned         Status = "abandoned"
	StatusDenied            Status = "denied"
)

// InitialStatus is assigned to every newly created project.
const InitialStatus = StatusAwaitingApproval

var statuses = []Status{
	StatusAwaitingApproval,
	StatusAwaitingTakeoff,
	StatusTakeoffInProgress,
	StatusTakeoffComplete,
	StatusBidReceived,
	StatusBidSubmitted,
	StatusWon,
	StatusLost,
	StatusAbandoned,
	StatusDenied,
}

// Statuses returns every valid status in pipeline order.
func Statuses() []Status {
	out := make([]Status, len(statuses))
	copy(out, statuses)
	return out
}

// IsValid checks if the Status is a valid enum value
func (s Status) IsValid() bool {
	switch s {
	case StatusAwaitingApproval, StatusAwaitingTakeoff, StatusTakeoffInProgress, StatusTakeoffComplete,
		StatusBidReceived, StatusBidSubmitted, StatusWon, StatusLost, StatusAbandoned, StatusDenied:
		return true
	}
	return false
}

// IsTerminal reports whether no further transitions are allowed.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusWon, StatusLost, StatusAbandoned, StatusDenied:
		return true
	}
	return false
}

func (s Status) String() string { return string(s) }

// ParseStatus normalizes raw input and validates it.
func ParseStatus(raw string) (Status, error) {
	s := Status(strings.ToLower(strings.TrimSpace(raw)))
	if !s.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidStatus, raw)
	}
	return s, nil
}

// Hold is an optional sub-state used for finer pipeline placement.
type Hold string

const (
	HoldNone              Hold = ""
	HoldAwaitingApproval  Hold = "awaiting_approval"
	HoldTakeoffInProgress Hold = "takeoff_in_progress"
	HoldReadyForProposal  Hold = "ready_for_proposal"
	HoldNegotiating       Hold = "negotiating"
	HoldWon               Hold = "won"
	HoldLost              Hold = "lost"
)

// Holds returns the non-empty hold vocabulary.
func Holds() []Hold {
	return []Hold{HoldAwaitingApproval, HoldTakeoffInProgress, HoldReadyForProposal, HoldNegotiating, HoldWon, HoldLost}
}

// IsValid accepts the empty hold as "no hold".
func (h Hold) IsValid() bool {
	switch h {
	case HoldNone, HoldAwaitingApproval, HoldTakeoffInProgress, HoldReadyForProposal, HoldNegotiating, HoldWon, HoldLost:
		return true
	}
	return false
}

// ParseHold normalizes raw input and validates it.
func ParseHold(raw string) (Hold, error) {
	h := Hold(strings.ToLower(strings.TrimSpace(raw)))
	if !h.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidHold, raw)
	}
	return h, nil
}
