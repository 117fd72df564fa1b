package workflow

import "fmt"

// Column is a display lane of the project pipeline board.
type Column string

const (
	ColumnProspecting Column = "prospecting"
	ColumnTakeoff     Column = "takeoff"
	ColumnBidding     Column = "bidding"
	ColumnNegotiation Column = "negotiation"
	ColumnWon         Column = "won"
	ColumnLost        Column = "lost"
)

// Phase groups columns for display. It is derived and never stored.
type Phase string

const (
	PhasePreConstruction Phase = "pre_construction"
	PhaseConstruction    Phase = "construction"
)

var columns = []Column{ColumnProspecting, ColumnTakeoff, ColumnBidding, ColumnNegotiation, ColumnWon, ColumnLost}

// Columns returns pipeline columns in board order.
func Columns() []Column {
	out := make([]Column, len(columns))
	copy(out, columns)
	return out
}

func (c Column) IsValid() bool {
	for _, known := range columns {
		if c == known {
			return true
		}
	}
	return false
}

// ParseColumn validates a column key.
func ParseColumn(raw string) (Column, error) {
	c := Column(raw)
	if !c.IsValid() {
		return "", fmt.Errorf("unknown pipeline column %q", raw)
	}
	return c, nil
}

func (c Column) Phase() Phase {
	if c == ColumnWon {
		return PhaseConstruction
	}
	return PhasePreConstruction
}

var holdColumns = map[Hold]Column{
	HoldAwaitingApproval:  ColumnProspecting,
	HoldTakeoffInProgress: ColumnTakeoff,
	HoldReadyForProposal:  ColumnBidding,
	HoldNegotiating:       ColumnNegotiation,
	HoldWon:               ColumnWon,
	HoldLost:              ColumnLost,
}

var statusColumns = map[Status]Column{
	StatusAwaitingApproval:  ColumnProspecting,
	StatusAwaitingTakeoff:   ColumnTakeoff,
	StatusTakeoffInProgress: ColumnTakeoff,
	StatusTakeoffComplete:   ColumnTakeoff,
	StatusBidReceived:       ColumnBidding,
	StatusBidSubmitted:      ColumnNegotiation,
	StatusWon:               ColumnWon,
	StatusLost:              ColumnLost,
	StatusAbandoned:         ColumnLost,
	StatusDenied:            ColumnLost,
}

// ColumnFor places a project on the pipeline board. A terminal status always renders in its
// own lane; otherwise a hold wins over the status. Unknown values fall back to prospecting.
func ColumnFor(status Status, hold Hold) Column {
	if status.IsTerminal() {
		return statusColumns[status]
	}
	if col, ok := holdColumns[hold]; ok {
		return col
	}
	if col, ok := statusColumns[status]; ok {
		return col
	}
	return ColumnProspecting
}

// Target is what dropping a project into a column asks the backend for.
type Target struct {
	Hold   Hold
	Status Status // empty when the drop only changes the hold
}

// Target returns the hold (and terminal status for won/lost) requested by a drop.
func (c Column) Target() Target {
	switch c {
	case ColumnProspecting:
		return Target{Hold: HoldAwaitingApproval}
	case ColumnTakeoff:
		return Target{Hold: HoldTakeoffInProgress}
	case ColumnBidding:
		return Target{Hold: HoldReadyForProposal}
	case ColumnNegotiation:
		return Target{Hold: HoldNegotiating}
	case ColumnWon:
		return Target{Hold: HoldWon, Status: StatusWon}
	case ColumnLost:
		return Target{Hold: HoldLost, Status: StatusLost}
	}
	return Target{}
}

// TerminalHold is the hold matching the lane of a terminal status, or HoldNone for open statuses.
func TerminalHold(s Status) Hold {
	switch s {
	case StatusWon:
		return HoldWon
	case StatusLost, StatusAbandoned, StatusDenied:
		return HoldLost
	}
	return HoldNone
}

// CheckHold reports whether a project in status may carry hold. Closed projects only accept
// no hold or the hold of their own lane.
func CheckHold(status Status, hold Hold) error {
	if !hold.IsValid() {
		return ErrInvalidHold
	}
	if status.IsTerminal() && hold != HoldNone && hold != TerminalHold(status) {
		return &TransitionError{From: status, To: status, Hold: hold}
	}
	return nil
}
