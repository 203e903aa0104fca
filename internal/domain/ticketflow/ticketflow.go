// Package ticketflow holds the support-ticket status lifecycle.
//
//	open -> in_progress -> resolved -> closed
//
// Forward moves may skip steps (open -> resolved is allowed). The only
// backward move is a reopen (closed -> open), and only actors with ticket
// management rights may make it; the caller decides who that is.
package ticketflow

import "strings"

// Status is a ticket status.
type Status string

const (
	Open       Status = "open"
	InProgress Status = "in_progress"
	Resolved   Status = "resolved"
	Closed     Status = "closed"
)

// Initial is the status every new ticket starts in.
const Initial = Open

var rank = map[Status]int{
	Open:       0,
	InProgress: 1,
	Resolved:   2,
	Closed:     3,
}

// Parse normalizes s. ok=false for anything outside the lifecycle.
func Parse(s string) (Status, bool) {
	st := Status(strings.ToLower(strings.TrimSpace(s)))
	st = Status(strings.NewReplacer("-", "_", " ", "_").Replace(string(st)))
	if _, ok := rank[st]; !ok {
		return "", false
	}
	return st, true
}

// Valid reports whether st is part of the lifecycle.
func (st Status) Valid() bool {
	_, ok := rank[st]
	return ok
}

// IsOpen reports whether the ticket still needs work.
func (st Status) IsOpen() bool { return st == Open || st == InProgress }

// Move classifies a requested transition.
type Move int

const (
	Invalid Move = iota
	Forward
	Reopen
)

func (m Move) String() string {
	switch m {
	case Forward:
		return "forward"
	case Reopen:
		return "reopen"
	default:
		return "invalid"
	}
}

// Classify reports what kind of move from -> to is. Same-state moves, unknown
// states and backward moves other than closed -> open are Invalid.
func Classify(from, to Status) Move {
	rf, okFrom := rank[from]
	rt, okTo := rank[to]
	if !okFrom || !okTo || from == to {
		return Invalid
	}
	if rt > rf {
		return Forward
	}
	if from == Closed && to == Open {
		return Reopen
	}
	return Invalid
}

// Allowed reports whether from -> to is permitted for an actor. canReopen says
// whether the actor holds ticket management rights.
func Allowed(from, to Status, canReopen bool) bool {
	switch Classify(from, to) {
	case Forward:
		return true
	case Reopen:
		return canReopen
	default:
		return false
	}
}

// Next lists the statuses reachable from st for an actor.
func Next(st Status, canReopen bool) []Status {
	var out []Status
	for _, to := range []Status{Open, InProgress, Resolved, Closed} {
		if Allowed(st, to, canReopen) {
			out = append(out, to)
		}
	}
	return out
}
