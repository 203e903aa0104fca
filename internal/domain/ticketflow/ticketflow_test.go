package ticketflow_test

import (
	"testing"

	"github.com/dalemusser/villahub/internal/domain/ticketflow"
	"github.com/stretchr/testify/assert"
)

func TestInitialIsOpen(t *testing.T) {
	assert.Equal(t, ticketflow.Open, ticketflow.Initial)
}

func TestSequentialStepsAreValid(t *testing.T) {
	steps := []ticketflow.Status{ticketflow.Open, ticketflow.InProgress, ticketflow.Resolved, ticketflow.Closed}
	for i := 0; i+1 < len(steps); i++ {
		assert.True(t, ticketflow.Allowed(steps[i], steps[i+1], false), "%s -> %s", steps[i], steps[i+1])
	}
}

// Skipping in_progress is accepted: forward moves are not required to be
// sequential.
func TestForwardSkipIsAllowed(t *testing.T) {
	assert.Equal(t, ticketflow.Forward, ticketflow.Classify(ticketflow.Open, ticketflow.Resolved))
	assert.True(t, ticketflow.Allowed(ticketflow.Open, ticketflow.Closed, false))
}

func TestBackwardMoves(t *testing.T) {
	tests := []struct {
		from, to  ticketflow.Status
		canReopen bool
		want      bool
	}{
		{ticketflow.Closed, ticketflow.Open, true, true},
		{ticketflow.Closed, ticketflow.Open, false, false},
		{ticketflow.Resolved, ticketflow.InProgress, true, false},
		{ticketflow.Closed, ticketflow.Resolved, true, false},
		{ticketflow.InProgress, ticketflow.Open, true, false},
	}
	for _, tt := range tests {
		got := ticketflow.Allowed(tt.from, tt.to, tt.canReopen)
		assert.Equal(t, tt.want, got, "%s -> %s (reopen=%v)", tt.from, tt.to, tt.canReopen)
	}
}

func TestSameStateAndUnknownRejected(t *testing.T) {
	assert.Equal(t, ticketflow.Invalid, ticketflow.Classify(ticketflow.Open, ticketflow.Open))
	assert.False(t, ticketflow.Allowed(ticketflow.Open, ticketflow.Status("archived"), true))
	assert.False(t, ticketflow.Allowed(ticketflow.Status(""), ticketflow.Open, true))
}

func TestParse(t *testing.T) {
	st, ok := ticketflow.Parse(" In-Progress ")
	assert.True(t, ok)
	assert.Equal(t, ticketflow.InProgress, st)

	st, ok = ticketflow.Parse("in progress")
	assert.True(t, ok)
	assert.Equal(t, ticketflow.InProgress, st)

	_, ok = ticketflow.Parse("pending")
	assert.False(t, ok)
}

func TestNext(t *testing.T) {
	assert.Equal(t, []ticketflow.Status{ticketflow.Resolved, ticketflow.Closed}, ticketflow.Next(ticketflow.InProgress, false))
	assert.Empty(t, ticketflow.Next(ticketflow.Closed, false))
	assert.Equal(t, []ticketflow.Status{ticketflow.Open}, ticketflow.Next(ticketflow.Closed, true))
}
