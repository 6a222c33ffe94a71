package domain

import (
	"testing"

	"github.com/stretchr/testify/require"
)

var allStatuses = []Status{
	StatusPending,
	StatusConfirmed,
	StatusPartnerAssigned,
	StatusOnTheWay,
	StatusArrived,
	StatusCompleted,
	StatusCancelled,
}

func TestForwardChain(t *testing.T) {
	chain := []Status{
		StatusPending,
		StatusConfirmed,
		StatusPartnerAssigned,
		StatusOnTheWay,
		StatusArrived,
		StatusCompleted,
	}

	for i := 0; i < len(chain)-1; i++ {
		next, ok := NextForward(chain[i])
		require.True(t, ok, "expected successor for %s", chain[i])
		require.Equal(t, chain[i+1], next)
		require.True(t, CanTransition(chain[i], chain[i+1]))
	}

	_, ok := NextForward(StatusCompleted)
	require.False(t, ok)
	_, ok = NextForward(StatusCancelled)
	require.False(t, ok)
}

func TestCanTransitionOnlySingleStepOrCancel(t *testing.T) {
	for _, from := range allStatuses {
		for _, to := range allStatuses {
			allowed := CanTransition(from, to)

			switch {
			case from == to:
				require.False(t, allowed, "%s -> %s", from, to)
			case to == StatusCancelled:
				require.Equal(t, !from.Terminal(), allowed, "%s -> %s", from, to)
			default:
				next, ok := NextForward(from)
				require.Equal(t, ok && next == to, allowed, "%s -> %s", from, to)
			}
		}
	}
}

func TestTerminalStatesAcceptNothing(t *testing.T) {
	for _, terminal := range []Status{StatusCompleted, StatusCancelled} {
		require.True(t, terminal.Terminal())
		for _, to := range allStatuses {
			require.False(t, CanTransition(terminal, to), "%s -> %s", terminal, to)
		}
	}
}

func TestOpenStatuses(t *testing.T) {
	open := OpenStatuses()
	require.Equal(t, []Status{StatusPartnerAssigned, StatusOnTheWay, StatusArrived}, open)

	// Mutating the copy must not leak into the package state.
	open[0] = StatusCancelled
	require.Equal(t, []Status{StatusPartnerAssigned, StatusOnTheWay, StatusArrived}, OpenStatuses())
}

func TestIsValidStatus(t *testing.T) {
	for _, s := range allStatuses {
		require.True(t, IsValidStatus(s))
	}
	require.False(t, IsValidStatus(Status("DELIVERED")))
	require.False(t, IsValidStatus(Status("")))
	require.False(t, IsValidStatus(Status("pending")))
}
