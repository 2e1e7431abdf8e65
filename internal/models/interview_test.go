package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransitionTo(t *testing.T) {
	cases := []struct {
		from    SessionStatus
		to      SessionStatus
		allowed bool
	}{
		{StatusPreparing, StatusInProgress, true},
		{StatusPreparing, StatusFailed, true},
		{StatusPreparing, StatusCancelled, true},
		{StatusPreparing, StatusCompleted, false},

		{StatusInProgress, StatusCompleted, true},
		{StatusInProgress, StatusCancelled, true},
		{StatusInProgress, StatusFailed, false},
		{StatusInProgress, StatusPreparing, false},

		{StatusCompleted, StatusCancelled, false},
		{StatusCompleted, StatusInProgress, false},
		{StatusCancelled, StatusInProgress, false},
		{StatusFailed, StatusInProgress, false},
	}

	for _, c := range cases {
		t.Run(string(c.from)+"_to_"+string(c.to), func(t *testing.T) {
			assert.Equal(t, c.allowed, c.from.CanTransitionTo(c.to))
		})
	}
}

func TestTerminal(t *testing.T) {
	assert.False(t, StatusPreparing.Terminal())
	assert.False(t, StatusInProgress.Terminal())
	assert.True(t, StatusCompleted.Terminal())
	assert.True(t, StatusCancelled.Terminal())
	assert.True(t, StatusFailed.Terminal())
}

func TestStatusesAllowing(t *testing.T) {
	assert.ElementsMatch(t,
		[]SessionStatus{StatusPreparing, StatusInProgress},
		StatusesAllowing(StatusCancelled))
	assert.ElementsMatch(t,
		[]SessionStatus{StatusInProgress},
		StatusesAllowing(StatusCompleted))
	assert.ElementsMatch(t,
		[]SessionStatus{StatusPreparing},
		StatusesAllowing(StatusInProgress))
	assert.Empty(t, StatusesAllowing(StatusPreparing))
}
