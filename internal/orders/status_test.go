package orders

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	assert.True(t, CanTransition(StatusPlaced, StatusPreparing))
	assert.True(t, CanTransition(StatusPlaced, StatusCompleted))
	assert.True(t, CanTransition(StatusPlaced, StatusCancelled))
	assert.True(t, CanTransition(StatusPreparing, StatusCompleted))
	assert.True(t, CanTransition(StatusPreparing, StatusCancelled))

	// no backward moves, no leaving terminal states
	assert.False(t, CanTransition(StatusPreparing, StatusPlaced))
	assert.False(t, CanTransition(StatusCompleted, StatusPlaced))
	assert.False(t, CanTransition(StatusCompleted, StatusPreparing))
	assert.False(t, CanTransition(StatusCompleted, StatusCancelled))
	assert.False(t, CanTransition(StatusCancelled, StatusPlaced))

	// same-status is not an edge; the engine treats it as a no-op
	assert.False(t, CanTransition(StatusPlaced, StatusPlaced))
}

func TestStatusValid(t *testing.T) {
	assert.True(t, StatusPlaced.Valid())
	assert.True(t, StatusCancelled.Valid())
	assert.False(t, Status("SHIPPED").Valid())
	assert.False(t, Status("").Valid())
}

func TestStatusTerminal(t *testing.T) {
	assert.False(t, StatusPlaced.Terminal())
	assert.False(t, StatusPreparing.Terminal())
	assert.True(t, StatusCompleted.Terminal())
	assert.True(t, StatusCancelled.Terminal())
	assert.False(t, Status("SHIPPED").Terminal())
}
