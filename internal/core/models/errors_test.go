package models

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorIsMatchesKind(t *testing.T) {
	err := NewError(TargetInvalid, "landing", "target %q removed", "Io")
	wrapped := fmt.Errorf("escort leg: %w", err)

	assert.True(t, errors.Is(wrapped, ErrTargetInvalid))
	assert.False(t, errors.Is(wrapped, ErrNoRoute))
	assert.Equal(t, `landing: target invalid: target "Io" removed`, err.Error())

	kind, ok := KindOf(wrapped)
	assert.True(t, ok)
	assert.Equal(t, TargetInvalid, kind)

	_, ok = KindOf(errors.New("plain"))
	assert.False(t, ok)
}

func TestDiscreteStateString(t *testing.T) {
	assert.Equal(t, "jumping_out", JumpingOut.String())
	assert.Equal(t, "unknown", DiscreteState(42).String())
}
