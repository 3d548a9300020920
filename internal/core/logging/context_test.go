package logging

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProgramIDRoundTrip(t *testing.T) {
	ctx := WithProgramID(context.Background(), "prog-42")
	assert.Equal(t, "prog-42", GetProgramID(ctx))
}

func TestProgramIDAbsent(t *testing.T) {
	assert.Empty(t, GetProgramID(context.Background()))
}

func TestTriggerRoundTrip(t *testing.T) {
	ctx := WithTrigger(context.Background(), "focus")
	assert.Equal(t, "focus", GetTrigger(ctx))
}

func TestTriggerAbsent(t *testing.T) {
	assert.Empty(t, GetTrigger(context.Background()))
}

func TestContextValuesAreIndependent(t *testing.T) {
	ctx := WithProgramID(context.Background(), "prog-1")
	ctx = WithTrigger(ctx, "user")

	assert.Equal(t, "prog-1", GetProgramID(ctx))
	assert.Equal(t, "user", GetTrigger(ctx))
}
