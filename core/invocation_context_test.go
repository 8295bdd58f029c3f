package core

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInvocationID_RoundTrip(t *testing.T) {
	ctx := WithInvocationID(context.Background(), "inv-1")
	assert.Equal(t, "inv-1", InvocationIDFromContext(ctx))
}

func TestInvocationID_Missing(t *testing.T) {
	assert.Equal(t, "", InvocationIDFromContext(context.Background()))
}
