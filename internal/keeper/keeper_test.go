package keeper

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeeperCloseWaitsForResult(t *testing.T) {
	k := Make(func(ctx context.Context) bool {
		<-ctx.Done()
		return true
	})

	assert.False(t, k.IsClosed())

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	result, err := k.Close(ctx)
	require.NoError(t, err)
	assert.True(t, result)
	assert.True(t, k.IsClosed())
}

func TestKeeperGoroutineFinishesOnItsOwn(t *testing.T) {
	k := Make(func(ctx context.Context) int {
		return 42
	})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	result, err := k.Close(ctx)
	require.NoError(t, err)
	assert.Equal(t, 42, result)
}
