package resource

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoad(t *testing.T) {
	ctx := context.Background()

	r := Load(ctx, func(context.Context) ([]string, error) { return []string{"a"}, nil })
	assert.Equal(t, Ready, r.State)
	assert.True(t, r.IsReady())
	assert.True(t, r.HasData())
	assert.Equal(t, []string{"a"}, r.Data)

	boom := errors.New("boom")
	r = Load(ctx, func(context.Context) ([]string, error) { return nil, boom })
	assert.Equal(t, Failed, r.State)
	assert.ErrorIs(t, r.Err, boom)
	assert.False(t, r.HasData())
}

func TestReloadKeepsLastData(t *testing.T) {
	ctx := context.Background()

	r := Load(ctx, func(context.Context) (int, error) { return 7, nil })
	r = r.Reload(ctx, func(context.Context) (int, error) { return 0, errors.New("down") })

	assert.True(t, r.IsFailed())
	assert.True(t, r.HasData())
	assert.Equal(t, 7, r.Data)

	r = r.Reload(ctx, func(context.Context) (int, error) { return 9, nil })
	assert.True(t, r.IsReady())
	assert.NoError(t, r.Err)
	assert.Equal(t, 9, r.Data)
}

func TestZeroValueIsPending(t *testing.T) {
	var r Resource[int]
	assert.Equal(t, Pending, r.State)
	assert.Equal(t, "pending", r.State.String())
}

func TestMessage(t *testing.T) {
	assert.Equal(t, "Failed to fetch items. Please try again.", Message(FetchItems))
	assert.Equal(t, "Failed to place order. Please try again.", Message(PlaceOrder))
}

func TestOfThenFailedReloadKeepsData(t *testing.T) {
	r := Of([]string{"cached"})
	assert.True(t, r.IsReady())
	assert.True(t, r.HasData())

	r = r.Reload(context.Background(), func(context.Context) ([]string, error) {
		return nil, errors.New("down")
	})
	assert.True(t, r.IsFailed())
	assert.True(t, r.HasData())
	assert.Equal(t, []string{"cached"}, r.Data)
}
