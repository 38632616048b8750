package registry

import (
	"context"
	"errors"
	"testing"

	"margin/core"
	"margin/store/whitelist"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry(t *testing.T) {
	ctx := context.Background()
	r := New(whitelist.Memory(), []string{"admin"})

	ok, err := r.IsLiquidatorWhitelisted(ctx, 1, "anyone")
	require.Nil(t, err)
	assert.True(t, ok, "unrestricted by default")

	err = r.AddLiquidator(ctx, "mallory", 1, "mallory")
	assert.True(t, errors.Is(err, core.ErrOperationForbidden))

	require.Nil(t, r.AddLiquidator(ctx, "admin", 1, "keeper"))
	require.Nil(t, r.AddLiquidator(ctx, "admin", 1, "keeper"))

	policy, err := r.Policy(ctx, 1)
	require.Nil(t, err)
	assert.Equal(t, core.WhitelistModeRestricted, policy.Mode)
	assert.EqualValues(t, []string{"keeper"}, policy.Liquidators)

	ok, _ = r.IsLiquidatorWhitelisted(ctx, 1, "anyone")
	assert.False(t, ok)
	ok, _ = r.IsLiquidatorWhitelisted(ctx, 1, "keeper")
	assert.True(t, ok)

	require.Nil(t, r.AddLiquidator(ctx, "admin", 1, "bob"))
	require.Nil(t, r.RemoveLiquidator(ctx, "admin", 1, "keeper"))
	ok, _ = r.IsLiquidatorWhitelisted(ctx, 1, "keeper")
	assert.False(t, ok)

	require.Nil(t, r.SetUnrestricted(ctx, "admin", 1))
	ok, _ = r.IsLiquidatorWhitelisted(ctx, 1, "keeper")
	assert.True(t, ok)
}

func TestRemoveLiquidator(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name   string
		listed []string
		remove string
		mode   core.WhitelistMode
		keeper bool
	}{
		{
			name:   "unrestricted market stays unrestricted",
			remove: "never-listed",
			mode:   core.WhitelistModeUnrestricted,
			keeper: true,
		},
		{
			name:   "last listed liquidator lifts the restriction",
			listed: []string{"bob"},
			remove: "bob",
			mode:   core.WhitelistModeUnrestricted,
			keeper: true,
		},
		{
			name:   "remaining liquidators keep the restriction",
			listed: []string{"bob", "carol"},
			remove: "bob",
			mode:   core.WhitelistModeRestricted,
			keeper: false,
		},
		{
			name:   "unlisted address on a restricted market",
			listed: []string{"bob"},
			remove: "keeper",
			mode:   core.WhitelistModeRestricted,
			keeper: false,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			r := New(whitelist.Memory(), []string{"admin"})
			for _, l := range test.listed {
				require.Nil(t, r.AddLiquidator(ctx, "admin", 1, l))
			}

			require.Nil(t, r.RemoveLiquidator(ctx, "admin", 1, test.remove))

			policy, err := r.Policy(ctx, 1)
			require.Nil(t, err)
			assert.Equal(t, test.mode, policy.Mode)

			ok, err := r.IsLiquidatorWhitelisted(ctx, 1, "keeper")
			require.Nil(t, err)
			assert.Equal(t, test.keeper, ok)
		})
	}
}
