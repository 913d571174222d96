package util_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github/chapool/mtw-recovery/internal/util"
)

type probeTarget struct {
	Name    string
	Ptr     *int
	Skipped *int `wire:"-"`
	private *int
}

func TestIsStructInitialized(t *testing.T) {
	v := 1

	err := util.IsStructInitialized(&probeTarget{Ptr: &v})
	require.NoError(t, err)

	err = util.IsStructInitialized(&probeTarget{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Ptr")

	err = util.IsStructInitialized(42)
	require.Error(t, err)
}
