package limits

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidatePassesWithDefaults(t *testing.T) {
	require.NoError(t, Validate())
}

func TestDurationHelpersMatchMillis(t *testing.T) {
	assert.Equal(t, MaxSessionTimeoutMs, uint32(MaxSessionTimeout().Milliseconds()))
	assert.Equal(t, MinSessionTimeoutMs, uint32(MinSessionTimeout().Milliseconds()))
	assert.Equal(t, RequestTimeoutMs, uint32(RequestTimeout().Milliseconds()))
	assert.Equal(t, ScConnectionTimeoutMs, uint32(ScConnectionTimeout().Milliseconds()))
}
