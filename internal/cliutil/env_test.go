package cliutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vibetool/vibetool/pkg/vterrors"
)

func TestParseEnvLastWinsAndSplitsOnFirstEquals(t *testing.T) {
	got, err := ParseEnv([]string{"K=V", "K=V=W"})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"K": "V=W"}, got)
}

func TestParseEnvRejectsMissingEquals(t *testing.T) {
	_, err := ParseEnv([]string{"BAD"})
	require.Error(t, err)
	assert.True(t, vterrors.HasCode(err, vterrors.InvalidArgument))
}

func TestParseEnvEmpty(t *testing.T) {
	got, err := ParseEnv(nil)
	require.NoError(t, err)
	assert.Empty(t, got)
}
