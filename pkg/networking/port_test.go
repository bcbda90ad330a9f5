package networking

import (
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelectRequestedAvailable(t *testing.T) {
	// find a genuinely free port first
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := ln.Addr().(*net.TCPAddr).Port
	ln.Close()

	got, err := Select(port, 10, nil)
	require.NoError(t, err)
	assert.Equal(t, port, got)
}

func TestSelectRequestedInUse(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()
	port := ln.Addr().(*net.TCPAddr).Port

	_, err = Select(port, 10, nil)
	require.Error(t, err)
}

func TestSelectAutoAssignsFromEphemeralRange(t *testing.T) {
	port, err := Select(0, 10, nil)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, port, ephemeralRangeLow)
	assert.Less(t, port, ephemeralRangeHigh)
}

func TestIsAvailable(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := ln.Addr().(*net.TCPAddr).Port
	assert.False(t, IsAvailable(port))
	ln.Close()
	assert.True(t, IsAvailable(port))
}
