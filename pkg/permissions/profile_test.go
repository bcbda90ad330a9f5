package permissions

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vibetool/vibetool/pkg/vterrors"
)

func TestBuiltinStdioProfile(t *testing.T) {
	p := BuiltinStdio()
	assert.Empty(t, p.Read)
	assert.Empty(t, p.Write)
	assert.Nil(t, p.Network)
}

func TestBuiltinNetworkProfile(t *testing.T) {
	p := BuiltinNetwork()
	require.NotNil(t, p.Network)
	require.NotNil(t, p.Network.Outbound)
	assert.True(t, p.Network.Outbound.InsecureAllowAll)
}

func TestValidateInvalidPath(t *testing.T) {
	p := &Profile{Read: []string{"not-absolute"}}
	err := p.Validate()
	require.Error(t, err)
	assert.True(t, vterrors.HasCode(err, vterrors.Permission))
}

func TestValidateInconsistentNetwork(t *testing.T) {
	p := &Profile{
		Network: &NetworkPermissions{
			Outbound: &OutboundNetworkPermissions{
				InsecureAllowAll: true,
				AllowPort:        []uint16{80},
			},
		},
	}
	err := p.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insecure_allow_all")
}

func TestCompileMixedPaths(t *testing.T) {
	p := &Profile{
		Read:  []string{"/etc/hosts", "/etc/resolv.conf"},
		Write: []string{"/tmp", "/var/log"},
		Network: &NetworkPermissions{
			Outbound: &OutboundNetworkPermissions{InsecureAllowAll: true},
		},
	}
	cfg, err := Compile(p)
	require.NoError(t, err)
	require.Len(t, cfg.Mounts, 4)

	assert.Equal(t, Mount{Source: "/tmp", Target: "/tmp", ReadOnly: false}, cfg.Mounts[0])
	assert.Equal(t, Mount{Source: "/var/log", Target: "/var/log", ReadOnly: false}, cfg.Mounts[1])
	assert.Equal(t, Mount{Source: "/etc/hosts", Target: "/etc/hosts", ReadOnly: true}, cfg.Mounts[2])
	assert.Equal(t, Mount{Source: "/etc/resolv.conf", Target: "/etc/resolv.conf", ReadOnly: true}, cfg.Mounts[3])

	assert.Equal(t, NetworkModeBridge, cfg.NetworkMode)
	assert.Equal(t, []string{"ALL"}, cfg.CapDrop)
	assert.Equal(t, []string{"NET_BIND_SERVICE"}, cfg.CapAdd)
	assert.Equal(t, []string{"no-new-privileges"}, cfg.SecurityOpt)
}

func TestCompileInconsistentNetwork(t *testing.T) {
	p := &Profile{
		Network: &NetworkPermissions{
			Outbound: &OutboundNetworkPermissions{
				InsecureAllowAll: true,
				AllowPort:        []uint16{80},
			},
		},
	}
	_, err := Compile(p)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insecure_allow_all")
}

func TestCompileWriteWinsOverRead(t *testing.T) {
	p := &Profile{
		Read:  []string{"/data"},
		Write: []string{"/data"},
	}
	cfg, err := Compile(p)
	require.NoError(t, err)
	require.Len(t, cfg.Mounts, 1)
	assert.False(t, cfg.Mounts[0].ReadOnly)
}

func TestCompileNetworkModeDefaultsToNone(t *testing.T) {
	cfg, err := Compile(&Profile{})
	require.NoError(t, err)
	assert.Equal(t, NetworkModeNone, cfg.NetworkMode)
}

func TestBuiltinUnknownName(t *testing.T) {
	_, err := Builtin("bogus")
	require.Error(t, err)
	assert.True(t, vterrors.HasCode(err, vterrors.InvalidArgument))
}

func TestFromFileMissing(t *testing.T) {
	_, err := FromFile("/nonexistent/path/profile.json")
	require.Error(t, err)
	assert.True(t, vterrors.HasCode(err, vterrors.Configuration))
}
