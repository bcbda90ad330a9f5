// Package permissions compiles a declarative PermissionProfile into a
// concrete ContainerSecurityConfig: bind mounts, network mode, capability
// sets, and security options.
package permissions

import (
	"encoding/json"
	"os"
	"strings"

	"github.com/samber/lo"

	"github.com/vibetool/vibetool/pkg/vterrors"
)

// OutboundNetworkPermissions describes the egress policy carried by a
// profile. allow_transport/allow_host/allow_port are accepted and
// validated but do not currently refine network_mode — see Compile.
type OutboundNetworkPermissions struct {
	InsecureAllowAll bool     `json:"insecure_allow_all,omitempty"`
	AllowTransport   []string `json:"allow_transport,omitempty"`
	AllowHost        []string `json:"allow_host,omitempty"`
	AllowPort        []uint16 `json:"allow_port,omitempty"`
}

// NetworkPermissions wraps the outbound policy; present only when the
// profile opts into any network access at all.
type NetworkPermissions struct {
	Outbound *OutboundNetworkPermissions `json:"outbound,omitempty"`
}

// Profile is a user-authored policy document: the paths an MCP server may
// read and write on the host, plus optional network egress rules.
type Profile struct {
	Read    []string             `json:"read,omitempty"`
	Write   []string             `json:"write,omitempty"`
	Network *NetworkPermissions  `json:"network,omitempty"`
}

// Mount is one compiled bind mount; Source always equals Target in this
// system (paths are mounted at the same location inside the container).
type Mount struct {
	Source   string
	Target   string
	ReadOnly bool
}

// SecurityConfig is the compiled form of a Profile, ready to hand to a
// container driver's Create call.
type SecurityConfig struct {
	Mounts      []Mount
	NetworkMode string
	CapDrop     []string
	CapAdd      []string
	SecurityOpt []string
}

const (
	// NetworkModeBridge is emitted when outbound access is unrestricted.
	NetworkModeBridge = "bridge"
	// NetworkModeNone is emitted for every other case.
	NetworkModeNone = "none"
)

// BuiltinStdio is the profile used for STDIO-transport servers that need
// no filesystem or network access beyond what the runtime already grants.
func BuiltinStdio() *Profile {
	return &Profile{}
}

// BuiltinNetwork is the profile used for servers that need unrestricted
// outbound network access.
func BuiltinNetwork() *Profile {
	return &Profile{
		Network: &NetworkPermissions{
			Outbound: &OutboundNetworkPermissions{InsecureAllowAll: true},
		},
	}
}

// Builtin resolves one of the two named built-in profiles.
func Builtin(name string) (*Profile, error) {
	switch name {
	case "stdio":
		return BuiltinStdio(), nil
	case "network":
		return BuiltinNetwork(), nil
	default:
		return nil, vterrors.Newf(vterrors.InvalidArgument, "unknown built-in permission profile %q", name)
	}
}

// FromFile loads and validates a Profile from a JSON document on disk.
func FromFile(path string) (*Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, vterrors.Wrapf(err, vterrors.Configuration, "reading permission profile %q", path)
	}
	var p Profile
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, vterrors.Wrapf(err, vterrors.Configuration, "parsing permission profile %q", path)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

// Validate checks that every mount path is absolute and that
// insecure_allow_all is never combined with a non-empty allow-list.
func (p *Profile) Validate() error {
	for _, path := range p.Read {
		if !strings.HasPrefix(path, "/") {
			return vterrors.Newf(vterrors.Permission, "read path %q must be absolute", path)
		}
	}
	for _, path := range p.Write {
		if !strings.HasPrefix(path, "/") {
			return vterrors.Newf(vterrors.Permission, "write path %q must be absolute", path)
		}
	}
	if p.Network != nil && p.Network.Outbound != nil {
		out := p.Network.Outbound
		if out.InsecureAllowAll && (len(out.AllowTransport) > 0 || len(out.AllowHost) > 0 || len(out.AllowPort) > 0) {
			return vterrors.New(vterrors.Permission,
				"cannot specify allow_transport, allow_host, or allow_port when insecure_allow_all is true")
		}
	}
	return nil
}

// Compile turns a validated Profile into a SecurityConfig. Mount order is
// deterministic: writes first (in profile order), then the reads that are
// not already covered by a write (in profile order).
func Compile(p *Profile) (*SecurityConfig, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	writeSet := lo.SliceToMap(p.Write, func(path string) (string, struct{}) { return path, struct{}{} })

	mounts := make([]Mount, 0, len(p.Read)+len(p.Write))
	for _, path := range p.Write {
		mounts = append(mounts, Mount{Source: path, Target: path, ReadOnly: false})
	}
	for _, path := range p.Read {
		if _, alreadyWritable := writeSet[path]; alreadyWritable {
			continue
		}
		mounts = append(mounts, Mount{Source: path, Target: path, ReadOnly: true})
	}

	networkMode := NetworkModeNone
	if p.Network != nil && p.Network.Outbound != nil && p.Network.Outbound.InsecureAllowAll {
		networkMode = NetworkModeBridge
	}

	return &SecurityConfig{
		Mounts:      mounts,
		NetworkMode: networkMode,
		CapDrop:     []string{"ALL"},
		CapAdd:      []string{"NET_BIND_SERVICE"},
		SecurityOpt: []string{"no-new-privileges"},
	}, nil
}
