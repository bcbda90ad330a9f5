// Package container defines the runtime-agnostic domain types and the
// driver interface the supervisor consumes: create/start/stop/remove,
// attach, inspect, and list, implemented once per container runtime.
package container

import (
	"context"
	"io"

	"github.com/vibetool/vibetool/pkg/permissions"
)

// State is a container's lifecycle state as reported by the driver.
type State string

const (
	StateCreated State = "created"
	StateRunning State = "running"
	StateExited  State = "exited"
	StateUnknown State = "unknown"
)

// PortMapping is one published port on a container.
type PortMapping struct {
	ContainerPort int
	HostPort      int
	Protocol      string
}

// Record is the supervisor's view of a managed container. The supervisor
// never caches State: every read goes back to Inspect/List.
type Record struct {
	ID        string
	Name      string
	Image     string
	State     State
	CreatedAt int64
	Labels    map[string]string
	Ports     []PortMapping
}

// IsOwned reports whether the record carries the vibetool=true label.
func (r *Record) IsOwned() bool {
	return r.Labels["vibetool"] == "true"
}

// IsRunning reports whether State is StateRunning. Drivers map runtime
// state strings onto the State constants, so this is the supervisor's
// list(all=false) filter rule.
func (r *Record) IsRunning() bool {
	return r.State == StateRunning
}

// CreateOptions bundles everything needed to create a container.
type CreateOptions struct {
	Image       string
	Name        string
	Cmd         []string
	Env         map[string]string
	Labels      map[string]string
	Security    *permissions.SecurityConfig
	// AttachStdio requests that stdin/stdout be left open for an
	// Attach call; set only when the transport is stdio.
	AttachStdio bool
	// ExposedPort, when non-zero, is the container-internal port to
	// expose/publish (SSE transport mode).
	ExposedPort int
}

// Driver is the runtime-agnostic contract a Docker or Podman
// implementation satisfies. Every method either succeeds or returns a
// *vterrors.Error carrying one of the classified error codes.
type Driver interface {
	// CreateAndStart creates and starts a container, returning its id.
	CreateAndStart(ctx context.Context, opts CreateOptions) (string, error)
	// List enumerates every container visible to the driver (the
	// supervisor filters for ownership).
	List(ctx context.Context) ([]Record, error)
	// Inspect re-reads a single container's current record.
	Inspect(ctx context.Context, id string) (Record, error)
	// IsRunning is a narrow, cheap form of Inspect for the monitor's
	// polling loop.
	IsRunning(ctx context.Context, id string) (bool, error)
	// IP returns the container's primary network IP, or "" if it has
	// none (host networking, not yet started, ...).
	IP(ctx context.Context, id string) (string, error)
	// Stop stops a running container.
	Stop(ctx context.Context, id string) error
	// Remove deletes a stopped container.
	Remove(ctx context.Context, id string) error
	// Logs returns the container's combined stdout/stderr log.
	Logs(ctx context.Context, id string) (string, error)
	// Attach returns a writer for stdin and a reader for the combined
	// stdout/stderr stream, with any multiplexing framing stripped.
	Attach(ctx context.Context, id string) (io.WriteCloser, io.ReadCloser, error)
	// ImageExists reports whether image is already present locally.
	ImageExists(ctx context.Context, image string) (bool, error)
	// PullImage pulls image from its registry.
	PullImage(ctx context.Context, image string) error
	// Close releases any resources (client connections) held by the driver.
	Close() error
}
