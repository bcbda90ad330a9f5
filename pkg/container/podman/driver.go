// Package podman implements container.Driver against a Podman daemon's
// libpod bindings, using the containers/podman/v5/pkg/bindings package.
package podman

import (
	"context"
	"io"
	"strings"

	"github.com/containers/podman/v5/pkg/bindings"
	"github.com/containers/podman/v5/pkg/bindings/containers"
	"github.com/containers/podman/v5/pkg/bindings/images"
	"github.com/containers/podman/v5/pkg/specgen"
	specs "github.com/opencontainers/runtime-spec/specs-go"
	"github.com/sirupsen/logrus"

	vtcontainer "github.com/vibetool/vibetool/pkg/container"
	"github.com/vibetool/vibetool/pkg/vterrors"
)

// Driver implements vtcontainer.Driver over a Podman socket.
type Driver struct {
	conn context.Context // bindings.NewConnection returns a context carrying the client
	log  *logrus.Entry
}

// New connects to the Podman socket at uri (e.g. unix:///run/podman/podman.sock).
func New(ctx context.Context, uri string, log *logrus.Entry) (*Driver, error) {
	conn, err := bindings.NewConnection(ctx, uri)
	if err != nil {
		return nil, vterrors.Wrapf(err, vterrors.ContainerRuntime, "connecting to podman socket %s", uri)
	}
	if _, err := bindings.GetClient(conn); err != nil {
		return nil, vterrors.Wrap(err, vterrors.ContainerRuntime, "pinging podman socket")
	}
	return &Driver{conn: conn, log: log}, nil
}

func (d *Driver) Close() error { return nil }

// CreateAndStart implements vtcontainer.Driver.
func (d *Driver) CreateAndStart(_ context.Context, opts vtcontainer.CreateOptions) (string, error) {
	spec := specgen.NewSpecGenerator(opts.Image, false)
	spec.Name = opts.Name
	spec.Command = opts.Cmd
	spec.Env = opts.Env
	spec.Labels = opts.Labels
	spec.CapDrop = opts.Security.CapDrop
	spec.CapAdd = opts.Security.CapAdd
	spec.SecurityOpt = opts.Security.SecurityOpt
	spec.NetNS = specgen.Namespace{NSMode: netNSMode(opts.Security.NetworkMode)}
	spec.Stdin = opts.AttachStdio

	for _, m := range opts.Security.Mounts {
		spec.Mounts = append(spec.Mounts, specMount(m.Source, m.Target, m.ReadOnly))
	}

	created, err := containers.CreateWithSpec(d.conn, spec, nil)
	if err != nil {
		return "", vterrors.Wrap(err, vterrors.ContainerRuntime, "creating container")
	}
	if err := containers.Start(d.conn, created.ID, nil); err != nil {
		return "", vterrors.Wrap(err, vterrors.ContainerRuntime, "starting container")
	}
	return created.ID, nil
}

// List implements vtcontainer.Driver.
func (d *Driver) List(_ context.Context) ([]vtcontainer.Record, error) {
	opts := new(containers.ListOptions).WithAll(true)
	summaries, err := containers.List(d.conn, opts)
	if err != nil {
		return nil, vterrors.Wrap(err, vterrors.ContainerRuntime, "listing containers")
	}
	out := make([]vtcontainer.Record, 0, len(summaries))
	for _, s := range summaries {
		out = append(out, vtcontainer.Record{
			ID:        s.ID,
			Name:      strings.TrimPrefix(firstOr(s.Names, ""), "/"),
			Image:     s.Image,
			State:     mapState(s.State),
			CreatedAt: s.Created.Unix(),
			Labels:    s.Labels,
		})
	}
	return out, nil
}

// Inspect implements vtcontainer.Driver.
func (d *Driver) Inspect(_ context.Context, id string) (vtcontainer.Record, error) {
	data, err := containers.Inspect(d.conn, id, nil)
	if err != nil {
		return vtcontainer.Record{}, vterrors.Wrapf(err, vterrors.ContainerNotFound, "no such container %s", id)
	}
	state := vtcontainer.StateUnknown
	if data.State != nil {
		state = mapState(data.State.Status)
	}
	var labels map[string]string
	if data.Config != nil {
		labels = data.Config.Labels
	}
	return vtcontainer.Record{ID: data.ID, Name: strings.TrimPrefix(data.Name, "/"), State: state, Labels: labels}, nil
}

// IsRunning implements vtcontainer.Driver.
func (d *Driver) IsRunning(ctx context.Context, id string) (bool, error) {
	r, err := d.Inspect(ctx, id)
	if err != nil {
		return false, err
	}
	return r.IsRunning(), nil
}

// IP implements vtcontainer.Driver.
func (d *Driver) IP(_ context.Context, id string) (string, error) {
	data, err := containers.Inspect(d.conn, id, nil)
	if err != nil {
		return "", vterrors.Wrap(err, vterrors.ContainerRuntime, "inspecting container for IP")
	}
	if data.NetworkSettings == nil {
		return "", nil
	}
	for _, n := range data.NetworkSettings.Networks {
		if n.IPAddress != "" {
			return n.IPAddress, nil
		}
	}
	return "", nil
}

// Stop implements vtcontainer.Driver.
func (d *Driver) Stop(_ context.Context, id string) error {
	if err := containers.Stop(d.conn, id, nil); err != nil {
		return vterrors.Wrap(err, vterrors.ContainerRuntime, "stopping container")
	}
	return nil
}

// Remove implements vtcontainer.Driver.
func (d *Driver) Remove(_ context.Context, id string) error {
	force := true
	if _, err := containers.Remove(d.conn, id, &containers.RemoveOptions{Force: &force}); err != nil {
		return vterrors.Wrap(err, vterrors.ContainerRuntime, "removing container")
	}
	return nil
}

// Logs implements vtcontainer.Driver.
func (d *Driver) Logs(_ context.Context, id string) (string, error) {
	var sb strings.Builder
	stdoutCh := make(chan string, 64)
	stderrCh := make(chan string, 64)
	done := make(chan error, 1)
	go func() {
		done <- containers.Logs(d.conn, id, new(containers.LogOptions).WithStdout(true).WithStderr(true), stdoutCh, stderrCh)
	}()
	for stdoutCh != nil || stderrCh != nil {
		select {
		case line, ok := <-stdoutCh:
			if !ok {
				stdoutCh = nil
				continue
			}
			sb.WriteString(line)
		case line, ok := <-stderrCh:
			if !ok {
				stderrCh = nil
				continue
			}
			sb.WriteString(line)
		}
	}
	if err := <-done; err != nil {
		return sb.String(), vterrors.Wrap(err, vterrors.ContainerRuntime, "fetching container logs")
	}
	return sb.String(), nil
}

// Attach implements vtcontainer.Driver using the bindings' stdio-attach
// call; the bindings package already exposes a demultiplexed byte stream,
// unlike the raw Docker attach socket.
func (d *Driver) Attach(_ context.Context, id string) (io.WriteCloser, io.ReadCloser, error) {
	stdin, stdinWriter := io.Pipe()
	stdoutReader, stdout := io.Pipe()
	attachReady := make(chan bool, 1)
	go func() {
		err := containers.Attach(d.conn, id, stdin, stdout, stdout, nil, attachReady)
		stdout.CloseWithError(err)
	}()
	<-attachReady
	return stdinWriter, stdoutReader, nil
}

// ImageExists implements vtcontainer.Driver.
func (d *Driver) ImageExists(_ context.Context, ref string) (bool, error) {
	exists, err := images.Exists(d.conn, ref, nil)
	if err != nil {
		return false, vterrors.Wrap(err, vterrors.ContainerRuntime, "checking image existence")
	}
	return exists, nil
}

// PullImage implements vtcontainer.Driver.
func (d *Driver) PullImage(_ context.Context, ref string) error {
	if _, err := images.Pull(d.conn, ref, nil); err != nil {
		return vterrors.Wrap(err, vterrors.ContainerRuntime, "pulling image")
	}
	return nil
}

func mapState(s string) vtcontainer.State {
	switch strings.ToLower(s) {
	case "running":
		return vtcontainer.StateRunning
	case "created", "configured":
		return vtcontainer.StateCreated
	case "exited", "stopped":
		return vtcontainer.StateExited
	default:
		return vtcontainer.StateUnknown
	}
}

func firstOr(items []string, fallback string) string {
	if len(items) == 0 {
		return fallback
	}
	return items[0]
}

func netNSMode(mode string) specgen.NamespaceMode {
	if mode == "bridge" {
		return specgen.Bridge
	}
	return specgen.NoNetwork
}

func specMount(source, target string, readOnly bool) specs.Mount {
	options := []string{"bind"}
	if readOnly {
		options = append(options, "ro")
	} else {
		options = append(options, "rw")
	}
	return specs.Mount{Destination: target, Source: source, Type: "bind", Options: options}
}
