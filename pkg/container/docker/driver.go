// Package docker implements container.Driver against the Docker daemon's
// HTTP API using github.com/docker/docker's client package.
package docker

import (
	"bufio"
	"context"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/api/types/network"
	"github.com/docker/docker/client"
	"github.com/sirupsen/logrus"

	vtcontainer "github.com/vibetool/vibetool/pkg/container"
	"github.com/vibetool/vibetool/pkg/vterrors"
)

// Driver implements vtcontainer.Driver over a Docker daemon socket.
type Driver struct {
	cli *client.Client
	log *logrus.Entry
}

// New dials the Docker daemon reachable at host (a unix:// or tcp://
// socket address) and pings it. A failed ping is a hard error — callers
// never silently fall back to another runtime.
func New(ctx context.Context, host string, log *logrus.Entry) (*Driver, error) {
	cli, err := client.NewClientWithOpts(
		client.WithHost(host),
		client.WithAPIVersionNegotiation(),
	)
	if err != nil {
		return nil, vterrors.Wrapf(err, vterrors.ContainerRuntime, "constructing docker client for %s", host)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 120*time.Second)
	defer cancel()
	if _, err := cli.Ping(pingCtx); err != nil {
		_ = cli.Close()
		return nil, vterrors.Wrapf(err, vterrors.ContainerRuntime, "pinging docker daemon at %s", host)
	}
	return &Driver{cli: cli, log: log}, nil
}

func (d *Driver) Close() error { return d.cli.Close() }

// CreateAndStart implements vtcontainer.Driver.
func (d *Driver) CreateAndStart(ctx context.Context, opts vtcontainer.CreateOptions) (string, error) {
	env := make([]string, 0, len(opts.Env))
	for k, v := range opts.Env {
		env = append(env, k+"="+v)
	}

	mounts := make([]mountSpec, 0, len(opts.Security.Mounts))
	for _, m := range opts.Security.Mounts {
		mounts = append(mounts, mountSpec{source: m.Source, target: m.Target, readOnly: m.ReadOnly})
	}

	hostConfig := &container.HostConfig{
		NetworkMode: container.NetworkMode(opts.Security.NetworkMode),
		CapDrop:     opts.Security.CapDrop,
		CapAdd:      opts.Security.CapAdd,
		SecurityOpt: opts.Security.SecurityOpt,
		Binds:       bindStrings(mounts),
	}

	containerConfig := &container.Config{
		Image:        opts.Image,
		Cmd:          opts.Cmd,
		Env:          env,
		Labels:       opts.Labels,
		AttachStdin:  opts.AttachStdio,
		AttachStdout: opts.AttachStdio,
		AttachStderr: opts.AttachStdio,
		OpenStdin:    opts.AttachStdio,
		StdinOnce:    opts.AttachStdio,
		Tty:          false,
	}

	if opts.ExposedPort > 0 {
		portStr := strconv.Itoa(opts.ExposedPort) + "/tcp"
		containerConfig.ExposedPorts = map[string]struct{}{portStr: {}}
	}

	created, err := d.cli.ContainerCreate(ctx, containerConfig, hostConfig, &network.NetworkingConfig{}, nil, opts.Name)
	if err != nil {
		return "", vterrors.Wrap(err, vterrors.ContainerRuntime, "creating container")
	}

	if err := d.cli.ContainerStart(ctx, created.ID, container.StartOptions{}); err != nil {
		return "", vterrors.Wrap(err, vterrors.ContainerRuntime, "starting container")
	}
	return created.ID, nil
}

// List implements vtcontainer.Driver.
func (d *Driver) List(ctx context.Context) ([]vtcontainer.Record, error) {
	summaries, err := d.cli.ContainerList(ctx, container.ListOptions{All: true})
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
			CreatedAt: s.Created,
			Labels:    s.Labels,
		})
	}
	return out, nil
}

// Inspect implements vtcontainer.Driver.
func (d *Driver) Inspect(ctx context.Context, id string) (vtcontainer.Record, error) {
	info, err := d.cli.ContainerInspect(ctx, id)
	if err != nil {
		if client.IsErrNotFound(err) {
			return vtcontainer.Record{}, vterrors.Wrapf(err, vterrors.ContainerNotFound, "no such container %s", id)
		}
		return vtcontainer.Record{}, vterrors.Wrap(err, vterrors.ContainerRuntime, "inspecting container")
	}
	state := vtcontainer.StateUnknown
	if info.State != nil {
		state = mapState(info.State.Status)
	}
	return vtcontainer.Record{
		ID:     info.ID,
		Name:   strings.TrimPrefix(info.Name, "/"),
		Image:  info.Config.Image,
		State:  state,
		Labels: info.Config.Labels,
	}, nil
}

// IsRunning implements vtcontainer.Driver.
func (d *Driver) IsRunning(ctx context.Context, id string) (bool, error) {
	record, err := d.Inspect(ctx, id)
	if err != nil {
		return false, err
	}
	return record.IsRunning(), nil
}

// IP implements vtcontainer.Driver.
func (d *Driver) IP(ctx context.Context, id string) (string, error) {
	info, err := d.cli.ContainerInspect(ctx, id)
	if err != nil {
		return "", vterrors.Wrap(err, vterrors.ContainerRuntime, "inspecting container for IP")
	}
	if info.NetworkSettings == nil {
		return "", nil
	}
	for _, net := range info.NetworkSettings.Networks {
		if net.IPAddress != "" {
			return net.IPAddress, nil
		}
	}
	return "", nil
}

// Stop implements vtcontainer.Driver.
func (d *Driver) Stop(ctx context.Context, id string) error {
	if err := d.cli.ContainerStop(ctx, id, container.StopOptions{}); err != nil {
		return vterrors.Wrap(err, vterrors.ContainerRuntime, "stopping container")
	}
	return nil
}

// Remove implements vtcontainer.Driver.
func (d *Driver) Remove(ctx context.Context, id string) error {
	if err := d.cli.ContainerRemove(ctx, id, container.RemoveOptions{Force: true}); err != nil {
		return vterrors.Wrap(err, vterrors.ContainerRuntime, "removing container")
	}
	return nil
}

// Logs implements vtcontainer.Driver.
func (d *Driver) Logs(ctx context.Context, id string) (string, error) {
	rc, err := d.cli.ContainerLogs(ctx, id, container.LogsOptions{ShowStdout: true, ShowStderr: true})
	if err != nil {
		return "", vterrors.Wrap(err, vterrors.ContainerRuntime, "fetching container logs")
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		return "", vterrors.Wrap(err, vterrors.IO, "reading container logs")
	}
	return string(data), nil
}

// Attach implements vtcontainer.Driver using a hijacked
// ContainerAttach connection for full-duplex stdin/stdout access.
func (d *Driver) Attach(ctx context.Context, id string) (io.WriteCloser, io.ReadCloser, error) {
	resp, err := d.cli.ContainerAttach(ctx, id, container.AttachOptions{
		Stream: true,
		Stdin:  true,
		Stdout: true,
		Stderr: true,
	})
	if err != nil {
		return nil, nil, vterrors.Wrap(err, vterrors.Transport, "attaching to container")
	}
	return &hijackedWriter{resp: &resp}, &demuxReader{src: bufio.NewReader(resp.Reader), closer: &resp}, nil
}

// ImageExists implements vtcontainer.Driver.
func (d *Driver) ImageExists(ctx context.Context, ref string) (bool, error) {
	_, err := d.cli.ImageInspect(ctx, ref)
	if err == nil {
		return true, nil
	}
	if client.IsErrNotFound(err) {
		return false, nil
	}
	return false, vterrors.Wrap(err, vterrors.ContainerRuntime, "inspecting image")
}

// PullImage implements vtcontainer.Driver.
func (d *Driver) PullImage(ctx context.Context, ref string) error {
	rc, err := d.cli.ImagePull(ctx, ref, image.PullOptions{})
	if err != nil {
		return vterrors.Wrap(err, vterrors.ContainerRuntime, "pulling image")
	}
	defer rc.Close()
	if _, err := io.Copy(io.Discard, rc); err != nil {
		return vterrors.Wrap(err, vterrors.ContainerRuntime, "reading pull progress")
	}
	return nil
}

func mapState(s string) vtcontainer.State {
	switch strings.ToLower(s) {
	case "running":
		return vtcontainer.StateRunning
	case "created":
		return vtcontainer.StateCreated
	case "exited", "dead":
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

type mountSpec struct {
	source, target string
	readOnly        bool
}

func bindStrings(mounts []mountSpec) []string {
	binds := make([]string, 0, len(mounts))
	for _, m := range mounts {
		mode := "rw"
		if m.readOnly {
			mode = "ro"
		}
		binds = append(binds, m.source+":"+m.target+":"+mode)
	}
	return binds
}
