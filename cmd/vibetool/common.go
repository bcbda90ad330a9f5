package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/vibetool/vibetool/internal/cliutil"
	"github.com/vibetool/vibetool/internal/vtconfig"
	"github.com/vibetool/vibetool/pkg/container"
	"github.com/vibetool/vibetool/pkg/container/docker"
	"github.com/vibetool/vibetool/pkg/container/podman"
	"github.com/vibetool/vibetool/pkg/networking"
	"github.com/vibetool/vibetool/pkg/permissions"
	"github.com/vibetool/vibetool/pkg/transport/sse"
	"github.com/vibetool/vibetool/pkg/transport/stdio"
	"github.com/vibetool/vibetool/pkg/vterrors"
)

// runOptions bundles the flags shared by run and start. There is no
// OIDC/auth middleware here — authenticating clients is out of scope.
type runOptions struct {
	Image             string
	CmdArgs           []string
	Transport         string
	Name              string
	Port              int
	PermissionProfile string
	EnvVars           []string
}

func connectDriver(ctx context.Context, log *logrus.Entry) (container.Driver, error) {
	dockerCtor := func(ctx context.Context, uri string, log *logrus.Entry) (container.Driver, error) {
		return docker.New(ctx, uri, log)
	}
	podmanCtor := func(ctx context.Context, uri string, log *logrus.Entry) (container.Driver, error) {
		return podman.New(ctx, uri, log)
	}
	return container.DetectAndConnect(ctx, dockerCtor, podmanCtor, log)
}

// runMCPServer resolves the permission profile, compiles it, selects a
// port, launches the container, starts the matching transport, starts the
// exit monitor, and waits on SIGINT/SIGTERM or a monitor error before
// tearing everything down.
func runMCPServer(cfg *vtconfig.Config, log *logrus.Entry, opts runOptions) error {
	ctx := context.Background()

	profile, err := resolveProfile(opts.PermissionProfile)
	if err != nil {
		return err
	}
	security, err := permissions.Compile(profile)
	if err != nil {
		return err
	}

	userEnv, err := cliutil.ParseEnv(opts.EnvVars)
	if err != nil {
		return err
	}

	driver, err := connectDriver(ctx, log)
	if err != nil {
		return err
	}

	port, err := networking.Select(opts.Port, cfg.PortProbeAttempts, log)
	if err != nil {
		_ = driver.Close()
		return err
	}

	sup := container.NewSupervisor(driver, log)

	var baseEnv map[string]string
	var exposedPort int
	switch opts.Transport {
	case "sse":
		exposedPort = cfg.DefaultContainerPort
		baseEnv = sse.EnvVars(exposedPort)
	case "stdio":
		baseEnv = stdio.EnvVars()
		baseEnv["MCP_PORT"] = fmt.Sprintf("%d", port)
	default:
		_ = driver.Close()
		return vterrors.Newf(vterrors.InvalidArgument, "unknown transport %q", opts.Transport)
	}

	containerID, err := sup.Launch(ctx, container.LaunchOptions{
		Image:         opts.Image,
		Name:          opts.Name,
		Cmd:           opts.CmdArgs,
		BaseEnv:       baseEnv,
		UserEnv:       userEnv,
		Transport:     opts.Transport,
		Port:          port,
		Security:      security,
		ExposedPort:   exposedPort,
		PullIfMissing: true,
	})
	if err != nil {
		_ = driver.Close()
		return err
	}

	var stopTransport func(context.Context) error
	switch opts.Transport {
	case "sse":
		ip, err := driver.IP(ctx, containerID)
		if err != nil {
			log.WithError(err).Warn("could not resolve container IP, falling back to localhost")
		}
		tr := sse.New(port, ip, exposedPort, log)
		if err := tr.Start(ctx); err != nil {
			return err
		}
		stopTransport = tr.Stop
	case "stdio":
		tr := stdio.New(driver, containerID, port, cfg.HandshakeGap, cfg.ToContainerQueueSize, log)
		if err := tr.Start(ctx); err != nil {
			return err
		}
		stopTransport = tr.Stop
	}

	monitor := container.NewMonitor(driver, containerID, opts.Name, cfg.MonitorPollInterval).WithLogger(log)
	monitorCtx, cancelMonitor := context.WithCancel(ctx)
	errCh := monitor.Start(monitorCtx)

	stop := func(reason string) {
		log.WithField("reason", reason).Info("shutting down")
		cancelMonitor()
		shutdownCtx, done := context.WithTimeout(context.Background(), 10*time.Second)
		defer done()
		if stopTransport != nil {
			_ = stopTransport(shutdownCtx)
		}
		_ = sup.Stop(shutdownCtx, opts.Name, true, !cfg.Debug)
		_ = driver.Close()
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sigCh:
		stop("signal")
	case monitorErr := <-errCh:
		if monitorErr != nil {
			log.WithError(monitorErr).Warn("container exited")
		}
		stop("container exit")
		return monitorErr
	}
	return nil
}

func resolveProfile(name string) (*permissions.Profile, error) {
	switch name {
	case "stdio", "network":
		return permissions.Builtin(name)
	case "":
		return permissions.Builtin("stdio")
	default:
		return permissions.FromFile(name)
	}
}
