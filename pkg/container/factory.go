package container

import (
	"context"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"github.com/vibetool/vibetool/pkg/vterrors"
)

// SocketCandidate is one runtime socket path to probe, in the order the
// factory tries them.
type SocketCandidate struct {
	Path    string
	Runtime string // "podman" or "docker"
}

// Candidates returns the socket discovery order: Podman's three
// well-known locations, then Docker's.
func Candidates() []SocketCandidate {
	home, _ := os.UserHomeDir()
	xdgRuntime := os.Getenv("XDG_RUNTIME_DIR")

	candidates := []SocketCandidate{
		{Path: "/var/run/podman/podman.sock", Runtime: "podman"},
	}
	if xdgRuntime != "" {
		candidates = append(candidates, SocketCandidate{
			Path: filepath.Join(xdgRuntime, "podman", "podman.sock"), Runtime: "podman",
		})
	}
	if home != "" {
		candidates = append(candidates, SocketCandidate{
			Path: filepath.Join(home, ".local", "share", "containers", "podman", "machine", "podman.sock"), Runtime: "podman",
		})
	}
	candidates = append(candidates, SocketCandidate{Path: "/var/run/docker.sock", Runtime: "docker"})
	return candidates
}

// DriverConstructor dials a runtime at a unix socket URI and returns a
// Driver, or an error if the ping fails.
type DriverConstructor func(ctx context.Context, socketURI string, log *logrus.Entry) (Driver, error)

// DetectAndConnect walks Candidates() in order, returning the first
// socket that both exists on disk and responds to the corresponding
// driver constructor's ping. There is no silent fallback: once a socket
// file is found, a failed ping is a hard error.
func DetectAndConnect(ctx context.Context, dockerNew, podmanNew DriverConstructor, log *logrus.Entry) (Driver, error) {
	for _, c := range Candidates() {
		if _, err := os.Stat(c.Path); err != nil {
			continue
		}
		uri := "unix://" + c.Path
		log.WithFields(logrus.Fields{"runtime": c.Runtime, "socket": c.Path}).Debug("probing container runtime socket")

		switch c.Runtime {
		case "podman":
			driver, err := podmanNew(ctx, uri, log)
			if err != nil {
				return nil, err
			}
			return driver, nil
		case "docker":
			driver, err := dockerNew(ctx, uri, log)
			if err != nil {
				return nil, err
			}
			return driver, nil
		}
	}
	return nil, vterrors.New(vterrors.ContainerRuntime, "no container runtime socket found")
}
