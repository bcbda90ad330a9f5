package container

import (
	"context"
	"io"

	"github.com/imdario/mergo"
	"github.com/sirupsen/logrus"

	"github.com/vibetool/vibetool/pkg/permissions"
	"github.com/vibetool/vibetool/pkg/vterrors"
)

// Supervisor owns a container's lifecycle from creation until either the
// caller tears it down or the container exits on its own.
type Supervisor struct {
	driver Driver
	log    *logrus.Entry
}

// NewSupervisor builds a Supervisor over driver.
func NewSupervisor(driver Driver, log *logrus.Entry) *Supervisor {
	return &Supervisor{driver: driver, log: log}
}

// LaunchOptions carries the fields a launch needs beyond what
// CreateOptions already covers: env layering, transport selection, and
// whether to pull the image first.
type LaunchOptions struct {
	Image            string
	Name             string
	Cmd              []string
	BaseEnv          map[string]string
	UserEnv          map[string]string
	Transport        string
	Port             int
	Security         *permissions.SecurityConfig
	ExposedPort      int
	PullIfMissing    bool
}

// Launch creates and starts a container: base transport env is merged
// with user-supplied env (user values win), required labels are
// attached, and stdio attachment is requested only when the transport is
// "stdio".
func (s *Supervisor) Launch(ctx context.Context, opts LaunchOptions) (string, error) {
	env := map[string]string{}
	if err := mergo.Merge(&env, opts.BaseEnv); err != nil {
		return "", vterrors.Wrap(err, vterrors.IO, "merging base environment")
	}
	if err := mergo.Merge(&env, opts.UserEnv, mergo.WithOverride); err != nil {
		return "", vterrors.Wrap(err, vterrors.IO, "merging user environment")
	}

	if opts.PullIfMissing {
		exists, err := s.driver.ImageExists(ctx, opts.Image)
		if err != nil {
			return "", err
		}
		if !exists {
			s.log.WithField("image", opts.Image).Info("pulling image")
			if err := s.driver.PullImage(ctx, opts.Image); err != nil {
				return "", err
			}
		}
	}

	create := CreateOptions{
		Image:       opts.Image,
		Name:        opts.Name,
		Cmd:         opts.Cmd,
		Env:         env,
		Labels:      BuildLabels(opts.Name, opts.Transport, opts.Port),
		Security:    opts.Security,
		AttachStdio: opts.Transport == "stdio",
		ExposedPort: opts.ExposedPort,
	}

	id, err := s.driver.CreateAndStart(ctx, create)
	if err != nil {
		return "", err
	}
	s.log.WithFields(logrus.Fields{"id": id, "name": opts.Name}).Info("container launched")
	return id, nil
}

// Stop resolves nameOrID to an owned container and stops it; if it is
// running and force is false, it refuses. If remove is true the
// container is deleted after stopping.
func (s *Supervisor) Stop(ctx context.Context, nameOrID string, force, remove bool) error {
	record, err := s.findOwned(ctx, nameOrID)
	if err != nil {
		return err
	}

	running, err := s.driver.IsRunning(ctx, record.ID)
	if err != nil {
		return err
	}
	if running {
		if !force {
			return vterrors.New(vterrors.InvalidArgument, "container is running, use --force")
		}
		if err := s.driver.Stop(ctx, record.ID); err != nil {
			return err
		}
	}
	if remove {
		if err := s.driver.Remove(ctx, record.ID); err != nil {
			return err
		}
	}
	return nil
}

// List enumerates owned containers, optionally restricted to running ones.
func (s *Supervisor) List(ctx context.Context, all bool) ([]Record, error) {
	records, err := s.driver.List(ctx)
	if err != nil {
		return nil, err
	}
	owned := make([]Record, 0, len(records))
	for _, r := range records {
		if !r.IsOwned() {
			continue
		}
		if !all && !r.IsRunning() {
			continue
		}
		owned = append(owned, r)
	}
	return owned, nil
}

// Logs resolves nameOrID to an owned container and returns its record
// alongside its captured stdout/stderr log text.
func (s *Supervisor) Logs(ctx context.Context, nameOrID string) (*Record, string, error) {
	record, err := s.findOwned(ctx, nameOrID)
	if err != nil {
		return nil, "", err
	}
	text, err := s.driver.Logs(ctx, record.ID)
	if err != nil {
		return nil, "", err
	}
	return record, text, nil
}

// Attach proxies to the driver's Attach.
func (s *Supervisor) Attach(ctx context.Context, id string) (io.WriteCloser, io.ReadCloser, error) {
	return s.driver.Attach(ctx, id)
}

func (s *Supervisor) findOwned(ctx context.Context, nameOrID string) (*Record, error) {
	records, err := s.driver.List(ctx)
	if err != nil {
		return nil, err
	}
	return Resolve(records, nameOrID)
}
