package container

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/vibetool/vibetool/pkg/vterrors"
)

// Monitor polls IsRunning at a bounded cadence and emits exactly one
// ContainerExited error the moment the container stops being observed as
// running, then terminates and closes its channel. It never emits more
// than once.
type Monitor struct {
	driver   Driver
	id       string
	name     string
	interval time.Duration
	log      *logrus.Entry
}

// NewMonitor builds a Monitor for container id/name, polling at interval
// (clamped to at most 1s so an exit is never noticed arbitrarily late).
func NewMonitor(driver Driver, id, name string, interval time.Duration) *Monitor {
	if interval <= 0 || interval > time.Second {
		interval = time.Second
	}
	return &Monitor{driver: driver, id: id, name: name, interval: interval}
}

// WithLogger attaches a logger, returning m for chaining.
func (m *Monitor) WithLogger(log *logrus.Entry) *Monitor {
	m.log = log
	return m
}

// Start launches the poller and returns a channel that receives exactly
// one error when the container is observed to have exited. Cancelling
// ctx stops the monitor without emitting anything, since that's a
// caller-initiated shutdown, not an observed exit.
func (m *Monitor) Start(ctx context.Context) <-chan error {
	errCh := make(chan error, 1)
	go m.run(ctx, errCh)
	return errCh
}

func (m *Monitor) run(ctx context.Context, errCh chan<- error) {
	defer close(errCh)
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			running, err := m.driver.IsRunning(ctx, m.id)
			if err != nil {
				if vterrors.HasCode(err, vterrors.ContainerNotFound) {
					errCh <- vterrors.Newf(vterrors.ContainerExited, "container %s no longer exists", m.name)
					return
				}
				if m.log != nil {
					m.log.WithError(err).Warn("monitor poll failed, will retry")
				}
				continue
			}
			if !running {
				errCh <- vterrors.Newf(vterrors.ContainerExited, "container %s exited", m.name)
				return
			}
		}
	}
}
