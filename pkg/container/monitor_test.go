package container

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vibetool/vibetool/pkg/vterrors"
)

func TestMonitorEmitsExactlyOneExitOnStop(t *testing.T) {
	driver := newFakeDriver()
	sup := NewSupervisor(driver, testLogger())
	ctx := context.Background()

	id, err := sup.Launch(ctx, LaunchOptions{Image: "img", Name: "mon", Transport: "stdio"})
	require.NoError(t, err)

	mon := NewMonitor(driver, id, "mon", 20*time.Millisecond)
	errCh := mon.Start(ctx)

	time.Sleep(30 * time.Millisecond)
	driver.setExited(id)

	select {
	case err := <-errCh:
		require.Error(t, err)
		assert.True(t, vterrors.HasCode(err, vterrors.ContainerExited))
	case <-time.After(2 * time.Second):
		t.Fatal("monitor did not emit an exit error in time")
	}

	// channel closes after the single emission; no further sends occur.
	_, ok := <-errCh
	assert.False(t, ok)
}

func TestMonitorEmitsOnceWhenContainerDisappears(t *testing.T) {
	driver := newFakeDriver()
	sup := NewSupervisor(driver, testLogger())
	ctx := context.Background()

	id, err := sup.Launch(ctx, LaunchOptions{Image: "img", Name: "gone", Transport: "stdio"})
	require.NoError(t, err)

	mon := NewMonitor(driver, id, "gone", 20*time.Millisecond)
	errCh := mon.Start(ctx)

	time.Sleep(30 * time.Millisecond)
	driver.forget(id)

	select {
	case err := <-errCh:
		require.Error(t, err)
		assert.True(t, vterrors.HasCode(err, vterrors.ContainerExited))
	case <-time.After(2 * time.Second):
		t.Fatal("monitor did not emit an exit error in time")
	}
}

func TestMonitorStopsSilentlyOnContextCancel(t *testing.T) {
	driver := newFakeDriver()
	sup := NewSupervisor(driver, testLogger())
	ctx, cancel := context.WithCancel(context.Background())

	id, err := sup.Launch(ctx, LaunchOptions{Image: "img", Name: "cancelled", Transport: "stdio"})
	require.NoError(t, err)

	mon := NewMonitor(driver, id, "cancelled", 20*time.Millisecond)
	errCh := mon.Start(ctx)
	cancel()

	select {
	case _, ok := <-errCh:
		assert.False(t, ok, "cancellation should close the channel without emitting")
	case <-time.After(2 * time.Second):
		t.Fatal("monitor did not stop after context cancellation")
	}
}
