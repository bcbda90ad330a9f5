package container

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vibetool/vibetool/pkg/vterrors"
)

func TestLaunchAppliesLabelsAndMergedEnv(t *testing.T) {
	driver := newFakeDriver()
	sup := NewSupervisor(driver, testLogger())

	id, err := sup.Launch(context.Background(), LaunchOptions{
		Image:     "example/mcp:latest",
		Name:      "my-server",
		Transport: "stdio",
		Port:      9000,
		BaseEnv:   map[string]string{"MCP_TRANSPORT": "stdio", "MCP_PORT": "9000"},
		UserEnv:   map[string]string{"MCP_PORT": "override", "FOO": "bar"},
	})
	require.NoError(t, err)

	records, err := driver.List(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 1)
	r := records[0]
	assert.Equal(t, id, r.ID)

	assert.Equal(t, "true", r.Labels["vibetool"])
	assert.Contains(t, []string{"sse", "stdio"}, Transport(r.Labels))

	assert.Equal(t, map[string]string{"MCP_TRANSPORT": "stdio", "MCP_PORT": "override", "FOO": "bar"}, driver.env[id])
}

func TestListFiltersToRunningUnlessAll(t *testing.T) {
	driver := newFakeDriver()
	sup := NewSupervisor(driver, testLogger())
	ctx := context.Background()

	id, err := sup.Launch(ctx, LaunchOptions{Image: "img", Name: "a", Transport: "stdio"})
	require.NoError(t, err)
	driver.setExited(id)

	running, err := sup.List(ctx, false)
	require.NoError(t, err)
	assert.Empty(t, running)

	all, err := sup.List(ctx, true)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestStopRefusesRunningWithoutForce(t *testing.T) {
	driver := newFakeDriver()
	sup := NewSupervisor(driver, testLogger())
	ctx := context.Background()

	_, err := sup.Launch(ctx, LaunchOptions{Image: "img", Name: "running-one", Transport: "stdio"})
	require.NoError(t, err)

	err = sup.Stop(ctx, "running-one", false, false)
	require.Error(t, err)
	assert.True(t, vterrors.HasCode(err, vterrors.InvalidArgument))
}

func TestStopForceRemoves(t *testing.T) {
	driver := newFakeDriver()
	sup := NewSupervisor(driver, testLogger())
	ctx := context.Background()

	_, err := sup.Launch(ctx, LaunchOptions{Image: "img", Name: "removable", Transport: "stdio"})
	require.NoError(t, err)

	err = sup.Stop(ctx, "removable", true, true)
	require.NoError(t, err)

	records, err := driver.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, records)
}
