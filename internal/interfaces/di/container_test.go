package di

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ravenml.io/cli/internal/infrastructure/index"
)

func setTestEnv(t *testing.T) {
	t.Helper()
	t.Setenv("RVN_CONFIG_PATH", filepath.Join(t.TempDir(), "config.json"))
	t.Setenv("RVN_PLUGINS_DIR", t.TempDir())
	t.Setenv("RVN_ENVIRONMENT_DIR", t.TempDir())
	t.Setenv("RVN_BASELINE", filepath.Join(t.TempDir(), "baseline.txt"))
	t.Setenv("RVN_INDEX_DIR", "")
	t.Setenv("RVN_INDEX_URL", "")
	t.Setenv("RVN_API_KEY", "")
}

func TestNewContainer_WiresEverything(t *testing.T) {
	setTestEnv(t)

	container, err := NewContainer()
	require.NoError(t, err)

	assert.NotNil(t, container.Config)
	assert.NotNil(t, container.Index)
	assert.NotNil(t, container.Store)
	assert.NotNil(t, container.Locker)
	assert.NotNil(t, container.InstallService)
	assert.NotNil(t, container.AggregateService)
	assert.NotNil(t, container.CompileService)
	assert.NotNil(t, container.Logger)

	cliContainer := container.GetCLIContainer()
	require.NotNil(t, cliContainer)
	assert.Same(t, container.Config, cliContainer.Config)
	assert.Same(t, container.InstallService, cliContainer.InstallService)
	assert.Same(t, container.AggregateService, cliContainer.AggregateService)
	assert.Same(t, container.CompileService, cliContainer.CompileService)
}

func TestNewContainer_SelectsHTTPIndexByDefault(t *testing.T) {
	setTestEnv(t)

	container, err := NewContainer()
	require.NoError(t, err)

	assert.IsType(t, &index.HTTPIndex{}, container.Index)
}

func TestNewContainer_SelectsFileIndexWhenConfigured(t *testing.T) {
	setTestEnv(t)
	t.Setenv("RVN_INDEX_DIR", t.TempDir())

	container, err := NewContainer()
	require.NoError(t, err)

	assert.IsType(t, &index.FileIndex{}, container.Index)
}
