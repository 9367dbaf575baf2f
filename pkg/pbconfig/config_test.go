package pbconfig

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleConfig = `
node_id: builder-1
role: Builder
arch: x86_64
os: linux
internal_address: 10.0.0.1:8080
external_address: builder-1.internal:8080
registry_endpoints:
  - http://etcd:2379
content_root: /var/lib/pipebuilder
`

func TestLoad_FileAndEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleConfig), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "builder-1", cfg.NodeID)
	assert.Equal(t, "builder-1.internal:8080", cfg.ExternalAddress)
	assert.Equal(t, defaultListenPort, cfg.ListenPort)

	t.Setenv(envNodeID, "builder-override")
	t.Setenv(envExternalAddr, "override:9999")
	cfg, err = Load(path)
	require.NoError(t, err)
	assert.Equal(t, "builder-override", cfg.NodeID)
	assert.Equal(t, "override:9999", cfg.ExternalAddress)
}

func TestLoad_MissingNodeIDFailsValidation(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("role: Builder\nregistry_endpoints: [http://etcd:2379]\n"), 0o644))

	_, err := Load(path)
	require.Error(t, err)
}
