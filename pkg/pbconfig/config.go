// Package pbconfig is the viper-backed configuration loader shared by
// every node binary: a YAML file named by PIPEBUILDER_CONFIG_FILE,
// overridable by a small set of environment variables a deployment
// needs to set per-instance (node id, the address this instance
// advertises to peers).
package pbconfig

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"

	"github.com/pipebase/pipebuilder-sub000/pkg/apis"
	"github.com/pipebase/pipebuilder-sub000/pkg/pberrors"
)

const (
	envConfigFile     = "PIPEBUILDER_CONFIG_FILE"
	envNodeID         = "PIPEBUILDER_NODE_ID"
	envExternalAddr   = "PIPEBUILDER_EXTERNAL_ADDR"
	defaultListenPort = 8080
)

// Config is the union of settings every node role reads; a given
// binary only looks at the fields its role needs.
type Config struct {
	NodeID          string        `mapstructure:"node_id"`
	Role            apis.NodeRole `mapstructure:"role"`
	Arch            string        `mapstructure:"arch"`
	OS              string        `mapstructure:"os"`
	InternalAddress string        `mapstructure:"internal_address"`
	ExternalAddress string        `mapstructure:"external_address"`
	ListenPort      int           `mapstructure:"listen_port"`

	RegistryEndpoints []string      `mapstructure:"registry_endpoints"`
	LeaseTTL          time.Duration `mapstructure:"lease_ttl"`
	HeartbeatPeriod   time.Duration `mapstructure:"heartbeat_period"`

	ContentRoot string `mapstructure:"content_root"`
}

// Load reads the YAML file named by PIPEBUILDER_CONFIG_FILE (or
// configPathOverride, when non-empty, for tests and explicit
// `--config` flags) and applies the PIPEBUILDER_NODE_ID /
// PIPEBUILDER_EXTERNAL_ADDR environment overrides on top.
func Load(configPathOverride string) (*Config, error) {
	v := viper.New()
	v.SetDefault("listen_port", defaultListenPort)
	v.SetDefault("lease_ttl", "45s")
	v.SetDefault("heartbeat_period", "30s")

	path := configPathOverride
	if path == "" {
		path = os.Getenv(envConfigFile)
	}
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, pberrors.Wrap(pberrors.KindConfig, fmt.Sprintf("pbconfig: read %q", path), err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, pberrors.Wrap(pberrors.KindConfig, "pbconfig: decode", err)
	}

	if nodeID := os.Getenv(envNodeID); nodeID != "" {
		cfg.NodeID = nodeID
	}
	if addr := os.Getenv(envExternalAddr); addr != "" {
		cfg.ExternalAddress = addr
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the invariants every role requires regardless of
// which subset of Config it otherwise reads.
func (c *Config) Validate() error {
	if c.NodeID == "" {
		return pberrors.New(pberrors.KindConfig, "pbconfig: node_id is required")
	}
	if !c.Role.Valid() {
		return pberrors.New(pberrors.KindConfig, fmt.Sprintf("pbconfig: invalid role %q", c.Role))
	}
	if len(c.RegistryEndpoints) == 0 {
		return pberrors.New(pberrors.KindConfig, "pbconfig: registry_endpoints is required")
	}
	return nil
}
