// Package config loads and validates the docuhash configuration file (HCL).
package config

import (
	"fmt"

	"github.com/hashicorp/go-multierror"
	"github.com/hashicorp/hcl/v2/hclsimple"

	"github.com/docuhash/docuhash/pkg/registry/store/s3store"
)

// Storage backends.
const (
	BackendFilesystem = "filesystem"
	BackendS3         = "s3"
	BackendMemory     = "memory"
)

// Config is the top-level configuration.
type Config struct {
	// LogLevel is the hclog level name (trace, debug, info, warn, error).
	LogLevel string `hcl:"log_level,optional"`

	Server  *ServerConfig  `hcl:"server,block"`
	Storage *StorageConfig `hcl:"storage,block"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	// Addr is the listen address (host:port).
	Addr string `hcl:"addr,optional"`
}

// StorageConfig selects and configures the record store backend.
type StorageConfig struct {
	// Backend is one of "filesystem", "s3", or "memory".
	Backend string `hcl:"backend"`

	// DataDir is the registry root directory (filesystem backend).
	DataDir string `hcl:"data_dir,optional"`

	// S3 configures the S3 backend.
	S3 *s3store.Config `hcl:"s3,block"`
}

// NewConfig parses the configuration file at path and applies defaults.
func NewConfig(path string) (*Config, error) {
	var cfg Config
	if err := hclsimple.DecodeFile(path, nil, &cfg); err != nil {
		return nil, fmt.Errorf("decoding config file %s: %w", path, err)
	}
	cfg.SetDefaults()
	return &cfg, nil
}

// Default returns a configuration suitable for running without a config
// file: filesystem storage under ./output, listening on localhost:8000.
func Default() *Config {
	cfg := &Config{}
	cfg.SetDefaults()
	return cfg
}

// SetDefaults fills unset fields with defaults.
func (c *Config) SetDefaults() {
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.Server == nil {
		c.Server = &ServerConfig{}
	}
	if c.Server.Addr == "" {
		c.Server.Addr = "127.0.0.1:8000"
	}
	if c.Storage == nil {
		c.Storage = &StorageConfig{}
	}
	if c.Storage.Backend == "" {
		c.Storage.Backend = BackendFilesystem
	}
	if c.Storage.Backend == BackendFilesystem && c.Storage.DataDir == "" {
		c.Storage.DataDir = "./output"
	}
}

// Validate checks the configuration, accumulating all problems so the
// operator sees everything wrong in one pass.
func (c *Config) Validate() error {
	var result *multierror.Error

	switch c.LogLevel {
	case "trace", "debug", "info", "warn", "error":
	default:
		result = multierror.Append(result,
			fmt.Errorf("log_level %q is not one of trace, debug, info, warn, error", c.LogLevel))
	}

	if c.Server == nil || c.Server.Addr == "" {
		result = multierror.Append(result, fmt.Errorf("server addr is required"))
	}

	if c.Storage == nil {
		result = multierror.Append(result, fmt.Errorf("storage block is required"))
		return result.ErrorOrNil()
	}

	switch c.Storage.Backend {
	case BackendFilesystem:
		if c.Storage.DataDir == "" {
			result = multierror.Append(result, fmt.Errorf("storage data_dir is required for the filesystem backend"))
		}
	case BackendS3:
		if c.Storage.S3 == nil {
			result = multierror.Append(result, fmt.Errorf("storage s3 block is required for the s3 backend"))
		} else if err := c.Storage.S3.Validate(); err != nil {
			result = multierror.Append(result, fmt.Errorf("storage s3: %w", err))
		}
	case BackendMemory:
		// Nothing to configure.
	default:
		result = multierror.Append(result,
			fmt.Errorf("storage backend %q is not one of %s, %s, %s",
				c.Storage.Backend, BackendFilesystem, BackendS3, BackendMemory))
	}

	return result.ErrorOrNil()
}
