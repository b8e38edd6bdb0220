package s3store

import (
	"fmt"
)

// Config contains configuration for the S3 record store.
type Config struct {
	// Endpoint is an optional S3-compatible endpoint URL (e.g., a MinIO
	// instance). Leave empty for AWS S3.
	Endpoint string `hcl:"endpoint,optional"`

	// Region is the AWS region (e.g., "eu-west-1").
	Region string `hcl:"region"`

	// Bucket is the S3 bucket holding record units.
	Bucket string `hcl:"bucket"`

	// Prefix is an optional key prefix under which all units live
	// (e.g., "registry/").
	Prefix string `hcl:"prefix,optional"`

	// AccessKey and SecretKey are static credentials. When empty, the
	// default AWS credential chain is used.
	AccessKey string `hcl:"access_key,optional"`
	SecretKey string `hcl:"secret_key,optional"`

	// RetryMaxAttempts bounds retries of transient S3 failures (default 3).
	RetryMaxAttempts int `hcl:"retry_max_attempts,optional"`

	// RequestTimeoutSeconds is the per-request timeout (default 30).
	RequestTimeoutSeconds int `hcl:"request_timeout_seconds,optional"`
}

// Validate validates the S3 store configuration.
func (c *Config) Validate() error {
	if c.Region == "" {
		return fmt.Errorf("region is required")
	}
	if c.Bucket == "" {
		return fmt.Errorf("bucket is required")
	}
	return nil
}

// SetDefaults fills optional fields with defaults.
func (c *Config) SetDefaults() {
	if c.RetryMaxAttempts == 0 {
		c.RetryMaxAttempts = 3
	}
	if c.RequestTimeoutSeconds == 0 {
		c.RequestTimeoutSeconds = 30
	}
}
