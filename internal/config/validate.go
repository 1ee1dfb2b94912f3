package config

import (
	"fmt"
	"net/url"

	"github.com/hashicorp/go-multierror"
	"github.com/samber/lo"
)

var (
	validOutputs   = []string{"table", "json", "csv", "markdown"}
	validLogLevels = []string{"debug", "info", "warn", "error"}
)

// Validate reports every problem at once.
func (c *Config) Validate() error {
	var result *multierror.Error

	if u, err := url.Parse(c.Endpoint); err != nil {
		result = multierror.Append(result, fmt.Errorf("endpoint %q is not a valid URL: %w", c.Endpoint, err))
	} else if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		result = multierror.Append(result, fmt.Errorf("endpoint %q must be an absolute http(s) URL", c.Endpoint))
	}
	if c.Timeout <= 0 {
		result = multierror.Append(result, fmt.Errorf("timeout must be positive, got %s", c.Timeout))
	}
	if !lo.Contains(validOutputs, c.Output) {
		result = multierror.Append(result, fmt.Errorf("output %q is not one of %v", c.Output, validOutputs))
	}
	if !lo.Contains(validLogLevels, c.LogLevel) {
		result = multierror.Append(result, fmt.Errorf("log_level %q is not one of %v", c.LogLevel, validLogLevels))
	}
	if c.ExportDir == "" {
		result = multierror.Append(result, fmt.Errorf("export_dir is required"))
	}

	return result.ErrorOrNil()
}
