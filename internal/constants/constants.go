package constants

import "time"

// File and directory permissions.
const (
	// ConfigDirPerm is the permission for configuration directories.
	ConfigDirPerm = 0750

	// ConfigFilePerm is the permission for configuration files.
	ConfigFilePerm = 0600
)

// HTTP and network timeouts.
const (
	// DefaultHTTPTimeout is the default timeout for HTTP requests.
	DefaultHTTPTimeout = 30 * time.Second
)

// Retry waits. Retries are disabled unless a caller opts in.
const (
	// DefaultRetryWaitMin is the minimum wait time between retries.
	DefaultRetryWaitMin = 1 * time.Second

	// DefaultRetryWaitMax is the maximum wait time between retries.
	DefaultRetryWaitMax = 10 * time.Second
)

// Response handling.
const (
	// MaxErrorBodySize caps how much of a failed response body is kept on the error.
	MaxErrorBodySize = 64 * 1024
)

// Query value sentinels used for booleans.
const (
	// DefaultTrueValue replaces a boolean true in the query string.
	DefaultTrueValue = 1

	// DefaultFalseValue replaces a boolean false in the query string.
	DefaultFalseValue = 0
)

// Output formats.
const (
	// FormatTable renders tables with tablewriter.
	FormatTable = "table"

	// FormatJSON renders indented JSON.
	FormatJSON = "json"

	// FormatYAML renders YAML.
	FormatYAML = "yaml"
)

// CLI defaults.
const (
	// ConfigDirName is the directory under $HOME holding the CLI config.
	ConfigDirName = ".cardcast"

	// EnvPrefix is the prefix for environment overrides of CLI settings.
	EnvPrefix = "CARDCAST"
)
