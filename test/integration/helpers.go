//go:build integration

package integration

import (
	"bytes"
	"encoding/json"
	"os"
	"os/exec"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"
)

// TestConfig holds configuration for integration tests.
type TestConfig struct {
	Base       string
	Playcode   string
	BinaryPath string
	Verbose    bool
}

// LoadTestConfig loads configuration from environment variables.
func LoadTestConfig() *TestConfig {
	playcode := os.Getenv("CARDCAST_TEST_PLAYCODE")
	if playcode == "" {
		playcode = "CAHBS"
	}

	return &TestConfig{
		Base:       os.Getenv("CARDCAST_TEST_BASE"),
		Playcode:   playcode,
		BinaryPath: getBinaryPath(),
		Verbose:    os.Getenv("CARDCAST_VERBOSE") == "true",
	}
}

// getBinaryPath determines the path to the cardcast binary.
func getBinaryPath() string {
	if path := os.Getenv("CARDCAST_BINARY_PATH"); path != "" {
		return path
	}

	for _, candidate := range []string{"../../cardcast", "./cardcast", "../cardcast"} {
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}

	return "cardcast"
}

// SkipIfMissingConfig skips the test unless an API base and a binary are available.
func (config *TestConfig) SkipIfMissingConfig(t *testing.T) {
	t.Helper()

	if config.Base == "" {
		t.Skip("CARDCAST_TEST_BASE not set, skipping integration test")
	}

	if _, err := exec.LookPath(config.BinaryPath); err != nil {
		t.Skipf("cardcast binary not found at %s, skipping integration test", config.BinaryPath)
	}
}

// CommandRunner runs cardcast commands against the configured API.
type CommandRunner struct {
	config *TestConfig
	t      *testing.T
}

// NewCommandRunner creates a new command runner.
func NewCommandRunner(config *TestConfig, t *testing.T) *CommandRunner {
	return &CommandRunner{config: config, t: t}
}

// Run executes a cardcast command with --base set and returns its output.
func (runner *CommandRunner) Run(args ...string) (string, string, error) {
	args = append([]string{"--base", runner.config.Base}, args...)

	cmd := exec.Command(runner.config.BinaryPath, args...) // #nosec G204 -- test binary path from the environment

	var stdoutBuf, stderrBuf bytes.Buffer

	cmd.Stdout = &stdoutBuf
	cmd.Stderr = &stderrBuf

	if runner.config.Verbose {
		runner.t.Logf("Running: %s %s", runner.config.BinaryPath, strings.Join(args, " "))
	}

	err := cmd.Run()
	stdout, stderr := stdoutBuf.String(), stderrBuf.String()

	if runner.config.Verbose && err != nil {
		runner.t.Logf("Command failed: %v\nStdout: %s\nStderr: %s", err, stdout, stderr)
	}

	return stdout, stderr, err
}

// AssertJSONOutput decodes output as JSON into v, failing the test otherwise.
func AssertJSONOutput(t *testing.T, output string, v interface{}) {
	t.Helper()

	err := json.Unmarshal([]byte(strings.TrimSpace(output)), v)
	if err != nil {
		t.Errorf("Output is not valid JSON (%v): %s", err, output)
	}
}

// AssertYAMLOutput verifies output decodes as YAML.
func AssertYAMLOutput(t *testing.T, output string) {
	t.Helper()

	var v interface{}

	err := yaml.Unmarshal([]byte(output), &v)
	if err != nil || v == nil {
		t.Errorf("Output is not valid YAML: %s", output)
	}
}
