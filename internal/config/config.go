// Package config resolves runtime configuration values and supplies the
// injected clock used for history-append timestamping, so tests can pin
// a fixed time instead of depending on wall-clock behavior.
//
// The on-disk form is an ordinary Go struct (File) read with
// gopkg.in/yaml.v3; values that have a deployment-time configuration
// surface follow an explicit -> environment -> fallback resolution
// order (Resolve).
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvPrefix is prepended to the key, exactly as given (no case change),
// when resolving a configuration key from the environment (HARP_<KEY>).
const EnvPrefix = "HARP_"

// Resolve returns the configuration value for key, trying in order: the
// explicit value if non-empty, the HARP_<KEY> environment variable, then
// the path of an executable-relative fallback file named "<key>.path" in
// the executable's directory. The fallback path is returned as is; the
// file is neither opened nor checked for existence. Used for the
// units-definition path and the ingestion-format schema path.
func Resolve(key, explicit string) (string, error) {
	if explicit != "" {
		return explicit, nil
	}
	if v := os.Getenv(EnvPrefix + key); v != "" {
		return v, nil
	}
	fallback, err := executableRelativeFallback(key)
	if err != nil {
		return "", fmt.Errorf("resolve config key %q: %w", key, err)
	}
	return fallback, nil
}

func executableRelativeFallback(key string) (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", err
	}
	dir := filepath.Dir(exe)
	return filepath.Join(dir, key+".path"), nil
}

// Clock supplies the current time. A package-level DefaultClock is used
// throughout the core; tests substitute FixedClock to make history
// timestamps deterministic.
type Clock interface {
	Now() time.Time
}

// SystemClock reports the wall-clock time via time.Now.
type SystemClock struct{}

// Now implements Clock.
func (SystemClock) Now() time.Time { return time.Now() }

// FixedClock always reports the same instant, for tests.
type FixedClock struct{ At time.Time }

// Now implements Clock.
func (c FixedClock) Now() time.Time { return c.At }

// DefaultClock is the clock injected into new products unless a caller
// overrides it (model.NewProduct accepts an optional Clock).
var DefaultClock Clock = SystemClock{}

// File is the on-disk YAML form of a harp configuration: the units
// table path and the ingestion-format schema path, both optional
// overrides of the explicit/env/fallback resolution above.
type File struct {
	UnitsPath  string `yaml:"units_path"`
	SchemaPath string `yaml:"schema_path"`
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %q: %w", path, err)
	}
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse config %q: %w", path, err)
	}
	return &f, nil
}
