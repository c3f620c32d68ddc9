package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestResolvePrefersExplicit(t *testing.T) {
	v, err := Resolve("UNITS_PATH", "/explicit/path")
	require.NoError(t, err)
	require.Equal(t, "/explicit/path", v)
}

func TestResolveFallsBackToEnv(t *testing.T) {
	os.Setenv("HARP_UNITS_PATH", "/env/path")
	defer os.Unsetenv("HARP_UNITS_PATH")

	v, err := Resolve("UNITS_PATH", "")
	require.NoError(t, err)
	require.Equal(t, "/env/path", v)
}

func TestFixedClock(t *testing.T) {
	at := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	var c Clock = FixedClock{At: at}
	require.Equal(t, at, c.Now())
}

func TestLoadParsesYAML(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/config.yaml"
	require.NoError(t, os.WriteFile(path, []byte("units_path: /opt/units.xml\nschema_path: /opt/schema.json\n"), 0o644))

	f, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "/opt/units.xml", f.UnitsPath)
	require.Equal(t, "/opt/schema.json", f.SchemaPath)
}
