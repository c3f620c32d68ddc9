package harplog

import (
	"bytes"
	"strings"
	"testing"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/stretchr/testify/require"
)

func TestNewFiltersBelowConfiguredLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := New(log.NewLogfmtLogger(&buf), "warn")

	require.NoError(t, level.Info(logger).Log("msg", "should be dropped"))
	require.NoError(t, level.Error(logger).Log("msg", "should appear"))

	out := buf.String()
	require.NotContains(t, out, "should be dropped")
	require.Contains(t, out, "should appear")
}

func TestWithComponentTagsEveryLine(t *testing.T) {
	var buf bytes.Buffer
	logger := WithComponent(log.NewLogfmtLogger(&buf), "ingest")
	require.NoError(t, logger.Log("msg", "hello"))
	require.True(t, strings.Contains(buf.String(), "component=ingest"))
}

func TestDiscardNeverPanics(t *testing.T) {
	require.NoError(t, Discard.Log("msg", "dropped"))
}
