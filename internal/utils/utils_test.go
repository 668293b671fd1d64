package utils

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeQuery(t *testing.T) {
	assert.Equal(t, "the office", NormalizeQuery("  the   office \t"))
	assert.Equal(t, "", NormalizeQuery("   "))
}

func TestQueryLength_CountsRunes(t *testing.T) {
	assert.Equal(t, 2, QueryLength("  ab  "))
	assert.Equal(t, 3, QueryLength("Léa"))
	assert.Equal(t, 0, QueryLength(""))
}

func TestLogger_WritesJSONLines(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(false, &buf)

	logger.Info("search finished", 5)
	logger.Debug("hidden at info level")
	require.NoError(t, logger.Sync())

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry))
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "search finished 5", entry["msg"])
}

func TestLogger_WithAddsFields(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(false, &buf).With("session", "abc")

	logger.Error("boom")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry))
	assert.Equal(t, "abc", entry["session"])
	assert.Equal(t, "error", entry["level"])
}
