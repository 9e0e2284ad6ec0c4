package logger

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n")) {
		if len(line) == 0 {
			continue
		}
		var m map[string]any
		require.NoError(t, json.Unmarshal(line, &m))
		out = append(out, m)
	}
	return out
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zerolog.DebugLevel, ParseLevel("DEBUG"))
	assert.Equal(t, zerolog.WarnLevel, ParseLevel("warning"))
	assert.Equal(t, zerolog.Disabled, ParseLevel("off"))
	assert.Equal(t, zerolog.InfoLevel, ParseLevel("bogus"))
}

func TestLoggerFields(t *testing.T) {
	var buf bytes.Buffer
	log := NewLogger(Config{Level: "debug", Output: &buf})

	log.StorageLogger("badger").GetZerolog().Info().Msg("opened")
	log.LogOperation("save", time.Millisecond, 3, nil)
	log.Component("collection").LogOperation("load", time.Millisecond, 0, errors.New("boom"))

	got := lines(t, &buf)
	require.Len(t, got, 3)
	assert.Equal(t, "ndstore", got[0]["service"])
	assert.Equal(t, "storage", got[0]["component"])
	assert.Equal(t, "badger", got[0]["backend"])
	assert.Equal(t, "debug", got[1]["level"])
	assert.Equal(t, float64(3), got[1]["record_count"])
	assert.Equal(t, "error", got[2]["level"])
	assert.Equal(t, "collection", got[2]["component"])
	assert.Equal(t, "boom", got[2]["error"])
}

func TestLevelFilters(t *testing.T) {
	var buf bytes.Buffer
	log := NewLogger(Config{Level: "warn", Output: &buf})
	log.LogOperation("save", time.Millisecond, 1, nil)
	log.LogServerStart(":9090", "memory")
	assert.Zero(t, buf.Len())

	log.WithFields(map[string]any{"id": "x"}).GetZerolog().Warn().Msg("careful")
	got := lines(t, &buf)
	require.Len(t, got, 1)
	assert.Equal(t, "x", got[0]["id"])
}

func TestNop(t *testing.T) {
	assert.Equal(t, zerolog.Disabled, Nop().GetZerolog().GetLevel())
}
