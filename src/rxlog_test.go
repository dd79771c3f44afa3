package bachmodem

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRxLogWritesCSV(t *testing.T) {
	var path = filepath.Join(t.TempDir(), "rx.log")

	var l, err = OpenRxLog(path, "")
	require.NoError(t, err)

	l.Write(DecodeResult{
		Bytes:             []byte("CQ CQ"),
		PreamblePositions: []int{12345},
		SNRdB:             []float64{7.5},
	})
	l.Close()

	var data, readErr = os.ReadFile(path)
	require.NoError(t, readErr)

	var text = string(data)
	assert.Contains(t, text, "time,bytes,sync_failed", "header row")
	assert.Contains(t, text, "CQ CQ")
	assert.Contains(t, text, "7.5")
}

func TestRxLogDailyNames(t *testing.T) {
	var dir = t.TempDir()

	var l, err = OpenRxLog(dir, "")
	require.NoError(t, err)

	l.Write(DecodeResult{Bytes: []byte("x")})
	l.Close()

	var entries, dirErr = os.ReadDir(dir)
	require.NoError(t, dirErr)
	require.Len(t, entries, 1)
	assert.True(t, strings.HasSuffix(entries[0].Name(), ".log"))
}

func TestRxLogDisabled(t *testing.T) {
	var l, err = OpenRxLog("", "")
	require.NoError(t, err)

	// Writes and close are no-ops, never a crash.
	l.Write(DecodeResult{Bytes: []byte("ignored")})
	l.Close()
}
