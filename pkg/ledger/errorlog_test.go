package ledger

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorLog_AppendsTimestampedLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "errors.txt")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte("earlier line\n"), 0644))

	l := NewErrorLog(path)
	l.now = func() time.Time { return time.Date(2026, 5, 6, 7, 8, 9, 0, time.Local) }

	require.NoError(t, l.LogError("Attempt 1 for 'a.txt' failed: boom"))
	require.NoError(t, l.LogError("a.txt: boom"))

	lines := readLines(t, path)
	assert.Equal(t, []string{
		"earlier line",
		"[2026-05-06 07:08:09] Attempt 1 for 'a.txt' failed: boom",
		"[2026-05-06 07:08:09] a.txt: boom",
	}, lines)
}

func TestErrorLog_UnwritablePath(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(blocker, nil, 0644))

	l := NewErrorLog(filepath.Join(blocker, "errors.txt"))
	err := l.LogError("x")

	var writeErr *WriteError
	require.ErrorAs(t, err, &writeErr)
	assert.Equal(t, "open", writeErr.Operation)
}
