package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSessionLogWriter(t *testing.T) {
	t.Parallel()
	tempDir := t.TempDir()

	writer, err := newSessionLogWriter(tempDir)
	require.NoError(t, err)
	require.NotNil(t, writer)
	defer writer.Close()

	entries, err := os.ReadDir(tempDir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.True(t, hasLogFileShape(entries[0].Name(), logFilePrefix, logFileSuffix))
}

func TestNewSessionLogWriter_InvalidPath(t *testing.T) {
	t.Parallel()
	writer, err := newSessionLogWriter("/nonexistent/path/that/should/not/exist")
	assert.Error(t, err)
	assert.Nil(t, writer)
}

func TestSessionLogWriter_Write(t *testing.T) {
	t.Parallel()
	tempDir := t.TempDir()

	writer, err := newSessionLogWriter(tempDir)
	require.NoError(t, err)
	defer writer.Close()

	testData := []byte("test log message\n")
	n, err := writer.Write(testData)
	assert.NoError(t, err)
	assert.Equal(t, len(testData), n)

	entries, err := os.ReadDir(tempDir)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	content, err := os.ReadFile(filepath.Join(tempDir, entries[0].Name()))
	assert.NoError(t, err)
	assert.Equal(t, testData, content)
}

func TestSessionLogWriter_Close(t *testing.T) {
	t.Parallel()
	tempDir := t.TempDir()

	writer, err := newSessionLogWriter(tempDir)
	require.NoError(t, err)

	err = writer.Close()
	assert.NoError(t, err)

	// Closing again should error, since the file is already closed.
	err = writer.Close()
	assert.Error(t, err)
}

// Each run gets its own file, so two runs against the same state directory
// must not collide or overwrite one another.
func TestNewSessionLogWriter_DistinctRunsGetDistinctFiles(t *testing.T) {
	t.Parallel()
	tempDir := t.TempDir()

	w1, err := newSessionLogWriter(tempDir)
	require.NoError(t, err)
	defer w1.Close()

	w2, err := newSessionLogWriter(tempDir)
	require.NoError(t, err)
	defer w2.Close()

	entries, err := os.ReadDir(tempDir)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestCleanupOldSessionLogs(t *testing.T) {
	t.Parallel()
	tempDir := t.TempDir()

	for i := 0; i < 10; i++ {
		fileName := logFilePrefix + runFileSuffixForTest(i) + logFileSuffix
		err := os.WriteFile(filepath.Join(tempDir, fileName), []byte("test"), 0644)
		require.NoError(t, err)
	}

	cleanupOldSessionLogs(tempDir)

	entries, err := os.ReadDir(tempDir)
	require.NoError(t, err)
	assert.Equal(t, maxLogFileCount, len(entries))
}

func TestCleanupOldSessionLogs_BelowThreshold(t *testing.T) {
	t.Parallel()
	tempDir := t.TempDir()

	for i := 0; i < 3; i++ {
		fileName := logFilePrefix + runFileSuffixForTest(i) + logFileSuffix
		err := os.WriteFile(filepath.Join(tempDir, fileName), []byte("test"), 0644)
		require.NoError(t, err)
	}

	cleanupOldSessionLogs(tempDir)

	entries, err := os.ReadDir(tempDir)
	require.NoError(t, err)
	assert.Equal(t, 3, len(entries))
}

func TestCleanupOldSessionLogs_IgnoresOtherFiles(t *testing.T) {
	t.Parallel()
	tempDir := t.TempDir()

	for i := 0; i < 10; i++ {
		fileName := logFilePrefix + runFileSuffixForTest(i) + logFileSuffix
		err := os.WriteFile(filepath.Join(tempDir, fileName), []byte("test"), 0644)
		require.NoError(t, err)
	}

	otherFiles := []string{"other.txt", "random.log", "mcphost-notes.md"}
	for _, f := range otherFiles {
		err := os.WriteFile(filepath.Join(tempDir, f), []byte("test"), 0644)
		require.NoError(t, err)
	}

	cleanupOldSessionLogs(tempDir)

	for _, f := range otherFiles {
		_, err := os.Stat(filepath.Join(tempDir, f))
		assert.NoError(t, err, "file %s should still exist", f)
	}

	var logFileCount int
	entries, err := os.ReadDir(tempDir)
	require.NoError(t, err)
	for _, entry := range entries {
		name := entry.Name()
		if hasLogFileShape(name, logFilePrefix, logFileSuffix) {
			logFileCount++
		}
	}
	assert.Equal(t, maxLogFileCount, logFileCount)
}

func TestNamed(t *testing.T) {
	base := Get()
	named := Named(base, "supervisor")
	assert.NotEqual(t, base, named)
}

func runFileSuffixForTest(i int) string {
	// zero-padded so lexicographic sort matches creation order, mirroring
	// the timestamp prefix's own sortability in production file names.
	return "20260101T00000" + string(rune('0'+i))
}

func hasLogFileShape(s, prefix, suffix string) bool {
	return len(s) >= len(prefix)+len(suffix) &&
		s[:len(prefix)] == prefix &&
		s[len(s)-len(suffix):] == suffix
}
