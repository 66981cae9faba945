package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime/debug"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/pkgerrors"

	"mcphost/common"
)

// asyncWriter wraps an io.Writer and performs writes in a background
// goroutine so a slow terminal, or a tool server subprocess whose stdout
// pipe has backed up, never stalls a request correlator or stream decoder
// that logs on its hot path.
type asyncWriter struct {
	ch     chan []byte
	writer io.Writer
}

func newAsyncWriter(w io.Writer, bufSize int) *asyncWriter {
	aw := &asyncWriter{
		ch:     make(chan []byte, bufSize),
		writer: w,
	}
	go aw.drain()
	return aw
}

func (aw *asyncWriter) drain() {
	for p := range aw.ch {
		aw.writer.Write(p) //nolint:errcheck
	}
}

func (aw *asyncWriter) Write(p []byte) (int, error) {
	buf := make([]byte, len(p))
	copy(buf, p)
	select {
	case aw.ch <- buf:
	default:
		// drop the log entry if the buffer is full rather than blocking
	}
	return len(p), nil
}

var once sync.Once

var log zerolog.Logger

func GetLogLevel() zerolog.Level {
	logLevel, err := strconv.Atoi(os.Getenv("MCPHOST_LOG_LEVEL"))
	if err != nil {
		logLevel = int(zerolog.InfoLevel) // default to INFO
	}

	return zerolog.Level(logLevel)
}

// Get returns the process-wide logger, building it on first call. Unlike a
// long-running server, a mcphost invocation is one short-lived run against
// a fixed set of tool servers, so output is a single per-run log file
// (sessionLogWriter) rather than a file rotated by calendar day.
func Get() zerolog.Logger {
	once.Do(func() {
		zerolog.ErrorStackMarshaler = pkgerrors.MarshalStack
		zerolog.TimeFieldFormat = time.RFC3339Nano

		consoleWriter := zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: time.RFC3339,
		}

		var syncOutput io.Writer = consoleWriter

		logDir, err := common.GetLogDir()
		if err == nil {
			fileWriter, err := newSessionLogWriter(logDir)
			if err == nil {
				syncOutput = zerolog.MultiLevelWriter(consoleWriter, fileWriter)
			}
		}

		output := newAsyncWriter(syncOutput, 1024)

		var gitRevision string
		buildInfo, ok := debug.ReadBuildInfo()
		if ok {
			for _, v := range buildInfo.Settings {
				if v.Key == "vcs.revision" {
					gitRevision = v.Value
					break
				}
			}
		}

		log = zerolog.New(output).
			Level(zerolog.Level(GetLogLevel())).
			With().
			Timestamp().
			Str("git_revision", gitRevision).
			Str("go_version", buildInfo.GoVersion).
			Logger()
	})

	return log
}

// Named returns a child logger tagged with the emitting subsystem
// ("supervisor", "engine", "llmclient", ...), so a run's log file can be
// filtered by component when several tool servers and a streaming provider
// are all logging concurrently.
func Named(base zerolog.Logger, component string) zerolog.Logger {
	return base.With().Str("component", component).Logger()
}

const (
	logFilePrefix   = "mcphost-"
	logFileSuffix   = ".log"
	maxLogFileCount = 7
)

// sessionLogWriter opens a single log file for the lifetime of one mcphost
// run, named by start time and a short run id so concurrent invocations
// never contend for the same file. Retention is by run count, not by
// calendar day: cleanupOldSessionLogs prunes down to maxLogFileCount files
// once the new one is created.
type sessionLogWriter struct {
	mu   sync.Mutex
	file *os.File
}

func newSessionLogWriter(stateHome string) (*sessionLogWriter, error) {
	runID := uuid.New().String()[:8]
	logFileName := fmt.Sprintf("%s%s-%s%s", logFilePrefix, time.Now().Format("20060102T150405"), runID, logFileSuffix)

	file, err := os.OpenFile(
		filepath.Join(stateHome, logFileName),
		os.O_APPEND|os.O_CREATE|os.O_WRONLY,
		0644,
	)
	if err != nil {
		return nil, err
	}

	cleanupOldSessionLogs(stateHome)

	return &sessionLogWriter{file: file}, nil
}

func (w *sessionLogWriter) Write(p []byte) (n int, err error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.file.Write(p)
}

func (w *sessionLogWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.file.Close()
}

var _ io.WriteCloser = (*sessionLogWriter)(nil)

func cleanupOldSessionLogs(stateHome string) {
	entries, err := os.ReadDir(stateHome)
	if err != nil {
		return
	}

	var logFiles []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasPrefix(name, logFilePrefix) && strings.HasSuffix(name, logFileSuffix) {
			logFiles = append(logFiles, name)
		}
	}

	if len(logFiles) <= maxLogFileCount {
		return
	}

	// the timestamp prefix sorts lexicographically in chronological order
	sort.Strings(logFiles)

	for i := 0; i < len(logFiles)-maxLogFileCount; i++ {
		os.Remove(filepath.Join(stateHome, logFiles[i]))
	}
}
