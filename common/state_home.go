package common

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
)

// GetStateHome returns the directory root for storing host state, creating
// it if necessary per the XDG spec. Can be overridden by setting the
// MCPHOST_STATE_HOME environment variable.
func GetStateHome() (string, error) {
	stateDir := os.Getenv("MCPHOST_STATE_HOME")
	if stateDir == "" {
		stateDir = filepath.Join(xdg.StateHome, "mcphost")
	}
	if err := os.MkdirAll(stateDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create state directory %s: %w", stateDir, err)
	}
	return stateDir, nil
}

// GetLogDir returns the subdirectory of the state home used for per-run log
// files, creating it on first use. Logs are kept apart from any other state
// the host accumulates (e.g. a future tool-result cache) so that
// logger.cleanupOldSessionLogs's directory listing never has to filter out
// unrelated files.
func GetLogDir() (string, error) {
	stateHome, err := GetStateHome()
	if err != nil {
		return "", err
	}
	logDir := filepath.Join(stateHome, "logs")
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create log directory %s: %w", logDir, err)
	}
	return logDir, nil
}
