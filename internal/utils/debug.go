package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

var (
	debugFile *os.File
	debugOnce sync.Once
	logsDir   atomic.Value // string
	verbose   atomic.Bool
)

// ConfigureDebug sets the directory debug logs are written to.
func ConfigureDebug(dir string) {
	logsDir.Store(dir)
}

// SetVerbose toggles debug logging.
func SetVerbose(enabled bool) {
	verbose.Store(enabled)
}

// IsVerbose reports whether debug logging is enabled.
func IsVerbose() bool {
	return verbose.Load()
}

// Debug appends a timestamped line to the current debug log file. It is a
// no-op unless verbose mode is on and a logs directory was configured.
func Debug(format string, args ...any) {
	if !verbose.Load() {
		return
	}
	val := logsDir.Load()
	if val == nil {
		return
	}
	dir := val.(string)
	if dir == "" {
		return
	}

	debugOnce.Do(func() {
		_ = os.MkdirAll(dir, 0o755)
		name := fmt.Sprintf("debug-%s.log", time.Now().Format("20060102-150405"))
		debugFile, _ = os.Create(filepath.Join(dir, name))
	})
	if debugFile == nil {
		return
	}
	timestamp := time.Now().Format("2006-01-02 15:04:05")
	_, _ = fmt.Fprintf(debugFile, "[%s] %s\n", timestamp, fmt.Sprintf(format, args...))
}

// CleanupLogs removes old debug logs, keeping the retentionCount most recent.
// Negative retention keeps everything.
func CleanupLogs(retentionCount int) {
	if retentionCount < 0 {
		return
	}
	val := logsDir.Load()
	if val == nil {
		return
	}
	dir := val.(string)
	if dir == "" {
		return
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return
	}
	var logs []string
	for _, entry := range entries {
		name := entry.Name()
		if !entry.IsDir() && strings.HasPrefix(name, "debug-") && strings.HasSuffix(name, ".log") {
			logs = append(logs, name)
		}
	}
	// Filenames embed the creation timestamp, so reverse-alphabetical order
	// is newest first.
	sort.Sort(sort.Reverse(sort.StringSlice(logs)))
	if len(logs) <= retentionCount {
		return
	}
	for _, name := range logs[retentionCount:] {
		_ = os.Remove(filepath.Join(dir, name))
	}
}
