package logger

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"runtime/debug"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/spf13/afero"
)

const (
	// CrashLogDir is the crash log directory inside the data directory.
	CrashLogDir = "crash_logs"

	// MaxCrashLogs is the maximum number of crash logs to keep.
	MaxCrashLogs = 10
)

// CrashContext stores what was going on when a crash happened.
type CrashContext struct {
	mu       sync.RWMutex
	fs       afero.Fs
	basePath string
	version  string
	command  string
	snapshot string
	cycleID  string
}

var globalContext = newCrashContext()

func newCrashContext() *CrashContext {
	return &CrashContext{fs: afero.NewOsFs()}
}

// SetBasePath sets the data directory crash logs are written under.
func SetBasePath(path string) {
	globalContext.mu.Lock()
	defer globalContext.mu.Unlock()
	globalContext.basePath = path
}

// SetVersion sets the application version for crash logs.
func SetVersion(version string) {
	globalContext.mu.Lock()
	defer globalContext.mu.Unlock()
	globalContext.version = version
}

// SetCommand sets the command being executed.
func SetCommand(cmd string) {
	globalContext.mu.Lock()
	defer globalContext.mu.Unlock()
	globalContext.command = cmd
}

// SetSnapshot records the snapshot source the current cycle reads.
func SetSnapshot(source string) {
	globalContext.mu.Lock()
	defer globalContext.mu.Unlock()
	globalContext.snapshot = source
}

// SetCycle records the timestamp of the cycle in progress.
func SetCycle(id string) {
	globalContext.mu.Lock()
	defer globalContext.mu.Unlock()
	globalContext.cycleID = id
}

// CrashLog is one crash log entry, written as JSON.
type CrashLog struct {
	Timestamp  time.Time `json:"timestamp"`
	Version    string    `json:"version"`
	Command    string    `json:"command"`
	Snapshot   string    `json:"snapshot,omitempty"`
	Cycle      string    `json:"cycle,omitempty"`
	PanicValue string    `json:"panic_value"`
	StackTrace string    `json:"stack_trace"`
	GoVersion  string    `json:"go_version"`
	OS         string    `json:"os"`
	Arch       string    `json:"arch"`
}

// HandlePanic recovers a panic, writes a crash log and exits with status 1.
// Usage: defer logger.HandlePanic()
func HandlePanic() {
	r := recover()
	if r == nil {
		return
	}

	path, err := WriteCrashLog(createCrashLog(r))
	if err != nil {
		fmt.Fprintf(os.Stderr, "\n[CRASH] Failed to write crash log: %v\n", err)
		fmt.Fprintf(os.Stderr, "[CRASH] Panic: %v\n%s\n", r, debug.Stack())
		os.Exit(1)
	}

	fmt.Fprintf(os.Stderr, "\nanticipate crashed unexpectedly.\n")
	fmt.Fprintf(os.Stderr, "A crash log has been saved to:\n  %s\n\n", path)
	os.Exit(1)
}

func createCrashLog(panicValue any) CrashLog {
	globalContext.mu.RLock()
	defer globalContext.mu.RUnlock()

	return CrashLog{
		Timestamp:  time.Now(),
		Version:    globalContext.version,
		Command:    globalContext.command,
		Snapshot:   globalContext.snapshot,
		Cycle:      globalContext.cycleID,
		PanicValue: fmt.Sprintf("%v", panicValue),
		StackTrace: string(debug.Stack()),
		GoVersion:  runtime.Version(),
		OS:         runtime.GOOS,
		Arch:       runtime.GOARCH,
	}
}

// WriteCrashLog stores log, prunes old logs, and returns the file path.
func WriteCrashLog(log CrashLog) (string, error) {
	fs, dir := crashLogDir()

	if err := fs.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create crash log dir: %w", err)
	}

	body, err := json.MarshalIndent(log, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode crash log: %w", err)
	}
	path := filepath.Join(dir, crashLogName(log.Timestamp))
	if err := afero.WriteFile(fs, path, body, 0644); err != nil {
		return "", fmt.Errorf("write crash log: %w", err)
	}

	if err := cleanOldCrashLogs(fs, dir); err != nil {
		fmt.Fprintf(os.Stderr, "[WARN] Failed to clean old crash logs: %v\n", err)
	}
	return path, nil
}

func crashLogDir() (afero.Fs, string) {
	globalContext.mu.RLock()
	defer globalContext.mu.RUnlock()

	base := globalContext.basePath
	if base == "" {
		base = ".anticipate"
	}
	return globalContext.fs, filepath.Join(base, CrashLogDir)
}

func crashLogName(t time.Time) string {
	return fmt.Sprintf("crash_%s.json", t.UTC().Format("20060102_150405.000000000"))
}

func isCrashLog(name string) bool {
	return strings.HasPrefix(name, "crash_") && strings.HasSuffix(name, ".json")
}

// cleanOldCrashLogs keeps the MaxCrashLogs newest logs. Names sort by time.
func cleanOldCrashLogs(fs afero.Fs, dir string) error {
	names, err := crashLogNames(fs, dir)
	if err != nil || len(names) <= MaxCrashLogs {
		return err
	}

	for _, name := range names[:len(names)-MaxCrashLogs] {
		if err := fs.Remove(filepath.Join(dir, name)); err != nil {
			return fmt.Errorf("remove old crash log %s: %w", name, err)
		}
	}
	return nil
}

func crashLogNames(fs afero.Fs, dir string) ([]string, error) {
	entries, err := afero.ReadDir(fs, dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var names []string
	for _, e := range entries {
		if !e.IsDir() && isCrashLog(e.Name()) {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

// ListCrashLogs returns crash log paths, oldest first.
func ListCrashLogs() ([]string, error) {
	fs, dir := crashLogDir()
	names, err := crashLogNames(fs, dir)
	if err != nil {
		return nil, err
	}
	paths := make([]string, len(names))
	for i, n := range names {
		paths[i] = filepath.Join(dir, n)
	}
	return paths, nil
}

// ReadCrashLog decodes a crash log file.
func ReadCrashLog(path string) (CrashLog, error) {
	globalContext.mu.RLock()
	fs := globalContext.fs
	globalContext.mu.RUnlock()

	var log CrashLog
	body, err := afero.ReadFile(fs, path)
	if err != nil {
		return log, err
	}
	if err := json.Unmarshal(body, &log); err != nil {
		return log, fmt.Errorf("decode crash log: %w", err)
	}
	return log, nil
}
