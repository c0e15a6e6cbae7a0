package logger

import (
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/afero"
)

func resetContext(t *testing.T) afero.Fs {
	t.Helper()
	fs := afero.NewMemMapFs()
	globalContext = &CrashContext{fs: fs, basePath: "/data"}
	t.Cleanup(func() { globalContext = newCrashContext() })
	return fs
}

func TestCrashHandler_SetContext(t *testing.T) {
	resetContext(t)

	SetBasePath("/tmp/anticipate")
	SetVersion("1.0.0-test")
	SetCommand("run")
	SetSnapshot("snapshot.yaml")
	SetCycle("2026-03-02T09:00:00Z")

	log := createCrashLog("boom")
	if log.Version != "1.0.0-test" {
		t.Errorf("Version = %q", log.Version)
	}
	if log.Command != "run" {
		t.Errorf("Command = %q", log.Command)
	}
	if log.Snapshot != "snapshot.yaml" {
		t.Errorf("Snapshot = %q", log.Snapshot)
	}
	if log.Cycle != "2026-03-02T09:00:00Z" {
		t.Errorf("Cycle = %q", log.Cycle)
	}
	if log.PanicValue != "boom" {
		t.Errorf("PanicValue = %q", log.PanicValue)
	}
	if log.StackTrace == "" || log.GoVersion == "" {
		t.Error("expected stack trace and go version")
	}
}

func TestWriteCrashLog_RoundTrip(t *testing.T) {
	resetContext(t)

	in := createCrashLog("nil map write")
	path, err := WriteCrashLog(in)
	if err != nil {
		t.Fatalf("WriteCrashLog() error = %v", err)
	}
	if filepath.Dir(path) != filepath.Join("/data", CrashLogDir) {
		t.Errorf("path = %s", path)
	}

	out, err := ReadCrashLog(path)
	if err != nil {
		t.Fatalf("ReadCrashLog() error = %v", err)
	}
	if out.PanicValue != "nil map write" {
		t.Errorf("PanicValue = %q", out.PanicValue)
	}
}

func TestWriteCrashLog_PrunesOldest(t *testing.T) {
	resetContext(t)

	base := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	for i := 0; i < MaxCrashLogs+3; i++ {
		log := CrashLog{Timestamp: base.Add(time.Duration(i) * time.Second), PanicValue: "p"}
		if _, err := WriteCrashLog(log); err != nil {
			t.Fatalf("WriteCrashLog() error = %v", err)
		}
	}

	logs, err := ListCrashLogs()
	if err != nil {
		t.Fatalf("ListCrashLogs() error = %v", err)
	}
	if len(logs) != MaxCrashLogs {
		t.Fatalf("kept %d logs, want %d", len(logs), MaxCrashLogs)
	}
	if !strings.Contains(logs[0], "20260302_090003") {
		t.Errorf("oldest kept log = %s, want the fourth one written", logs[0])
	}
}

func TestListCrashLogs_MissingDir(t *testing.T) {
	resetContext(t)
	logs, err := ListCrashLogs()
	if err != nil {
		t.Fatalf("ListCrashLogs() error = %v", err)
	}
	if len(logs) != 0 {
		t.Errorf("logs = %v", logs)
	}
}
