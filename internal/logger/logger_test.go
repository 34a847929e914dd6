package logger

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func TestSetupWritesJSONFile(t *testing.T) {
	dir := t.TempDir()

	cleanup, err := Setup(Config{Dir: dir})
	if err != nil {
		t.Fatalf("setup failed: %v", err)
	}

	if err := IsReady(); err != nil {
		t.Fatalf("logger not ready: %v", err)
	}
	want := filepath.Join(dir, "logs", "orbitsim.log")
	if Path() != want {
		t.Errorf("Path = %q, want %q", Path(), want)
	}

	L().Info("sim.completed", "steps", 365)

	if err := cleanup(); err != nil {
		t.Fatalf("cleanup failed: %v", err)
	}
	if IsReady() == nil {
		t.Error("logger should not be ready after cleanup")
	}

	data, err := os.ReadFile(want)
	if err != nil {
		t.Fatal(err)
	}
	var rec map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(data), &rec); err != nil {
		t.Fatalf("log line is not JSON: %v (%s)", err, data)
	}
	if rec["msg"] != "sim.completed" || rec["steps"] != float64(365) {
		t.Errorf("unexpected record %v", rec)
	}
}

func TestSetupWithWriterHonoursLevel(t *testing.T) {
	var buf bytes.Buffer

	cleanup, err := Setup(Config{Writer: &buf})
	if err != nil {
		t.Fatal(err)
	}
	defer cleanup()

	L().Debug("hidden")
	if buf.Len() != 0 {
		t.Errorf("debug record written at info level: %s", buf.String())
	}

	L().Warn("shown")
	if !bytes.Contains(buf.Bytes(), []byte(`"msg":"shown"`)) {
		t.Errorf("warn record missing: %s", buf.String())
	}
}
