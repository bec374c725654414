package logger

import (
	"bytes"
	"os"
	"sync"
	"testing"
)

// capture routes output to a buffer for the duration of the test.
func capture(t *testing.T, verbose bool) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	SetOutput(&buf)
	SetVerbose(verbose)
	t.Cleanup(func() {
		SetVerbose(false)
		SetOutput(os.Stderr)
	})
	return &buf
}

func TestSetVerbose(t *testing.T) {
	capture(t, false)

	if IsVerbose() {
		t.Fatal("expected verbose to be off")
	}
	SetVerbose(true)
	if !IsVerbose() {
		t.Fatal("expected verbose to be on")
	}
}

func TestLevels(t *testing.T) {
	tests := []struct {
		name string
		log  func()
		want string
	}{
		{"debug", func() { Debug("retrieved %d chunks from %s", 3, "manual.pdf") }, "[DEBUG] retrieved 3 chunks from manual.pdf\n"},
		{"info", func() { Info("restored %d documents", 2) }, "[INFO] restored 2 documents\n"},
		{"warn", func() { Warn("snapshot save for %s failed: %v", "manualA", "disk full") }, "[WARN] snapshot save for manualA failed: disk full\n"},
		{"section", func() { Section("Retrieval") }, "\n=== Retrieval ===\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := capture(t, true)
			tt.log()
			if got := buf.String(); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})

		t.Run(tt.name+" silent", func(t *testing.T) {
			buf := capture(t, false)
			tt.log()
			if buf.Len() > 0 {
				t.Errorf("expected no output, got %q", buf.String())
			}
		})
	}
}

func TestConcurrentAccess(t *testing.T) {
	buf := capture(t, true)

	var wg sync.WaitGroup
	for i := range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			Debug("ingest worker %d", i)
			IsVerbose()
		}()
	}
	wg.Wait()

	if got := bytes.Count(buf.Bytes(), []byte("\n")); got != 10 {
		t.Errorf("expected 10 lines, got %d", got)
	}
}
