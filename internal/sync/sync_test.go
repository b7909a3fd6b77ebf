package sync

import (
	"context"
	"log/slog"
	"sync"
	"testing"
)

// captureDestination records every payload written to it.
type captureDestination struct {
	mu       sync.Mutex
	payloads [][]byte
}

func (d *captureDestination) Write(_ context.Context, data []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	cp := append([]byte(nil), data...)
	d.payloads = append(d.payloads, cp)
	return nil
}

func (d *captureDestination) count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.payloads)
}

func (d *captureDestination) last() []byte {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.payloads) == 0 {
		return nil
	}
	return d.payloads[len(d.payloads)-1]
}

// testLogger routes slog output through the test log.
func testLogger(t *testing.T) *slog.Logger {
	t.Helper()
	return slog.New(slog.NewTextHandler(logWriter{t}, nil))
}

type logWriter struct{ t *testing.T }

func (w logWriter) Write(p []byte) (int, error) {
	w.t.Log(string(p))
	return len(p), nil
}
