package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"sync"
	"testing"
)

// lockedBuffer 讓背景 worker 與測試可以同時讀寫
type lockedBuffer struct {
	mu sync.Mutex
	b  bytes.Buffer
}

func (l *lockedBuffer) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.b.Write(p)
}

func (l *lockedBuffer) String() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.b.String()
}

func TestParseMode(t *testing.T) {
	for in, want := range map[string]LogMode{"dev": ModeDev, "PROD": ModeProd, " silence ": ModeSilence} {
		got, err := ParseMode(in)
		if err != nil || got != want {
			t.Fatalf("ParseMode(%q)=%v,%v", in, got, err)
		}
	}
	if _, err := ParseMode("loud"); err == nil {
		t.Fatalf("unknown mode must fail")
	}
	var m LogMode
	if err := m.UnmarshalText([]byte("prod")); err != nil || m != ModeProd || m.String() != "prod" {
		t.Fatalf("unmarshal: %v %v", m, err)
	}
}

func TestAsyncDrainsOnClose(t *testing.T) {
	buf := new(lockedBuffer)
	log, ah := NewAsyncTo(buf, 64, ModeProd)
	log = log.With(slog.String("component", "house"))
	for i := 0; i < 10; i++ {
		log.Info("spin settled", slog.Int("n", i))
	}
	log.Debug("filtered in prod")
	ah.Close()
	ah.Close()

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 10 {
		t.Fatalf("got %d lines want 10:\n%s", len(lines), buf.String())
	}
	var rec map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &rec); err != nil {
		t.Fatalf("prod must log json: %v", err)
	}
	if rec["svc"] != "tablelab" || rec["component"] != "house" {
		t.Fatalf("missing attrs: %v", rec)
	}

	log.Info("after close")
	if ah.Dropped() != 1 {
		t.Fatalf("dropped=%d want 1", ah.Dropped())
	}
}

func TestSilence(t *testing.T) {
	log, ah := NewAsync(4, ModeSilence)
	defer ah.Close()
	if log.Enabled(t.Context(), slog.LevelError) {
		t.Fatalf("silence must discard everything")
	}
}
