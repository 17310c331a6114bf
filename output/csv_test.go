package output

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pthm-cable/soup/action"
)

func TestNewManagerForNilDirIsHarmless(t *testing.T) {
	m, err := NewManagerFor("")
	if err != nil {
		t.Fatalf("NewManagerFor(\"\"): %v", err)
	}
	if err := m.WriteTick(TickStats{Tick: 0}); err != nil {
		t.Errorf("WriteTick() on a no-op manager should not error, got %v", err)
	}
	if err := m.Close(); err != nil {
		t.Errorf("Close() on a no-op manager should not error, got %v", err)
	}
}

func TestWriteTickWritesHeaderOnce(t *testing.T) {
	dir := t.TempDir()
	m, err := NewManagerFor(dir)
	if err != nil {
		t.Fatalf("NewManagerFor: %v", err)
	}
	if err := m.WriteTick(TickStats{Tick: 0, ParticleCount: 10}); err != nil {
		t.Fatalf("WriteTick: %v", err)
	}
	if err := m.WriteTick(TickStats{Tick: 1, ParticleCount: 12}); err != nil {
		t.Fatalf("WriteTick: %v", err)
	}
	if err := m.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "telemetry.csv"))
	if err != nil {
		t.Fatalf("reading telemetry.csv: %v", err)
	}
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d lines, want 3 (header + 2 rows):\n%s", len(lines), data)
	}
	if !strings.Contains(lines[0], "tick") {
		t.Errorf("header line %q does not mention the tick column", lines[0])
	}
}

func TestAtInteractionTallyAndReset(t *testing.T) {
	m := &Manager{}
	m.AtInteraction(&action.Action{Kind: action.KindScatter}, nil)
	m.AtInteraction(&action.Action{Kind: action.KindScatter}, nil)
	m.AtInteraction(&action.Action{Kind: action.KindDecay}, nil)

	scatters, decays := m.Counters()
	if scatters != 2 || decays != 1 {
		t.Errorf("Counters() = (%d, %d), want (2, 1)", scatters, decays)
	}
	scatters, decays = m.Counters()
	if scatters != 0 || decays != 0 {
		t.Error("Counters() should reset to zero after being read")
	}
}

func TestNilManagerMethodsAreNoOps(t *testing.T) {
	var m *Manager
	if err := m.WriteTick(TickStats{}); err != nil {
		t.Errorf("nil Manager WriteTick() should be a no-op, got %v", err)
	}
	m.AtInteraction(&action.Action{}, nil)
	if err := m.Close(); err != nil {
		t.Errorf("nil Manager Close() should be a no-op, got %v", err)
	}
}
