package output

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"

	"github.com/pthm-cable/soup/action"
	"github.com/pthm-cable/soup/registry"
)

// TickStats is one row of per-tick telemetry, grounded on the teacher's
// WindowStats/gocsv pattern (telemetry/output.go).
type TickStats struct {
	Tick                 int     `csv:"tick"`
	Time                 float64 `csv:"time_fm"`
	ParticleCount        int     `csv:"particle_count"`
	ScattersPerformed    int     `csv:"scatters_performed"`
	DecaysPerformed      int     `csv:"decays_performed"`
	ConservationViolated int     `csv:"conservation_violated"`
}

// Manager owns the CSV telemetry stream for one run, matching the teacher's
// OutputManager lifecycle (open-on-construct, write-per-row, Close at the
// end). Its particleOscar, collisionOscar and binary fields are never
// assigned; OSCAR and binary sinks are opened and closed by their callers.
type Manager struct {
	dir          string
	telemetry    *os.File
	headerWritten bool

	particleOscar  *OscarWriter
	collisionOscar *OscarWriter
	binary         *BinaryWriter

	scatters, decays, violations int
}

// NewManagerFor creates dir and opens dir/telemetry.csv, grounded on the
// teacher's NewOutputManager (telemetry/output.go). An empty dir yields a
// Manager that writes nothing.
func NewManagerFor(dir string) (*Manager, error) {
	if dir == "" {
		return &Manager{}, nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("output: creating directory: %w", err)
	}
	f, err := os.Create(filepath.Join(dir, "telemetry.csv"))
	if err != nil {
		return nil, fmt.Errorf("output: creating telemetry.csv: %w", err)
	}
	return &Manager{dir: dir, telemetry: f}, nil
}

// WriteTick appends one telemetry row (teacher's WriteTelemetry pattern:
// header on first write, bare rows after).
func (m *Manager) WriteTick(stats TickStats) error {
	if m == nil || m.telemetry == nil {
		return nil
	}
	records := []TickStats{stats}
	if !m.headerWritten {
		if err := gocsv.Marshal(records, m.telemetry); err != nil {
			return fmt.Errorf("output: writing telemetry: %w", err)
		}
		m.headerWritten = true
		return nil
	}
	if err := gocsv.MarshalWithoutHeaders(records, m.telemetry); err != nil {
		return fmt.Errorf("output: writing telemetry: %w", err)
	}
	return nil
}

// AtInteraction implements action.Hook purely for bookkeeping counters fed
// into WriteTick; the actual particle records go through the OSCAR/binary
// hooks registered alongside this one.
func (m *Manager) AtInteraction(a *action.Action, out []registry.Ref) {
	if m == nil {
		return
	}
	switch a.Kind {
	case action.KindScatter:
		m.scatters++
	case action.KindDecay:
		m.decays++
	}
}

// Counters returns and resets the accumulated per-tick interaction counts.
func (m *Manager) Counters() (scatters, decays int) {
	if m == nil {
		return 0, 0
	}
	scatters, decays = m.scatters, m.decays
	m.scatters, m.decays = 0, 0
	return
}

// Close closes the telemetry file.
func (m *Manager) Close() error {
	if m == nil {
		return nil
	}
	var firstErr error
	if m.telemetry != nil {
		if err := m.telemetry.Close(); err != nil {
			firstErr = err
		}
	}
	return firstErr
}
