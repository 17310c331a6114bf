// Package output implements the at_interaction hooks of spec.md §2/§6: the
// OSCAR2013 text format, the binary format v4, and CSV telemetry, the last
// grounded on the teacher's gocsv-based OutputManager (telemetry/output.go).
package output

import (
	"bufio"
	"fmt"
	"io"

	"github.com/pthm-cable/soup/action"
	"github.com/pthm-cable/soup/particletype"
	"github.com/pthm-cable/soup/registry"
)

// OscarWriter writes the OSCAR2013 particle/interaction text format
// (spec.md §6): a header line, one block per event opened by a
// "# event N out N" comment and closed by "# event N end 0 impact B",
// with one line per particle giving t x y z m p0 px py pz pdg id charge.
type OscarWriter struct {
	w       *bufio.Writer
	catalog *particletype.Catalog
	kind    string // "particles" or "collisions"
	event   int
}

// NewOscarWriter wraps w for the given event kind ("particles" or
// "collisions").
func NewOscarWriter(w io.Writer, catalog *particletype.Catalog, kind string) *OscarWriter {
	ow := &OscarWriter{w: bufio.NewWriter(w), catalog: catalog, kind: kind}
	fmt.Fprintf(ow.w, "#!OSCAR2013 %s t x y z mass p0 px py pz pdg ID charge\n", kind)
	fmt.Fprintf(ow.w, "# Units: fm fm fm fm GeV GeV GeV GeV GeV none none e\n")
	return ow
}

// BeginEvent starts a new event block.
func (ow *OscarWriter) BeginEvent(event, nParticles int) {
	ow.event = event
	fmt.Fprintf(ow.w, "# event %d out %d\n", event, nParticles)
}

// EndEvent closes the current event block.
func (ow *OscarWriter) EndEvent(event int, impactParameter float64) {
	fmt.Fprintf(ow.w, "# event %d end 0 impact %.6f\n", event, impactParameter)
}

func (ow *OscarWriter) writeParticle(s registry.State) {
	t := ow.catalog.Type(s.Type)
	fmt.Fprintf(ow.w, "%.6f %.6f %.6f %.6f %.6f %.6f %.6f %.6f %.6f %d %d %d\n",
		s.Position.X0, s.Position.X1, s.Position.X2, s.Position.X3,
		s.EffectiveMass(),
		s.Momentum.X0, s.Momentum.X1, s.Momentum.X2, s.Momentum.X3,
		t.Code.Int32(), s.ID, t.Charge())
}

// WriteParticleList writes one "particles" output dump for the current
// timestep (spec.md §6: periodic full snapshots, independent of
// interactions).
func (ow *OscarWriter) WriteParticleList(snapshot []registry.Snapshot) {
	for _, s := range snapshot {
		ow.writeParticle(s.State)
	}
}

// AtInteraction implements action.Hook: writes the incoming particles, an
// interaction-type comment, then the outgoing particles (spec.md §6
// "collisions" stream format).
func (ow *OscarWriter) AtInteraction(a *action.Action, out []registry.Ref) {
	if ow.kind != "collisions" {
		return
	}
	fmt.Fprintf(ow.w, "# interaction in %d out %d type %s weight %.6g\n", len(a.In), len(a.Out), a.Process, a.Weight)
	for _, s := range a.In {
		ow.writeParticle(s.State)
	}
	for _, s := range a.Out {
		ow.writeParticle(s)
	}
}

// Flush flushes the underlying writer.
func (ow *OscarWriter) Flush() error { return ow.w.Flush() }
