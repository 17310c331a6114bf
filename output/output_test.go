package output

import (
	"bytes"
	"encoding/binary"
	"strings"
	"testing"

	"github.com/pthm-cable/soup/action"
	"github.com/pthm-cable/soup/fourvector"
	"github.com/pthm-cable/soup/particletype"
	"github.com/pthm-cable/soup/pdg"
	"github.com/pthm-cable/soup/registry"
)

func oneProtonCatalog(t *testing.T) *particletype.Catalog {
	t.Helper()
	b := particletype.NewBuilder()
	if err := b.AddType("p", 0.938, 0, pdg.New(2212)); err != nil {
		t.Fatal(err)
	}
	c, err := b.Build()
	if err != nil {
		t.Fatal(err)
	}
	return c
}

func TestOscarWriterHeaderNamesKind(t *testing.T) {
	var buf bytes.Buffer
	c := oneProtonCatalog(t)
	ow := NewOscarWriter(&buf, c, "particles")
	ow.Flush()

	header := buf.String()
	if !strings.Contains(header, "#!OSCAR2013 particles") {
		t.Errorf("header %q does not name the stream kind", header)
	}
}

func TestOscarWriterParticleListLineCount(t *testing.T) {
	var buf bytes.Buffer
	c := oneProtonCatalog(t)
	protonIdx, _ := c.ByName("p")
	ow := NewOscarWriter(&buf, c, "particles")

	snap := []registry.Snapshot{
		{State: registry.State{ID: 0, Type: protonIdx, Momentum: fourvector.FourVector{X0: 1}}},
		{State: registry.State{ID: 1, Type: protonIdx, Momentum: fourvector.FourVector{X0: 1}}},
	}
	ow.BeginEvent(0, len(snap))
	ow.WriteParticleList(snap)
	ow.EndEvent(0, 0)
	ow.Flush()

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	// 2 header lines + "# event ... out" + 2 particle lines + "# event ... end"
	if len(lines) != 6 {
		t.Errorf("got %d output lines, want 6:\n%s", len(lines), buf.String())
	}
}

func TestOscarWriterSkipsInteractionsOnParticlesStream(t *testing.T) {
	var buf bytes.Buffer
	c := oneProtonCatalog(t)
	ow := NewOscarWriter(&buf, c, "particles")
	before := buf.Len()
	ow.AtInteraction(&action.Action{Process: action.ProcessElastic}, nil)
	if buf.Len() != before {
		t.Error("AtInteraction() should be a no-op on a \"particles\" stream")
	}
}

func TestOscarWriterWritesInteractionOnCollisionsStream(t *testing.T) {
	var buf bytes.Buffer
	c := oneProtonCatalog(t)
	protonIdx, _ := c.ByName("p")
	ow := NewOscarWriter(&buf, c, "collisions")

	a := &action.Action{
		Process: action.ProcessElastic,
		In:      []registry.Snapshot{{State: registry.State{Type: protonIdx, Momentum: fourvector.FourVector{X0: 1}}}},
		Out:     []registry.State{{Type: protonIdx, Momentum: fourvector.FourVector{X0: 1}}},
	}
	ow.AtInteraction(a, nil)
	ow.Flush()
	if !strings.Contains(buf.String(), "type elastic") {
		t.Errorf("collisions stream output missing interaction line:\n%s", buf.String())
	}
}

func TestBinaryWriterHeader(t *testing.T) {
	var buf bytes.Buffer
	c := oneProtonCatalog(t)
	if _, err := NewBinaryWriter(&buf, c); err != nil {
		t.Fatalf("NewBinaryWriter: %v", err)
	}
	data := buf.Bytes()
	if string(data[:4]) != "SMSH" {
		t.Errorf("magic = %q, want SMSH", data[:4])
	}
	version := binary.LittleEndian.Uint16(data[4:6])
	if version != 4 {
		t.Errorf("format version = %d, want 4", version)
	}
}

func TestBinaryWriterParticleBlockTag(t *testing.T) {
	var buf bytes.Buffer
	c := oneProtonCatalog(t)
	bw, err := NewBinaryWriter(&buf, c)
	if err != nil {
		t.Fatal(err)
	}
	protonIdx, _ := c.ByName("p")
	snap := []registry.Snapshot{{State: registry.State{Type: protonIdx, Momentum: fourvector.FourVector{X0: 1}}}}
	if err := bw.WriteParticleList(snap); err != nil {
		t.Fatalf("WriteParticleList: %v", err)
	}
	data := buf.Bytes()
	if data[6] != 'p' {
		t.Errorf("block tag = %q, want 'p'", data[6])
	}
	count := binary.LittleEndian.Uint32(data[7:11])
	if count != 1 {
		t.Errorf("particle count in block = %d, want 1", count)
	}
}

func TestBinaryWriterEventEndBlockTag(t *testing.T) {
	var buf bytes.Buffer
	c := oneProtonCatalog(t)
	bw, err := NewBinaryWriter(&buf, c)
	if err != nil {
		t.Fatal(err)
	}
	if err := bw.WriteEventEnd(0, 2.5); err != nil {
		t.Fatalf("WriteEventEnd: %v", err)
	}
	data := buf.Bytes()
	if data[6] != 'f' {
		t.Errorf("block tag = %q, want 'f'", data[6])
	}
}
