package output

import (
	"encoding/binary"
	"io"

	"github.com/pthm-cable/soup/action"
	"github.com/pthm-cable/soup/particletype"
	"github.com/pthm-cable/soup/registry"
)

// binaryMagic and binaryFormatVersion identify the stream (spec.md §6
// "binary output format v4"). Block types: 'p' particle-list block,
// 'i' interaction block, 'f' event-end block.
const (
	binaryMagic          = "SMSH"
	binaryFormatVersion  = uint16(4)
	blockParticles  byte = 'p'
	blockInteraction byte = 'i'
	blockEventEnd   byte = 'f'
)

// BinaryWriter writes the fixed-layout binary output format (spec.md §6):
// a 4-byte magic plus format version header, then a sequence of typed
// blocks, each opened by its one-byte block tag (no length prefix).
type BinaryWriter struct {
	w       io.Writer
	catalog *particletype.Catalog
	err     error
}

// NewBinaryWriter writes the stream header and returns a ready writer.
func NewBinaryWriter(w io.Writer, catalog *particletype.Catalog) (*BinaryWriter, error) {
	bw := &BinaryWriter{w: w, catalog: catalog}
	if _, err := io.WriteString(w, binaryMagic); err != nil {
		return nil, err
	}
	if err := binary.Write(w, binary.LittleEndian, binaryFormatVersion); err != nil {
		return nil, err
	}
	return bw, nil
}

func (bw *BinaryWriter) writeParticleRecord(s registry.State) {
	t := bw.catalog.Type(s.Type)
	bw.write(s.Position.X0)
	bw.write(s.Position.X1)
	bw.write(s.Position.X2)
	bw.write(s.Position.X3)
	bw.write(s.Momentum.X0)
	bw.write(s.Momentum.X1)
	bw.write(s.Momentum.X2)
	bw.write(s.Momentum.X3)
	bw.write(t.Code.Int32())
	bw.write(s.ID)
}

func (bw *BinaryWriter) write(v interface{}) {
	if bw.err != nil {
		return
	}
	bw.err = binary.Write(bw.w, binary.LittleEndian, v)
}

// WriteParticleList emits a 'p' block containing snapshot.
func (bw *BinaryWriter) WriteParticleList(snapshot []registry.Snapshot) error {
	bw.err = nil
	bw.write(blockParticles)
	bw.write(uint32(len(snapshot)))
	for _, s := range snapshot {
		bw.writeParticleRecord(s.State)
	}
	return bw.err
}

// AtInteraction implements action.Hook, emitting an 'i' block: incoming
// count, outgoing count, process tag length + bytes, then both particle
// lists.
func (bw *BinaryWriter) AtInteraction(a *action.Action, out []registry.Ref) {
	bw.err = nil
	bw.write(blockInteraction)
	bw.write(uint32(len(a.In)))
	bw.write(uint32(len(a.Out)))
	process := []byte(a.Process)
	bw.write(uint16(len(process)))
	if bw.err == nil {
		_, bw.err = bw.w.Write(process)
	}
	for _, s := range a.In {
		bw.writeParticleRecord(s.State)
	}
	for _, s := range a.Out {
		bw.writeParticleRecord(s)
	}
}

// WriteEventEnd emits an 'f' block marking the end of an event.
func (bw *BinaryWriter) WriteEventEnd(event int, impactParameter float64) error {
	bw.err = nil
	bw.write(blockEventEnd)
	bw.write(uint32(event))
	bw.write(impactParameter)
	return bw.err
}
