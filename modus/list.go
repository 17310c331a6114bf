package modus

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/pthm-cable/soup/config"
	"github.com/pthm-cable/soup/fourvector"
	"github.com/pthm-cable/soup/particletype"
	"github.com/pthm-cable/soup/pdg"
	"github.com/pthm-cable/soup/registry"
	"github.com/pthm-cable/soup/spatialgrid"
)

// List is the external-particle-list modus of spec.md §4.7: initial state
// read verbatim from an OSCAR2013-format file rather than sampled. There is
// no "anti-free-streaming" correction here: the loaded positions/momenta are
// used exactly as given, on the documented assumption that the list already
// represents the state at t=0 (simplification relative to list-modus
// implementations that shift particles backward along their trajectory to a
// common time).
type List struct {
	Cfg     config.ListConfig
	Catalog *particletype.Catalog

	noBoundaryConditions
}

// BoundingBox spans a fixed generous volume, [-100, 100] fm on every axis;
// InitialConditions does not adjust it to the extent of the loaded
// particles.
var listBox = spatialgrid.BoundingBox{
	Min: fourvector.ThreeVector{X1: -100, X2: -100, X3: -100},
	Max: fourvector.ThreeVector{X1: 100, X2: 100, X3: 100},
}

func (l *List) BoundingBox() spatialgrid.BoundingBox { return listBox }

// GridMode is Normal: loaded particle lists are never wrapped.
func (l *List) GridMode() spatialgrid.Mode { return spatialgrid.Normal }

// InitialConditions parses Cfg.FilePath as an OSCAR2013 particle list
// (one header line "# t x y z mass p0 px py pz pdg ID", then one line per
// particle: "t x y z mass p0 px py pz pdg id") and inserts every entry into
// r, resolving each PDG code against the catalog.
func (l *List) InitialConditions(r *registry.Registry) error {
	f, err := os.Open(l.Cfg.FilePath)
	if err != nil {
		return fmt.Errorf("modus: opening particle list %s: %w", l.Cfg.FilePath, err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 10 {
			return fmt.Errorf("modus: %s:%d: expected at least 10 fields, got %d", l.Cfg.FilePath, lineNo, len(fields))
		}
		values := make([]float64, 9)
		for i := 0; i < 9; i++ {
			v, err := strconv.ParseFloat(fields[i], 64)
			if err != nil {
				return fmt.Errorf("modus: %s:%d: field %d: %w", l.Cfg.FilePath, lineNo, i, err)
			}
			values[i] = v
		}
		codeValue, err := strconv.ParseInt(fields[9], 10, 32)
		if err != nil {
			return fmt.Errorf("modus: %s:%d: pdg code: %w", l.Cfg.FilePath, lineNo, err)
		}
		idx, ok := l.Catalog.ByCode(pdg.New(int32(codeValue)))
		if !ok {
			return fmt.Errorf("modus: %s:%d: unknown pdg code %d", l.Cfg.FilePath, lineNo, codeValue)
		}

		t, x, y, z := values[0], values[1], values[2], values[3]
		p0, px, py, pz := values[5], values[6], values[7], values[8]

		r.Insert(registry.State{
			Type:          idx,
			Position:      fourvector.New(t, fourvector.ThreeVector{X1: x, X2: y, X3: z}),
			Momentum:      fourvector.New(p0, fourvector.ThreeVector{X1: px, X2: py, X3: pz}),
			ScalingFactor: 1,
		})
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("modus: reading %s: %w", l.Cfg.FilePath, err)
	}
	return nil
}
