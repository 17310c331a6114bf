package action

import (
	"log/slog"

	"github.com/pthm-cable/soup/registry"
)

// Hook receives notification of each performed action, e.g. an OSCAR/binary
// output writer or CSV telemetry (spec.md §2 data flow: "Output.at_interaction(action)").
// Defined here, consumer-side, so the output package can implement it without
// action importing output.
type Hook interface {
	AtInteraction(a *Action, out []registry.Ref)
}

// Stats accumulates per-tick dispatch counters (ambient addition: the
// engine logs these once per tick, per SPEC_FULL.md's logging section).
type Stats struct {
	Considered          int
	Performed           int
	SkippedInvalid      int
	ConservationViolated int
}

// Dispatch walks actions (already sorted by Sort) once, performing each
// still-valid one and silently discarding the rest (spec.md §4.3). It never
// re-sorts mid-tick: reactions later in the tick keep their originally
// computed t*.
func Dispatch(r *registry.Registry, actions []*Action, hooks []Hook, log *slog.Logger) Stats {
	var stats Stats
	for _, a := range actions {
		stats.Considered++
		a.UpdateIncoming(r)
		if !a.IsValid(r) {
			stats.SkippedInvalid++
			continue
		}
		if err := a.GenerateFinalState(); err != nil {
			stats.SkippedInvalid++
			if log != nil {
				log.Warn("action: final-state generation failed, skipping", "process", a.Process, "err", err)
			}
			continue
		}
		audit := a.CheckConservation()
		if !audit.OK {
			stats.ConservationViolated++
			if log != nil {
				log.Warn("action: conservation violated",
					"process", a.Process,
					"delta_energy", audit.DeltaEnergy,
					"delta_p", audit.DeltaP,
					"time", a.Time,
				)
			}
			// Still performed, per spec.md §4.3/§7: "the action is still
			// applied to avoid stalling the simulation."
		}

		in := make([]registry.Ref, len(a.In))
		for i, s := range a.In {
			in[i] = s.Ref
		}
		outRefs := r.Replace(in, a.Out)
		stats.Performed++

		for _, h := range hooks {
			h.AtInteraction(a, outRefs)
		}
	}
	return stats
}
