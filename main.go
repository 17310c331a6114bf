// Command soup runs the relativistic hadronic transport engine: it loads a
// particle table, a decay-modes file and a run configuration, then drives
// General.Nevents independent events through the tick loop of engine.RunEvent
// (spec.md §2/§4.3), writing OSCAR2013/binary/CSV output as configured.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/pthm-cable/soup/action"
	"github.com/pthm-cable/soup/config"
	"github.com/pthm-cable/soup/engine"
	"github.com/pthm-cable/soup/modus"
	"github.com/pthm-cable/soup/output"
	"github.com/pthm-cable/soup/particletype"
	"github.com/pthm-cable/soup/registry"
)

func main() {
	configPath := flag.String("config", "", "run configuration YAML (empty = embedded defaults)")
	verbose := flag.Bool("v", false, "debug-level logging")
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(log)

	if err := config.Init(*configPath); err != nil {
		log.Error("startup: loading configuration", "err", err)
		os.Exit(1)
	}
	cfg := config.Cfg()

	catalog, err := loadCatalog(cfg)
	if err != nil {
		log.Error("startup: loading particle catalog", "err", err)
		os.Exit(1)
	}
	log.Info("particle catalog loaded", "types", catalog.Len())

	seed := cfg.General.RandomSeed
	if seed < 0 {
		seed = time.Now().UnixNano()
	}
	rng := distuv.Uniform{Min: 0, Max: 1, Src: rand.NewSource(seed)}

	telemetry, err := output.NewManagerFor(cfg.Output.Directory)
	if err != nil {
		log.Error("startup: opening output directory", "err", err)
		os.Exit(1)
	}
	defer telemetry.Close()

	collisions, closeCollisions, err := openCollisionsSink(cfg, catalog)
	if err != nil {
		log.Error("startup: opening collisions output", "err", err)
		os.Exit(1)
	}
	defer closeCollisions()

	hooks := []action.Hook{telemetry}
	if collisions != nil {
		hooks = append(hooks, collisions)
	}

	particlesSink, closeParticles, err := openParticlesSink(cfg, catalog)
	if err != nil {
		log.Error("startup: opening particle-list output", "err", err)
		os.Exit(1)
	}
	defer closeParticles()

	for event := 0; event < cfg.General.Nevents; event++ {
		m, err := buildModus(cfg, catalog, rng)
		if err != nil {
			log.Error("event: building modus", "event", event, "err", err)
			os.Exit(1)
		}

		var onParticles func([]registry.Snapshot)
		if particlesSink != nil {
			particlesSink.BeginEvent(event, 0)
			onParticles = particlesSink.WriteParticleList
		}

		result, err := engine.RunEvent(cfg, catalog, m, rng, hooks, onParticles, log)
		if err != nil {
			log.Error("event: run failed", "event", event, "err", err)
			os.Exit(1)
		}
		if particlesSink != nil {
			particlesSink.EndEvent(event, 0)
		}

		log.Info("event complete",
			"event", event,
			"ticks", result.Ticks,
			"final_particles", result.FinalParticles,
			"scatters_discovered", result.ScattersDiscovered,
			"decays_discovered", result.DecaysDiscovered,
			"performed", result.Performed,
			"conservation_fails", result.ConservationFails,
		)

		if err := telemetry.WriteTick(output.TickStats{
			Tick:          event,
			Time:          cfg.General.EndTime,
			ParticleCount: result.FinalParticles,
		}); err != nil {
			log.Warn("event: writing telemetry row", "event", event, "err", err)
		}
	}
}

// loadCatalog reads General.ParticleTable and General.DecayModes per
// spec.md §6 and builds the immutable Catalog from them.
func loadCatalog(cfg *config.Config) (*particletype.Catalog, error) {
	b := particletype.NewBuilder()

	tableFile, err := os.Open(cfg.General.ParticleTable)
	if err != nil {
		return nil, fmt.Errorf("opening particle table %s: %w", cfg.General.ParticleTable, err)
	}
	defer tableFile.Close()
	if err := b.LoadParticleTable(tableFile); err != nil {
		return nil, err
	}

	modesFile, err := os.Open(cfg.General.DecayModes)
	if err != nil {
		return nil, fmt.Errorf("opening decay modes file %s: %w", cfg.General.DecayModes, err)
	}
	defer modesFile.Close()
	if err := b.LoadDecayModes(modesFile); err != nil {
		return nil, err
	}

	return b.Build()
}

// buildModus selects and constructs the modus adapter named by
// General.Modus (spec.md §4.7).
func buildModus(cfg *config.Config, catalog *particletype.Catalog, rng distuv.Rander) (modus.Modus, error) {
	switch cfg.General.Modus {
	case "Box":
		return &modus.Box{Cfg: cfg.Modi.Box, Catalog: catalog, Rng: rng}, nil
	case "Collider":
		return &modus.Collider{Cfg: cfg.Modi.Collider, Catalog: catalog, Rng: rng}, nil
	case "Sphere":
		return &modus.Sphere{
			Cfg:     cfg.Modi.Sphere,
			Catalog: catalog,
			Rng:     rng,
			Species: cfg.Modi.Sphere.InitialMultiplicity,
		}, nil
	case "List":
		return &modus.List{Cfg: cfg.Modi.List, Catalog: catalog}, nil
	default:
		return nil, fmt.Errorf("unknown modus %q", cfg.General.Modus)
	}
}

// openCollisionsSink opens the configured collisions stream, if enabled,
// returning its hook and a close function that is always safe to call.
func openCollisionsSink(cfg *config.Config, catalog *particletype.Catalog) (action.Hook, func(), error) {
	noop := func() {}
	if !cfg.Output.Collisions.Enabled || cfg.Output.Directory == "" {
		return nil, noop, nil
	}
	if err := os.MkdirAll(cfg.Output.Directory, 0o755); err != nil {
		return nil, noop, err
	}

	switch cfg.Output.Collisions.Format {
	case "binary":
		path := filepath.Join(cfg.Output.Directory, "collisions.bin")
		f, err := os.Create(path)
		if err != nil {
			return nil, noop, err
		}
		bw, err := output.NewBinaryWriter(f, catalog)
		if err != nil {
			f.Close()
			return nil, noop, err
		}
		return bw, func() { f.Close() }, nil
	default:
		path := filepath.Join(cfg.Output.Directory, "collisions.oscar")
		f, err := os.Create(path)
		if err != nil {
			return nil, noop, err
		}
		ow := output.NewOscarWriter(f, catalog, "collisions")
		return ow, func() { ow.Flush(); f.Close() }, nil
	}
}

// openParticlesSink opens the configured particles stream, if enabled. Its
// WriteParticleList method is passed to engine.RunEvent as the per-tick
// onParticles callback, giving a full snapshot dump every tick (spec.md §6).
func openParticlesSink(cfg *config.Config, catalog *particletype.Catalog) (*output.OscarWriter, func(), error) {
	noop := func() {}
	if !cfg.Output.Particles.Enabled || cfg.Output.Directory == "" {
		return nil, noop, nil
	}
	if err := os.MkdirAll(cfg.Output.Directory, 0o755); err != nil {
		return nil, noop, err
	}
	path := filepath.Join(cfg.Output.Directory, "particles.oscar")
	f, err := os.Create(path)
	if err != nil {
		return nil, noop, err
	}
	ow := output.NewOscarWriter(f, catalog, "particles")
	return ow, func() { ow.Flush(); f.Close() }, nil
}
