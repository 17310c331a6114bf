// Package config provides configuration loading and access for the
// transport engine, following the teacher's embed-defaults-then-overlay
// pattern (config/config.go in the original game) adapted to the key
// hierarchy of spec.md §6: General, Modi.{Box,Collider,Sphere,List},
// Collision_Term, Output.{Particles,Collisions,Thermodynamics}.
package config

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config is the root configuration tree (spec.md §6).
type Config struct {
	General       GeneralConfig       `yaml:"general"`
	Modi          ModiConfig          `yaml:"modi"`
	CollisionTerm CollisionTermConfig `yaml:"collision_term"`
	Output        OutputConfig        `yaml:"output"`

	Derived DerivedConfig `yaml:"-"`
}

// GeneralConfig selects the modus and the top-level run parameters.
type GeneralConfig struct {
	Modus         string  `yaml:"modus"` // "Box", "Collider", "Sphere", or "List"
	Nevents       int     `yaml:"nevents"`
	EndTime       float64 `yaml:"end_time"` // fm
	Testparticles int     `yaml:"testparticles"`
	RandomSeed    int64   `yaml:"randomseed"` // < 0 means "seed from OS entropy"

	ParticleTable string `yaml:"particle_table"` // path to the particle table (spec.md §6)
	DecayModes    string `yaml:"decay_modes"`    // path to the decay-modes file (spec.md §6)
}

// ModiConfig holds the per-modus parameter blocks; only the block matching
// General.Modus is consulted at startup.
type ModiConfig struct {
	Box      BoxConfig      `yaml:"box"`
	Collider ColliderConfig `yaml:"collider"`
	Sphere   SphereConfig   `yaml:"sphere"`
	List     ListConfig     `yaml:"list"`
}

// BoxConfig parametrizes the periodic thermal box modus.
type BoxConfig struct {
	Length            float64 `yaml:"length"`             // fm, cube edge
	Temperature       float64 `yaml:"temperature"`         // GeV
	InitialMultiplicity map[string]int `yaml:"initial_multiplicities"`
	UseThermalMotion  bool    `yaml:"use_thermal_motion"`
}

// ColliderConfig parametrizes the heavy-ion collider modus.
type ColliderConfig struct {
	SqrtSNN         float64 `yaml:"sqrt_s_nn"`         // GeV
	ImpactParameter float64 `yaml:"impact_parameter"`  // fm; < 0 means "sample"
	ImpactMax       float64 `yaml:"impact_max"`
	ProjectileA     int     `yaml:"projectile_a"` // mass number
	TargetA         int     `yaml:"target_a"`     // mass number
}

// SphereConfig parametrizes the expanding thermal sphere modus.
type SphereConfig struct {
	Radius              float64        `yaml:"radius"` // fm
	Temperature         float64        `yaml:"temperature"`
	InitialMultiplicity map[string]int `yaml:"initial_multiplicities"`
}

// ListConfig parametrizes the external particle-list modus.
type ListConfig struct {
	FilePath string `yaml:"file_path"`
}

// CollisionTermConfig toggles the interaction model.
type CollisionTermConfig struct {
	Enabled      bool    `yaml:"enabled"`
	Decays       bool    `yaml:"decays"`
	TwoToOne     bool    `yaml:"two_to_one"`
	ElasticOnly  bool    `yaml:"elastic_only"`
	GridCellSize float64 `yaml:"grid_cell_size"` // fm, the l_min of spec.md §4.2
}

// OutputFormatConfig toggles and formats one output stream.
type OutputFormatConfig struct {
	Enabled bool   `yaml:"enabled"`
	Format  string `yaml:"format"` // "oscar2013", "binary", "csv"
}

// OutputConfig mirrors spec.md §6's Output block.
type OutputConfig struct {
	Directory       string              `yaml:"directory"`
	Particles       OutputFormatConfig  `yaml:"particles"`
	Collisions      OutputFormatConfig  `yaml:"collisions"`
	Thermodynamics  OutputFormatConfig  `yaml:"thermodynamics"`
}

// DerivedConfig holds values computed once after loading.
type DerivedConfig struct {
	DT float64 // fixed propagation step, derived from grid cell size
}

// global holds the process-wide configuration, set once by Init.
var global *Config

// Init loads configuration from path (embedded defaults merged under any
// keys path omits) and installs it as the global config. Must be called
// before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// MustInit is like Init but panics on error, for use at program startup
// where a config error is fatal.
func MustInit(path string) {
	if err := Init(path); err != nil {
		panic(fmt.Sprintf("config: failed to initialize: %v", err))
	}
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// LoadError names the dotted key path a load failure is attached to
// (spec.md §7: "Missing required key: fatal at startup, error names the
// dotted key path").
type LoadError struct {
	Key string
	Err error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("config: %s: %v", e.Key, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// Load loads configuration from a YAML file overlaid on the embedded
// defaults, validates the required General.Modus key, and computes derived
// values.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, &LoadError{Key: "<embedded defaults>", Err: err}
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, &LoadError{Key: path, Err: err}
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, &LoadError{Key: path, Err: err}
		}
	}

	if cfg.General.Modus == "" {
		return nil, &LoadError{Key: "general.modus", Err: fmt.Errorf("required, one of Box/Collider/Sphere/List")}
	}
	switch cfg.General.Modus {
	case "Box", "Collider", "Sphere", "List":
	default:
		return nil, &LoadError{Key: "general.modus", Err: fmt.Errorf("unknown modus %q", cfg.General.Modus)}
	}
	if cfg.General.Testparticles <= 0 {
		cfg.General.Testparticles = 1
	}

	cfg.computeDerived()
	return cfg, nil
}

func (c *Config) computeDerived() {
	if c.CollisionTerm.GridCellSize > 0 {
		c.Derived.DT = c.CollisionTerm.GridCellSize / 5
	} else {
		c.Derived.DT = 0.1
	}
}

// WriteYAML saves the configuration as loaded, for provenance alongside run
// output (teacher's telemetry.OutputManager.WriteConfig pattern).
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
