package config

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/pelletier/go-toml/v2"

	"github.com/dshills/spanstorm/internal/config/loader"
	"github.com/dshills/spanstorm/internal/engine/transform"
	"github.com/dshills/spanstorm/internal/logging"
)

// EnvPrefix is the prefix of environment variables read by Load.
const EnvPrefix = "SPANSTORM_"

// maxIncludeDepth bounds nested @include directives.
const maxIncludeDepth = 8

// Arbiter modes accepted by reconcile.arbiter.
const (
	ArbiterAsk      = "ask"
	ArbiterExisting = "existing"
	ArbiterAPI      = "api"
	ArbiterLua      = "lua"
)

// Config is the complete spanstorm configuration.
type Config struct {
	Engine    EngineConfig    `toml:"engine"`
	Reconcile ReconcileConfig `toml:"reconcile"`
	Log       LogConfig       `toml:"log"`
}

// EngineConfig controls coordinate mapping and range transformation.
type EngineConfig struct {
	NewlineUnit   int    `toml:"newline_unit"`
	InsertAtStart string `toml:"insert_at_start"`
}

// ReconcileConfig selects how overlap conflicts are decided.
type ReconcileConfig struct {
	Arbiter     string `toml:"arbiter"`
	Script      string `toml:"script"`
	WatchScript bool   `toml:"watch_script"`
}

// LogConfig configures the zap logger.
type LogConfig struct {
	Level       string `toml:"level"`
	Development bool   `toml:"development"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Engine: EngineConfig{
			NewlineUnit:   1,
			InsertAtStart: transform.ShiftAtStart.String(),
		},
		Reconcile: ReconcileConfig{
			Arbiter: ArbiterAsk,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load reads the file at path (if non-empty), applies environment
// overrides and validates the result. A missing file is an error only
// when path was given explicitly.
func Load(path string) (Config, error) {
	return load(loader.DefaultFS(), path, loader.NewEnvLoader(EnvPrefix))
}

func load(fsys loader.FileSystem, path string, env loader.Loader) (Config, error) {
	raw := map[string]any{}

	if path != "" {
		fileCfg, err := loader.NewFileLoader(fsys, maxIncludeDepth).Load(path)
		if errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("%w: %w", ErrFileNotFound, err)
		}
		if err != nil {
			return Config{}, err
		}
		raw = loader.DeepMerge(raw, fileCfg)
	}

	if env != nil {
		envCfg, err := env.Load()
		if err != nil {
			return Config{}, fmt.Errorf("reading environment: %w", err)
		}
		raw = loader.DeepMerge(raw, envCfg)
	}

	cfg, err := decode(raw)
	if err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// decode lays raw over the defaults.
func decode(raw map[string]any) (Config, error) {
	cfg := Default()
	if len(raw) == 0 {
		return cfg, nil
	}
	data, err := toml.Marshal(raw)
	if err != nil {
		return Config{}, fmt.Errorf("encoding config: %w", err)
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("%w: %v", ErrValidationFailed, err)
	}
	return cfg, nil
}

// Validate reports the first unusable setting.
func (c Config) Validate() error {
	if c.Engine.NewlineUnit < 1 {
		return fmt.Errorf("%w: engine.newline_unit must be at least 1, got %d",
			ErrValidationFailed, c.Engine.NewlineUnit)
	}
	if _, err := transform.ParseInsertPolicy(c.Engine.InsertAtStart); err != nil {
		return fmt.Errorf("%w: engine.insert_at_start: %v", ErrValidationFailed, err)
	}

	switch c.Reconcile.Arbiter {
	case ArbiterAsk, ArbiterExisting, ArbiterAPI:
	case ArbiterLua:
		if c.Reconcile.Script == "" {
			return fmt.Errorf("%w: reconcile.script is required for the lua arbiter", ErrValidationFailed)
		}
	default:
		return fmt.Errorf("%w: unknown reconcile.arbiter %q", ErrValidationFailed, c.Reconcile.Arbiter)
	}

	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("%w: log.level: %v", ErrValidationFailed, err)
	}
	return nil
}

// InsertPolicy returns the parsed engine.insert_at_start value.
func (c Config) InsertPolicy() transform.InsertPolicy {
	p, _ := transform.ParseInsertPolicy(c.Engine.InsertAtStart)
	return p
}

// LoggingOptions converts the [log] section for logging.New.
func (c Config) LoggingOptions() logging.Options {
	return logging.Options{
		Level:       c.Log.Level,
		Development: c.Log.Development,
	}
}
