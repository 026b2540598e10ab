// Package config loads training settings from an INI file on top of built-in
// defaults.
package config

import (
	"errors"
	"fmt"
	"time"

	"gopkg.in/ini.v1"

	"neurosnake/internal/elite"
	"neurosnake/internal/evo"
	"neurosnake/internal/nn"
	"neurosnake/internal/scape"
	"neurosnake/internal/storage"
)

const (
	DefaultStatusID       = "snake.status"
	DefaultMutation       = "randomize"
	DefaultMutationRate   = 0.1
	DefaultEliteThreshold = 0.8
	DefaultHiddenLayers   = 2
	DefaultHiddenNeurons  = 8
)

var ErrInvalid = errors.New("invalid config")

type Config struct {
	Game      GameConfig
	Network   NetworkConfig
	Evolution EvolutionConfig
	Showcase  ShowcaseConfig
	Storage   StorageConfig
}

type GameConfig struct {
	Width     int   `ini:"width"`
	Height    int   `ini:"height"`
	MaxStep   int   `ini:"max_step"`
	Seed      int64 `ini:"seed"`
	RandomMap bool  `ini:"random_map"`
	// Episodes per evaluation; 0 picks 10 with random_map and 1 otherwise.
	Episodes int `ini:"episodes"`
}

type NetworkConfig struct {
	HiddenLayers     int    `ini:"hidden_layers"`
	NeuronsPerHidden int    `ini:"neurons_per_hidden"`
	UseBias          bool   `ini:"use_bias"`
	HiddenActivation string `ini:"hidden_activation"`
	OutputActivation string `ini:"output_activation"`
}

type EvolutionConfig struct {
	// Mutation names a registered operator: randomize or perturb.
	Mutation       string  `ini:"mutation"`
	MutationScale  float64 `ini:"mutation_scale"`
	MutationRate   float64 `ini:"mutation_rate"`
	EliteThreshold float64 `ini:"elite_threshold"`
	EliteCapacity  int     `ini:"elite_capacity"`
	// Seed of the breeding generator; 0 seeds from the clock.
	Seed          int64 `ini:"seed"`
	MaxIterations int64 `ini:"max_iterations"`
}

type ShowcaseConfig struct {
	Enabled        bool          `ini:"enabled"`
	TicksPerSecond int           `ini:"ticks_per_second"`
	FrameDelay     time.Duration `ini:"frame_delay"`
}

type StorageConfig struct {
	Kind string `ini:"kind"`
	// Path is the directory of a file store or the database of a sqlite store.
	Path     string `ini:"path"`
	StatusID string `ini:"status"`
}

func Default() Config {
	return Config{
		Game: GameConfig{
			Width:   scape.DefaultWidth,
			Height:  scape.DefaultHeight,
			MaxStep: scape.DefaultMaxStep,
			Seed:    scape.DefaultSeed,
		},
		Network: NetworkConfig{
			HiddenLayers:     DefaultHiddenLayers,
			NeuronsPerHidden: DefaultHiddenNeurons,
			HiddenActivation: nn.ActivationIdentity.String(),
			OutputActivation: nn.ActivationIdentity.String(),
		},
		Evolution: EvolutionConfig{
			Mutation:       DefaultMutation,
			MutationScale:  1,
			MutationRate:   DefaultMutationRate,
			EliteThreshold: DefaultEliteThreshold,
			EliteCapacity:  elite.DefaultCapacity,
		},
		Showcase: ShowcaseConfig{
			Enabled:        true,
			TicksPerSecond: scape.DefaultTicksPerSecond,
			FrameDelay:     scape.DefaultShowcaseDelay,
		},
		Storage: StorageConfig{
			Kind:     storage.DefaultStoreKind(),
			Path:     ".",
			StatusID: DefaultStatusID,
		},
	}
}

// Load reads path over the defaults. Keys missing from the file keep their
// default values.
func Load(path string) (Config, error) {
	file, err := ini.LoadSources(ini.LoadOptions{
		IgnoreInlineComment:         true,
		UnescapeValueCommentSymbols: true,
	}, path)
	if err != nil {
		return Config{}, fmt.Errorf("loading config %s: %w", path, err)
	}

	cfg := Default()
	sections := []struct {
		name   string
		target any
	}{
		{name: "game", target: &cfg.Game},
		{name: "network", target: &cfg.Network},
		{name: "evolution", target: &cfg.Evolution},
		{name: "showcase", target: &cfg.Showcase},
		{name: "storage", target: &cfg.Storage},
	}
	for _, section := range sections {
		if err := file.Section(section.name).MapTo(section.target); err != nil {
			return Config{}, fmt.Errorf("mapping [%s]: %w", section.name, err)
		}
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Write saves cfg as an INI file that Load reads back unchanged.
func Write(path string, cfg Config) error {
	file := ini.Empty()
	sections := []struct {
		name   string
		source any
	}{
		{name: "game", source: &cfg.Game},
		{name: "network", source: &cfg.Network},
		{name: "evolution", source: &cfg.Evolution},
		{name: "showcase", source: &cfg.Showcase},
		{name: "storage", source: &cfg.Storage},
	}
	for _, section := range sections {
		if err := file.Section(section.name).ReflectFrom(section.source); err != nil {
			return fmt.Errorf("writing [%s]: %w", section.name, err)
		}
	}
	return file.SaveTo(path)
}

func (c Config) Validate() error {
	switch {
	case c.Game.Width < 1 || c.Game.Height < 1:
		return fmt.Errorf("%w: grid %dx%d", ErrInvalid, c.Game.Width, c.Game.Height)
	case c.Game.MaxStep < 1:
		return fmt.Errorf("%w: max_step must be positive", ErrInvalid)
	case c.Game.Episodes < 0:
		return fmt.Errorf("%w: episodes must be non-negative", ErrInvalid)
	case c.Evolution.MutationRate < 0 || c.Evolution.MutationRate > 1:
		return fmt.Errorf("%w: mutation_rate %g outside [0, 1]", ErrInvalid, c.Evolution.MutationRate)
	case c.Evolution.EliteThreshold < 0:
		return fmt.Errorf("%w: elite_threshold must be non-negative", ErrInvalid)
	case c.Evolution.EliteCapacity < 1:
		return fmt.Errorf("%w: elite_capacity must be positive", ErrInvalid)
	case c.Evolution.MaxIterations < 0:
		return fmt.Errorf("%w: max_iterations must be non-negative", ErrInvalid)
	case c.Evolution.MutationScale <= 0:
		return fmt.Errorf("%w: mutation_scale must be positive", ErrInvalid)
	case c.Storage.StatusID == "":
		return fmt.Errorf("%w: storage status id is required", ErrInvalid)
	}
	if _, err := evo.ResolveOperator(c.Evolution.Mutation, c.Evolution.MutationScale, c.Evolution.MutationRate); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if _, err := c.Network.NNConfig(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return nil
}

// NNConfig is the network shape for the snake: eight features in, one output
// per direction.
func (n NetworkConfig) NNConfig() (nn.Config, error) {
	hidden, err := nn.ParseActivation(n.HiddenActivation)
	if err != nil {
		return nn.Config{}, err
	}
	output, err := nn.ParseActivation(n.OutputActivation)
	if err != nil {
		return nn.Config{}, err
	}
	cfg := nn.Config{
		Inputs:           scape.FeatureCount,
		Outputs:          4,
		HiddenLayers:     n.HiddenLayers,
		NeuronsPerHidden: n.NeuronsPerHidden,
		UseBias:          n.UseBias,
		Hidden:           hidden,
		Output:           output,
	}
	if err := cfg.Validate(); err != nil {
		return nn.Config{}, err
	}
	return cfg, nil
}

func (g GameConfig) SnakeConfig(ticksPerSecond int) scape.SnakeConfig {
	return scape.SnakeConfig{
		Width:          g.Width,
		Height:         g.Height,
		MaxStep:        g.MaxStep,
		TicksPerSecond: ticksPerSecond,
		Seed:           g.Seed,
		RandomMap:      g.RandomMap,
		Episodes:       g.Episodes,
	}
}
