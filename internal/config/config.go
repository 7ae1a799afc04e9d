// Package config provides Viper-based configuration loading for the battle
// server.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// BattleConfig holds the battle rule tuning.
type BattleConfig struct {
	// GridWidth and GridHeight are the board dimensions in cells.
	GridWidth  int `mapstructure:"grid_width"`
	GridHeight int `mapstructure:"grid_height"`
	// MovementPerCharacter is the per-turn movement budget of one character.
	MovementPerCharacter int `mapstructure:"movement_per_character"`
	// MovementPerTeam is the shared per-turn movement pool of a team.
	MovementPerTeam int `mapstructure:"movement_per_team"`
	// RangedRange is the maximum attack distance for ranged characters.
	RangedRange int `mapstructure:"ranged_range"`
	// TurnTimeLimit is how long a team may hold the turn before it is
	// force-ended.
	TurnTimeLimit time.Duration `mapstructure:"turn_time_limit"`
	// BattleTimeLimit is the overall battle deadline.
	BattleTimeLimit time.Duration `mapstructure:"battle_time_limit"`
}

// ContentConfig holds the locations of the data-driven game content.
type ContentConfig struct {
	// ArchetypeDir contains the character archetype YAML files.
	ArchetypeDir string `mapstructure:"archetype_dir"`
	// ItemDir contains the equipment item YAML files.
	ItemDir string `mapstructure:"item_dir"`
}

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: "debug", "info", "warn", "error".
	Level string `mapstructure:"level"`
	// Format is the log output format: "json" or "console".
	Format string `mapstructure:"format"`
}

// Config is the top-level application configuration.
type Config struct {
	Battle  BattleConfig  `mapstructure:"battle"`
	Content ContentConfig `mapstructure:"content"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// Validate checks all configuration invariants.
//
// Postcondition: Returns nil if configuration is valid, or an error describing all violations.
func (c Config) Validate() error {
	var errs []string

	if err := validateBattle(c.Battle); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateContent(c.Content); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateLogging(c.Logging); err != nil {
		errs = append(errs, err.Error())
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

func validateBattle(b BattleConfig) error {
	var errs []string
	if b.GridWidth < 2 {
		errs = append(errs, fmt.Sprintf("battle.grid_width must be >= 2, got %d", b.GridWidth))
	}
	if b.GridHeight < 1 {
		errs = append(errs, fmt.Sprintf("battle.grid_height must be >= 1, got %d", b.GridHeight))
	}
	if b.MovementPerCharacter < 1 {
		errs = append(errs, fmt.Sprintf("battle.movement_per_character must be >= 1, got %d", b.MovementPerCharacter))
	}
	if b.MovementPerTeam < b.MovementPerCharacter {
		errs = append(errs, fmt.Sprintf("battle.movement_per_team must be >= movement_per_character, got %d", b.MovementPerTeam))
	}
	if b.RangedRange < 1 {
		errs = append(errs, fmt.Sprintf("battle.ranged_range must be >= 1, got %d", b.RangedRange))
	}
	if b.TurnTimeLimit <= 0 {
		errs = append(errs, fmt.Sprintf("battle.turn_time_limit must be > 0, got %s", b.TurnTimeLimit))
	}
	if b.BattleTimeLimit < b.TurnTimeLimit {
		errs = append(errs, fmt.Sprintf("battle.battle_time_limit must be >= turn_time_limit, got %s", b.BattleTimeLimit))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateContent(c ContentConfig) error {
	var errs []string
	if c.ArchetypeDir == "" {
		errs = append(errs, "content.archetype_dir must not be empty")
	}
	if c.ItemDir == "" {
		errs = append(errs, "content.item_dir must not be empty")
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateLogging(l LoggingConfig) error {
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[l.Level] {
		return fmt.Errorf("logging.level must be one of [debug, info, warn, error], got %q", l.Level)
	}
	validFormats := map[string]bool{"json": true, "console": true}
	if !validFormats[l.Format] {
		return fmt.Errorf("logging.format must be one of [json, console], got %q", l.Format)
	}
	return nil
}

// Load reads configuration from the given file path, applies environment variable
// overrides, and validates the result.
//
// Precondition: path must be a valid file path to a YAML configuration file.
// Postcondition: Returns a valid Config or a non-nil error.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	// Environment variable overrides with SKIRMISH_ prefix
	v.SetEnvPrefix("SKIRMISH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return Config{}, fmt.Errorf("reading config file: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshalling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// LoadFromViper builds a Config from an already-configured Viper instance.
//
// Precondition: v must be non-nil and have configuration values set.
// Postcondition: Returns a valid Config or a non-nil error.
func LoadFromViper(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshalling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("battle.grid_width", 10)
	v.SetDefault("battle.grid_height", 10)
	v.SetDefault("battle.movement_per_character", 5)
	v.SetDefault("battle.movement_per_team", 15)
	v.SetDefault("battle.ranged_range", 4)
	v.SetDefault("battle.turn_time_limit", "60s")
	v.SetDefault("battle.battle_time_limit", "10m")

	v.SetDefault("content.archetype_dir", "content/archetypes")
	v.SetDefault("content.item_dir", "content/items")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}
