// Package config provides Viper-based configuration loading for the MUD server.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// DatabaseConfig holds PostgreSQL connection settings. The server runs
// without persistence when Enabled is false; characters and grudges then
// live only in memory.
type DatabaseConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Name            string        `mapstructure:"name"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxConns        int32         `mapstructure:"max_conns"`
	MinConns        int32         `mapstructure:"min_conns"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
}

// DSN returns the PostgreSQL connection string.
//
// Precondition: Host, Port, User, and Name must be non-empty.
// Postcondition: Returns a valid PostgreSQL DSN string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode,
	)
}

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: "debug", "info", "warn", "error".
	Level string `mapstructure:"level"`
	// Format is the log output format: "json" or "console".
	Format string `mapstructure:"format"`
}

// CombatConfig holds round-timing and policy settings for the combat daemon.
type CombatConfig struct {
	// RoundBaseMs is the base round delay in milliseconds before speed adjustments.
	RoundBaseMs int `mapstructure:"round_base_ms"`
	// RoundMinMs is the lower clamp on the computed round delay.
	RoundMinMs int `mapstructure:"round_min_ms"`
	// RoundMaxMs is the upper clamp on the computed round delay.
	RoundMaxMs int `mapstructure:"round_max_ms"`
	// RetaliationDelayMs is the delay before an attacked NPC fights back.
	RetaliationDelayMs int `mapstructure:"retaliation_delay_ms"`
	// PlayerKilling enables player-versus-player combat.
	PlayerKilling bool `mapstructure:"player_killing"`
}

// RoundBase returns the base round delay as a Duration.
func (c CombatConfig) RoundBase() time.Duration {
	return time.Duration(c.RoundBaseMs) * time.Millisecond
}

// RoundMin returns the minimum round delay as a Duration.
func (c CombatConfig) RoundMin() time.Duration {
	return time.Duration(c.RoundMinMs) * time.Millisecond
}

// RoundMax returns the maximum round delay as a Duration.
func (c CombatConfig) RoundMax() time.Duration {
	return time.Duration(c.RoundMaxMs) * time.Millisecond
}

// RetaliationDelay returns the NPC retaliation delay as a Duration.
func (c CombatConfig) RetaliationDelay() time.Duration {
	return time.Duration(c.RetaliationDelayMs) * time.Millisecond
}

// ThreatConfig holds tuning constants for NPC threat tracking.
type ThreatConfig struct {
	// FightingDecayRate is the per-second decay applied while the NPC is in combat.
	FightingDecayRate float64 `mapstructure:"fighting_decay_rate"`
	// IdleDecayRate is the per-second decay applied while the NPC is idle.
	IdleDecayRate float64 `mapstructure:"idle_decay_rate"`
	// Floor is the score below which a threat entry is pruned.
	Floor float64 `mapstructure:"floor"`
}

// ContentConfig holds paths to on-disk game content.
type ContentConfig struct {
	// ZonesDir contains zone definition YAML files.
	ZonesDir string `mapstructure:"zones_dir"`
	// NPCsDir contains NPC template YAML files.
	NPCsDir string `mapstructure:"npcs_dir"`
	// ScriptsDir contains Lua reaction scripts.
	ScriptsDir string `mapstructure:"scripts_dir"`
}

// GameConfig holds world simulation settings.
type GameConfig struct {
	// HeartbeatMs is the interval between NPC heartbeat pulses in milliseconds.
	HeartbeatMs int `mapstructure:"heartbeat_ms"`
	// ScriptInstructionLimit caps Lua opcodes per reaction script run.
	// Zero uses the scripting package default.
	ScriptInstructionLimit int `mapstructure:"script_instruction_limit"`
}

// Heartbeat returns the heartbeat interval as a Duration.
func (g GameConfig) Heartbeat() time.Duration {
	return time.Duration(g.HeartbeatMs) * time.Millisecond
}

// Config is the top-level application configuration.
type Config struct {
	Database DatabaseConfig `mapstructure:"database"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Combat   CombatConfig   `mapstructure:"combat"`
	Threat   ThreatConfig   `mapstructure:"threat"`
	Content  ContentConfig  `mapstructure:"content"`
	Game     GameConfig     `mapstructure:"game"`
}

// Validate checks all configuration invariants.
//
// Postcondition: Returns nil if configuration is valid, or an error describing all violations.
func (c Config) Validate() error {
	var errs []string

	if c.Database.Enabled {
		if err := validateDatabase(c.Database); err != nil {
			errs = append(errs, err.Error())
		}
	}
	if err := validateLogging(c.Logging); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateCombat(c.Combat); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateThreat(c.Threat); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateGame(c.Game); err != nil {
		errs = append(errs, err.Error())
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

func validateDatabase(d DatabaseConfig) error {
	var errs []string
	if d.Host == "" {
		errs = append(errs, "database.host must not be empty")
	}
	if d.Port < 1 || d.Port > 65535 {
		errs = append(errs, fmt.Sprintf("database.port must be 1-65535, got %d", d.Port))
	}
	if d.User == "" {
		errs = append(errs, "database.user must not be empty")
	}
	if d.Name == "" {
		errs = append(errs, "database.name must not be empty")
	}
	validSSL := map[string]bool{"disable": true, "require": true, "verify-ca": true, "verify-full": true}
	if !validSSL[d.SSLMode] {
		errs = append(errs, fmt.Sprintf("database.sslmode must be one of [disable, require, verify-ca, verify-full], got %q", d.SSLMode))
	}
	if d.MaxConns < 1 {
		errs = append(errs, fmt.Sprintf("database.max_conns must be >= 1, got %d", d.MaxConns))
	}
	if d.MinConns < 0 {
		errs = append(errs, "database.min_conns must be >= 0")
	}
	if d.MinConns > d.MaxConns {
		errs = append(errs, "database.min_conns must not exceed database.max_conns")
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

func validateCombat(c CombatConfig) error {
	var errs []string
	if c.RoundBaseMs < 1 {
		errs = append(errs, fmt.Sprintf("combat.round_base_ms must be >= 1, got %d", c.RoundBaseMs))
	}
	if c.RoundMinMs < 1 {
		errs = append(errs, fmt.Sprintf("combat.round_min_ms must be >= 1, got %d", c.RoundMinMs))
	}
	if c.RoundMaxMs < c.RoundMinMs {
		errs = append(errs, fmt.Sprintf("combat.round_max_ms must be >= round_min_ms, got %d < %d", c.RoundMaxMs, c.RoundMinMs))
	}
	if c.RetaliationDelayMs < 0 {
		errs = append(errs, "combat.retaliation_delay_ms must be >= 0")
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateThreat(t ThreatConfig) error {
	var errs []string
	if t.FightingDecayRate < 0 || t.FightingDecayRate >= 1 {
		errs = append(errs, fmt.Sprintf("threat.fighting_decay_rate must be in [0,1), got %g", t.FightingDecayRate))
	}
	if t.IdleDecayRate < 0 || t.IdleDecayRate >= 1 {
		errs = append(errs, fmt.Sprintf("threat.idle_decay_rate must be in [0,1), got %g", t.IdleDecayRate))
	}
	if t.IdleDecayRate < t.FightingDecayRate {
		errs = append(errs, "threat.idle_decay_rate must be >= threat.fighting_decay_rate")
	}
	if t.Floor < 0 {
		errs = append(errs, fmt.Sprintf("threat.floor must be >= 0, got %g", t.Floor))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateGame(g GameConfig) error {
	var errs []string
	if g.HeartbeatMs < 1 {
		errs = append(errs, fmt.Sprintf("game.heartbeat_ms must be >= 1, got %d", g.HeartbeatMs))
	}
	if g.ScriptInstructionLimit < 0 {
		errs = append(errs, "game.script_instruction_limit must be >= 0")
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
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

	// Environment variable overrides with MUD_ prefix
	v.SetEnvPrefix("MUD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

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
	v.SetDefault("database.enabled", false)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_conns", 10)
	v.SetDefault("database.min_conns", 2)
	v.SetDefault("database.max_conn_lifetime", time.Hour)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("combat.round_base_ms", 3000)
	v.SetDefault("combat.round_min_ms", 1000)
	v.SetDefault("combat.round_max_ms", 5000)
	v.SetDefault("combat.retaliation_delay_ms", 200)
	v.SetDefault("combat.player_killing", false)

	v.SetDefault("threat.fighting_decay_rate", 0.02)
	v.SetDefault("threat.idle_decay_rate", 0.10)
	v.SetDefault("threat.floor", 5)

	v.SetDefault("content.zones_dir", "content/zones")
	v.SetDefault("content.npcs_dir", "content/npcs")
	v.SetDefault("content.scripts_dir", "content/scripts")

	v.SetDefault("game.heartbeat_ms", 1000)
	v.SetDefault("game.script_instruction_limit", 0)
}
