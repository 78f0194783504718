// Package config loads arena settings from the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/amalg/gridarena/internal/game"
)

// Config holds every setting the binaries read from the environment. Flags
// in cmd/ override these.
type Config struct {
	Addr          string        `env:"ARENA_ADDR" envDefault:":9999"`
	HTTPAddr      string        `env:"ARENA_HTTP_ADDR" envDefault:":8080"`
	AllowOrigins  string        `env:"ARENA_ALLOW_ORIGINS" envDefault:"*"`
	ServerName    string        `env:"ARENA_NAME" envDefault:"gridarena"`
	TokenURL      string        `env:"ARENA_TOKEN_URL" envDefault:"https://token.otfbm.io/meta/"`
	MapURL        string        `env:"ARENA_MAP_URL" envDefault:"https://otfbm.io/"`
	LookupTimeout time.Duration `env:"ARENA_LOOKUP_TIMEOUT" envDefault:"5s"`
	IdleTimeout   time.Duration `env:"ARENA_IDLE_TIMEOUT" envDefault:"30m"`
	ReapInterval  time.Duration `env:"ARENA_REAP_INTERVAL" envDefault:"1m"`
	Discovery     bool          `env:"ARENA_DISCOVERY" envDefault:"true"`
	DiscoveryPort int           `env:"ARENA_DISCOVERY_PORT" envDefault:"9998"`
	Admins        []string      `env:"ARENA_ADMINS" envSeparator:","`
	LogFile       string        `env:"ARENA_LOG_FILE"`

	Rules Rules `envPrefix:"ARENA_RULES_"`
}

// Rules are the tunable parts of game.Config.
type Rules struct {
	StartingHP     int `env:"STARTING_HP" envDefault:"12"`
	MovesPerTurn   int `env:"MOVES_PER_TURN" envDefault:"4"`
	ActionsPerTurn int `env:"ACTIONS_PER_TURN" envDefault:"2"`
	TrapDamage     int `env:"TRAP_DAMAGE" envDefault:"2"`
	ThrowRange     int `env:"THROW_RANGE" envDefault:"5"`
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Load reads the optional dotenv files (".env" when none are given) into the
// process environment, then parses Config from it. Variables already set in
// the environment win over the files.
func Load(files ...string) (Config, error) {
	if err := godotenv.Load(files...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load dotenv: %w", err)
	}

	var cfg Config
	if err := ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects settings the engine cannot run with.
func (c Config) Validate() error {
	r := c.Rules
	switch {
	case r.StartingHP < 1:
		return fmt.Errorf("config: starting hp must be positive, got %d", r.StartingHP)
	case r.MovesPerTurn < 0:
		return fmt.Errorf("config: moves per turn must not be negative, got %d", r.MovesPerTurn)
	case r.ActionsPerTurn < 1:
		return fmt.Errorf("config: actions per turn must be positive, got %d", r.ActionsPerTurn)
	case r.TrapDamage < 0 || r.ThrowRange < 0:
		return fmt.Errorf("config: trap damage and throw range must not be negative")
	case c.IdleTimeout < 0:
		return fmt.Errorf("config: idle timeout must not be negative, got %s", c.IdleTimeout)
	case c.ReapInterval <= 0:
		return fmt.Errorf("config: reap interval must be positive, got %s", c.ReapInterval)
	}
	return nil
}

// GameConfig applies the rule overrides to the default engine config.
func (c Config) GameConfig() game.Config {
	g := game.DefaultConfig()
	g.StartingHP = c.Rules.StartingHP
	g.MovesPerTurn = c.Rules.MovesPerTurn
	g.ActionsPerTurn = c.Rules.ActionsPerTurn
	g.TrapDamage = c.Rules.TrapDamage
	g.ThrowRange = c.Rules.ThrowRange
	return g
}
