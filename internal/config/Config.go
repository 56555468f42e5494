package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"gopkg.in/yaml.v3"
)

const (
	PrivateKeyEnv       = "HACKBOTS_PRIVATE_KEY_PATH"
	legacyPrivateKeyEnv = "OUROBOROS_PRIVATE_KEY_PATH"

	DefaultHost                = "0.0.0.0"
	DefaultPort                = "6996"
	DefaultMaxConnectionsPerIP = 2
	DefaultResultsDB           = "results.db"
	DefaultMaxPhases           = 300
	DefaultTurnTimeout         = 50 * time.Millisecond
	MaxOpponents               = 3
)

type SSH struct {
	Host                string `yaml:"host"`
	Port                string `yaml:"port"`
	HostKeyPath         string `yaml:"hostKeyPath"`
	MaxConnectionsPerIP int    `yaml:"maxConnectionsPerIP"`
}

func (s SSH) Address() string {
	return s.Host + ":" + s.Port
}

type Collector struct {
	NearestFirst  bool `yaml:"nearestFirst"`
	PruneVanished bool `yaml:"pruneVanished"`
}

// Config is what both binaries start from. Flags are layered on top of it.
type Config struct {
	Map         string        `yaml:"map"`
	MapFile     string        `yaml:"mapFile"`
	Player      string        `yaml:"player"`
	PlayerName  string        `yaml:"playerName"`
	Bots        []string      `yaml:"bots"`
	Debug       bool          `yaml:"debug"`
	Seed        uint64        `yaml:"seed"`
	MaxPhases   int           `yaml:"maxPhases"`
	TurnTimeout time.Duration `yaml:"turnTimeout"`
	ResultsDB   string        `yaml:"resultsDB"`
	LogLevel    string        `yaml:"logLevel"`
	Collector   Collector     `yaml:"collector"`
	SSH         SSH           `yaml:"ssh"`
}

func Default() Config {
	return Config{
		Map:         "Medium",
		Player:      "collector",
		Bots:        []string{"explorer"},
		MaxPhases:   DefaultMaxPhases,
		TurnTimeout: DefaultTurnTimeout,
		ResultsDB:   DefaultResultsDB,
		LogLevel:    "info",
		SSH: SSH{
			Host:                DefaultHost,
			Port:                DefaultPort,
			MaxConnectionsPerIP: DefaultMaxConnectionsPerIP,
		},
	}
}

// Load reads a YAML file over the defaults and applies the environment. An
// empty path skips the file.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("could not read config %q: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("could not parse config %q: %w", path, err)
		}
	}
	cfg.ApplyEnv(os.Getenv)
	return cfg, cfg.Validate()
}

func (c *Config) ApplyEnv(getenv func(string) string) {
	for _, key := range []string{PrivateKeyEnv, legacyPrivateKeyEnv} {
		if value := strings.TrimSpace(getenv(key)); value != "" {
			c.SSH.HostKeyPath = value
			return
		}
	}
}

func (c Config) Validate() error {
	var errs []error
	if len(c.Bots) > MaxOpponents {
		errs = append(errs, fmt.Errorf("at most %d opponents, got %d", MaxOpponents, len(c.Bots)))
	}
	if c.MaxPhases <= 0 {
		errs = append(errs, fmt.Errorf("maxPhases must be positive, got %d", c.MaxPhases))
	}
	if c.TurnTimeout < 0 {
		errs = append(errs, fmt.Errorf("turnTimeout must not be negative, got %s", c.TurnTimeout))
	}
	if c.SSH.MaxConnectionsPerIP <= 0 {
		errs = append(errs, fmt.Errorf("ssh.maxConnectionsPerIP must be positive, got %d", c.SSH.MaxConnectionsPerIP))
	}
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, fmt.Errorf("logLevel: %w", err))
	}
	return errors.Join(errs...)
}

// Level is the log level to run with. Debug mode always logs at debug.
func (c Config) Level() log.Level {
	if c.Debug {
		return log.DebugLevel
	}
	level, err := log.ParseLevel(c.LogLevel)
	if err != nil {
		return log.InfoLevel
	}
	return level
}
