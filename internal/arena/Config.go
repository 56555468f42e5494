package arena

import "time"

const (
	AutoplayTick            = 100 * time.Millisecond
	DefaultMaxPhases        = 300
	DefaultTurnTimeout      = 50 * time.Millisecond
	DefaultSpawnInterval    = 5
	DefaultMaxPlayersPerBot = 12
	defaultMaxCollectables  = 6
	maxWallFraction         = 0.4
	maxGenerateAttempts     = 20
)

// Settings tune a single match.
type Settings struct {
	MaxPhases        int
	TurnTimeout      time.Duration
	SpawnInterval    int
	MaxPlayersPerBot int
	// MaxCollectables of zero uses the map's own limit.
	MaxCollectables int
	// Debug turns the turn timeout off.
	Debug bool
	Seed  uint64
}

func DefaultSettings() Settings {
	return Settings{
		MaxPhases:        DefaultMaxPhases,
		TurnTimeout:      DefaultTurnTimeout,
		SpawnInterval:    DefaultSpawnInterval,
		MaxPlayersPerBot: DefaultMaxPlayersPerBot,
	}
}

func (s Settings) withDefaults() Settings {
	d := DefaultSettings()
	if s.MaxPhases <= 0 {
		s.MaxPhases = d.MaxPhases
	}
	if s.SpawnInterval <= 0 {
		s.SpawnInterval = d.SpawnInterval
	}
	if s.MaxPlayersPerBot <= 0 {
		s.MaxPlayersPerBot = d.MaxPlayersPerBot
	}
	return s
}
