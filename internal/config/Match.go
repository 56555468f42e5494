package config

import (
	"github.com/contestantbots/hackbots/internal/arena"
	"github.com/contestantbots/hackbots/internal/bot"
)

// Settings turns the match knobs into arena settings.
func (c Config) Settings() arena.Settings {
	settings := arena.DefaultSettings()
	settings.MaxPhases = c.MaxPhases
	settings.TurnTimeout = c.TurnTimeout
	settings.Debug = c.Debug
	settings.Seed = c.Seed
	return settings
}

// Lineup is the match the config asks for. Debug mode also dumps what our
// bot sees every phase.
func (c Config) Lineup() arena.Lineup {
	return arena.Lineup{
		Player:     c.Player,
		PlayerName: c.PlayerName,
		Opponents:  append([]string(nil), c.Bots...),
		Map:        c.Map,
		MapFile:    c.MapFile,
		Collector: bot.CollectorOptions{
			NearestFirst:  c.Collector.NearestFirst,
			PruneVanished: c.Collector.PruneVanished,
		},
		LogState: c.Debug,
	}
}
