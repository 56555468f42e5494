package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/charmbracelet/log"

	"github.com/contestantbots/hackbots/internal/arena"
	"github.com/contestantbots/hackbots/internal/bot"
	"github.com/contestantbots/hackbots/internal/config"
	"github.com/contestantbots/hackbots/internal/ui"
)

const debugLogFile = "hackbots-debug.log"

// botList collects every -bot flag.
type botList []string

func (b *botList) String() string {
	return strings.Join(*b, ",")
}

func (b *botList) Set(value string) error {
	*b = append(*b, value)
	return nil
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// options are the flags that are not config overrides.
type options struct {
	configPath string
	headless   bool
	bots       botList
}

func defineFlags(fs *flag.FlagSet) *options {
	opts := &options{}
	fs.StringVar(&opts.configPath, "config", "", "YAML config file")
	fs.BoolVar(&opts.headless, "headless", false, "play to the end without the viewer and print the standings")
	fs.Var(&opts.bots, "bot", "opponent bot, repeat for up to 3")
	fs.String("map", "", "map preset: "+strings.Join(arena.PresetNames(), ", "))
	fs.String("mapfile", "", "YAML map file, used instead of -map")
	fs.String("player", "", "our bot: "+strings.Join(bot.Kinds(), ", ")+" or script:<name|path>")
	fs.String("name", "", "display name for our bot")
	fs.Bool("debug", false, "no turn timeout, debug logs and a state dump every phase")
	fs.Uint64("seed", 0, "seed for maps and bots, 0 for a random match")
	fs.Int("phases", 0, "phases to play")
	fs.String("db", "", "SQLite file for results, \"none\" to keep nothing")
	return opts
}

func run() error {
	opts := defineFlags(flag.CommandLine)
	flag.Parse()

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return err
	}
	if err := applyFlags(flag.CommandLine, &cfg, opts.bots); err != nil {
		return err
	}

	logger, closeLog, err := newLogger(cfg, opts.headless)
	if err != nil {
		return err
	}
	defer closeLog()

	var store *arena.ResultStore
	if cfg.ResultsDB != "" && cfg.ResultsDB != "none" {
		store, err = arena.OpenResultStore(cfg.ResultsDB, logger)
		if err != nil {
			return err
		}
		defer store.Close()
	}

	if opts.headless {
		return playHeadless(cfg, store, logger)
	}

	newMatch := func(lineup arena.Lineup) (*arena.Arena, error) {
		return arena.NewMatch(lineup, cfg.Settings(), logger)
	}
	p := tea.NewProgram(ui.NewControllerModel(newMatch, store, cfg.Lineup(), logger, 0, 0), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("viewer: %w", err)
	}
	return nil
}

// applyFlags lays the flags that were set on the command line over the
// config file.
func applyFlags(fs *flag.FlagSet, cfg *config.Config, bots botList) error {
	var errs []error
	fs.Visit(func(f *flag.Flag) {
		value := f.Value.String()
		switch f.Name {
		case "map":
			cfg.Map, cfg.MapFile = value, ""
		case "mapfile":
			cfg.MapFile = value
		case "player":
			cfg.Player = value
		case "name":
			cfg.PlayerName = value
		case "debug":
			cfg.Debug = value == "true"
		case "db":
			cfg.ResultsDB = value
		case "bot":
			cfg.Bots = bots
		case "seed":
			seed, err := strconv.ParseUint(value, 10, 64)
			errs = append(errs, err)
			cfg.Seed = seed
		case "phases":
			phases, err := strconv.Atoi(value)
			errs = append(errs, err)
			cfg.MaxPhases = phases
		}
	})
	if err := errors.Join(errs...); err != nil {
		return err
	}
	return cfg.Validate()
}

// newLogger logs to stderr when headless. The viewer owns the terminal, so
// it only gets a log file in debug mode.
func newLogger(cfg config.Config, headless bool) (*log.Logger, func(), error) {
	var out io.Writer = os.Stderr
	closeLog := func() {}
	if !headless {
		out = io.Discard
		if cfg.Debug {
			f, err := os.OpenFile(debugLogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
			if err != nil {
				return nil, nil, fmt.Errorf("could not open %s: %w", debugLogFile, err)
			}
			out = f
			closeLog = func() { f.Close() }
		}
	}
	logger := log.NewWithOptions(out, log.Options{
		Level:           cfg.Level(),
		ReportTimestamp: true,
		Prefix:          "hackbots",
	})
	return logger, closeLog, nil
}

func playHeadless(cfg config.Config, store *arena.ResultStore, logger *log.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := arena.NewMatch(cfg.Lineup(), cfg.Settings(), logger)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.Run(ctx); err != nil {
		return fmt.Errorf("match stopped after %d phases: %w", a.Phase(), err)
	}

	fmt.Println(renderStandings(a))

	if store != nil {
		if err := store.SaveMatch(ctx, a); err != nil {
			return err
		}
	}
	return nil
}

func renderStandings(a *arena.Arena) string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("#", "Bot", "Score", "Players", "Spawns", "Note")
	for i, entry := range a.Standings() {
		t.Row(
			strconv.Itoa(i+1),
			entry.Name,
			strconv.Itoa(entry.Score),
			strconv.Itoa(entry.Players),
			strconv.Itoa(entry.SpawnPoints),
			entry.Reason,
		)
	}
	title := lipgloss.NewStyle().Bold(true).Render(
		fmt.Sprintf("%s, %d phases (match %s)", a.Layout().Name, a.Phase(), a.ID()))
	return lipgloss.JoinVertical(lipgloss.Left, title, t.String())
}
