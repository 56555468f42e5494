package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/charmbracelet/ssh"
	"github.com/charmbracelet/wish"
	"github.com/charmbracelet/wish/activeterm"
	"github.com/charmbracelet/wish/bubbletea"
	"github.com/charmbracelet/wish/logging"

	"github.com/contestantbots/hackbots/internal/arena"
	"github.com/contestantbots/hackbots/internal/config"
	"github.com/contestantbots/hackbots/internal/ui"
)

const shutdownTimeout = 30 * time.Second

func getIP(s ssh.Session) string {
	if addr, ok := s.RemoteAddr().(*net.TCPAddr); ok {
		return addr.IP.String()
	}
	return s.RemoteAddr().String()
}

// connectionLimiter caps the sessions open from one IP.
type connectionLimiter struct {
	mu     sync.Mutex
	counts map[string]int
	max    int
	logger *log.Logger
}

func newConnectionLimiter(max int, logger *log.Logger) *connectionLimiter {
	return &connectionLimiter{counts: make(map[string]int), max: max, logger: logger}
}

// acquire takes a slot for ip, reporting the count it would have reached when
// there is none left.
func (l *connectionLimiter) acquire(ip string) (int, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.counts[ip] >= l.max {
		return l.counts[ip] + 1, false
	}
	l.counts[ip]++
	return l.counts[ip], true
}

func (l *connectionLimiter) release(ip string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.counts[ip]--
	if l.counts[ip] <= 0 {
		delete(l.counts, ip)
	}
	return l.counts[ip]
}

func (l *connectionLimiter) Middleware(next ssh.Handler) ssh.Handler {
	return func(s ssh.Session) {
		ip := getIP(s)

		count, ok := l.acquire(ip)
		if !ok {
			l.logger.Warn("Connection denied: IP limit exceeded", "ip", ip, "attempted_count", count, "current_limit", l.max)
			fmt.Fprintf(s, "Too many active connections from your IP (%d/%d). Please try again later.\r\n", count, l.max)
			s.Close()
			return
		}
		defer func() {
			l.logger.Info("Connection closed", "ip", ip, "count_after", l.release(ip))
		}()

		l.logger.Info("Connection accepted", "ip", ip, "current_count", count, "limit", l.max)
		next(s)
	}
}

func main() {
	configPath := flag.String("config", "", "YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal("Invalid configuration", "error", err)
	}

	logger := log.NewWithOptions(os.Stderr, log.Options{
		Level:           cfg.Level(),
		ReportTimestamp: true,
		Prefix:          "hackbots",
	})
	log.SetDefault(logger)

	// one store for every session; sqlite serialises the writes
	var store *arena.ResultStore
	if cfg.ResultsDB != "" && cfg.ResultsDB != "none" {
		store, err = arena.OpenResultStore(cfg.ResultsDB, logger)
		if err != nil {
			log.Fatal("Could not open results", "error", err)
		}
		defer store.Close()
	}

	limiter := newConnectionLimiter(cfg.SSH.MaxConnectionsPerIP, logger)
	sshServer, err := wish.NewServer(
		wish.WithAddress(cfg.SSH.Address()),
		wish.WithHostKeyPath(cfg.SSH.HostKeyPath),
		wish.WithMiddleware(
			bubbletea.Middleware(viewHandler(cfg, store, logger)),
			logging.Middleware(),
			activeterm.Middleware(),
			limiter.Middleware,
		),
	)
	if err != nil {
		log.Fatal("Could not create ssh server", "error", err)
	}

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	logger.Info("Starting SSH server", "address", cfg.SSH.Address())
	go func() {
		if err := sshServer.ListenAndServe(); err != nil && !errors.Is(err, ssh.ErrServerClosed) {
			logger.Error("Could not start server", "error", err)
			done <- nil
		}
	}()

	<-done

	logger.Info("Stopping SSH server")
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := sshServer.Shutdown(ctx); err != nil && !errors.Is(err, ssh.ErrServerClosed) {
		logger.Error("Could not stop server", "error", err)
	}
}

// viewHandler gives every session its own viewer; matches are built per
// session and only the result store is shared.
func viewHandler(cfg config.Config, store *arena.ResultStore, logger *log.Logger) bubbletea.Handler {
	return func(s ssh.Session) (tea.Model, []tea.ProgramOption) {
		pty, _, _ := s.Pty()
		sessionLogger := logger.With("user", s.User(), "ip", getIP(s))
		newMatch := func(lineup arena.Lineup) (*arena.Arena, error) {
			return arena.NewMatch(lineup, cfg.Settings(), sessionLogger)
		}
		controller := ui.NewControllerModel(newMatch, store, cfg.Lineup(), sessionLogger, pty.Window.Width, pty.Window.Height)
		return controller, []tea.ProgramOption{tea.WithAltScreen()}
	}
}
