// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Package ssh serves the iwlanctl operator dashboard over SSH, for remote
// access to a bench rig without a local terminal.
package ssh

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/charmbracelet/ssh"
	"github.com/charmbracelet/wish"
	bm "github.com/charmbracelet/wish/bubbletea"
	wishlog "github.com/charmbracelet/wish/logging"
	tea "github.com/charmbracelet/bubbletea"

	"iwlan.dev/epdgctl/internal/logging"
	"iwlan.dev/epdgctl/internal/tui"
)

// Config is the listener configuration for the dashboard's SSH surface.
type Config struct {
	ListenAddress string
	Port          int
	HostKeyPath   string
	// Password, when non-empty, is required of every connecting client.
	// Left empty, the server accepts any credentials: meant for an
	// isolated bench network, not the open internet.
	Password string
}

func (c Config) addr() string {
	if c.ListenAddress == "" && c.Port == 0 {
		return ":2222"
	}
	return fmt.Sprintf("%s:%d", c.ListenAddress, c.Port)
}

// Server wraps a Wish SSH server that hosts tui.Model for each session.
type Server struct {
	srv    *ssh.Server
	logger *logging.Logger
	addr   string

	activeSessions   int32
	totalConnections uint64
	authFailures     uint64
}

// NewServer builds a Server that serves a fresh tui.Model, built by
// newModel, to every authenticated session.
func NewServer(cfg Config, logger *logging.Logger, newModel func() tui.Model) (*Server, error) {
	srv := &Server{logger: logger, addr: cfg.addr()}

	teaHandler := func(s ssh.Session) (tea.Model, []tea.ProgramOption) {
		_, _, active := s.Pty()
		if !active {
			return nil, nil
		}
		return newModel(), []tea.ProgramOption{tea.WithAltScreen()}
	}

	ws, err := wish.NewServer(
		wish.WithAddress(srv.addr),
		wish.WithHostKeyPath(cfg.HostKeyPath),
		wish.WithPasswordAuth(func(ctx ssh.Context, password string) bool {
			ok := cfg.Password == "" || password == cfg.Password
			if !ok {
				atomic.AddUint64(&srv.authFailures, 1)
				logger.Warn("ssh: auth failed", "user", ctx.User())
			}
			return ok
		}),
		wish.WithMiddleware(
			bm.Middleware(teaHandler),
			wishlog.MiddlewareWithLogger(newAdapter(logger)),
			srv.measureMiddleware(),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("ssh: building server: %w", err)
	}

	srv.srv = ws
	return srv, nil
}

// Start runs the SSH server in the background; it does not block.
func (s *Server) Start(ctx context.Context) error {
	s.logger.Info("ssh: starting", "addr", s.addr)
	go func() {
		if err := s.srv.ListenAndServe(); err != nil && err != ssh.ErrServerClosed {
			s.logger.Error("ssh: server error", "error", err)
		}
	}()
	return nil
}

// Stop gracefully shuts the server down.
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("ssh: stopping")
	return s.srv.Shutdown(ctx)
}

func (s *Server) measureMiddleware() wish.Middleware {
	return func(sh ssh.Handler) ssh.Handler {
		return func(sess ssh.Session) {
			atomic.AddInt32(&s.activeSessions, 1)
			atomic.AddUint64(&s.totalConnections, 1)
			defer atomic.AddInt32(&s.activeSessions, -1)
			sh(sess)
		}
	}
}

// adapter routes Wish's internal logging through our structured logger.
type adapter struct {
	logger *logging.Logger
}

func newAdapter(logger *logging.Logger) *adapter {
	return &adapter{logger: logger}
}

func (a *adapter) Printf(format string, args ...any) {
	a.logger.Debug(fmt.Sprintf("[ssh] "+format, args...))
}

func (a *adapter) Write(p []byte) (n int, err error) {
	a.logger.Debug("[ssh] " + string(p))
	return len(p), nil
}
