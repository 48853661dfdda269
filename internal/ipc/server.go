package ipc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/1broseidon/swaygravity/internal/daemon"
	"github.com/fsnotify/fsnotify"
	"github.com/thejerf/suture/v4"
)

// ErrHandoverTimeout is returned when a previous daemon does not release
// the socket path in time.
var ErrHandoverTimeout = errors.New("timed out waiting for previous daemon to release socket")

const (
	// DefaultReadTimeout bounds how long a client may take to send its message.
	DefaultReadTimeout = 5 * time.Second
	// DefaultHandoverTimeout bounds the wait for a previous daemon to exit.
	DefaultHandoverTimeout = 5 * time.Second

	pollInterval = 100 * time.Millisecond
)

// Server accepts client connections on a unix socket and forwards each
// message into the reconciliation loop.
type Server struct {
	socketPath  string
	listener    *net.UnixListener
	events      chan<- daemon.Event
	logger      *slog.Logger
	readTimeout time.Duration

	closed       atomic.Bool
	shutdownOnce sync.Once
}

// Listen binds socketPath, first asking any daemon already listening there
// to stop and waiting up to handoverTimeout for it to let go.
func Listen(ctx context.Context, socketPath string, handoverTimeout time.Duration, events chan<- daemon.Event, logger *slog.Logger) (*Server, error) {
	if logger == nil {
		logger = slog.Default()
	}

	if _, err := os.Lstat(socketPath); err == nil {
		if err := handover(ctx, socketPath, handoverTimeout, logger); err != nil {
			return nil, err
		}
	}

	if err := os.MkdirAll(filepath.Dir(socketPath), 0700); err != nil {
		return nil, fmt.Errorf("failed to create socket directory: %w", err)
	}

	addr := &net.UnixAddr{Name: socketPath, Net: "unix"}
	listener, err := net.ListenUnix("unix", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to create IPC socket: %w", err)
	}

	if err := os.Chmod(socketPath, 0600); err != nil {
		listener.Close()
		return nil, fmt.Errorf("failed to set socket permissions: %w", err)
	}

	logger.Info("IPC server listening", "socket", socketPath)

	return &Server{
		socketPath:  socketPath,
		listener:    listener,
		events:      events,
		logger:      logger,
		readTimeout: DefaultReadTimeout,
	}, nil
}

func (s *Server) String() string { return "ipc" }

// Path returns the bound socket path.
func (s *Server) Path() string { return s.socketPath }

// Serve accepts connections until ctx is done or the server is shut down.
func (s *Server) Serve(ctx context.Context) error {
	if s.closed.Load() {
		return suture.ErrDoNotRestart
	}
	if err := s.listener.SetDeadline(time.Time{}); err != nil {
		return fmt.Errorf("reset accept deadline: %w", err)
	}

	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			// Wake the blocked Accept without closing the listener.
			_ = s.listener.SetDeadline(time.Now())
		case <-stop:
		}
	}()

	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if s.closed.Load() {
				return suture.ErrDoNotRestart
			}
			return fmt.Errorf("accept: %w", err)
		}

		// Connections are read in accept order so their messages reach
		// the loop in that order.
		s.handleConnection(ctx, conn)
	}
}

// handleConnection reads the one message a connection carries. The read
// deadline bounds how long one client can hold up the next.
func (s *Server) handleConnection(ctx context.Context, conn net.Conn) {
	defer conn.Close()

	if err := conn.SetReadDeadline(time.Now().Add(s.readTimeout)); err != nil {
		s.logger.Warn("IPC: failed to set read deadline", "error", err)
		return
	}
	stop := context.AfterFunc(ctx, func() { _ = conn.SetReadDeadline(time.Now()) })
	defer stop()

	msg, err := Decode(conn)
	if err != nil {
		s.logger.Warn("IPC: dropped connection", "error", err)
		return
	}

	s.logger.Debug("IPC: received message", "command", msg.Command)
	if err := daemon.Send(ctx, s.events, msg.Event(s.String())); err != nil {
		s.logger.Debug("IPC: message not delivered", "error", err)
	}
}

// Shutdown closes the listener and removes the socket path. Only the first
// call has an effect.
func (s *Server) Shutdown() {
	s.shutdownOnce.Do(func() {
		s.closed.Store(true)
		if err := s.listener.Close(); err != nil {
			s.logger.Debug("IPC: closing listener", "error", err)
		}
		if err := os.Remove(s.socketPath); err != nil && !errors.Is(err, os.ErrNotExist) {
			s.logger.Warn("IPC: failed to remove socket", "socket", s.socketPath, "error", err)
		}
		s.logger.Info("IPC server stopped", "socket", s.socketPath)
	})
}

// handover asks whatever listens on socketPath to shut down and waits for
// it to remove the path. A path nobody listens on is stale and removed.
func handover(ctx context.Context, socketPath string, timeout time.Duration, logger *slog.Logger) error {
	err := NewClient(socketPath, timeout).Shutdown(ctx)
	switch {
	case errors.Is(err, ErrDaemonNotRunning):
		logger.Info("Removing stale socket", "socket", socketPath)
		if err := os.Remove(socketPath); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("failed to remove stale socket: %w", err)
		}
		return nil
	case err != nil:
		return fmt.Errorf("handover: %w", err)
	}

	logger.Info("Asked running daemon to shut down, waiting for socket release",
		"socket", socketPath, "timeout", timeout)
	return WaitForRemoval(ctx, socketPath, timeout, logger)
}

// WaitForRemoval blocks until path no longer exists, ctx is done or
// timeout elapses. It watches the parent directory and also polls, so a
// missed notification only costs one poll interval.
func WaitForRemoval(ctx context.Context, path string, timeout time.Duration, logger *slog.Logger) error {
	var (
		fsEvents <-chan fsnotify.Event
		fsErrors <-chan error
	)
	watcher, err := fsnotify.NewWatcher()
	if err == nil {
		defer watcher.Close()
		if err := watcher.Add(filepath.Dir(path)); err == nil {
			fsEvents, fsErrors = watcher.Events, watcher.Errors
		} else {
			logger.Debug("Cannot watch socket directory, polling", "error", err)
		}
	} else {
		logger.Debug("Cannot create file watcher, polling", "error", err)
	}

	deadline := time.NewTimer(timeout)
	defer deadline.Stop()
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		if _, err := os.Lstat(path); errors.Is(err, os.ErrNotExist) {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-deadline.C:
			return fmt.Errorf("%w: %s still present after %s", ErrHandoverTimeout, path, timeout)
		case ev, ok := <-fsEvents:
			if !ok {
				fsEvents = nil
			} else if ev.Name == path && ev.Has(fsnotify.Remove) {
				logger.Debug("Socket removed", "socket", path)
			}
		case err, ok := <-fsErrors:
			if !ok {
				fsErrors = nil
			} else {
				logger.Debug("File watcher error", "error", err)
			}
		case <-ticker.C:
		}
	}
}
