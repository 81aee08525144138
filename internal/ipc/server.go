package ipc

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"time"

	"github.com/ErlanBelekov/cronlet/internal/requestid"
)

// Handler answers one decoded request with its response content. The
// service wires this to its ServiceState so handlers can set
// must_reload/exit_requested and block until they clear, per spec
// §4.G.
type Handler func(ctx context.Context, req RequestContent) ResponseContent

// Server accepts connections on a Unix domain socket and runs Handler
// against each decoded request, one goroutine per connection (spec
// §4.F: "The service spawns one handler per accepted connection.").
type Server struct {
	socketPath string
	handler    Handler
	logger     *slog.Logger
	listener   net.Listener
}

// NewServer returns a Server bound to socketPath once Bind is called.
func NewServer(socketPath string, handler Handler, logger *slog.Logger) *Server {
	return &Server{
		socketPath: socketPath,
		handler:    handler,
		logger:     logger.With("component", "ipc"),
	}
}

// Bind reclaims a stale socket file, if any, and binds the listener.
// A liveness probe (dial attempt) distinguishes a stale file from a
// live service: ConnectionRefused means stale (unlink and rebind);
// a successful connect means another instance is alive, so Bind fails
// with ErrAlreadyRunning.
func (s *Server) Bind(ctx context.Context) error {
	if _, err := os.Stat(s.socketPath); err == nil {
		probe, dialErr := net.DialTimeout("unix", s.socketPath, time.Second)
		if dialErr == nil {
			probe.Close()
			return ErrAlreadyRunning
		}
		if err := os.Remove(s.socketPath); err != nil {
			return fmt.Errorf("remove stale socket: %w", err)
		}
	}

	ln, err := net.Listen("unix", s.socketPath)
	if err != nil {
		return fmt.Errorf("bind socket: %w", err)
	}
	s.listener = ln
	return nil
}

// Serve accepts connections until ctx is cancelled or the listener
// closes, spawning one handler goroutine per connection.
func (s *Server) Serve(ctx context.Context) error {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return nil
			default:
			}
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			return fmt.Errorf("accept: %w", err)
		}
		go s.handleConn(ctx, conn)
	}
}

// Close shuts down the listener and removes the socket file.
func (s *Server) Close() error {
	if s.listener == nil {
		return nil
	}
	err := s.listener.Close()
	_ = os.Remove(s.socketPath)
	return err
}

func (s *Server) handleConn(ctx context.Context, conn net.Conn) {
	defer conn.Close()

	// Each connection gets its own request id, threaded through the
	// handler's context so log lines from this call can be correlated,
	// the same purpose teacher's middleware.RequestID() serves per HTTP
	// request.
	connCtx := requestid.WithRequestID(ctx, requestid.New())

	reader := bufio.NewReader(conn)
	writer := bufio.NewWriter(conn)

	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			if !errors.Is(err, io.EOF) {
				s.logger.Warn("connection read failed, closing", "error", err)
			}
			return
		}

		var req Request
		if err := json.Unmarshal([]byte(line), &req); err != nil {
			s.logger.Warn("decode error, continuing on same connection", "error", err)
			continue
		}

		result := s.handler(connCtx, req.Content)
		resp := Response{ForID: req.ID, Result: result}

		raw, err := json.Marshal(resp)
		if err != nil {
			s.logger.Error("encode error, closing connection", "error", err)
			return
		}
		raw = append(raw, '\n')

		if _, err := writer.Write(raw); err != nil {
			s.logger.Warn("write error, closing connection", "error", err)
			return
		}
		if err := writer.Flush(); err != nil {
			s.logger.Warn("flush error, closing connection", "error", err)
			return
		}
	}
}
