package statusrpc

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"sync"
	"time"

	"github.com/runoshun/agentdeck/internal/domain"
)

const (
	helloTimeout = 10 * time.Second
	writeTimeout = 10 * time.Second
	logCategory  = "rpc"
)

// ErrAlreadyServing is returned when another process answers on the socket.
var ErrAlreadyServing = errors.New("status service already running")

// Server accepts connections and applies their actions to a StatusReporter.
// Connections are handled concurrently; the reporter's store serializes the
// mutations themselves, so a slow action on one session never holds up
// another session's reports.
// Fields are ordered to minimize memory padding.
type Server struct {
	reporter   domain.StatusReporter
	logger     domain.Logger
	listener   net.Listener
	socketPath string
	active     sync.WaitGroup // In-flight connection handlers
}

// NewServer creates a new Server.
func NewServer(socketPath string, reporter domain.StatusReporter, logger domain.Logger) *Server {
	return &Server{
		socketPath: socketPath,
		reporter:   reporter,
		logger:     logger,
	}
}

// Listen binds the socket. A stale socket file is replaced; a live one
// yields ErrAlreadyServing.
func (s *Server) Listen() error {
	if conn, err := net.DialTimeout("unix", s.socketPath, time.Second); err == nil {
		_ = conn.Close()
		return fmt.Errorf("%w: %s", ErrAlreadyServing, s.socketPath)
	}
	if err := os.Remove(s.socketPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove stale socket %s: %w", s.socketPath, err)
	}
	listener, err := net.Listen("unix", s.socketPath)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.socketPath, err)
	}
	s.listener = listener
	return nil
}

// Serve accepts connections until ctx is cancelled, then waits for open
// connections to finish. Listen is called first when needed.
func (s *Server) Serve(ctx context.Context) error {
	if s.listener == nil {
		if err := s.Listen(); err != nil {
			return err
		}
	}
	listener := s.listener
	defer func() {
		_ = listener.Close()
		_ = os.Remove(s.socketPath)
	}()

	// Unblock Accept when the context is cancelled.
	go func() {
		<-ctx.Done()
		_ = listener.Close()
	}()

	s.logger.Info(0, logCategory, "listening on "+s.socketPath)
	for {
		conn, err := listener.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				break
			}
			s.logger.Error(0, logCategory, fmt.Sprintf("accept failed: %v", err))
			continue
		}

		s.active.Add(1)
		go func() {
			defer s.active.Done()
			s.handleConnection(ctx, conn)
		}()
	}

	s.active.Wait()
	return nil
}

func (s *Server) handleConnection(ctx context.Context, conn net.Conn) {
	defer conn.Close()

	connCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	// Unblock ReadFrame on shutdown.
	go func() {
		<-connCtx.Done()
		_ = conn.Close()
	}()

	_ = conn.SetReadDeadline(time.Now().Add(helloTimeout))
	var hello Request
	if err := ReadFrame(conn, &hello); err != nil {
		if !errors.Is(err, io.EOF) {
			s.writeError(conn, fmt.Sprintf("invalid hello: %v", err))
		}
		return
	}
	if hello.Action != ActionHello || hello.Session == "" {
		s.writeError(conn, "first frame must be hello with a session")
		return
	}
	session := hello.Session
	s.writeResponse(conn, Response{OK: true})

	// Agents keep the connection open for their whole run.
	_ = conn.SetReadDeadline(time.Time{})
	for {
		var req Request
		if err := ReadFrame(conn, &req); err != nil {
			if !errors.Is(err, io.EOF) && connCtx.Err() == nil {
				s.logger.Debug(0, logCategory, fmt.Sprintf("session %s: %v", session, err))
				s.writeError(conn, err.Error())
			}
			return
		}

		if err := s.dispatch(connCtx, session, req); err != nil {
			s.logger.Debug(0, logCategory, fmt.Sprintf("session %s: %s failed: %v", session, req.Action, err))
			s.writeError(conn, err.Error())
			continue
		}
		s.writeResponse(conn, Response{OK: true})
	}
}

// dispatch applies one action for session. The session comes from the
// connection binding, never from the frame.
func (s *Server) dispatch(ctx context.Context, session string, req Request) error {
	switch req.Action {
	case ActionStatus:
		status, err := domain.ParseAgentStatus(req.Status)
		if err != nil {
			return fmt.Errorf("%w: %q", err, req.Status)
		}
		return s.reporter.ReportStatus(ctx, domain.StatusReport{
			SessionID: session,
			Status:    status,
			Message:   req.Message,
		})
	case ActionCompletion:
		return s.reporter.ReportCompletion(ctx, domain.CompletionReport{
			SessionID: session,
			PRURL:     req.PRURL,
			Message:   req.Message,
		})
	case ActionTokens:
		return s.reporter.ReportTokens(ctx, domain.TokenReport{
			SessionID:    session,
			InputTokens:  req.InputTokens,
			OutputTokens: req.OutputTokens,
			Cost:         req.Cost,
		})
	case ActionRateLimit:
		return s.reporter.ReportRateLimit(ctx, domain.RateLimitReport{
			SessionID: session,
			Window:    req.Window,
			ResetsAt:  fromUnix(req.ResetsAt),
		})
	case ActionUsage:
		return s.reporter.ReportUsage(ctx, domain.UsageReport{
			SessionID: session,
			Usage: domain.UsageSnapshot{
				FiveHour: domain.UsageWindow{Percent: req.FiveHourPct, ResetsAt: fromUnix(req.FiveHourResetsAt)},
				SevenDay: domain.UsageWindow{Percent: req.SevenDayPct, ResetsAt: fromUnix(req.SevenDayResetsAt)},
			},
		})
	case ActionHello:
		return errors.New("connection already bound to a session")
	default:
		return fmt.Errorf("unknown action %q", req.Action)
	}
}

func (s *Server) writeError(conn net.Conn, message string) {
	s.writeResponse(conn, Response{Error: message})
}

func (s *Server) writeResponse(conn net.Conn, resp Response) {
	_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	if err := WriteFrame(conn, resp); err != nil {
		s.logger.Debug(0, logCategory, fmt.Sprintf("write response: %v", err))
	}
}
