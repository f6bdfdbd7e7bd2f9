// Package control implements the daemon's local control channel: a unix
// socket speaking newline-delimited JSON requests and responses.
package control

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"

	"github.com/scarab-term/scarab/internal/logging"
	"github.com/scarab-term/scarab/internal/protocol"
	"github.com/scarab-term/scarab/internal/safego"
	"github.com/scarab-term/scarab/internal/session"
)

// Server accepts control connections and dispatches requests to the
// session manager. Each connection gets its own client identity; any
// sessions it attached are detached when the connection drops.
type Server struct {
	manager    *session.Manager
	socketPath string

	// pluginForwarder receives load_plugin paths verbatim. The daemon
	// never interprets plugin paths itself.
	pluginForwarder func(path string) error

	mu       sync.Mutex
	listener net.Listener

	shutdown    sync.Once
	shutdownErr error
}

func NewServer(manager *session.Manager, socketPath string) *Server {
	return &Server{
		manager:    manager,
		socketPath: socketPath,
	}
}

// SetPluginForwarder registers the recipient of load_plugin requests.
// Without one, load_plugin requests fail with an error response.
func (s *Server) SetPluginForwarder(fn func(path string) error) {
	s.pluginForwarder = fn
}

// Start binds the socket and serves until ctx is cancelled. A stale
// socket file from a previous run is removed; a non-socket file at the
// path is an error.
func (s *Server) Start(ctx context.Context) error {
	if err := os.MkdirAll(filepath.Dir(s.socketPath), 0o755); err != nil {
		return fmt.Errorf("create socket dir: %w", err)
	}
	if st, err := os.Lstat(s.socketPath); err == nil {
		if st.Mode()&os.ModeSocket == 0 {
			return fmt.Errorf("socket path exists and is not a unix socket: %s", s.socketPath)
		}
		if err := os.Remove(s.socketPath); err != nil {
			return fmt.Errorf("remove stale socket: %w", err)
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("stat socket path: %w", err)
	}
	ln, err := net.Listen("unix", s.socketPath)
	if err != nil {
		return fmt.Errorf("listen uds: %w", err)
	}
	if err := os.Chmod(s.socketPath, 0o600); err != nil {
		ln.Close()
		return fmt.Errorf("chmod socket: %w", err)
	}
	s.mu.Lock()
	s.listener = ln
	s.mu.Unlock()
	logging.Info("control server listening on %s", s.socketPath)

	safego.Go("control-accept", func() {
		<-ctx.Done()
		s.Shutdown()
	})

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			return fmt.Errorf("accept: %w", err)
		}
		clientID := uuid.NewString()
		safego.Go("control-conn-"+clientID, func() {
			s.serveConn(ctx, conn, clientID)
		})
	}
}

// Shutdown closes the listener and removes the socket file. Safe to
// call more than once.
func (s *Server) Shutdown() error {
	s.shutdown.Do(func() {
		s.mu.Lock()
		ln := s.listener
		s.listener = nil
		s.mu.Unlock()
		if ln != nil {
			if err := ln.Close(); err != nil {
				s.shutdownErr = err
			}
		}
		if err := os.Remove(s.socketPath); err != nil && !errors.Is(err, os.ErrNotExist) && s.shutdownErr == nil {
			s.shutdownErr = err
		}
	})
	return s.shutdownErr
}

func (s *Server) serveConn(ctx context.Context, conn net.Conn, clientID string) {
	defer conn.Close()
	defer s.manager.DetachAll(clientID)

	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 0, 4096), protocol.MaxMessageSize)
	enc := json.NewEncoder(conn)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var req protocol.Request
		if err := json.Unmarshal(line, &req); err != nil {
			logging.Debug("control: bad request from %s: %v", clientID, err)
			if writeErr := enc.Encode(errorResponse(fmt.Errorf("invalid request: %w", err))); writeErr != nil {
				return
			}
			continue
		}
		resp := s.dispatch(ctx, clientID, &req)
		if err := enc.Encode(resp); err != nil {
			logging.Debug("control: write to %s failed: %v", clientID, err)
			return
		}
	}
	if err := scanner.Err(); err != nil {
		if errors.Is(err, bufio.ErrTooLong) {
			enc.Encode(errorResponse(fmt.Errorf("request exceeds %d bytes", protocol.MaxMessageSize)))
		}
		if !errors.Is(err, net.ErrClosed) {
			logging.Debug("control: read from %s failed: %v", clientID, err)
		}
	}
}

func (s *Server) dispatch(ctx context.Context, clientID string, req *protocol.Request) protocol.Response {
	switch req.Type {
	case protocol.MsgPing:
		return protocol.Response{Type: protocol.RespPong}

	case protocol.MsgCreate:
		sess, err := s.manager.Create(ctx, req.Name, req.Cols, req.Rows)
		if err != nil {
			return errorResponse(err)
		}
		return protocol.Response{Type: protocol.RespCreated, ID: sess.ID}

	case protocol.MsgDelete:
		if err := s.manager.Delete(ctx, req.ID); err != nil {
			return errorResponse(err)
		}
		return protocol.Response{Type: protocol.RespDeleted, ID: req.ID}

	case protocol.MsgList:
		return protocol.Response{Type: protocol.RespList, Sessions: s.manager.List()}

	case protocol.MsgAttach:
		if err := s.manager.Attach(ctx, req.ID, clientID); err != nil {
			return errorResponse(err)
		}
		return protocol.Response{Type: protocol.RespAttached, ID: req.ID}

	case protocol.MsgDetach:
		if err := s.manager.Detach(req.ID, clientID); err != nil {
			return errorResponse(err)
		}
		return protocol.Response{Type: protocol.RespDetached, ID: req.ID}

	case protocol.MsgRename:
		if err := s.manager.Rename(ctx, req.ID, req.NewName); err != nil {
			return errorResponse(err)
		}
		return protocol.Response{Type: protocol.RespRenamed, ID: req.ID}

	case protocol.MsgInput:
		if err := s.manager.WriteInput(req.ID, req.Data); err != nil {
			return errorResponse(err)
		}
		return protocol.Response{Type: protocol.RespOK, ID: req.ID}

	case protocol.MsgLoadPlugin:
		if s.pluginForwarder == nil {
			return errorResponse(errors.New("no plugin host registered"))
		}
		if err := s.pluginForwarder(req.Path); err != nil {
			return errorResponse(err)
		}
		return protocol.Response{Type: protocol.RespOK}

	case protocol.MsgResize:
		if err := s.manager.Resize(ctx, req.ID, req.Cols, req.Rows); err != nil {
			return errorResponse(err)
		}
		return protocol.Response{Type: protocol.RespOK, ID: req.ID}

	default:
		return errorResponse(fmt.Errorf("unknown request type %q", req.Type))
	}
}

func errorResponse(err error) protocol.Response {
	return protocol.Response{Type: protocol.RespError, Error: err.Error()}
}
