// Package bridge runs the WebSocket endpoint the injected overlay connects
// to. Selections made in the page arrive here as JSON messages and are
// handed to the registered handler; mode changes flow the other way via
// Broadcast.
package bridge

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/standardbeagle/pagelens/internal/debug"
	"github.com/standardbeagle/pagelens/internal/geom"
)

// Path is the WebSocket endpoint path the overlay dials.
const Path = "/__pagelens"

// Message types exchanged with the overlay.
const (
	TypeElementSelected = "element-selected"
	TypeRegionSelected  = "region-selected"
	TypeCancel          = "cancel"

	TypeActivateElement = "activate-element"
	TypeActivateRegion  = "activate-region"
	TypeDeactivate      = "deactivate"
)

// Message is the wire format in both directions.
type Message struct {
	Type    string     `json:"type"`
	DOMPath string     `json:"domPath,omitempty"`
	Rect    *geom.Rect `json:"rect,omitempty"`
	Reason  string     `json:"reason,omitempty"`
}

// Handler receives messages sent by the overlay.
type Handler interface {
	HandleElementSelected(domPath string)
	HandleRegionSelected(rect geom.Rect)
	HandleCancel(reason string)
}

// Server accepts overlay connections and fans broadcast messages out to
// all of them. Connections are page-local, so the upgrader accepts any
// origin; the bridge listens on loopback only.
type Server struct {
	handler  Handler
	upgrader websocket.Upgrader

	mu    sync.Mutex
	conns map[*websocket.Conn]bool
	http  *http.Server
	addr  net.Addr
}

// NewServer returns a bridge server delivering messages to handler.
func NewServer(handler Handler) *Server {
	return &Server{
		handler: handler,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(*http.Request) bool { return true },
		},
		conns: make(map[*websocket.Conn]bool),
	}
}

// Start listens on addr and serves the bridge endpoint until Shutdown.
func (s *Server) Start(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}

	mux := http.NewServeMux()
	mux.HandleFunc(Path, s.serveWS)
	s.http = &http.Server{Handler: mux}
	s.addr = ln.Addr()

	go func() {
		if err := s.http.Serve(ln); err != nil && err != http.ErrServerClosed {
			debug.Error("bridge", "serve: %v", err)
		}
	}()
	debug.Info("bridge", "listening on %s", s.addr)
	return nil
}

// Addr returns the bound address, useful when addr was ":0".
func (s *Server) Addr() string {
	if s.addr == nil {
		return ""
	}
	return s.addr.String()
}

// Shutdown closes all connections and stops the listener.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	for conn := range s.conns {
		conn.Close()
	}
	s.conns = make(map[*websocket.Conn]bool)
	srv := s.http
	s.mu.Unlock()

	if srv == nil {
		return nil
	}
	return srv.Shutdown(ctx)
}

// Broadcast sends a message to every connected overlay.
func (s *Server) Broadcast(msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		debug.Error("bridge", "marshal broadcast: %v", err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for conn := range s.conns {
		conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			debug.Warn("bridge", "write failed, dropping connection: %v", err)
			conn.Close()
			delete(s.conns, conn)
		}
	}
}

func (s *Server) serveWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		debug.Warn("bridge", "upgrade failed: %v", err)
		return
	}

	s.mu.Lock()
	s.conns[conn] = true
	s.mu.Unlock()
	debug.Info("bridge", "overlay connected from %s", conn.RemoteAddr())

	defer func() {
		s.mu.Lock()
		delete(s.conns, conn)
		s.mu.Unlock()
		conn.Close()
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			debug.Warn("bridge", "bad message: %v", err)
			continue
		}
		s.dispatch(msg)
	}
}

func (s *Server) dispatch(msg Message) {
	if s.handler == nil {
		return
	}
	switch msg.Type {
	case TypeElementSelected:
		s.handler.HandleElementSelected(msg.DOMPath)
	case TypeRegionSelected:
		if msg.Rect != nil {
			s.handler.HandleRegionSelected(*msg.Rect)
		}
	case TypeCancel:
		s.handler.HandleCancel(msg.Reason)
	default:
		debug.Trace("bridge", "ignoring message type %q", msg.Type)
	}
}
