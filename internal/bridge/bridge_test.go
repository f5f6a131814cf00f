package bridge

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/standardbeagle/pagelens/internal/geom"
)

type recordingHandler struct {
	mu       sync.Mutex
	elements []string
	regions  []geom.Rect
	cancels  []string
	got      chan struct{}
}

func newRecordingHandler() *recordingHandler {
	return &recordingHandler{got: make(chan struct{}, 16)}
}

func (h *recordingHandler) HandleElementSelected(domPath string) {
	h.mu.Lock()
	h.elements = append(h.elements, domPath)
	h.mu.Unlock()
	h.got <- struct{}{}
}

func (h *recordingHandler) HandleRegionSelected(rect geom.Rect) {
	h.mu.Lock()
	h.regions = append(h.regions, rect)
	h.mu.Unlock()
	h.got <- struct{}{}
}

func (h *recordingHandler) HandleCancel(reason string) {
	h.mu.Lock()
	h.cancels = append(h.cancels, reason)
	h.mu.Unlock()
	h.got <- struct{}{}
}

func (h *recordingHandler) wait(t *testing.T) {
	t.Helper()
	select {
	case <-h.got:
	case <-time.After(2 * time.Second):
		t.Fatal("handler never fired")
	}
}

func startTestServer(t *testing.T, h Handler) *Server {
	t.Helper()
	s := NewServer(h)
	if err := s.Start("127.0.0.1:0"); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		s.Shutdown(ctx)
	})
	return s
}

func dial(t *testing.T, s *Server) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial("ws://"+s.Addr()+Path, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestDispatch(t *testing.T) {
	h := newRecordingHandler()
	s := startTestServer(t, h)
	conn := dial(t, s)

	send := func(msg Message) {
		t.Helper()
		if err := conn.WriteJSON(msg); err != nil {
			t.Fatalf("write: %v", err)
		}
		h.wait(t)
	}

	send(Message{Type: TypeElementSelected, DOMPath: "html>body>div"})
	send(Message{Type: TypeRegionSelected, Rect: &geom.Rect{X: 1, Y: 2, Width: 30, Height: 40}})
	send(Message{Type: TypeCancel, Reason: "escape"})

	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.elements) != 1 || h.elements[0] != "html>body>div" {
		t.Errorf("elements = %v", h.elements)
	}
	if len(h.regions) != 1 || h.regions[0].Width != 30 {
		t.Errorf("regions = %v", h.regions)
	}
	if len(h.cancels) != 1 || h.cancels[0] != "escape" {
		t.Errorf("cancels = %v", h.cancels)
	}
}

func TestDispatch_IgnoresMalformed(t *testing.T) {
	h := newRecordingHandler()
	s := startTestServer(t, h)
	conn := dial(t, s)

	if err := conn.WriteMessage(websocket.TextMessage, []byte("not json")); err != nil {
		t.Fatalf("write: %v", err)
	}
	// Region without a rect is dropped too.
	if err := conn.WriteJSON(Message{Type: TypeRegionSelected}); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := conn.WriteJSON(Message{Type: TypeCancel, Reason: "still alive"}); err != nil {
		t.Fatalf("write: %v", err)
	}
	h.wait(t)

	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.regions) != 0 {
		t.Errorf("regions = %v, want none", h.regions)
	}
	if len(h.cancels) != 1 {
		t.Errorf("cancels = %v, want the trailing one", h.cancels)
	}
}

func TestBroadcast(t *testing.T) {
	h := newRecordingHandler()
	s := startTestServer(t, h)
	first := dial(t, s)
	second := dial(t, s)

	// Dialing is asynchronous from the server's viewpoint; wait for both
	// registrations before broadcasting.
	deadline := time.Now().Add(2 * time.Second)
	for {
		s.mu.Lock()
		n := len(s.conns)
		s.mu.Unlock()
		if n == 2 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("connections never registered")
		}
		time.Sleep(5 * time.Millisecond)
	}

	s.Broadcast(Message{Type: TypeActivateRegion})

	for _, conn := range []*websocket.Conn{first, second} {
		conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		var msg Message
		data, err := read(conn)
		if err != nil {
			t.Fatalf("read: %v", err)
		}
		if err := json.Unmarshal(data, &msg); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if msg.Type != TypeActivateRegion {
			t.Errorf("type = %q, want %q", msg.Type, TypeActivateRegion)
		}
	}
}

func read(conn *websocket.Conn) ([]byte, error) {
	_, data, err := conn.ReadMessage()
	return data, err
}
