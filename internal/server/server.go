// Package server serves dialogue sessions over websockets. Every connection
// is one session with its own engine.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/amanullahtanweer/unibot/internal/flow"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Message types sent to the client.
const (
	TypeSay = "say"
	TypeAsk = "ask"
	TypeEnd = "end"
)

// SessionHeader carries the session id on the upgrade response.
const SessionHeader = "X-Session-Id"

// Message is a server to client frame.
type Message struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// Reply is a client to server frame. A frame that is not JSON is taken as
// the answer text verbatim.
type Reply struct {
	Text string `json:"text"`
}

type Config struct {
	Host      string
	Port      int
	Flow      flow.Options
	Recording flow.RecordingOptions
}

type Server struct {
	config    Config
	assistant *flow.Assistant
	upgrader  websocket.Upgrader

	mu         sync.Mutex
	listener   net.Listener
	httpServer *http.Server
	closed     bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	active atomic.Int64
}

// Session is one websocket conversation.
type Session struct {
	id        uuid.UUID
	conn      *websocket.Conn
	ctx       context.Context
	startTime time.Time
	writeMu   sync.Mutex
}

func New(config Config, assistant *flow.Assistant) (*Server, error) {
	if assistant == nil {
		return nil, errors.New("server needs an assistant")
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Server{
		config:    config,
		assistant: assistant,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		ctx:    ctx,
		cancel: cancel,
	}, nil
}

// Handler routes GET /ws and GET /healthz.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /ws", s.handleWebsocket)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	return mux
}

// Start listens on Host:Port and serves until Stop is called.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		listener.Close()
		return nil
	}
	s.listener = listener
	s.httpServer = &http.Server{Handler: s.Handler(), ReadHeaderTimeout: 10 * time.Second}
	srv := s.httpServer
	s.mu.Unlock()

	slog.Info("websocket server listening", "addr", listener.Addr().String(), "mode", s.config.Flow.Mode)

	if err := srv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve: %w", err)
	}
	return nil
}

// Addr returns the listening address once Start is running.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Stop closes the listener, cancels every running session and waits for
// them to finish.
func (s *Server) Stop() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	srv := s.httpServer
	s.mu.Unlock()

	s.cancel()
	if srv != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			slog.Warn("http shutdown", "error", err)
		}
	}
	s.wg.Wait()
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"status":   "ok",
		"sessions": s.active.Load(),
	})
}

func (s *Server) handleWebsocket(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		http.Error(w, "server is shutting down", http.StatusServiceUnavailable)
		return
	}
	s.wg.Add(1)
	s.mu.Unlock()
	defer s.wg.Done()

	id := uuid.New()
	conn, err := s.upgrader.Upgrade(w, r, http.Header{SessionHeader: {id.String()}})
	if err != nil {
		// Upgrade has already replied to the client
		slog.Warn("websocket upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}
	defer conn.Close()
	conn.SetReadLimit(4096)

	s.active.Add(1)
	defer s.active.Add(-1)

	session := &Session{
		id:        id,
		conn:      conn,
		ctx:       s.ctx,
		startTime: time.Now(),
	}
	// unblock a pending read when the server stops
	stop := context.AfterFunc(s.ctx, func() { conn.Close() })
	defer stop()

	slog.Info("session connected", "session", id.String(), "remote", r.RemoteAddr)
	s.run(session)
}

func (s *Server) run(session *Session) {
	engine := flow.NewEngine(session, s.assistant, s.config.Flow)
	engine.SetRecorder(flow.NewRecorder(s.config.Recording, session.ID(), session.startTime))

	err := engine.Run(session.ctx)
	m := engine.Metrics()
	if err != nil && !errors.Is(err, context.Canceled) {
		slog.Warn("session failed", "session", session.ID(), "error", err)
	}

	if err := session.send(Message{Type: TypeEnd, Text: m.EndReason}); err == nil {
		session.writeMu.Lock()
		_ = session.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, m.EndReason),
			time.Now().Add(time.Second))
		session.writeMu.Unlock()
	}

	slog.Info("session ended", "session", session.ID(), "duration", time.Since(session.startTime), "metrics", m)
}

func (session *Session) ID() string {
	return session.id.String()
}

func (session *Session) Say(text string) error {
	return session.send(Message{Type: TypeSay, Text: text})
}

// Ask sends the prompt and blocks for the next client frame. A closed
// connection reads as io.EOF; a stopped server as its context error.
func (session *Session) Ask(prompt string) (string, error) {
	if err := session.send(Message{Type: TypeAsk, Text: prompt}); err != nil {
		return "", err
	}

	_, data, err := session.conn.ReadMessage()
	if err != nil {
		if ctxErr := session.ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseNoStatusReceived) {
			slog.Debug("websocket read", "session", session.ID(), "error", err)
		}
		return "", io.EOF
	}

	var reply Reply
	if err := json.Unmarshal(data, &reply); err != nil {
		reply.Text = string(data)
	}
	return reply.Text, nil
}

func (session *Session) send(msg Message) error {
	session.writeMu.Lock()
	defer session.writeMu.Unlock()
	if err := session.conn.WriteJSON(msg); err != nil {
		if ctxErr := session.ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return fmt.Errorf("failed to send %s: %w", msg.Type, err)
	}
	return nil
}
