package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"oasyspark/pkg/assistant"
	"oasyspark/pkg/catalog"
	"oasyspark/pkg/logging"
	"oasyspark/pkg/models"
	"oasyspark/pkg/session"
	"oasyspark/pkg/wallet"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Server exposes the session store, the catalog and the concierge over HTTP
// and streams store events to websocket clients.
type Server struct {
	store     *session.Store
	concierge *assistant.Concierge
	games     []models.Game
	log       *logging.Logger

	clients map[*websocket.Conn]bool
	mu      sync.Mutex
	mux     *http.ServeMux
}

func NewServer(store *session.Store, concierge *assistant.Concierge, logger *logging.Logger) *Server {
	s := &Server{
		store:     store,
		concierge: concierge,
		games:     catalog.Games(),
		log:       logging.OrDefault(logger).Component("server"),
		clients:   make(map[*websocket.Conn]bool),
		mux:       http.NewServeMux(),
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /api/session", s.handleSession)
	s.mux.HandleFunc("POST /api/connect/{method}", s.handleConnect)
	s.mux.HandleFunc("POST /api/disconnect", s.handleDisconnect)
	s.mux.HandleFunc("GET /api/games", s.handleGames)
	s.mux.HandleFunc("POST /api/assistant", s.handleAssistant)
	s.mux.HandleFunc("/ws", s.handleWS)
}

func (s *Server) Start(ctx context.Context, port int) error {
	sub := s.store.Subscribe()
	go s.forward(sub)
	defer s.store.Unsubscribe(sub)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           s.mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	s.log.Info("API server listening", "port", port)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

type sessionResponse struct {
	State   session.State  `json:"state"`
	Session models.Session `json:"session"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) writeSession(w http.ResponseWriter, status int) {
	writeJSON(w, status, sessionResponse{State: s.store.State(), Session: s.store.Snapshot()})
}

func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	s.writeSession(w, http.StatusOK)
}

// statusFor maps a connect failure to an HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, wallet.ErrProviderUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, wallet.ErrUserRejected):
		return http.StatusForbidden
	case errors.Is(err, wallet.ErrProviderError):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) handleConnect(w http.ResponseWriter, r *http.Request) {
	// The fetch that follows a connect must outlive a dropped request.
	ctx := context.WithoutCancel(r.Context())

	var err error
	switch r.PathValue("method") {
	case "extension":
		err = s.store.ConnectExtension(ctx)
	case "social":
		err = s.store.ConnectSocial(ctx)
	case "manual":
		var body struct {
			Address string `json:"address"`
		}
		if decErr := json.NewDecoder(r.Body).Decode(&body); decErr != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid body: " + decErr.Error()})
			return
		}
		err = s.store.ConnectManual(ctx, body.Address)
	default:
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "unknown connection method"})
		return
	}

	if err != nil {
		writeJSON(w, statusFor(err), errorResponse{Error: err.Error()})
		return
	}
	s.writeSession(w, http.StatusOK)
}

func (s *Server) handleDisconnect(w http.ResponseWriter, r *http.Request) {
	s.store.Disconnect()
	s.writeSession(w, http.StatusOK)
}

func (s *Server) handleGames(w http.ResponseWriter, r *http.Request) {
	q := catalog.Query{
		Search: r.URL.Query().Get("q"),
		Chain:  r.URL.Query().Get("chain"),
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"games":  catalog.Filter(s.games, q),
		"chains": catalog.Chains(s.games),
	})
}

func (s *Server) handleAssistant(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Prompt string `json:"prompt"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid body: " + err.Error()})
		return
	}
	if strings.TrimSpace(body.Prompt) == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "prompt is required"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"reply": s.concierge.Reply(r.Context(), body.Prompt)})
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("websocket upgrade failed", "error", err)
		return
	}
	defer func() { _ = conn.Close() }()

	// Register and send the initial state under the lock so broadcasts
	// never interleave with it.
	s.mu.Lock()
	s.clients[conn] = true
	err = conn.WriteJSON(map[string]interface{}{
		"type": "initial",
		"data": sessionResponse{State: s.store.State(), Session: s.store.Snapshot()},
	})
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.clients, conn)
		s.mu.Unlock()
	}()
	if err != nil {
		return
	}

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
}

func (s *Server) forward(sub session.Subscriber) {
	for event := range sub {
		s.broadcast(event)
	}
}

func (s *Server) broadcast(event session.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for client := range s.clients {
		if err := client.WriteJSON(event); err != nil {
			_ = client.Close()
			delete(s.clients, client)
		}
	}
}
