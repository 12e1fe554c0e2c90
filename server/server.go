package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"golang.org/x/sync/errgroup"

	"github.com/marcward/homegame/domain"
	"github.com/marcward/homegame/server/connection"
	"github.com/marcward/homegame/server/events"
	"github.com/marcward/homegame/server/handlers"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // In production, implement proper origin checks
	},
}

// Server ties the HTTP surface to the lobby: a small REST API for table
// management plus the websocket endpoint every player speaks over.
type Server struct {
	cfg        *Config
	lobby      *domain.Lobby
	connMgr    *connection.Manager
	cmdRouter  *handlers.CommandRouter
	dispatcher *events.Dispatcher
	logger     *log.Logger
}

// TableResponse represents a table in API responses.
type TableResponse struct {
	Code        string    `json:"code"`
	PlayerCount int       `json:"playerCount"`
	Phase       string    `json:"phase"`
	CreatedAt   time.Time `json:"createdAt"`
}

// NewServer wires a server around an existing lobby.
func NewServer(cfg *Config, lobby *domain.Lobby, logger *log.Logger) *Server {
	connMgr := connection.NewManager(logger)
	dispatcher := events.NewDispatcher(connMgr, logger)
	cmdRouter := handlers.NewCommandRouter(lobby, dispatcher, logger)

	return &Server{
		cfg:        cfg,
		lobby:      lobby,
		connMgr:    connMgr,
		cmdRouter:  cmdRouter,
		dispatcher: dispatcher,
		logger:     logger.WithPrefix("server"),
	}
}

// Run serves until the context is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return s.connMgr.Run(ctx)
	})

	g.Go(func() error {
		return s.lobby.RunSweeper(ctx)
	})

	httpServer := &http.Server{
		Addr:    s.cfg.Server.Addr,
		Handler: s.routes(),
	}

	g.Go(func() error {
		s.logger.Info("listening", "addr", s.cfg.Server.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	err := g.Wait()
	if err == context.Canceled {
		return nil
	}
	return err
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(corsMiddleware)

	r.Get("/health", s.handleHealth)
	r.Get("/ws", s.handleWebSocket)
	r.Route("/api/tables", func(r chi.Router) {
		r.Get("/", s.handleGetTables)
		r.Post("/", s.handleCreateTable)
	})

	return r
}

// corsMiddleware adds CORS headers to all responses.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// handleCreateTable creates a new table and returns its shareable code.
func (s *Server) handleCreateTable(w http.ResponseWriter, r *http.Request) {
	table := s.lobby.CreateTable()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(tableResponse(table))
}

// handleGetTables returns a list of all live tables.
func (s *Server) handleGetTables(w http.ResponseWriter, r *http.Request) {
	tables := s.lobby.Tables()
	responses := make([]TableResponse, 0, len(tables))
	for _, table := range tables {
		responses = append(responses, tableResponse(table))
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(responses)
}

func tableResponse(table *domain.Table) TableResponse {
	return TableResponse{
		Code:        table.Code,
		PlayerCount: table.PlayerCount(),
		Phase:       string(table.Phase()),
		CreatedAt:   table.CreatedAt,
	}
}

// handleWebSocket upgrades the connection and starts the per-client pumps.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("websocket upgrade failed", "err", err)
		return
	}

	client := &connection.Client{
		ID:   uuid.NewString(),
		Conn: conn,
		Send: make(chan []byte, 256),
	}

	s.logger.Debug("client connected", "id", client.ID, "remote", r.RemoteAddr)

	s.connMgr.Register <- client

	go s.readPump(client)
	go s.writePump(client)
}

// readPump reads messages from the websocket until the connection drops,
// then releases the client's seat into the reconnect window.
func (s *Server) readPump(client *connection.Client) {
	defer func() {
		s.cmdRouter.HandleDisconnect(client)
		s.connMgr.Unregister <- client
		client.Conn.Close()
	}()

	for {
		_, message, err := client.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				s.logger.Debug("read failed", "id", client.ID, "err", err)
			}
			return
		}

		if err := s.cmdRouter.HandleCommand(client, message); err != nil {
			s.logger.Error("command handling failed", "id", client.ID, "err", err)
		}
	}
}

// writePump sends queued messages to the websocket connection.
func (s *Server) writePump(client *connection.Client) {
	defer client.Conn.Close()

	for {
		message, ok := <-client.Send
		if !ok {
			client.Conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		}

		if err := client.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
			s.logger.Debug("write failed", "id", client.ID, "err", err)
			return
		}
	}
}
