package network

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/voidhaven/arena/internal/config"
	"github.com/voidhaven/arena/internal/game/room"
	"github.com/voidhaven/arena/internal/observability"
)

// Server is the HTTP surface: the WebSocket endpoint plus health and
// metrics.
type Server struct {
	logger   *zap.Logger
	metrics  *observability.Metrics
	cfg      config.Config
	hub      *Hub
	rooms    *room.Manager
	router   *Router
	upgrader websocket.Upgrader

	httpServer *http.Server
}

// NewServer wires the HTTP routes.
func NewServer(logger *zap.Logger, metrics *observability.Metrics, cfg config.Config, hub *Hub, rooms *room.Manager, router *Router) *Server {
	s := &Server{
		logger:  logger,
		metrics: metrics,
		cfg:     cfg,
		hub:     hub,
		rooms:   rooms,
		router:  router,
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin:     s.originAllowed,
	}

	mux := chi.NewRouter()
	mux.Use(middleware.Recoverer)
	mux.Use(corsMiddleware(cfg.HTTP.AllowedOrigins))
	mux.Get("/ws", s.handleWebSocket)
	mux.Get("/health", s.handleHealth)
	mux.Handle("/metrics", promhttp.HandlerFor(metrics.Registry(), promhttp.HandlerOpts{}))

	s.httpServer = &http.Server{
		Addr:    cfg.HTTP.Addr(),
		Handler: mux,
	}
	return s
}

// Start serves HTTP until Stop. Implements the lifecycle Service contract.
func (s *Server) Start() error {
	s.logger.Info("http server listening", zap.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Stop drains in-flight requests within the configured shutdown window.
func (s *Server) Stop() {
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.HTTP.ShutdownTimeout)
	defer cancel()
	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.logger.Warn("http shutdown incomplete", zap.Error(err))
	}
}

// handleWebSocket upgrades the connection and starts its pumps. The
// connection id doubles as the player id once the client joins a room.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Debug("websocket upgrade failed", zap.Error(err))
		return
	}

	id := "player_" + uuid.NewString()
	client := newClient(id, s.hub, conn, s.logger, s.cfg.Transport, time.Now())
	s.hub.Register(client)

	go client.writePump()
	go client.readPump(s.router.Handle)
}

// healthResponse is the /health body.
type healthResponse struct {
	Status         string            `json:"status"`
	Timestamp      int64             `json:"timestamp"`
	Rooms          int               `json:"rooms"`
	TotalSockets   int               `json:"totalSockets"`
	PlayersInRooms int               `json:"playersInRooms"`
	RoomDetails    []room.RoomDetail `json:"roomDetails"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	details, totalPlayers := s.rooms.Details()
	body := healthResponse{
		Status:         "ok",
		Timestamp:      time.Now().UnixMilli(),
		Rooms:          len(details),
		TotalSockets:   s.hub.ConnectionCount(),
		PlayersInRooms: totalPlayers,
		RoomDetails:    details,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Warn("writing health response failed", zap.Error(err))
	}
}

// originAllowed applies the configured origin allow-list to the WebSocket
// handshake. Browsers send Origin; non-browser clients that omit it are
// accepted.
func (s *Server) originAllowed(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	for _, allowed := range s.cfg.HTTP.AllowedOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}
	return false
}

// corsMiddleware answers preflights and sets the allow headers for the plain
// HTTP endpoints.
func corsMiddleware(allowedOrigins []string) func(http.Handler) http.Handler {
	allowAll := false
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		if o == "*" {
			allowAll = true
		}
		allowed[o] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			switch {
			case allowAll:
				w.Header().Set("Access-Control-Allow-Origin", "*")
			case origin != "" && allowed[origin]:
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Vary", "Origin")
			}
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
