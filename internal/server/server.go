package server

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/samber/oops"
	"github.com/sirupsen/logrus"

	"github.com/gravitas-games/stowage/internal/config"
	"github.com/gravitas-games/stowage/internal/slotlock"
)

// Server hosts one session behind a websocket endpoint
type Server struct {
	config       *config.Config
	log          logrus.FieldLogger
	session      *Session
	upgrader     websocket.Upgrader
	httpSrv      *http.Server
	jwtValidator *JWTValidator
	redis        *redis.Client

	// Connection tracking
	connections map[*Connection]bool
	connMu      sync.RWMutex

	// Shutdown
	ctx         context.Context
	cancel      context.CancelFunc
	sessionDone chan struct{}
}

// New creates a new server instance
func New(cfg *config.Config, log logrus.FieldLogger) (*Server, error) {
	log.Info("Initializing server")

	ctx, cancel := context.WithCancel(context.Background())

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Address,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		cancel()
		return nil, oops.Wrapf(err, "failed to connect to Redis")
	}
	log.WithField("address", cfg.Redis.Address).Info("Connected to Redis")

	srv := &Server{
		config:      cfg,
		log:         log,
		connections: make(map[*Connection]bool),
		ctx:         ctx,
		cancel:      cancel,
		sessionDone: make(chan struct{}),
		redis:       redisClient,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}

	jwtValidator, err := NewJWTValidator(ctx, cfg, redisClient, log)
	if err != nil {
		cancel()
		return nil, oops.Wrapf(err, "failed to initialize JWT validator")
	}
	srv.jwtValidator = jwtValidator

	store := slotlock.NewRedisStore(redisClient, cfg.Redis.SlotLockPrefix)
	session, err := NewSession(uuid.NewString(), cfg, store, log)
	if err != nil {
		cancel()
		return nil, oops.Wrapf(err, "failed to create session")
	}
	srv.session = session

	log.Info("Server initialized successfully")
	return srv, nil
}

// Start runs the session loop and listens for connections
func (s *Server) Start(addr string) error {
	go func() {
		s.session.Run(s.ctx)
		close(s.sessionDone)
	}()

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.HandleFunc("/health", s.handleHealth)

	s.httpSrv = &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	s.log.WithField("endpoint", "ws://"+addr+"/ws").Info("Starting WebSocket server")

	if err := s.httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown gracefully stops the server
func (s *Server) Shutdown() error {
	s.log.Info("Shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if s.httpSrv != nil {
		if err := s.httpSrv.Shutdown(ctx); err != nil {
			s.log.WithError(err).Warn("HTTP server shutdown error")
		}
	}

	// closing queues a leave per player, which saves their slot locks
	s.connMu.Lock()
	for conn := range s.connections {
		conn.Close()
	}
	s.connMu.Unlock()

	s.cancel()
	if s.httpSrv != nil {
		<-s.sessionDone
	}

	if err := s.redis.Close(); err != nil {
		s.log.WithError(err).Warn("Redis close error")
	}

	s.log.Info("Server shutdown complete")
	return nil
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	log := s.log.WithField("remote", r.RemoteAddr)

	tokenString := extractTokenFromHeader(r)
	if tokenString == "" {
		log.Debug("Missing JWT token")
		http.Error(w, "Missing authentication token", http.StatusUnauthorized)
		return
	}

	player, err := s.jwtValidator.ValidateToken(r.Context(), tokenString)
	if err != nil {
		log.WithError(err).Info("Invalid JWT token")
		http.Error(w, "Invalid token", http.StatusUnauthorized)
		return
	}

	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.WithError(err).Warn("WebSocket upgrade failed")
		return
	}

	conn := NewConnection(ws, s, player)

	s.connMu.Lock()
	s.connections[conn] = true
	s.connMu.Unlock()

	log.WithField("username", player.Username).Info("WebSocket connection established")

	conn.Handle()

	s.connMu.Lock()
	delete(s.connections, conn)
	s.connMu.Unlock()

	log.WithField("username", player.Username).Info("WebSocket connection closed")
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}
