package server

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/wfunc/coinflip/config"
	"github.com/wfunc/coinflip/game"
	"github.com/wfunc/coinflip/logger"
	"github.com/wfunc/coinflip/models"
	"github.com/wfunc/coinflip/monitor"
	"github.com/wfunc/coinflip/network"
	"github.com/wfunc/coinflip/session"
)

const Version = "2.0.0"

type GameServer struct {
	addr           string
	heartbeat      time.Duration
	sendBuffer     int
	upgrader       websocket.Upgrader
	sessionManager *session.Manager
	game           *game.Service
	monitor        *monitor.Monitor
	history        RoundHistory
	httpServer     *http.Server

	connections  sync.WaitGroup
	shutdownChan chan struct{}
	shutdownOnce sync.Once
}

// RoundHistory lists the newest resolved rounds. persistence.RedisStore
// satisfies it.
type RoundHistory interface {
	Recent(ctx context.Context, n int64) ([]models.RoundRecord, error)
}

type Option func(*GameServer)

// WithRoundHistory adds the newest rounds to the /stats view.
func WithRoundHistory(history RoundHistory) Option {
	return func(s *GameServer) { s.history = history }
}

func NewGameServer(cfg config.ServerConfig, sessions *session.Manager, svc *game.Service, mon *monitor.Monitor, opts ...Option) *GameServer {
	s := &GameServer{
		addr:           cfg.HTTPAddress,
		heartbeat:      cfg.HeartbeatInterval,
		sendBuffer:     cfg.SendBuffer,
		sessionManager: sessions,
		game:           svc,
		monitor:        mon,
		shutdownChan:   make(chan struct{}),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true // any origin
			},
		},
	}
	for _, opt := range opts {
		opt(s)
	}

	s.httpServer = &http.Server{
		Addr:              s.addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Router wires the websocket endpoint and the HTTP views.
func (s *GameServer) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/ws", s.handleWebSocket)

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(10 * time.Second))
		r.Get("/", s.handleIndex)
		r.Get("/health", s.handleHealth)
		r.Get("/stats", s.handleStats)
		r.Get("/ping", s.handlePing)
		r.Method(http.MethodGet, "/metrics", s.monitor.Handler())
	})
	return r
}

// Start blocks serving HTTP until Shutdown.
func (s *GameServer) Start() error {
	logger.Log.Infof("Game server listening on %s", s.addr)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting connections, closes every session and waits for
// the read loops to finish or ctx to expire.
func (s *GameServer) Shutdown(ctx context.Context) error {
	s.shutdownOnce.Do(func() { close(s.shutdownChan) })

	err := s.httpServer.Shutdown(ctx)
	s.sessionManager.CloseAll()

	done := make(chan struct{})
	go func() {
		s.connections.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		if err == nil {
			err = ctx.Err()
		}
	}
	return err
}

func (s *GameServer) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	select {
	case <-s.shutdownChan:
		http.Error(w, "server shutting down", http.StatusServiceUnavailable)
		return
	default:
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Log.Infof("Failed to upgrade connection: %v", err)
		return
	}
	s.connections.Add(1)
	defer s.connections.Done()
	s.handleConnection(network.NewWSConnection(conn))
}

func (s *GameServer) handleConnection(conn network.Connection) {
	sess := session.NewSession(uuid.New().String(), conn, s.sendBuffer)
	s.sessionManager.Add(sess)
	sess.Start(s.heartbeat)

	logger.Log.Infof("New connection from %s, session ID: %s", conn.RemoteAddr(), sess.GetID())

	defer func() {
		logger.Log.Infof("Connection closed from %s, session ID: %s", conn.RemoteAddr(), sess.GetID())
		s.game.Disconnect(sess.GetID())
		s.sessionManager.Remove(sess.GetID())
		sess.Close()
	}()

	for {
		data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Log.Debugf("session %s read error: %v", sess.GetID(), err)
			}
			return
		}
		sess.Touch()
		s.handleMessage(sess, data)
	}
}
