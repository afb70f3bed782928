package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog"

	"github.com/yprite/Tesla-LockChime-sub001/internal/config"
	"github.com/yprite/Tesla-LockChime-sub001/internal/database"
	"github.com/yprite/Tesla-LockChime-sub001/internal/handlers"
	"github.com/yprite/Tesla-LockChime-sub001/internal/logging"
	"github.com/yprite/Tesla-LockChime-sub001/internal/services"
	"github.com/yprite/Tesla-LockChime-sub001/internal/session"
	ws "github.com/yprite/Tesla-LockChime-sub001/internal/websocket"
)

type Server struct {
	Config config.Config
	Log    zerolog.Logger
	Router *gin.Engine
	Hub    *ws.Hub
	Redis  *redis.Client
	DB     *database.Database

	http *http.Server
}

func NewServer() (*Server, error) {
	cfg, dotenv, err := config.Load()
	if err != nil {
		return nil, err
	}

	log := logging.New(cfg.LogLevel)
	if !dotenv {
		log.Debug().Msg(".env not found, using environment variables")
	}
	gin.SetMode(cfg.GinMode)

	s := &Server{Config: cfg, Log: log}

	store, err := s.sessionStore()
	if err != nil {
		s.closeBackends()
		return nil, err
	}
	directory, err := s.roomDirectory()
	if err != nil {
		s.closeBackends()
		return nil, err
	}

	s.Hub = ws.NewHub(cfg.NodeID, store, directory, log, ws.WithSendBuffer(cfg.SendBufferSize))
	s.Router = NewRouter(log,
		handlers.NewHealthHandler(),
		handlers.NewWebSocketHandler(s.Hub, cfg.MaxRoomNameLength, log),
	)
	s.http = &http.Server{
		Addr:              cfg.Addr(),
		Handler:           s.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return s, nil
}

func (s *Server) sessionStore() (services.SessionStore, error) {
	if s.Config.RedisURL == "" {
		s.Log.Info().Msg("session store: memory")
		return session.NewMemoryStore(), nil
	}

	opts, err := redis.ParseURL(s.Config.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_URL: %w", err)
	}
	rdb := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis connect failed: %w", err)
	}

	s.Redis = rdb
	s.Log.Info().Str("addr", opts.Addr).Msg("session store: redis")
	return session.NewRedisStore(rdb, s.Config.SessionTTL, s.Log), nil
}

func (s *Server) roomDirectory() (services.RoomDirectory, error) {
	if s.Config.DatabaseURL == "" {
		s.Log.Info().Msg("room directory: local")
		return database.NewLocalDirectory(), nil
	}

	db := &database.Database{}
	if err := db.Connect(s.Config.DatabaseURL); err != nil {
		return nil, fmt.Errorf("postgres connect failed: %w", err)
	}
	s.DB = db

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	stale, err := db.ReleaseNode(ctx, s.Config.NodeID)
	if err != nil {
		return nil, err
	}

	s.Log.Info().Int64("stale_claims", stale).Msg("room directory: postgres")
	return db, nil
}

// Run serves until SIGINT or SIGTERM and returns the process exit code.
func (s *Server) Run() int {
	go func() {
		s.Log.Info().Str("addr", s.http.Addr).Str("node", s.Config.NodeID).Msg("server starting")
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.Log.Fatal().Err(err).Msg("server run error")
		}
	}()

	wait := gfshutdown.GracefulShutdown(
		context.Background(),
		s.Config.ShutdownTimeout,
		map[string]gfshutdown.Operation{
			"server": s.Shutdown,
		},
	)

	code := <-wait
	s.Log.Info().Int("code", code).Msg("server exited")
	return code
}

// Shutdown stops accepting requests, closes every room and then the
// backing stores.
func (s *Server) Shutdown(ctx context.Context) error {
	var errs []error
	if err := s.http.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("http shutdown: %w", err))
	}
	if err := s.Hub.Stop(ctx); err != nil {
		errs = append(errs, fmt.Errorf("hub stop: %w", err))
	}
	if err := s.closeBackends(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func (s *Server) closeBackends() error {
	var errs []error
	if s.Redis != nil {
		if err := s.Redis.Close(); err != nil {
			errs = append(errs, fmt.Errorf("redis close: %w", err))
		}
	}
	if s.DB != nil {
		if err := s.DB.Close(); err != nil {
			errs = append(errs, fmt.Errorf("postgres close: %w", err))
		}
	}
	return errors.Join(errs...)
}
