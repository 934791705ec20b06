package server

import (
	"context"
	"log/slog"
	stdhttp "net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/Zereker/skyroute/internal/api/consumer"
	"github.com/Zereker/skyroute/internal/api/http"
	"github.com/Zereker/skyroute/internal/api/mcp"
	"github.com/Zereker/skyroute/internal/route"
	"github.com/Zereker/skyroute/internal/service"
	"github.com/Zereker/skyroute/internal/store"
	"github.com/Zereker/skyroute/pkg/graph"
	"github.com/Zereker/skyroute/pkg/log"
	"github.com/Zereker/skyroute/pkg/mq"
	"github.com/Zereker/skyroute/pkg/redis"
	"github.com/Zereker/skyroute/pkg/relation"
)

const version = "0.1.0"

// Server represents the skyroute server
type Server struct {
	config   Config
	logger   *slog.Logger
	store    store.Store
	service  *service.Service
	consumer *consumer.Consumer
}

// NewServer creates a new server with the given configuration
func NewServer(conf Config) (*Server, error) {
	server := &Server{
		config: conf,
	}

	if err := server.initDepend(); err != nil {
		return nil, errors.WithMessage(err, "init server dependency failed")
	}

	if err := server.initService(); err != nil {
		return nil, errors.WithMessage(err, "init service failed")
	}

	if err := server.initConsumer(); err != nil {
		return nil, errors.WithMessage(err, "init consumer failed")
	}

	return server, nil
}

// initDepend initializes all dependencies
func (s *Server) initDepend() error {
	// Initialize log first
	if err := log.Init(s.config.Log); err != nil {
		return errors.WithMessage(err, "failed to init log")
	}

	// Create logger for this module
	s.logger = log.Logger("server")
	s.logger.Info("initializing dependencies", "backend", s.config.Store.Backend)

	// Initialize Neo4j graph store
	s.logger.Info("initializing graph store")
	if err := graph.Init(s.config.Neo4j); err != nil {
		return errors.WithMessage(err, "failed to init graph store")
	}

	// Initialize PostgreSQL pool
	s.logger.Info("initializing relational store")
	if err := relation.Init(s.config.Postgres); err != nil {
		return errors.WithMessage(err, "failed to init relational store")
	}

	// Initialize Kafka message queue
	s.logger.Info("initializing message queue")
	if err := mq.Init(s.config.Kafka); err != nil {
		return errors.WithMessage(err, "failed to init message queue")
	}

	// Initialize Redis
	s.logger.Info("initializing redis")
	if err := redis.Init(s.config.Redis); err != nil {
		return errors.WithMessage(err, "failed to init redis")
	}

	return nil
}

// initService opens the store and builds the service around it
func (s *Server) initService() error {
	s.logger.Info("initializing store")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	st, err := store.New(ctx, s.config.Store)
	if err != nil {
		return errors.WithMessage(err, "failed to open store")
	}
	s.store = st

	var opts []service.Option

	cache, err := s.routeCache()
	if err != nil {
		return err
	}
	if cache != nil {
		opts = append(opts, service.WithCache(cache))
	}

	if producer := mq.NewQueue(); producer != nil && s.config.Kafka.EventsTopic != "" {
		s.logger.Info("publishing change events", "topic", s.config.Kafka.EventsTopic)
		opts = append(opts, service.WithEvents(producer, s.config.Kafka.EventsTopic))
	}

	s.service = service.New(st, s.config.Search, opts...)
	return nil
}

// routeCache picks Redis when it is enabled, otherwise a process-local cache.
// An empty cache_ttl disables caching.
func (s *Server) routeCache() (route.Cache, error) {
	ttl, err := s.config.Search.TTL()
	if err != nil {
		return nil, err
	}
	if ttl == 0 {
		return nil, nil
	}

	if client := redis.Client(); client != nil {
		s.logger.Info("route cache enabled", "kind", "redis", "ttl", ttl)
		return route.NewRedisCache(client, s.config.Redis.Prefix, ttl), nil
	}

	s.logger.Info("route cache enabled", "kind", "memory", "ttl", ttl)
	return route.NewMemoryCache(ttl), nil
}

// initConsumer initializes the ingest consumer
func (s *Server) initConsumer() error {
	s.logger.Info("initializing consumer")

	c, err := consumer.NewConsumer(s.service, consumer.Config{
		Kafka: s.config.Kafka,
	})
	if err != nil {
		return errors.WithMessage(err, "failed to create consumer")
	}

	s.consumer = c
	return nil
}

// Start starts the server based on configuration mode
func (s *Server) Start() error {
	s.logger.Info("starting", "mode", s.config.Server.Mode, "port", s.config.Server.Port)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(sigCh)

		select {
		case <-sigCh:
			s.logger.Info("received shutdown signal")
			cancel()
		case <-ctx.Done():
		}
	}()

	g, ctx := errgroup.WithContext(ctx)

	// Start consumer
	if s.consumer != nil {
		g.Go(func() error {
			return s.runConsumer(ctx)
		})
	}

	switch s.config.Server.Mode {
	case "http":
		g.Go(func() error {
			return s.runHTTPServer(ctx)
		})
	case "mcp":
		g.Go(func() error {
			return s.runMCPServer(ctx)
		})
	case "both":
		g.Go(func() error {
			return s.runHTTPServer(ctx)
		})
		g.Go(func() error {
			return s.runMCPServer(ctx)
		})
	default:
		cancel()
		return errors.Errorf("unknown mode: %s", s.config.Server.Mode)
	}

	return g.Wait()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown() error {
	s.logger.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Stop consumer
	if s.consumer != nil {
		if err := s.consumer.Stop(); err != nil {
			s.logger.Error("failed to stop consumer", "error", err)
		}
	}

	if s.store != nil {
		if err := s.store.Close(ctx); err != nil {
			s.logger.Error("failed to close store", "error", err)
		}
	}

	if err := graph.Close(ctx); err != nil {
		s.logger.Error("failed to close graph store", "error", err)
	}

	if err := relation.Close(ctx); err != nil {
		s.logger.Error("failed to close relational store", "error", err)
	}

	if producer := mq.NewQueue(); producer != nil {
		if err := producer.Close(); err != nil {
			s.logger.Error("failed to close message queue", "error", err)
		}
	}

	if err := redis.Close(); err != nil {
		s.logger.Error("failed to close redis", "error", err)
	}

	return nil
}

func (s *Server) runHTTPServer(ctx context.Context) error {
	serverCfg := http.DefaultServerConfig()
	serverCfg.Port = s.config.Server.Port

	srv := http.NewServer(s.service, serverCfg)

	// Shutdown when context is cancelled
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	if err := srv.Start(); err != nil && !errors.Is(err, stdhttp.ErrServerClosed) {
		return errors.WithMessage(err, "http server error")
	}
	return nil
}

func (s *Server) runMCPServer(ctx context.Context) error {
	server := mcp.NewServer(s.service, mcp.ServerConfig{
		Name:    "skyroute",
		Version: version,
	})

	if err := server.RunStdio(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return errors.WithMessage(err, "mcp server error")
	}
	return nil
}

func (s *Server) runConsumer(ctx context.Context) error {
	if err := s.consumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return errors.WithMessage(err, "consumer start error")
	}

	// Wait for context cancellation
	<-ctx.Done()

	return s.consumer.Stop()
}
