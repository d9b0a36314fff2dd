// Package server wires the sheet service to its HTTP, WebSocket and gRPC
// fronts.
package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"
	"time"

	mdwlog "github.com/msto63/gridwerk/foundation/core/log"
	"github.com/msto63/gridwerk/internal/assistant"
	"github.com/msto63/gridwerk/internal/command"
	"github.com/msto63/gridwerk/internal/sheetd/grpcapi"
	"github.com/msto63/gridwerk/internal/sheetd/handler"
	"github.com/msto63/gridwerk/internal/sheetd/hub"
	"github.com/msto63/gridwerk/internal/sheetd/service"
	"github.com/msto63/gridwerk/internal/sheetd/store"
	"github.com/msto63/gridwerk/pkg/core/config"
	coregrpc "github.com/msto63/gridwerk/pkg/core/grpc"
	"github.com/msto63/gridwerk/pkg/core/health"
	"github.com/msto63/gridwerk/pkg/core/logging"
	"github.com/msto63/gridwerk/pkg/core/version"
)

// Server is the gridwerk sheet server
type Server struct {
	httpServer *http.Server
	grpcServer *coregrpc.Server
	store      store.Store
	sheets     *service.Service
	hub        *hub.Hub
	health     *health.Registry
	logger     *logging.Logger
	config     *config.Config
}

// New creates the server from configuration. base may be nil.
func New(cfg *config.Config, base *mdwlog.Logger) (*Server, error) {
	if base == nil {
		var err error
		base, err = logging.NewLogger(logging.LoggerConfig{
			ServiceName: cfg.General.Name,
			Level:       cfg.General.LogLevel,
			Format:      cfg.General.LogFormat,
		})
		if err != nil {
			return nil, err
		}
	}
	logger := logging.Wrap(base, "sheet-server")
	coregrpc.SetLogger(base)

	st, err := store.Open(cfg.Store.Driver, cfg.Store.Path)
	if err != nil {
		return nil, err
	}

	engineOpts := command.Options{
		Logger:           base,
		MaxCommandLength: cfg.Interpreter.MaxCommandLength,
		RequestID:        coregrpc.GetRequestID,
	}
	if cfg.Interpreter.Audit {
		engineOpts.AuditLogger = command.NewLogAuditor(base, coregrpc.GetRequestID)
	}
	engine := command.NewEngine(engineOpts)

	svcCfg := service.Config{
		Store:          st,
		Engine:         engine,
		Logger:         base,
		OnError:        cfg.Interpreter.OnError,
		DefaultRows:    cfg.Interpreter.DefaultRows,
		DefaultColumns: cfg.Interpreter.DefaultColumns,
	}
	var ollama *assistant.Client
	if cfg.Assistant.Enabled {
		ollama = assistant.NewClient(assistant.ClientConfig{
			BaseURL: cfg.Assistant.BaseURL,
			Timeout: cfg.Assistant.Timeout.Duration,
		})
		svcCfg.Planner = assistant.New(ollama, assistant.Config{
			Model:       cfg.Assistant.Model,
			Temperature: cfg.Assistant.Temperature,
		}, engine.Registry(), logging.Wrap(base, "assistant"))
	}

	sheets, err := service.New(svcCfg)
	if err != nil {
		st.Close()
		return nil, err
	}

	var origins []string
	if cfg.Server.CORS.Enabled {
		origins = cfg.Server.CORS.AllowedOrigins
	}
	liveHub := hub.New(sheets, origins, logging.Wrap(base, "sheet-hub"))
	sheets.SetPublisher(liveHub)

	healthRegistry := health.NewRegistry(cfg.General.Name, version.Server)
	healthRegistry.Register(health.PingCheck("store", st.Ping))
	healthRegistry.Register(health.StatsCheck("sheets", func(ctx context.Context) (map[string]interface{}, error) {
		list, err := st.ListSheets(ctx)
		if err != nil {
			return nil, err
		}
		return map[string]interface{}{"count": len(list), "driver": cfg.Store.Driver}, nil
	}))
	healthRegistry.Register(health.StatsCheck("hub", func(context.Context) (map[string]interface{}, error) {
		watched, conns := liveHub.Stats()
		return map[string]interface{}{"watched_sheets": watched, "connections": conns}, nil
	}))
	if ollama != nil {
		healthRegistry.Register(health.HTTPCheck("assistant", strings.TrimRight(ollama.BaseURL(), "/")+"/api/tags", 2*time.Second))
	}

	api := handler.New(handler.Config{
		Version:        version.Server,
		AllowedOrigins: origins,
		AllowedMethods: cfg.Server.CORS.AllowedMethods,
	}, sheets, liveHub, healthRegistry, logging.Wrap(base, "sheet-handler"))

	mux := http.NewServeMux()
	mux.Handle("/", api)
	mux.Handle("/api/", api)

	httpServer := &http.Server{
		Addr:         cfg.HTTPAddress(),
		Handler:      handler.Middleware(logger, mux),
		ReadTimeout:  cfg.Server.ReadTimeout.Duration,
		WriteTimeout: cfg.Server.WriteTimeout.Duration,
	}

	grpcServer := coregrpc.NewServer(coregrpc.ServerConfigFrom(cfg.GRPC))
	grpcapi.Register(grpcServer.GRPCServer(), grpcapi.NewServer(sheets))

	return &Server{
		httpServer: httpServer,
		grpcServer: grpcServer,
		store:      st,
		sheets:     sheets,
		hub:        liveHub,
		health:     healthRegistry,
		logger:     logger,
		config:     cfg,
	}, nil
}

// Start serves HTTP and gRPC until Stop is called. It returns the first
// listener error.
func (s *Server) Start() error {
	httpLis, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return err
	}
	grpcLis, err := net.Listen("tcp", s.config.GRPCAddress())
	if err != nil {
		httpLis.Close()
		return err
	}
	return s.Serve(httpLis, grpcLis)
}

// Serve serves on existing listeners
func (s *Server) Serve(httpLis, grpcLis net.Listener) error {
	s.logger.Info("Starting gridwerk server",
		"http", httpLis.Addr().String(),
		"grpc", grpcLis.Addr().String(),
		"store", s.config.Store.Driver,
		"version", version.Server,
	)

	s.grpcServer.SetServing("", true)
	s.grpcServer.SetServing(grpcapi.ServiceName, true)

	errCh := make(chan error, 2)
	go func() {
		if err := s.httpServer.Serve(httpLis); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()
	go func() {
		errCh <- s.grpcServer.Serve(grpcLis)
	}()

	return <-errCh
}

// Stop gracefully stops both servers and closes the store
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("Stopping gridwerk server")

	s.hub.Close()
	s.grpcServer.StopWithTimeout(ctx)
	err := s.httpServer.Shutdown(ctx)

	s.sheets.Close()
	if cerr := s.store.Close(); cerr != nil {
		s.logger.Warn("Error closing store", "error", cerr.Error())
		if err == nil {
			err = cerr
		}
	}
	return err
}

// Handler returns the HTTP handler, middleware included
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Sheets returns the sheet service
func (s *Server) Sheets() *service.Service {
	return s.sheets
}

// HealthRegistry returns the health check registry
func (s *Server) HealthRegistry() *health.Registry {
	return s.health
}
