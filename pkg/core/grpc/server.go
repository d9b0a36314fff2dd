// ============================================================================
// gridwerk - Spreadsheet Command Service
// ============================================================================
//
// Package:     grpc
// Description: gRPC server and client helpers with request ID propagation
// Author:      Mike Stoffels
// Created:     2025-12-06
// License:     MIT
// ============================================================================

package grpc

import (
	"context"
	"net"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/keepalive"
	"google.golang.org/grpc/reflection"

	"github.com/msto63/gridwerk/pkg/core/config"
)

// DefaultMaxMessageSize bounds request and reply size. Whole sheets travel
// in one message, so this also caps the size of a sheet over gRPC.
const DefaultMaxMessageSize = 8 * 1024 * 1024

// ServerConfig holds gRPC server configuration
type ServerConfig struct {
	MaxMessageSize   int
	EnableReflection bool
	Keepalive        time.Duration
}

// DefaultServerConfig returns a default server configuration
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		MaxMessageSize: DefaultMaxMessageSize,
		Keepalive:      30 * time.Second,
	}
}

// ServerConfigFrom derives the server settings from the [grpc] config section
func ServerConfigFrom(cfg config.GRPCConfig) ServerConfig {
	sc := DefaultServerConfig()
	sc.EnableReflection = cfg.EnableReflection
	return sc
}

// Server is a gRPC server with the health service registered
type Server struct {
	server *grpc.Server
	health *health.Server
}

// NewServer creates a server with recovery, request ID and logging
// interceptors
func NewServer(cfg ServerConfig, opts ...grpc.ServerOption) *Server {
	if cfg.MaxMessageSize <= 0 {
		cfg.MaxMessageSize = DefaultMaxMessageSize
	}
	serverOpts := append([]grpc.ServerOption{
		grpc.MaxRecvMsgSize(cfg.MaxMessageSize),
		grpc.MaxSendMsgSize(cfg.MaxMessageSize),
		grpc.KeepaliveParams(keepalive.ServerParameters{Time: cfg.Keepalive}),
		grpc.KeepaliveEnforcementPolicy(keepalive.EnforcementPolicy{
			MinTime:             5 * time.Second,
			PermitWithoutStream: true,
		}),
		grpc.ChainUnaryInterceptor(
			RecoveryInterceptor(),
			RequestIDInterceptor(),
			LoggingInterceptor(),
		),
		grpc.StreamInterceptor(StreamRecoveryInterceptor()),
	}, opts...)

	s := &Server{
		server: grpc.NewServer(serverOpts...),
		health: health.NewServer(),
	}
	healthpb.RegisterHealthServer(s.server, s.health)
	if cfg.EnableReflection {
		reflection.Register(s.server)
	}
	return s
}

// GRPCServer returns the underlying server for service registration
func (s *Server) GRPCServer() *grpc.Server {
	return s.server
}

// SetServing marks a service as serving or not serving in the health service.
// The empty name stands for the server as a whole.
func (s *Server) SetServing(service string, serving bool) {
	st := healthpb.HealthCheckResponse_NOT_SERVING
	if serving {
		st = healthpb.HealthCheckResponse_SERVING
	}
	s.health.SetServingStatus(service, st)
}

// Serve serves on lis until the server stops
func (s *Server) Serve(lis net.Listener) error {
	return s.server.Serve(lis)
}

// Stop drains in-flight calls and stops the server
func (s *Server) Stop() {
	s.health.Shutdown()
	s.server.GracefulStop()
}

// StopWithTimeout is Stop, forcing the server down when ctx expires first
func (s *Server) StopWithTimeout(ctx context.Context) {
	s.health.Shutdown()

	done := make(chan struct{})
	go func() {
		s.server.GracefulStop()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		s.server.Stop()
	}
}
