// ============================================================================
// gridwerk - Spreadsheet Command Service
// ============================================================================
//
// Package:     grpc
// Description: Integration test helpers for the gRPC sheet service
// Author:      Mike Stoffels
// Created:     2025-12-06
// License:     MIT
// ============================================================================

package grpc

import (
	"context"
	"fmt"
	"os"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/msto63/gridwerk/internal/sheetd/grpcapi"
)

// ServiceConfig holds the address of a running gridwerk server
type ServiceConfig struct {
	Host    string
	Port    int
	Timeout time.Duration
}

// DefaultServiceConfig reads GRIDWERK_GRPC_HOST and GRIDWERK_GRPC_PORT
func DefaultServiceConfig() ServiceConfig {
	return ServiceConfig{
		Host:    getEnvOrDefault("GRIDWERK_GRPC_HOST", "localhost"),
		Port:    getEnvOrDefaultInt("GRIDWERK_GRPC_PORT", 9300),
		Timeout: 10 * time.Second,
	}
}

// Address returns host:port
func (c ServiceConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// TestConnection is a blocking connection to the sheet service
type TestConnection struct {
	conn   *grpc.ClientConn
	config ServiceConfig
}

// NewTestConnection dials the server and waits until it is reachable
func NewTestConnection(cfg ServiceConfig) (*TestConnection, error) {
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeout)
	defer cancel()

	conn, err := grpc.DialContext(ctx, cfg.Address(),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithBlock(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to gridwerk at %s: %w", cfg.Address(), err)
	}
	return &TestConnection{conn: conn, config: cfg}, nil
}

// Client returns a sheet service client on the connection
func (tc *TestConnection) Client() *grpcapi.Client {
	return grpcapi.NewClient(tc.conn)
}

// Conn returns the underlying gRPC connection
func (tc *TestConnection) Conn() *grpc.ClientConn {
	return tc.conn
}

// Context returns a context bounded by the configured timeout
func (tc *TestConnection) Context() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), tc.config.Timeout)
}

// Close closes the connection
func (tc *TestConnection) Close() error {
	return tc.conn.Close()
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvOrDefaultInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		var intValue int
		if _, err := fmt.Sscanf(value, "%d", &intValue); err == nil {
			return intValue
		}
	}
	return defaultValue
}
