// Package graph provides the purchase-graph store client and the ingestion and
// recommendation services built on it, speaking Bolt to Neo4j or Memgraph.
package graph

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/KFP-SEAN/nerdx-apec-mvp-sub004/pkg/tracing"
)

// Client wraps the Neo4j driver and hands out scoped sessions. It is the only
// component that owns pooled connections to the graph store.
type Client struct {
	logger ectologger.Logger

	mu     sync.Mutex
	driver neo4j.DriverWithContext
}

// Config holds graph database configuration
type Config struct {
	Host                  string
	Port                  int
	Username              string
	Password              string
	MaxConnectionPoolSize int
	ConnectTimeout        time.Duration
}

// NewClient creates a new graph database client. The driver pools connections
// lazily; call Verify to fail fast on an unreachable or misconfigured store.
func NewClient(cfg Config, logger ectologger.Logger) (*Client, error) {
	uri := fmt.Sprintf("bolt://%s:%d", cfg.Host, cfg.Port)

	auth := neo4j.NoAuth()
	if cfg.Username != "" {
		auth = neo4j.BasicAuth(cfg.Username, cfg.Password, "")
	}

	driver, err := neo4j.NewDriverWithContext(uri, auth, func(c *neo4j.Config) {
		if cfg.MaxConnectionPoolSize > 0 {
			c.MaxConnectionPoolSize = cfg.MaxConnectionPoolSize
		}
		if cfg.ConnectTimeout > 0 {
			c.SocketConnectTimeout = cfg.ConnectTimeout
		}
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create graph driver: %w", err)
	}

	return &Client{
		driver: driver,
		logger: logger,
	}, nil
}

// Verify performs a liveness round trip to the store. A failure here is fatal
// for startup; the caller should not fall back to a degraded mode.
func (c *Client) Verify(ctx context.Context) error {
	c.mu.Lock()
	driver := c.driver
	c.mu.Unlock()

	if driver == nil {
		return &ConnectionError{Op: "verify", Err: fmt.Errorf("client is closed")}
	}
	if err := driver.VerifyConnectivity(ctx); err != nil {
		return &ConnectionError{Op: "verify", Err: err}
	}
	return nil
}

// Close releases all pooled resources. It is safe to call more than once and
// safe to call even if connectivity was never verified.
func (c *Client) Close(ctx context.Context) error {
	c.mu.Lock()
	driver := c.driver
	c.driver = nil
	c.mu.Unlock()

	if driver == nil {
		return nil
	}
	return driver.Close(ctx)
}

// Session creates a new scoped session with the given access mode. Callers
// must close it on every exit path. Fails with ConnectionError once the
// client has been closed.
func (c *Client) Session(ctx context.Context, accessMode neo4j.AccessMode) (neo4j.SessionWithContext, error) {
	c.mu.Lock()
	driver := c.driver
	c.mu.Unlock()

	if driver == nil {
		return nil, &ConnectionError{Op: "session", Err: fmt.Errorf("client is closed")}
	}
	return driver.NewSession(ctx, neo4j.SessionConfig{
		AccessMode: accessMode,
	}), nil
}

// ExecuteWrite runs a write transaction in a session scoped to this call
func (c *Client) ExecuteWrite(ctx context.Context, work func(tx neo4j.ManagedTransaction) (any, error)) (any, error) {
	ctx, span := tracing.StartSpan(ctx, "graph.Client.ExecuteWrite")
	defer span.End()

	session, err := c.Session(ctx, neo4j.AccessModeWrite)
	if err != nil {
		return nil, err
	}
	defer session.Close(ctx)

	return session.ExecuteWrite(ctx, work)
}

// ExecuteRead runs a read transaction in a session scoped to this call
func (c *Client) ExecuteRead(ctx context.Context, work func(tx neo4j.ManagedTransaction) (any, error)) (any, error) {
	ctx, span := tracing.StartSpan(ctx, "graph.Client.ExecuteRead")
	defer span.End()

	session, err := c.Session(ctx, neo4j.AccessModeRead)
	if err != nil {
		return nil, err
	}
	defer session.Close(ctx)

	return session.ExecuteRead(ctx, work)
}
