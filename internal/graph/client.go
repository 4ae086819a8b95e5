// Package graph persists documents, pages, headings, and visual references
// to Neo4j. Page numbers are stored 0-indexed; callers hand in the
// normalized structure.
package graph

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/docgraph/docgraph/internal/config"
)

var (
	// ErrNotFound is returned when a document id is unknown.
	ErrNotFound = errors.New("document not found")
	// ErrAlreadyExists is returned when creating a document whose id is taken.
	ErrAlreadyExists = errors.New("document already exists")
)

// Client wraps the Neo4j driver with the document-graph operations.
type Client struct {
	driver   neo4j.DriverWithContext
	database string
	log      *slog.Logger
}

// New connects to Neo4j and verifies connectivity, retrying while the
// database comes up. The returned client is safe for concurrent use.
func New(ctx context.Context, cfg config.Neo4jCfg, log *slog.Logger) (*Client, error) {
	if log == nil {
		log = slog.Default()
	}

	auth := neo4j.BasicAuth(cfg.Username, cfg.Password, "")
	driver, err := neo4j.NewDriverWithContext(cfg.URI, auth, func(c *neo4j.Config) {
		c.SocketConnectTimeout = 10 * time.Second
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create neo4j driver: %w", err)
	}

	err = retry.Do(
		func() error {
			vctx, cancel := context.WithTimeout(ctx, 5*time.Second)
			defer cancel()
			return driver.VerifyConnectivity(vctx)
		},
		retry.Context(ctx),
		retry.Attempts(10),
		retry.Delay(1*time.Second),
	)
	if err != nil {
		_ = driver.Close(ctx)
		return nil, fmt.Errorf("neo4j not reachable at %s: %w", cfg.URI, err)
	}

	c := &Client{
		driver:   driver,
		database: cfg.Database,
		log:      log.With("component", "graph"),
	}
	c.ensureSchema(ctx)
	return c, nil
}

// Close releases the driver's connection pool.
func (c *Client) Close(ctx context.Context) error {
	if c == nil || c.driver == nil {
		return nil
	}
	return c.driver.Close(ctx)
}

func (c *Client) session(ctx context.Context, mode neo4j.AccessMode) neo4j.SessionWithContext {
	return c.driver.NewSession(ctx, neo4j.SessionConfig{
		AccessMode:   mode,
		DatabaseName: c.database,
	})
}

// ensureSchema creates constraints and indexes. Best-effort: restricted
// users may not be allowed to, and the queries still work without them.
func (c *Client) ensureSchema(ctx context.Context) {
	session := c.session(ctx, neo4j.AccessModeWrite)
	defer session.Close(ctx)

	statements := []string{
		`CREATE CONSTRAINT document_id_unique IF NOT EXISTS FOR (d:Document) REQUIRE d.id IS UNIQUE`,
		`CREATE INDEX heading_text_idx IF NOT EXISTS FOR (h:Heading) ON (h.text)`,
		`CREATE INDEX page_number_idx IF NOT EXISTS FOR (p:Page) ON (p.number)`,
	}
	for _, stmt := range statements {
		res, err := session.Run(ctx, stmt, nil)
		if err != nil {
			c.log.Warn("schema init failed, continuing", "error", err)
			continue
		}
		_, _ = res.Consume(ctx)
	}
}
