package graph

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/KFP-SEAN/nerdx-apec-mvp-sub004/pkg/tracing"
)

// schemaStatements declares the uniqueness constraints the ingestion pipeline
// relies on. Duplicate-order detection and the upsert race windows for User
// and Product are closed at the store level, not in application code.
var schemaStatements = []string{
	`CREATE CONSTRAINT user_email_unique IF NOT EXISTS FOR (u:User) REQUIRE u.email IS UNIQUE`,
	`CREATE CONSTRAINT order_id_unique IF NOT EXISTS FOR (o:Order) REQUIRE o.id IS UNIQUE`,
	`CREATE CONSTRAINT product_id_unique IF NOT EXISTS FOR (p:Product) REQUIRE p.id IS UNIQUE`,
}

// EnsureSchema creates the uniqueness constraints if they do not exist yet.
// It runs at startup, before the service reports ready.
func (c *Client) EnsureSchema(ctx context.Context) error {
	ctx, span := tracing.StartSpan(ctx, "graph.Client.EnsureSchema")
	defer span.End()

	session, err := c.Session(ctx, neo4j.AccessModeWrite)
	if err != nil {
		return err
	}
	defer session.Close(ctx)

	for _, stmt := range schemaStatements {
		result, err := session.Run(ctx, stmt, nil)
		if err != nil {
			return fmt.Errorf("failed to ensure graph schema: %w", err)
		}
		if _, err := result.Consume(ctx); err != nil {
			return fmt.Errorf("failed to ensure graph schema: %w", err)
		}
	}

	c.logger.WithContext(ctx).Debug("Ensured graph uniqueness constraints")
	return nil
}
