package graph

import (
	"context"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/go-playground/validator/v10"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/KFP-SEAN/nerdx-apec-mvp-sub004/pkg/metrics"
	"github.com/KFP-SEAN/nerdx-apec-mvp-sub004/pkg/models"
	"github.com/KFP-SEAN/nerdx-apec-mvp-sub004/pkg/tracing"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// PurchaseService is the purchase ingestion pipeline. It is the only writer of
// graph data; each Record call commits one purchase as a single atomic
// transaction.
type PurchaseService struct {
	client *Client
	logger ectologger.Logger
}

// NewPurchaseService creates a new purchase ingestion service
func NewPurchaseService(client *Client, logger ectologger.Logger) *PurchaseService {
	return &PurchaseService{
		client: client,
		logger: logger,
	}
}

// createOrderCypher upserts the user and creates the order in one statement.
// The plain CREATE on Order trips the order_id_unique constraint when the
// order was already recorded, which Record maps to DuplicateOrderError.
const createOrderCypher = `
	MERGE (u:User {email: $email})
	ON CREATE SET u.createdAt = $timestamp
	CREATE (o:Order {id: $order_id, total: $total, timestamp: $timestamp})
	CREATE (u)-[:PLACED]->(o)
`

// addLineItemCypher upserts one product (title first-write-wins) and attaches
// it to the order with the quantity and price paid in this order.
const addLineItemCypher = `
	MATCH (o:Order {id: $order_id})
	MERGE (p:Product {id: $product_id})
	ON CREATE SET p.title = $title
	CREATE (o)-[:CONTAINS {quantity: $quantity, price: $price}]->(p)
`

// Record commits a purchase as one atomic graph transaction. On any failure
// nothing is visible to readers. Repeated product ids within the purchase are
// merged into a single CONTAINS edge with summed quantities.
func (s *PurchaseService) Record(ctx context.Context, purchase *models.Purchase) error {
	ctx, span := tracing.StartSpan(ctx, "graph.PurchaseService.Record")
	defer span.End()

	if err := validatePurchase(purchase); err != nil {
		metrics.PurchasesRecordedTotal.WithLabelValues("rejected").Inc()
		return err
	}

	lines := purchase.MergedLines()

	log := s.logger.WithContext(ctx).WithFields(map[string]any{
		"order_id":      purchase.OrderID,
		"user_id":       purchase.UserID,
		"product_count": len(lines),
	})

	start := time.Now()
	_, err := s.client.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		result, err := tx.Run(ctx, createOrderCypher, map[string]any{
			"email":     purchase.UserID,
			"order_id":  purchase.OrderID,
			"total":     purchase.Total,
			"timestamp": purchase.Timestamp.UTC(),
		})
		if err != nil {
			return nil, err
		}
		if _, err := result.Consume(ctx); err != nil {
			return nil, err
		}

		for _, line := range lines {
			result, err := tx.Run(ctx, addLineItemCypher, map[string]any{
				"order_id":   purchase.OrderID,
				"product_id": line.ProductID,
				"title":      line.Title,
				"quantity":   line.Quantity,
				"price":      line.Price,
			})
			if err != nil {
				return nil, err
			}
			if _, err := result.Consume(ctx); err != nil {
				return nil, err
			}
		}

		return nil, nil
	})
	metrics.PurchaseRecordDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		if isDuplicateOrder(err) {
			log.Debug("Order already recorded, rejecting duplicate")
			metrics.PurchasesRecordedTotal.WithLabelValues("duplicate").Inc()
			return &DuplicateOrderError{OrderID: purchase.OrderID}
		}

		// Everything else is retryable, including a User or Product
		// constraint violation from losing a concurrent upsert race: the
		// transaction rolled back, so a retry can commit cleanly.
		log.WithError(err).Error("Failed to record purchase in graph")
		metrics.PurchasesRecordedTotal.WithLabelValues("failed").Inc()
		return &ConnectionError{Op: "record order " + purchase.OrderID, Err: err}
	}

	log.Debug("Recorded purchase in graph")
	metrics.PurchasesRecordedTotal.WithLabelValues("recorded").Inc()
	return nil
}

// validatePurchase rejects malformed input before any store round trip
func validatePurchase(purchase *models.Purchase) error {
	if purchase == nil {
		return &ValidationError{Op: "record", Reason: "purchase is required"}
	}
	if err := validate.Struct(purchase); err != nil {
		return &ValidationError{Op: "record", Reason: err.Error()}
	}
	return nil
}
