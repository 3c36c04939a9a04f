package graph

import (
	"context"
	"fmt"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/KFP-SEAN/nerdx-apec-mvp-sub004/pkg/metrics"
	"github.com/KFP-SEAN/nerdx-apec-mvp-sub004/pkg/tracing"
)

// RecommendationCache is an optional read-through cache in front of the
// co-purchase traversal. Lookups that miss or fail fall through to the store.
type RecommendationCache interface {
	Get(ctx context.Context, userID string, limit int) ([]string, bool, error)
	Set(ctx context.Context, userID string, limit int, productIDs []string) error
}

// RecommendationService answers product recommendation queries. It is strictly
// read-only over the purchase graph.
type RecommendationService struct {
	client *Client
	cache  RecommendationCache
	logger ectologger.Logger
}

// NewRecommendationService creates a new recommendation query service. cache
// may be nil, in which case every query hits the store.
func NewRecommendationService(client *Client, cache RecommendationCache, logger ectologger.Logger) *RecommendationService {
	return &RecommendationService{
		client: client,
		cache:  cache,
		logger: logger,
	}
}

// recommendCypher is the two-hop co-purchase traversal: the target user's
// products, the other users who bought any of them, and those users' other
// products. Owned products are excluded. The score is the number of distinct
// qualifying paths reaching the candidate; ties break on ascending product id
// so a fixed snapshot always yields the same sequence.
const recommendCypher = `
	MATCH (target:User {email: $email})-[:PLACED]->(:Order)-[:CONTAINS]->(owned:Product)
	WITH target, collect(DISTINCT owned) AS owned
	UNWIND owned AS bought
	MATCH (bought)<-[:CONTAINS]-(:Order)<-[:PLACED]-(other:User)
	WHERE other <> target
	MATCH (other)-[:PLACED]->(:Order)-[:CONTAINS]->(candidate:Product)
	WHERE NOT candidate IN owned
	RETURN candidate.id AS productId, count(*) AS score
	ORDER BY score DESC, productId ASC
	LIMIT $limit
`

// Recommend returns up to limit product ids for the given user, strongest
// co-purchase signal first. A user with no purchase history gets an empty
// result, not an error.
func (s *RecommendationService) Recommend(ctx context.Context, userID string, limit int) ([]string, error) {
	ctx, span := tracing.StartSpan(ctx, "graph.RecommendationService.Recommend")
	defer span.End()

	if userID == "" {
		return nil, &ValidationError{Op: "recommend", Reason: "user id is required"}
	}
	if limit <= 0 {
		return nil, &ValidationError{Op: "recommend", Reason: fmt.Sprintf("limit must be positive, got %d", limit)}
	}

	log := s.logger.WithContext(ctx).WithFields(map[string]any{
		"user_id": userID,
		"limit":   limit,
	})

	if s.cache != nil {
		cached, ok, err := s.cache.Get(ctx, userID, limit)
		if err != nil {
			log.WithError(err).Error("Recommendation cache lookup failed")
		}
		if ok {
			metrics.RecommendationQueriesTotal.WithLabelValues("cache_hit").Inc()
			return cached, nil
		}
	}

	start := time.Now()
	res, err := s.client.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		result, err := tx.Run(ctx, recommendCypher, map[string]any{
			"email": userID,
			"limit": limit,
		})
		if err != nil {
			return nil, err
		}

		productIDs := make([]string, 0, limit)
		for result.Next(ctx) {
			record := result.Record()
			val, ok := record.Get("productId")
			if !ok {
				continue
			}
			if id, ok := val.(string); ok {
				productIDs = append(productIDs, id)
			}
		}
		if err := result.Err(); err != nil {
			return nil, err
		}

		return productIDs, nil
	})
	metrics.RecommendationQueryDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		log.WithError(err).Error("Failed to query recommendations")
		metrics.RecommendationQueriesTotal.WithLabelValues("failed").Inc()
		if isTimeout(err) {
			return nil, &ConnectionError{Op: "recommend for user " + userID, Err: err}
		}
		return nil, &QueryError{Op: "recommend for user " + userID, Err: err}
	}

	productIDs := res.([]string)

	if s.cache != nil {
		if err := s.cache.Set(ctx, userID, limit, productIDs); err != nil {
			log.WithError(err).Error("Failed to cache recommendations")
		}
	}

	metrics.RecommendationQueriesTotal.WithLabelValues("served").Inc()
	return productIDs, nil
}
