package graph

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// ConnectionError means the graph store was unreachable or the round trip
// timed out. Callers may retry.
type ConnectionError struct {
	Op  string
	Err error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("graph connection failed during %s: %v", e.Op, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// ValidationError means the input was malformed. Retrying without correcting
// the input will not help.
type ValidationError struct {
	Op     string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid input for %s: %s", e.Op, e.Reason)
}

// DuplicateOrderError means the order id has already been recorded. Callers
// should treat this as "already done", not retry it as a fresh insert.
type DuplicateOrderError struct {
	OrderID string
}

func (e *DuplicateOrderError) Error() string {
	return fmt.Sprintf("order %q has already been recorded", e.OrderID)
}

// QueryError means the recommendation traversal failed. Callers may retry.
type QueryError struct {
	Op  string
	Err error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("graph query failed during %s: %v", e.Op, e.Err)
}

func (e *QueryError) Unwrap() error { return e.Err }

// isConstraintViolation reports whether err is a store-level uniqueness
// constraint failure. Neo4j reports a ClientError with a
// ConstraintValidationFailed code; Memgraph reports a plain message about the
// violated unique constraint, so the message text is checked as a fallback.
func isConstraintViolation(err error) bool {
	if err == nil {
		return false
	}

	var neoErr *neo4j.Neo4jError
	if errors.As(err, &neoErr) && strings.Contains(neoErr.Code, "ConstraintValidationFailed") {
		return true
	}

	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "constraintvalidationfailed") {
		return true
	}
	return strings.Contains(msg, "constraint") &&
		(strings.Contains(msg, "unique") || strings.Contains(msg, "violat"))
}

// isDuplicateOrder reports whether err is the Order id uniqueness constraint
// failing. The ingestion transaction also MERGEs User and Product nodes under
// uniqueness constraints, and the loser of a concurrent first-purchase race
// fails with the same ConstraintValidationFailed code; those violations are
// transient (a retry finds the node already merged) and must not be reported
// as an already-recorded order.
func isDuplicateOrder(err error) bool {
	if !isConstraintViolation(err) {
		return false
	}

	msg := err.Error()
	var neoErr *neo4j.Neo4jError
	if errors.As(err, &neoErr) {
		msg = neoErr.Msg
	}
	// Neo4j names the label ("label `Order`") or the constraint
	// (order_id_unique); Memgraph phrases it as ":Order(id)".
	return strings.Contains(strings.ToLower(msg), "order")
}

// isTimeout reports whether err came from caller cancellation or a deadline.
func isTimeout(err error) bool {
	return errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled)
}
