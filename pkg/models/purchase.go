// Package models contains the purchase-graph domain types shared across the
// ingestion and recommendation layers.
package models

import (
	"time"
)

// Purchase is a normalized record of one completed order, ready for graph
// ingestion. It is supplied by an order-completion collaborator (webhook or
// checkout handler) that has already verified payment and authenticity.
type Purchase struct {
	// UserID is the stable user key. In the upstream commerce system this is
	// the customer's email address.
	UserID    string         `json:"userId" validate:"required"`
	OrderID   string         `json:"orderId" validate:"required"`
	Products  []PurchaseLine `json:"products" validate:"required,min=1,dive"`
	Total     string         `json:"total" validate:"required,numeric"`
	Timestamp time.Time      `json:"timestamp" validate:"required"`
}

// PurchaseLine is one line item of a purchase. Price is the price paid in that
// order, independent of the product's current catalog price.
type PurchaseLine struct {
	ProductID string `json:"productId" validate:"required"`
	Title     string `json:"title"`
	Quantity  int    `json:"quantity" validate:"required,gte=1"`
	Price     string `json:"price" validate:"required,numeric"`
}

// MergedLines collapses repeated product ids into a single line per product.
// Quantities sum; title and price are first-write-wins, matching the
// one-CONTAINS-edge-per-product rule in the graph. Line order of first
// appearance is preserved.
func (p *Purchase) MergedLines() []PurchaseLine {
	merged := make([]PurchaseLine, 0, len(p.Products))
	index := make(map[string]int, len(p.Products))

	for _, line := range p.Products {
		if i, ok := index[line.ProductID]; ok {
			merged[i].Quantity += line.Quantity
			continue
		}
		index[line.ProductID] = len(merged)
		merged = append(merged, line)
	}

	return merged
}
