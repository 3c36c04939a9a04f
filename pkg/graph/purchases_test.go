package graph

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/KFP-SEAN/nerdx-apec-mvp-sub004/pkg/models"
)

func validPurchase() *models.Purchase {
	return &models.Purchase{
		UserID:  "buyer@example.com",
		OrderID: "order-1001",
		Products: []models.PurchaseLine{
			{ProductID: "prod-1", Title: "Widget", Quantity: 2, Price: "9.99"},
		},
		Total:     "19.98",
		Timestamp: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestValidatePurchase(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(p *models.Purchase)
		wantErr bool
	}{
		{
			name:    "valid purchase",
			mutate:  func(p *models.Purchase) {},
			wantErr: false,
		},
		{
			name:    "missing user id",
			mutate:  func(p *models.Purchase) { p.UserID = "" },
			wantErr: true,
		},
		{
			name:    "missing order id",
			mutate:  func(p *models.Purchase) { p.OrderID = "" },
			wantErr: true,
		},
		{
			name:    "no products",
			mutate:  func(p *models.Purchase) { p.Products = nil },
			wantErr: true,
		},
		{
			name:    "empty products",
			mutate:  func(p *models.Purchase) { p.Products = []models.PurchaseLine{} },
			wantErr: true,
		},
		{
			name: "zero quantity line",
			mutate: func(p *models.Purchase) {
				p.Products[0].Quantity = 0
			},
			wantErr: true,
		},
		{
			name: "line missing product id",
			mutate: func(p *models.Purchase) {
				p.Products[0].ProductID = ""
			},
			wantErr: true,
		},
		{
			name: "non-numeric total",
			mutate: func(p *models.Purchase) {
				p.Total = "nineteen"
			},
			wantErr: true,
		},
		{
			name: "non-numeric price",
			mutate: func(p *models.Purchase) {
				p.Products[0].Price = "$9.99"
			},
			wantErr: true,
		},
		{
			name:    "zero timestamp",
			mutate:  func(p *models.Purchase) { p.Timestamp = time.Time{} },
			wantErr: true,
		},
		{
			name: "untitled product is allowed",
			mutate: func(p *models.Purchase) {
				p.Products[0].Title = ""
			},
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := validPurchase()
			tt.mutate(p)

			err := validatePurchase(p)
			if tt.wantErr {
				var valErr *ValidationError
				assert.ErrorAs(t, err, &valErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidatePurchase_Nil(t *testing.T) {
	err := validatePurchase(nil)
	var valErr *ValidationError
	assert.ErrorAs(t, err, &valErr)
}
