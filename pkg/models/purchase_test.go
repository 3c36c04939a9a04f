package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMergedLines_NoDuplicates(t *testing.T) {
	p := &Purchase{
		Products: []PurchaseLine{
			{ProductID: "prod-1", Title: "Widget", Quantity: 1, Price: "9.99"},
			{ProductID: "prod-2", Title: "Gadget", Quantity: 2, Price: "19.99"},
		},
	}

	lines := p.MergedLines()
	assert.Len(t, lines, 2)
	assert.Equal(t, "prod-1", lines[0].ProductID)
	assert.Equal(t, "prod-2", lines[1].ProductID)
}

func TestMergedLines_SumsQuantities(t *testing.T) {
	p := &Purchase{
		Products: []PurchaseLine{
			{ProductID: "prod-1", Title: "Widget", Quantity: 1, Price: "9.99"},
			{ProductID: "prod-2", Title: "Gadget", Quantity: 1, Price: "19.99"},
			{ProductID: "prod-1", Title: "Widget (renamed)", Quantity: 3, Price: "8.99"},
		},
	}

	lines := p.MergedLines()
	assert.Len(t, lines, 2)

	assert.Equal(t, "prod-1", lines[0].ProductID)
	assert.Equal(t, 4, lines[0].Quantity)
	// First occurrence wins for title and price.
	assert.Equal(t, "Widget", lines[0].Title)
	assert.Equal(t, "9.99", lines[0].Price)

	assert.Equal(t, "prod-2", lines[1].ProductID)
	assert.Equal(t, 1, lines[1].Quantity)
}

func TestMergedLines_PreservesFirstAppearanceOrder(t *testing.T) {
	p := &Purchase{
		Products: []PurchaseLine{
			{ProductID: "prod-3", Quantity: 1, Price: "1.00"},
			{ProductID: "prod-1", Quantity: 1, Price: "1.00"},
			{ProductID: "prod-3", Quantity: 1, Price: "1.00"},
			{ProductID: "prod-2", Quantity: 1, Price: "1.00"},
		},
	}

	lines := p.MergedLines()
	ids := make([]string, 0, len(lines))
	for _, line := range lines {
		ids = append(ids, line.ProductID)
	}
	assert.Equal(t, []string{"prod-3", "prod-1", "prod-2"}, ids)
}

func TestMergedLines_Empty(t *testing.T) {
	p := &Purchase{}
	assert.Empty(t, p.MergedLines())
}
