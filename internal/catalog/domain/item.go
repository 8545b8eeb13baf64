package domain

import "errors"

var ErrInsufficientStock = errors.New("insufficient stock")

type MenuItem struct {
	ID         string        `json:"id"`
	CategoryID string        `json:"categoryId"`
	Name       LocalizedText `json:"name"`
	Price      float64       `json:"price"`
	Available  int           `json:"available"`
}

// CartLine is one ephemeral cart entry. It never persists; checkout converts
// cart lines into order line items.
type CartLine struct {
	ItemID     string        `json:"itemId"`
	CategoryID string        `json:"categoryId"`
	Name       LocalizedText `json:"name"`
	Quantity   int           `json:"quantity"`
	UnitPrice  float64       `json:"unitPrice"`
}

func (l CartLine) LineTotal() float64 {
	return float64(l.Quantity) * l.UnitPrice
}

func CartSubtotal(lines []CartLine) float64 {
	var total float64
	for _, l := range lines {
		total += l.LineTotal()
	}
	return total
}
