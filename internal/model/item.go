package model

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// LineItem is one product entry in a cart. It is stored as a JSON-serialized
// hash field keyed by ProductID. MaxStock and Message are read-time
// annotations: MaxStock is never persisted; Message is persisted only when it
// records a quantity correction.
type LineItem struct {
	ProductID    string                 `json:"productId"`
	SKU          string                 `json:"sku"`
	Name         string                 `json:"name"`
	Slug         string                 `json:"slug"`
	Image        string                 `json:"image"`
	RegularPrice string                 `json:"regular_price"`
	SalePrice    *string                `json:"sale_price"`
	Discount     float64                `json:"discount"`
	IsDigital    bool                   `json:"is_digital"`
	Qty          int                    `json:"qty"`
	Attributes   map[string]interface{} `json:"attributes"`
	AddedAt      time.Time              `json:"addedAt"`
	UpdatedAt    time.Time              `json:"updatedAt"`

	MaxStock int    `json:"max_stock,omitempty"`
	Message  string `json:"message,omitempty"`
}

// ItemInput carries the caller-supplied fields for an upsert. Optional fields
// default per NewLineItem.
type ItemInput struct {
	ProductID    string                 `json:"productId"`
	SKU          string                 `json:"sku"`
	Name         string                 `json:"name"`
	Slug         string                 `json:"slug"`
	Image        string                 `json:"image"`
	RegularPrice string                 `json:"regular_price"`
	SalePrice    string                 `json:"sale_price"`
	Discount     float64                `json:"discount"`
	IsDigital    bool                   `json:"is_digital"`
	Qty          int                    `json:"qty"`
	Attributes   map[string]interface{} `json:"attributes"`
	AddedAt      *time.Time             `json:"addedAt,omitempty"`
}

// FormatPrice normalizes a price string to two decimal places. Unparseable
// input formats as "0.00".
func FormatPrice(price string) string {
	d, err := decimal.NewFromString(price)
	if err != nil {
		return "0.00"
	}
	return d.StringFixed(2)
}

// NewLineItem builds a LineItem from caller input, applying defaults:
// sku "N/A", empty slug/image, qty floor of 1, empty attributes map, and
// two-decimal price formatting. AddedAt is preserved when supplied so that
// overwrites keep the original add time; UpdatedAt is always stamped now.
func NewLineItem(in ItemInput, now time.Time) LineItem {
	item := LineItem{
		ProductID:    in.ProductID,
		SKU:          in.SKU,
		Name:         in.Name,
		Slug:         in.Slug,
		Image:        in.Image,
		RegularPrice: FormatPrice(in.RegularPrice),
		Discount:     in.Discount,
		IsDigital:    in.IsDigital,
		Qty:          in.Qty,
		Attributes:   in.Attributes,
		AddedAt:      now,
		UpdatedAt:    now,
	}
	if item.SKU == "" {
		item.SKU = "N/A"
	}
	if in.SalePrice != "" {
		sp := FormatPrice(in.SalePrice)
		item.SalePrice = &sp
	}
	if item.Qty < 1 {
		item.Qty = 1
	}
	if item.Attributes == nil {
		item.Attributes = map[string]interface{}{}
	}
	if in.AddedAt != nil && !in.AddedAt.IsZero() {
		item.AddedAt = *in.AddedAt
	}
	return item
}

// Encode serializes the item for storage with transient annotations stripped.
// A corrective Message survives serialization; MaxStock never does.
func (li LineItem) Encode() (string, error) {
	stored := li
	stored.MaxStock = 0
	b, err := json.Marshal(stored)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// DecodeLineItem parses a stored hash field. Failure marks the entry corrupt;
// reconciliation purges it and moves on.
func DecodeLineItem(raw string) (LineItem, error) {
	var li LineItem
	if err := json.Unmarshal([]byte(raw), &li); err != nil {
		return LineItem{}, err
	}
	return li, nil
}
