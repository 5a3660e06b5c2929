package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// SoldOutLabel is shown in place of the stock count when nothing is left.
const SoldOutLabel = "매진"

// ProductID is assigned by the store. Clients send it either as a JSON
// number or as a string; both decode to the same value.
type ProductID string

func (id *ProductID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*id = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = ProductID(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("product id: %w", err)
	}
	*id = ProductID(n.String())
	return nil
}

func (id ProductID) MarshalJSON() ([]byte, error) {
	if n, ok := id.numeric(); ok {
		return []byte(strconv.FormatInt(n, 10)), nil
	}
	return json.Marshal(string(id))
}

// BindValue is the value handed to the store for a $n placeholder.
func (id ProductID) BindValue() any {
	if n, ok := id.numeric(); ok {
		return n
	}
	return string(id)
}

func (id ProductID) String() string { return string(id) }

// Missing reports an absent id. Store ids start at 1, so 0 counts as
// absent too.
func (id ProductID) Missing() bool {
	return id == "" || id == "0"
}

func (id ProductID) numeric() (int64, bool) {
	n, err := strconv.ParseInt(string(id), 10, 64)
	return n, err == nil
}

type Product struct {
	ID           ProductID `json:"id"`
	Title        string    `json:"title"`
	Subtitle     string    `json:"subtitle"`
	Price        string    `json:"price"`
	PriceNumeric int64     `json:"price_numeric"`
	Image        string    `json:"image"`
	Category     string    `json:"category"`
	Type         string    `json:"type"`
	Badge        string    `json:"badge"`
}

// ProductWithStock is a product joined with its inventory row. A product
// without an inventory row has StockQuantity 0.
type ProductWithStock struct {
	Product
	StockQuantity int64  `json:"stock_quantity"`
	StockDisplay  string `json:"stock_display"`
}

func NewProductWithStock(p Product, stock int64) ProductWithStock {
	return ProductWithStock{
		Product:       p,
		StockQuantity: stock,
		StockDisplay:  StockDisplay(stock),
	}
}

func StockDisplay(stock int64) string {
	if stock == 0 {
		return SoldOutLabel
	}
	return strconv.FormatInt(stock, 10)
}

type InventoryRecord struct {
	ProductID        ProductID `json:"product_id"`
	StockQuantity    int64     `json:"stock_quantity"`
	ReservedQuantity int64     `json:"reserved_quantity"`
	UpdatedAt        time.Time `json:"updated_at"`
}
