package model

import "github.com/shopspring/decimal"

// LineItem is one entry of an order's Products sequence. A nil field marks a
// key that was absent or unusable in the feed.
type LineItem struct {
	ProductID *string
	Quantity  *int64
}

// Order is a Bronze order record.
type Order struct {
	OrderID    string
	OrderDate  Date
	CustomerID *string
	Products   []LineItem
}

// ProductPrice is a Bronze price feed record.
type ProductPrice struct {
	ProductID   string
	UnitPrice   decimal.Decimal
	ProductName *string
}

// OrderLine is one priced line of an order (Silver).
type OrderLine struct {
	OrderID     string
	OrderDate   Date
	CustomerID  *string
	LineNo      int32 // position in the order's Products sequence
	ProductID   string
	ProductName *string
	Quantity    int64
	UnitPrice   decimal.Decimal
	Revenue     decimal.Decimal
}

// StringPtr returns a pointer to s, or nil when s is empty.
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// Int64Ptr returns a pointer to n.
func Int64Ptr(n int64) *int64 {
	return &n
}

// Deref returns *s, or "" when s is nil.
func Deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
