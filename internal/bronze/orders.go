package bronze

import (
	"fmt"
	"io"

	merrors "github.com/xtxerr/medallion/internal/errors"
	"github.com/xtxerr/medallion/internal/model"
)

// Drop reasons counted while reading the orders feed.
const (
	DropMalformedRecord = "malformed_record"
	DropMissingOrderID  = "missing_order_id"
	DropDuplicateOrder  = "duplicate_order_id"
	DropInvalidDate     = "invalid_order_date"
	DropInvalidProducts = "invalid_products"
)

// Order feed columns. Matching is case-insensitive.
const (
	colOrderID    = "OrderID"
	colOrderDate  = "OrderDate"
	colProducts   = "Products"
	colCustomerID = "CustomerID"
)

// ReadOrders reads an orders feed. Rows that fail validation are dropped and
// counted in dropped; the first row of a repeated OrderID wins. OrderIDs are
// compared after NormalizeID. A missing
// required column is an ErrSchemaMismatch.
func ReadOrders(r io.Reader, delimiter rune, dropped *merrors.Counter) ([]model.Order, error) {
	f, err := newFeed("orders", r, delimiter)
	if err != nil {
		return nil, err
	}

	idCol, err := f.require(colOrderID)
	if err != nil {
		return nil, err
	}
	dateCol, err := f.require(colOrderDate)
	if err != nil {
		return nil, err
	}
	productsCol, err := f.require(colProducts)
	if err != nil {
		return nil, err
	}
	customerCol := f.column(colCustomerID)

	var orders []model.Order
	seen := make(map[string]struct{})

	for {
		rec, err := f.next()
		if err == io.EOF {
			break
		}
		if merrors.Is(err, merrors.ErrRowValidation) {
			dropped.Add(DropMalformedRecord)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("orders: line %d: %w", f.line, err)
		}
		if blank(rec) {
			continue
		}

		id := model.NormalizeID(field(rec, idCol))
		if id == "" {
			dropped.Add(DropMissingOrderID)
			continue
		}

		date, err := model.ParseDate(field(rec, dateCol))
		if err != nil {
			dropped.Add(DropInvalidDate)
			continue
		}

		products, err := ParseProducts(field(rec, productsCol))
		if err != nil {
			dropped.Add(DropInvalidProducts)
			continue
		}

		if _, dup := seen[id]; dup {
			dropped.Add(DropDuplicateOrder)
			continue
		}
		seen[id] = struct{}{}

		orders = append(orders, model.Order{
			OrderID:    id,
			OrderDate:  date,
			CustomerID: model.StringPtr(field(rec, customerCol)),
			Products:   products,
		})
	}

	return orders, nil
}
