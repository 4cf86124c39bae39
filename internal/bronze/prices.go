package bronze

import (
	"fmt"
	"io"

	merrors "github.com/xtxerr/medallion/internal/errors"
	"github.com/xtxerr/medallion/internal/model"
)

// Drop reasons counted while reading the price feed.
const (
	DropMissingProductID = "missing_product_id"
	DropInvalidPrice     = "invalid_price"
)

// ReadPrices reads a price feed. Price may also be headed UnitPrice, and
// ProductName is optional. Rows are kept in feed order, duplicates included.
func ReadPrices(r io.Reader, delimiter rune, dropped *merrors.Counter) ([]model.ProductPrice, error) {
	f, err := newFeed("products", r, delimiter)
	if err != nil {
		return nil, err
	}

	idCol, err := f.require("ProductID")
	if err != nil {
		return nil, err
	}
	priceCol, err := f.require("Price", "UnitPrice")
	if err != nil {
		return nil, err
	}
	nameCol := f.column("ProductName")

	var prices []model.ProductPrice
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
			return nil, fmt.Errorf("products: line %d: %w", f.line, err)
		}
		if blank(rec) {
			continue
		}

		id := model.NormalizeID(field(rec, idCol))
		if id == "" {
			dropped.Add(DropMissingProductID)
			continue
		}

		price, err := model.ParseMoney(field(rec, priceCol))
		if err != nil {
			dropped.Add(DropInvalidPrice)
			continue
		}

		prices = append(prices, model.ProductPrice{
			ProductID:   id,
			UnitPrice:   price,
			ProductName: model.StringPtr(field(rec, nameCol)),
		})
	}

	return prices, nil
}
