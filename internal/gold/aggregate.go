// Package gold aggregates Silver order lines into the published grains.
package gold

import (
	"github.com/xtxerr/medallion/internal/model"
)

// Datasets holds the five Gold aggregates, each in publication order.
type Datasets struct {
	ByDay     []model.SalesByDay
	ByMonth   []model.SalesByMonth
	ByYear    []model.SalesByYear
	ByProduct []model.SalesByProduct
	PerOrder  []model.SalesPerOrder
}

type monthKey struct {
	year, month int
}

// Aggregate sums lines per grain. PerOrder has one row for every order,
// including orders without lines; lines whose order is not in orders still
// get a row so that totals agree across grains.
func Aggregate(lines []model.OrderLine, orders []model.Order) *Datasets {
	byDay := make(map[model.Date]*model.SalesByDay)
	byMonth := make(map[monthKey]*model.SalesByMonth)
	byYear := make(map[int]*model.SalesByYear)
	byProduct := make(map[string]*model.SalesByProduct)
	perOrder := make(map[string]*model.SalesPerOrder, len(orders))

	for _, o := range orders {
		if _, ok := perOrder[o.OrderID]; !ok {
			perOrder[o.OrderID] = &model.SalesPerOrder{OrderID: o.OrderID, OrderDate: o.OrderDate}
		}
	}

	for _, l := range lines {
		day, ok := byDay[l.OrderDate]
		if !ok {
			day = &model.SalesByDay{Date: l.OrderDate}
			byDay[l.OrderDate] = day
		}
		day.Add(l)

		mk := monthKey{l.OrderDate.Year(), l.OrderDate.Month()}
		month, ok := byMonth[mk]
		if !ok {
			month = &model.SalesByMonth{Year: mk.year, Month: mk.month}
			byMonth[mk] = month
		}
		month.Add(l)

		year, ok := byYear[mk.year]
		if !ok {
			year = &model.SalesByYear{Year: mk.year}
			byYear[mk.year] = year
		}
		year.Add(l)

		product, ok := byProduct[l.ProductID]
		if !ok {
			product = &model.SalesByProduct{ProductID: l.ProductID}
			byProduct[l.ProductID] = product
		}
		if product.ProductName == nil && l.ProductName != nil {
			name := *l.ProductName
			product.ProductName = &name
		}
		product.Add(l)

		order, ok := perOrder[l.OrderID]
		if !ok {
			order = &model.SalesPerOrder{OrderID: l.OrderID, OrderDate: l.OrderDate}
			perOrder[l.OrderID] = order
		}
		order.Add(l)
	}

	ds := &Datasets{
		ByDay:     values(byDay),
		ByMonth:   values(byMonth),
		ByYear:    values(byYear),
		ByProduct: values(byProduct),
		PerOrder:  values(perOrder),
	}
	model.SortSalesByDay(ds.ByDay)
	model.SortSalesByMonth(ds.ByMonth)
	model.SortSalesByYear(ds.ByYear)
	model.SortSalesByProduct(ds.ByProduct)
	model.SortSalesPerOrder(ds.PerOrder)
	return ds
}

func values[K comparable, V any](m map[K]*V) []V {
	out := make([]V, 0, len(m))
	for _, v := range m {
		out = append(out, *v)
	}
	return out
}
