// Package model defines the entities flowing through the pipeline.
//
// Key types:
//   - Order, LineItem, ProductPrice: Bronze entities as read from the feeds
//   - OrderLine: one exploded, priced order line (Silver)
//   - SalesByDay, SalesByMonth, SalesByYear, SalesByProduct, SalesPerOrder: Gold aggregates
//   - Date: a civil calendar date
//   - Money helpers: fixed-scale decimal amounts
package model
