// Package views holds the pure projections computed from store contents.
// Nothing here is persisted or fetched; values are recomputed on read.
package views

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/mkrogh/storefront/internal/cart"
	pkgerrors "github.com/mkrogh/storefront/pkg/errors"
	"github.com/mkrogh/storefront/pkg/types"
)

// ProductLookup resolves a product id against the catalog cache.
type ProductLookup interface {
	Lookup(id int) (types.Product, bool)
}

// CartLineTotal is quantity times the server-authoritative unit price. The
// error signals incomplete data when the product is not yet in the catalog.
func CartLineTotal(entry cart.Entry, catalog ProductLookup) (decimal.Decimal, error) {
	product, ok := catalog.Lookup(entry.ProductID)
	if !ok {
		return decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("product %d not in catalog", entry.ProductID))
	}
	return product.Price.Mul(decimal.NewFromInt(int64(entry.Quantity))), nil
}

// CartGrandTotal sums line totals in cart insertion order with exact decimal
// arithmetic.
func CartGrandTotal(entries []cart.Entry, catalog ProductLookup) (decimal.Decimal, error) {
	total := decimal.Zero
	for _, entry := range entries {
		line, err := CartLineTotal(entry, catalog)
		if err != nil {
			return decimal.Zero, err
		}
		total = total.Add(line)
	}
	return total, nil
}

// OtherProductsByManufacturer returns the manufacturer's product list with the
// viewed product excluded by id. Empty when the relation was not loaded.
func OtherProductsByManufacturer(product types.Product) []types.Product {
	if product.Manufacturer == nil {
		return []types.Product{}
	}
	others := make([]types.Product, 0, len(product.Manufacturer.Products))
	for _, sibling := range product.Manufacturer.Products {
		if sibling.ID == product.ID {
			continue
		}
		others = append(others, sibling)
	}
	return others
}

// InferredColumns returns the sorted key set of the first record. Debug and
// admin tooling only: heterogeneous records will show only the first record's
// keys.
func InferredColumns(records []map[string]any) []string {
	if len(records) == 0 {
		return []string{}
	}
	columns := make([]string, 0, len(records[0]))
	for key := range records[0] {
		columns = append(columns, key)
	}
	sort.Strings(columns)
	return columns
}
