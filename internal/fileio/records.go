package fileio

import (
	"sku-recon/internal/reconcile/model"
	"sku-recon/internal/utils"
)

// OrderMapping names the order export columns. Each field accepts
// alternatives separated by "|".
type OrderMapping struct {
	Product string
	Variant string
	Sku     string
	Qty     string
}

const DefaultCatalogKey = "Item|Item Name|Name|Product/Service"

// DefaultOrderMapping covers the common storefront export headers.
func DefaultOrderMapping() OrderMapping {
	return OrderMapping{
		Product: "Product Name|Lineitem name|Item|Product",
		Variant: "Variant|Product Variant|Options|Lineitem variant",
		Sku:     "SKU|Lineitem sku",
		Qty:     "Quantity|Qty|Lineitem quantity",
	}
}

// WithDefaults fills blank fields from DefaultOrderMapping.
func (m OrderMapping) WithDefaults() OrderMapping {
	d := DefaultOrderMapping()
	if m.Product == "" {
		m.Product = d.Product
	}
	if m.Variant == "" {
		m.Variant = d.Variant
	}
	if m.Sku == "" {
		m.Sku = d.Sku
	}
	if m.Qty == "" {
		m.Qty = d.Qty
	}
	return m
}

// ReadOrderItems converts export rows to order lines. Rows without a product
// name and repeated header rows are skipped; a missing or bad quantity is 1.
func ReadOrderItems(rows []map[string]string, m OrderMapping) []model.OrderLineItem {
	m = m.WithDefaults()
	out := make([]model.OrderLineItem, 0, len(rows))
	for _, rec := range rows {
		if looksLikeHeaderMap(rec) {
			continue
		}
		product := normalizeCell(rec[resolveKey(rec, m.Product)])
		if product == "" {
			continue
		}
		var variant, sku string
		if k := resolveKey(rec, m.Variant); k != "" {
			variant = normalizeCell(rec[k])
		}
		if k := resolveKey(rec, m.Sku); k != "" {
			sku = normalizeCell(rec[k])
		}
		qty := 1
		if k := resolveKey(rec, m.Qty); k != "" {
			qty = utils.ParseQuantity(rec[k])
		}
		out = append(out, model.OrderLineItem{
			ProductName: product,
			VariantText: variant,
			Sku:         sku,
			Quantity:    qty,
		})
	}
	return out
}

// ReadCatalog returns the item names of a ledger export in file order.
func ReadCatalog(rows []map[string]string, key string) []string {
	if key == "" {
		key = DefaultCatalogKey
	}
	out := make([]string, 0, len(rows))
	for _, rec := range rows {
		if looksLikeHeaderMap(rec) {
			continue
		}
		if name := normalizeCell(rec[resolveKey(rec, key)]); name != "" {
			out = append(out, name)
		}
	}
	return out
}
