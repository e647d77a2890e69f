package model

// ProductType is the coarse classification of an order line or catalog item.
type ProductType string

const (
	FullHide         ProductType = "full_hide"
	Panel            ProductType = "panel"
	SingleHorsefront ProductType = "single_horsefront"
	DoubleHorsefront ProductType = "double_horsefront"
	Strip            ProductType = "strip"
	SampleBook       ProductType = "sample_book"
	Accessory        ProductType = "accessory"
	SportsLeather    ProductType = "sports_leather"
	Lining           ProductType = "lining"
	Bookbinding      ProductType = "bookbinding"
	MysteryBundle    ProductType = "mystery_bundle"
	Scrap            ProductType = "scrap"
	GiftCard         ProductType = "gift_card"
	Merchandise      ProductType = "merchandise"
	Unknown          ProductType = "unknown"
)

var productTypes = map[ProductType]struct{}{
	FullHide: {}, Panel: {}, SingleHorsefront: {}, DoubleHorsefront: {}, Strip: {},
	SampleBook: {}, Accessory: {}, SportsLeather: {}, Lining: {}, Bookbinding: {},
	MysteryBundle: {}, Scrap: {}, GiftCard: {}, Merchandise: {}, Unknown: {},
}

func (t ProductType) Valid() bool {
	_, ok := productTypes[t]
	return ok
}

// Structured reports whether items of this type are matched on tannage/color/weight.
func (t ProductType) Structured() bool {
	switch t {
	case FullHide, Panel, Strip, SingleHorsefront, DoubleHorsefront:
		return true
	}
	return false
}

func (t ProductType) Horsefront() bool {
	return t == SingleHorsefront || t == DoubleHorsefront
}

type RollType string

const (
	HardRolled RollType = "hard_rolled"
	SoftRolled RollType = "soft_rolled"
)

type MatchKind string

const (
	Exact         MatchKind = "exact"
	Closest       MatchKind = "closest"
	Miscellaneous MatchKind = "miscellaneous"
	Excluded      MatchKind = "excluded"
)

// OrderLineItem is one purchased product on one storefront order.
type OrderLineItem struct {
	ProductName string `json:"product_name"`
	VariantText string `json:"variant_text"`
	Sku         string `json:"sku,omitempty"`
	Quantity    int    `json:"quantity"`
}

// VariantSlots is the three-slot decomposition of a variant string.
type VariantSlots struct {
	Format  string            `json:"format,omitempty"` // tuple | pairs
	Brand   string            `json:"brand,omitempty"`  // only from "brand: x" pairs
	Tannage string            `json:"tannage,omitempty"`
	Color   string            `json:"color,omitempty"`
	Weight  string            `json:"weight,omitempty"`
	Extra   map[string]string `json:"extra,omitempty"`
}

// ParsedAttributes are derived once from a product/variant pair and never mutated.
type ParsedAttributes struct {
	ProductType     ProductType  `json:"product_type"`
	SubKind         string       `json:"sub_kind,omitempty"`
	Brand           string       `json:"brand,omitempty"`
	Tannage         string       `json:"tannage,omitempty"`
	Color           string       `json:"color,omitempty"`
	Weight          Weight       `json:"weight"`
	RollType        RollType     `json:"roll_type,omitempty"`
	ProductCode     string       `json:"product_code,omitempty"`
	Excluded        bool         `json:"excluded,omitempty"`
	ExclusionReason string       `json:"exclusion_reason,omitempty"`
	Legacy          bool         `json:"legacy,omitempty"`
	Slots           VariantSlots `json:"slots"`
	RawText         string       `json:"raw_text"`
}

// CatalogItem is one ledger item, parsed with the same rules as order lines.
type CatalogItem struct {
	Name string `json:"name"`
	Seq  int    `json:"seq"` // position in the catalog export
	ParsedAttributes
}

// MatchResult is the matcher's verdict for one line item.
type MatchResult struct {
	Item        *CatalogItem `json:"-"`
	Kind        MatchKind    `json:"match_kind"`
	NeedsReview bool         `json:"needs_review"`
	Rationale   string       `json:"rationale"`
}

func (r MatchResult) ItemName() string {
	if r.Item == nil {
		return ""
	}
	return r.Item.Name
}

// MappingRow is the flat output record handed to exporters.
type MappingRow struct {
	InputSku         string      `json:"input_sku,omitempty"`
	InputProduct     string      `json:"input_product"`
	InputVariant     string      `json:"input_variant"`
	Quantity         int         `json:"quantity"`
	MatchedItem      string      `json:"matched_item,omitempty"`
	ProductType      ProductType `json:"product_type"`
	Brand            string      `json:"brand,omitempty"`
	Tannage          string      `json:"tannage,omitempty"`
	Color            string      `json:"color,omitempty"`
	Weight           string      `json:"weight,omitempty"`
	MatchKind        MatchKind   `json:"match_kind"`
	NeedsReview      bool        `json:"needs_review"`
	NeedsCatalogItem bool        `json:"needs_catalog_item"`
	FallbackItem     string      `json:"fallback_item,omitempty"`
	InternalSku      string      `json:"internal_sku"`
	Rationale        string      `json:"rationale"`
}

// Mapping keeps the full (line, attributes, result) triple next to its flat row.
type Mapping struct {
	Line  OrderLineItem    `json:"-"`
	Attrs ParsedAttributes `json:"-"`
	Match MatchResult      `json:"-"`
	MappingRow
}

type ExcludedRow struct {
	InputSku     string `json:"input_sku,omitempty"`
	InputProduct string `json:"input_product"`
	InputVariant string `json:"input_variant"`
	Quantity     int    `json:"quantity"`
	Reason       string `json:"reason"`
}

type KindCount struct {
	Count   int     `json:"count"`
	Percent float64 `json:"percent"`
}

type TypeCount struct {
	Total   int `json:"total"`
	Matched int `json:"matched"`
}

type Stats struct {
	Total            int                       `json:"total"`
	Considered       int                       `json:"considered"`
	Excluded         int                       `json:"excluded"`
	NeedsReview      int                       `json:"needs_review"`
	ByKind           map[MatchKind]KindCount   `json:"by_kind"`
	ExcludedByReason map[string]int            `json:"excluded_by_reason"`
	ByType           map[ProductType]TypeCount `json:"by_type"`
}

type Result struct {
	Rows     []Mapping     `json:"rows"`
	Review   []Mapping     `json:"review"`
	Excluded []ExcludedRow `json:"excluded"`
	Stats    Stats         `json:"stats"`
}

// Rows flattens mappings for exporters.
func Rows(ms []Mapping) []MappingRow {
	out := make([]MappingRow, len(ms))
	for i := range ms {
		out[i] = ms[i].MappingRow
	}
	return out
}
