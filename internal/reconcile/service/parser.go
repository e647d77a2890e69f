package service

import (
	"strings"

	"sku-recon/internal/reconcile/model"
	"sku-recon/internal/reconcile/tables"
)

// Exclusion reasons produced by the parser itself; table exclusions add their own.
const (
	ReasonMerchandise      = "merchandise"
	ReasonDeprecatedBundle = "deprecated_bundle"
)

// Parser turns product/variant text into ParsedAttributes. Order lines and
// catalog names go through the same rules so their attributes compare.
type Parser struct {
	t *tables.Tables
}

func NewParser(t *tables.Tables) *Parser {
	return &Parser{t: t}
}

func (p *Parser) Tables() *tables.Tables { return p.t }

// Parse never fails; anything it cannot recognise is left empty.
func (p *Parser) Parse(product, variant string) model.ParsedAttributes {
	raw := joinNonEmpty(" ", product, variant)
	name := tables.Fold(product)
	all := tables.Fold(unifyDashes(raw))

	a := model.ParsedAttributes{RawText: raw}
	a.ProductType, a.SubKind = p.t.DetectType(name)
	p.markExcluded(&a, name)

	a.Slots = splitVariant(variant)

	a.Brand = p.resolveBrand(a.Slots, all)
	var tannageTerm string
	a.Tannage, tannageTerm = p.resolveTannage(a.Slots, all, a.Brand)
	if a.Brand == "" && a.Tannage != "" {
		if owners := p.t.BrandsFor(a.Tannage); len(owners) == 1 {
			a.Brand = owners[0]
		}
	}
	a.Color = p.resolveColor(a.Slots, all, tannageTerm)

	if w, ok := parseWeight(a.Slots.Weight, p.t); ok {
		a.Weight = w
	} else if w, ok := parseWeight(raw, p.t); ok {
		a.Weight = w
	}
	a.RollType = rollType(all)
	if a.ProductType == model.SportsLeather {
		a.ProductCode = productCode(all)
	}
	return a
}

func (p *Parser) markExcluded(a *model.ParsedAttributes, name string) {
	switch {
	case a.ProductType == model.Merchandise:
		a.Excluded, a.ExclusionReason = true, ReasonMerchandise
	case a.ProductType == model.MysteryBundle && !p.t.IsCurrentBundle(name):
		a.Excluded, a.ExclusionReason = true, ReasonDeprecatedBundle
	default:
		if reason, ok := p.t.Exclusion(name); ok {
			a.Excluded, a.ExclusionReason = true, reason
		}
	}
}

// resolveBrand trusts an explicit "brand:" pair, then any alias in the full text.
func (p *Parser) resolveBrand(slots model.VariantSlots, all string) string {
	if slots.Brand != "" {
		if b := p.t.CanonicalBrand(slots.Brand); b != "" {
			return b
		}
		if b, _ := p.t.DetectBrand(tables.Fold(slots.Brand)); b != "" {
			return b
		}
	}
	b, _ := p.t.DetectBrand(all)
	return b
}

func (p *Parser) resolveTannage(slots model.VariantSlots, all, brand string) (string, string) {
	if slots.Tannage != "" {
		if c, term, ok := p.t.FindTannage(tables.Fold(slots.Tannage), brand); ok {
			return c, term
		}
	}
	c, term, _ := p.t.FindTannage(all, brand)
	return c, term
}

// resolveColor reads the color slot first. The full-text fallback drops the
// tannage and brand words so "Russet Horsehide" does not read as a color.
func (p *Parser) resolveColor(slots model.VariantSlots, all, tannageTerm string) string {
	if slots.Color != "" {
		if c, _, ok := p.t.FindColor(tables.Fold(slots.Color)); ok {
			return c
		}
	}
	rest := tables.RemoveWord(all, tannageTerm)
	if _, alias := p.t.DetectBrand(rest); alias != "" {
		rest = tables.RemoveWord(rest, alias)
	}
	c, _, _ := p.t.FindColor(rest)
	return c
}

// ParseCatalogName parses a ledger item name. A leading '*' marks a legacy
// item and a leading "Sides " is dropped; exclusion flags do not apply.
func (p *Parser) ParseCatalogName(name string) model.ParsedAttributes {
	n := strings.TrimSpace(name)
	legacy := false
	if rest, ok := strings.CutPrefix(n, "*"); ok {
		legacy = true
		n = strings.TrimSpace(rest)
	}
	if len(n) > 6 && strings.EqualFold(n[:6], "sides ") {
		n = strings.TrimSpace(n[6:])
	}
	a := p.Parse(n, "")
	a.Legacy = legacy
	a.Excluded, a.ExclusionReason = false, ""
	a.RawText = name
	return a
}
