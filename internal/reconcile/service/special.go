package service

import (
	"strings"

	"sku-recon/internal/reconcile/model"
	"sku-recon/internal/reconcile/tables"
)

// sampleBook tries the brand's naming templates, then the brand-wide book,
// then any sample book carrying the same tannage.
func (m *Matcher) sampleBook(a model.ParsedAttributes, idx *Index) model.MatchResult {
	typeValues := m.typeValues(a)
	tannages := m.t.TannageForms(a.Tannage)
	for _, tpl := range idx.Templates(a.Brand) {
		for _, name := range expandTemplate(tpl, a.Brand, tannages, typeValues) {
			if it := idx.Lookup(name); it != nil && it.ProductType == model.SampleBook {
				return exact(it, "sample book name %q built from template %q", name, tpl)
			}
		}
	}
	if a.Brand != "" {
		if tpl := m.t.BrandWideTemplate(); tpl != "" {
			for _, name := range expandTemplate(tpl, a.Brand, nil, nil) {
				if it := idx.Lookup(name); it != nil {
					return closest(it, "no %s sample book for %q; brand-wide book %s", a.Brand, a.Tannage, it.Name)
				}
			}
		}
	}
	if a.Tannage == "" {
		return misc("sample book without a recognised tannage")
	}
	var hits []*model.CatalogItem
	for _, scope := range []string{a.Brand, ""} {
		for _, c := range idx.Candidates(model.SampleBook, scope) {
			if c.Tannage == a.Tannage {
				hits = append(hits, c)
			}
		}
		if len(hits) > 0 {
			break
		}
	}
	switch len(hits) {
	case 0:
		return misc("no sample book for tannage %s", a.Tannage)
	case 1:
		return exact(hits[0], "only sample book for tannage %s", a.Tannage)
	}
	return closest(hits[0], "%d sample books share tannage %s", len(hits), a.Tannage)
}

// typeValues feeds the {Type} placeholder: the first variant slot that is not
// just a brand name, then the tannage spellings.
func (m *Matcher) typeValues(a model.ParsedAttributes) []string {
	var out []string
	for _, s := range []string{a.Slots.Tannage, a.Slots.Color, a.Slots.Weight} {
		if s != "" && !m.t.IsBrandAlias(s) {
			out = append(out, s)
			break
		}
	}
	return append(out, m.t.TannageForms(a.Tannage)...)
}

// expandTemplate fills every combination of placeholder values. Templates
// whose placeholders have no value produce nothing.
func expandTemplate(tpl, brand string, tannages, types []string) []string {
	names := []string{tpl}
	fill := func(ph string, vals []string) {
		if !strings.Contains(tpl, ph) {
			return
		}
		var next []string
		for _, n := range names {
			for _, v := range vals {
				if v != "" {
					next = append(next, strings.ReplaceAll(n, ph, v))
				}
			}
		}
		names = next
	}
	var brands []string
	if brand != "" {
		brands = []string{brand}
	}
	fill("{Brand}", brands)
	fill("{Tannage}", tannages)
	fill("{Type}", types)
	return names
}

// sports narrows by sub kind, product code, color and weight in that order.
func (m *Matcher) sports(a model.ParsedAttributes, idx *Index) model.MatchResult {
	var cands []*model.CatalogItem
	for _, c := range idx.Candidates(model.SportsLeather, a.Brand) {
		if c.SubKind == a.SubKind {
			cands = append(cands, c)
		}
	}
	if len(cands) == 0 {
		return misc("no %s leather in the catalog", a.SubKind)
	}
	if a.ProductCode != "" {
		var byCode []*model.CatalogItem
		for _, c := range cands {
			if c.ProductCode == a.ProductCode {
				byCode = append(byCode, c)
			}
		}
		if len(byCode) == 1 {
			return exact(byCode[0], "%s product code %s", a.SubKind, a.ProductCode)
		}
		if len(byCode) > 1 {
			cands = byCode
		}
	}
	if a.Color != "" && anyColor(cands) {
		var byColor []*model.CatalogItem
		for _, c := range cands {
			if m.t.SameColor(c.Color, a.Color) {
				byColor = append(byColor, c)
			}
		}
		if len(byColor) == 0 {
			return misc("no %s leather in %s", a.SubKind, a.Color)
		}
		cands = byColor
	}
	w := a.Weight
	if w.IsZero() {
		w, _ = m.t.SportsDefault(a.SubKind)
	}
	if !w.IsZero() {
		var byWeight []*model.CatalogItem
		for _, c := range cands {
			cw := c.Weight
			if cw.IsZero() || cw.Contains(w) || w.Contains(cw) || cw.Overlaps(w) {
				byWeight = append(byWeight, c)
			}
		}
		cands = byWeight
	}
	switch len(cands) {
	case 0:
		return misc("no %s leather fits %s", a.SubKind, weightOrNone(w))
	case 1:
		return exact(cands[0], "%s leather %s", a.SubKind, describe(a))
	}
	return closest(cands[0], "%d %s items fit %s", len(cands), a.SubKind, describe(a))
}

func anyColor(cands []*model.CatalogItem) bool {
	for _, c := range cands {
		if c.Color != "" {
			return true
		}
	}
	return false
}

// direct applies the first keyword rule for the type; the mapped item must exist.
func (m *Matcher) direct(a model.ParsedAttributes, idx *Index) model.MatchResult {
	text := tables.Fold(a.RawText)
	for _, d := range m.t.DirectItems(a.ProductType) {
		if !allIn(text, d.Keywords) {
			continue
		}
		name := d.Item
		if strings.Contains(name, "{Color}") {
			color := a.Color
			if color == "" {
				color = d.DefaultColor
			}
			if color == "" {
				return misc("%s rule [%s] needs a color and the order states none", a.ProductType, strings.Join(d.Keywords, ", "))
			}
			name = strings.ReplaceAll(name, "{Color}", color)
		}
		if it := idx.Lookup(name); it != nil {
			return exact(it, "%s rule [%s] maps to %s", a.ProductType, strings.Join(d.Keywords, ", "), it.Name)
		}
		return misc("mapped item %q missing from catalog", name)
	}
	return misc("no %s rule matches %q", a.ProductType, a.RawText)
}

// allIn needs every keyword in text; numeric keywords must stand alone
// so "500" does not fire on "1500".
func allIn(text string, kws []string) bool {
	for _, kw := range kws {
		if tables.IsNumber(kw) {
			if !tables.HasNumber(text, kw) {
				return false
			}
			continue
		}
		if !strings.Contains(text, kw) {
			return false
		}
	}
	return true
}

// bundle bills the current-season mystery bundle; older bundles never reach here.
func (m *Matcher) bundle(idx *Index) model.MatchResult {
	b := m.t.CurrentBundle()
	if it := idx.Lookup(b.Item); it != nil {
		return exact(it, "current mystery bundle %q", b.Name)
	}
	return misc("current bundle item %q missing from catalog", b.Item)
}
