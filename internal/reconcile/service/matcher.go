package service

import (
	"fmt"
	"sort"
	"strings"

	"sku-recon/internal/reconcile/model"
	"sku-recon/internal/reconcile/tables"
)

// Matcher resolves parsed order lines against a catalog index. It holds
// no per-call state; Match is safe to call from many goroutines.
type Matcher struct {
	t *tables.Tables
}

func NewMatcher(t *tables.Tables) *Matcher {
	return &Matcher{t: t}
}

// Match returns exactly one result for any input. Miscellaneous is the catch-all.
func (m *Matcher) Match(a model.ParsedAttributes, idx *Index) model.MatchResult {
	if a.Excluded {
		return model.MatchResult{Kind: model.Excluded, Rationale: "excluded: " + a.ExclusionReason}
	}
	switch a.ProductType {
	case model.SingleHorsefront, model.DoubleHorsefront:
		return m.horsefront(a, idx)
	case model.SampleBook:
		return m.sampleBook(a, idx)
	case model.SportsLeather:
		return m.sports(a, idx)
	case model.Accessory, model.Lining, model.Bookbinding, model.Scrap, model.GiftCard:
		return m.direct(a, idx)
	case model.MysteryBundle:
		return m.bundle(idx)
	case model.Merchandise:
		return model.MatchResult{Kind: model.Excluded, Rationale: "excluded: " + ReasonMerchandise}
	case model.FullHide, model.Panel, model.Strip:
		return m.structured(a, idx)
	}
	return misc("product type not recognised")
}

func misc(format string, args ...any) model.MatchResult {
	return model.MatchResult{Kind: model.Miscellaneous, Rationale: fmt.Sprintf(format, args...)}
}

func exact(it *model.CatalogItem, format string, args ...any) model.MatchResult {
	return model.MatchResult{Item: it, Kind: model.Exact, Rationale: fmt.Sprintf(format, args...)}
}

func closest(it *model.CatalogItem, format string, args ...any) model.MatchResult {
	return model.MatchResult{Item: it, Kind: model.Closest, NeedsReview: true, Rationale: fmt.Sprintf(format, args...)}
}

// filterTannageColor keeps candidates with the same tannage and a color in
// the same synonym group. A missing input color keeps every color.
func (m *Matcher) filterTannageColor(a model.ParsedAttributes, cands []*model.CatalogItem) []*model.CatalogItem {
	var out []*model.CatalogItem
	for _, c := range cands {
		if c.Tannage != a.Tannage {
			continue
		}
		if a.Color != "" && !m.t.SameColor(c.Color, a.Color) {
			continue
		}
		if a.RollType != "" && c.RollType != "" && c.RollType != a.RollType {
			continue
		}
		out = append(out, c)
	}
	return out
}

func describe(a model.ParsedAttributes) string {
	parts := []string{}
	for _, s := range []string{a.Brand, a.Tannage, a.Color, a.Weight.String()} {
		if s != "" {
			parts = append(parts, s)
		}
	}
	if len(parts) == 0 {
		return "no attributes"
	}
	return strings.Join(parts, " / ")
}

func (m *Matcher) structured(a model.ParsedAttributes, idx *Index) model.MatchResult {
	if a.Tannage == "" {
		return misc("no known tannage in %q", a.RawText)
	}
	cands := m.filterTannageColor(a, idx.Candidates(a.ProductType, a.Brand))
	if len(cands) == 0 {
		return misc("no %s item for %s", a.ProductType, describe(a))
	}
	it, kind, reason := m.selectByWeight(a.Weight, cands)
	if a.Color == "" {
		return closest(it, "order states no color; picked %s (%s)", it.Name, reason)
	}
	if kind == model.Exact {
		return exact(it, "%s matched %s (%s)", describe(a), it.Name, reason)
	}
	return closest(it, "%s matched tannage and color of %s; %s", describe(a), it.Name, reason)
}

// horsefront ignores weight; a single horsefront bills as its double equivalent.
func (m *Matcher) horsefront(a model.ParsedAttributes, idx *Index) model.MatchResult {
	if a.Tannage == "" {
		return misc("no known tannage in %q", a.RawText)
	}
	cands := m.filterTannageColor(a, idx.Candidates(model.DoubleHorsefront, a.Brand))
	if len(cands) == 0 {
		return misc("no double horsefront item for %s", describe(a))
	}
	current := currentOnly(cands)
	it := current[0]
	note := "horsefront weight ignored"
	if a.ProductType == model.SingleHorsefront {
		note = "billed at half price via DHF equivalent"
	}
	if len(current) > 1 {
		return closest(it, "%s ties with %s, %s", it.Name, current[1].Name, note)
	}
	if a.Color == "" {
		return closest(it, "order states no color; picked %s, %s", it.Name, note)
	}
	return exact(it, "%s matched %s, %s", describe(a), it.Name, note)
}

// currentOnly drops legacy candidates unless nothing else is left.
func currentOnly(cands []*model.CatalogItem) []*model.CatalogItem {
	var out []*model.CatalogItem
	for _, c := range cands {
		if !c.Legacy {
			out = append(out, c)
		}
	}
	if len(out) == 0 {
		return cands
	}
	return out
}

// weight tiers, best first
const (
	tierMM      = iota // both sides in mm and the mm ranges nest
	tierContain        // ounce ranges nest
	tierLoose          // overlap, listed preference or a weightless item
)

type ranked struct {
	it   *model.CatalogItem
	tier int
	pref int // position in the preference list, len(list) when absent
}

// selectByWeight applies the lenient weight rule. Exact only for a unique
// clean containment; everything else is closest with the reason spelled out.
func (m *Matcher) selectByWeight(in model.Weight, cands []*model.CatalogItem) (*model.CatalogItem, model.MatchKind, string) {
	if in.IsZero() {
		h := heaviest(cands)
		return h, model.Closest, "order states no weight, took the heaviest"
	}
	prefs := m.t.WeightPreference(in)
	var rs []ranked
	for _, c := range cands {
		if r, ok := rankWeight(in, c, prefs); ok {
			rs = append(rs, r)
		}
	}
	if len(rs) == 0 {
		h := heaviest(cands)
		return h, model.Closest, fmt.Sprintf("no catalog weight fits %s, took the heaviest (%s)", in, weightOrNone(h.Weight))
	}
	sort.SliceStable(rs, func(i, j int) bool { return rankLess(rs[i], rs[j]) })
	best := rs[0]
	if len(rs) > 1 && tied(best, rs[1]) {
		return best.it, model.Closest, fmt.Sprintf("%s ties with %s at %s", best.it.Name, rs[1].it.Name, weightOrNone(best.it.Weight))
	}
	switch {
	case best.it.Weight.IsZero():
		return best.it, model.Closest, "catalog item states no weight"
	case best.tier == tierLoose:
		return best.it, model.Closest, fmt.Sprintf("weight %s only overlaps ordered %s", best.it.Weight, in)
	}
	return best.it, model.Exact, fmt.Sprintf("weight %s fits ordered %s", best.it.Weight, in)
}

func rankWeight(in model.Weight, c *model.CatalogItem, prefs []model.Weight) (ranked, bool) {
	r := ranked{it: c, pref: len(prefs)}
	cw := c.Weight
	if cw.IsZero() {
		r.tier = tierLoose
		return r, true
	}
	if in.IsGrade() || cw.IsGrade() {
		if in.IsGrade() && cw.IsGrade() && strings.EqualFold(in.Grade, cw.Grade) {
			r.tier = tierContain
			return r, true
		}
		return r, false
	}
	// the ounce bucket is only for comparing across units
	if in.HasMM() && cw.HasMM() {
		im, cm := in.MM(), cw.MM()
		switch {
		case im.Contains(cm) || cm.Contains(im):
			r.tier = tierMM
		case im.Overlaps(cm):
			r.tier = tierLoose
		default:
			return r, false
		}
		return r, true
	}
	for i, p := range prefs {
		if p.Key() == cw.Key() {
			r.pref = i
			break
		}
	}
	switch {
	case in.Contains(cw) || cw.Contains(in):
		r.tier = tierContain
	case in.Overlaps(cw) || r.pref < len(prefs):
		r.tier = tierLoose
	default:
		return r, false
	}
	return r, true
}

func rankLess(a, b ranked) bool {
	if a.tier != b.tier {
		return a.tier < b.tier
	}
	if a.pref != b.pref {
		return a.pref < b.pref
	}
	wa, wb := a.it.Weight, b.it.Weight
	if wa.Upper() != wb.Upper() {
		return wa.Upper() > wb.Upper()
	}
	if wa.Min != wb.Min {
		return wa.Min > wb.Min
	}
	if wa.MMMax != wb.MMMax {
		return wa.MMMax > wb.MMMax
	}
	if wa.MMMin != wb.MMMin {
		return wa.MMMin > wb.MMMin
	}
	if a.it.Legacy != b.it.Legacy {
		return !a.it.Legacy
	}
	return a.it.Seq < b.it.Seq
}

func tied(a, b ranked) bool {
	wa, wb := a.it.Weight, b.it.Weight
	return a.tier == b.tier && a.pref == b.pref && wa.Key() == wb.Key() &&
		wa.MMMin == wb.MMMin && wa.MMMax == wb.MMMax && a.it.Legacy == b.it.Legacy
}

// heaviest orders by upper bound, then lower bound; weightless items last.
func heaviest(cands []*model.CatalogItem) *model.CatalogItem {
	best := cands[0]
	for _, c := range cands[1:] {
		if heavier(c, best) {
			best = c
		}
	}
	return best
}

func heavier(a, b *model.CatalogItem) bool {
	wa, wb := a.Weight, b.Weight
	if wa.IsZero() != wb.IsZero() {
		return !wa.IsZero()
	}
	if wa.Upper() != wb.Upper() {
		return wa.Upper() > wb.Upper()
	}
	if wa.Min != wb.Min {
		return wa.Min > wb.Min
	}
	if wa.MMMax != wb.MMMax {
		return wa.MMMax > wb.MMMax
	}
	if a.Legacy != b.Legacy {
		return !a.Legacy
	}
	return a.Seq < b.Seq
}

func weightOrNone(w model.Weight) string {
	if w.IsZero() {
		return "no weight"
	}
	return w.String()
}
