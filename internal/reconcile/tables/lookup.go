package tables

import (
	"math"
	"strings"

	"sku-recon/internal/reconcile/model"
)

func (t *Tables) Version() int { return t.version }

func (t *Tables) MiscellaneousItem() string { return t.misc }

func (t *Tables) CurrentBundle() Bundle { return t.bundle }

// WithCurrentBundle returns a copy that treats name as the bundle on sale.
// An empty item keeps the name as the billed item.
func (t *Tables) WithCurrentBundle(name, item string) *Tables {
	name = strings.TrimSpace(name)
	if name == "" {
		return t
	}
	if strings.TrimSpace(item) == "" {
		item = name
	}
	cp := *t
	cp.bundle = Bundle{Name: name, Item: item}
	return &cp
}

// IsCurrentBundle reports whether folded mystery-bundle text names the bundle on sale.
func (t *Tables) IsCurrentBundle(folded string) bool {
	return strings.Contains(folded, Fold(t.bundle.Name))
}

// DetectType walks the ordered keyword rules; text no rule claims is a full hide.
func (t *Tables) DetectType(folded string) (model.ProductType, string) {
	if folded == "" {
		return model.Unknown, ""
	}
	for _, r := range t.typeRules {
		for _, kw := range r.Keywords {
			if keywordIn(folded, kw) {
				return r.Type, r.SubKind
			}
		}
	}
	return model.FullHide, ""
}

// keywordIn uses word boundaries for short codes ("shf", "dhf") so they
// cannot fire inside longer words; everything else is a substring test.
func keywordIn(folded, kw string) bool {
	if len(kw) <= 3 {
		return HasWord(folded, kw)
	}
	return strings.Contains(folded, kw)
}

// Exclusion returns the configured exclusion reason for folded text.
func (t *Tables) Exclusion(folded string) (string, bool) {
	for _, e := range t.excl {
		if strings.Contains(folded, e.keyword) {
			return e.reason, true
		}
	}
	return "", false
}

// DetectBrand finds the longest brand alias in folded text.
func (t *Tables) DetectBrand(folded string) (brand, alias string) {
	for _, a := range t.aliases {
		if HasWord(folded, a.folded) {
			return a.canonical, a.folded
		}
	}
	return "", ""
}

func (t *Tables) IsBrandAlias(s string) bool {
	_, ok := t.brandByFolded[Fold(s)]
	return ok
}

// CanonicalBrand maps a brand name or alias to the brand name.
func (t *Tables) CanonicalBrand(s string) string {
	return t.brandByFolded[Fold(s)]
}

// BrandsFor lists the brands that sell a canonical tannage.
func (t *Tables) BrandsFor(tannage string) []string {
	return append([]string(nil), t.owners[tannage]...)
}

func (t *Tables) Brands() []Brand {
	return append([]Brand(nil), t.brands...)
}

// FindTannage searches folded text for a tannage, trying the brand's own
// vocabulary before the global list. term is the folded spelling that hit.
func (t *Tables) FindTannage(folded, brand string) (canonical, matched string, ok bool) {
	if folded == "" {
		return "", "", false
	}
	if brand != "" {
		if c, m, ok := findTerm(t.brandTannages[brand], folded); ok {
			return c, m, true
		}
	}
	return findTerm(t.tannages, folded)
}

// CanonicalTannage maps any known spelling to the canonical tannage.
func (t *Tables) CanonicalTannage(s string) string {
	return t.tannageFor(Fold(s))
}

// TannageForms returns the canonical tannage followed by its short spellings.
func (t *Tables) TannageForms(canonical string) []string {
	return append([]string(nil), t.forms[canonical]...)
}

func (t *Tables) Tannages() []string {
	out := make([]string, 0, len(t.forms))
	seen := map[string]bool{}
	for _, tm := range t.tannages {
		if !seen[tm.canonical] {
			seen[tm.canonical] = true
			out = append(out, tm.canonical)
		}
	}
	return out
}

// FindColor searches folded text for a color and returns the group representative.
func (t *Tables) FindColor(folded string) (canonical, matched string, ok bool) {
	return findTerm(t.colors, folded)
}

// CanonicalColor maps an exact color spelling to its representative.
func (t *Tables) CanonicalColor(s string) string {
	return t.colorCanon[Fold(s)]
}

// SameColor compares two colors through their synonym groups.
func (t *Tables) SameColor(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	ca, cb := t.CanonicalColor(a), t.CanonicalColor(b)
	if ca == "" {
		ca = Fold(a)
	}
	if cb == "" {
		cb = Fold(b)
	}
	return ca == cb
}

func findTerm(terms []term, folded string) (string, string, bool) {
	for _, tm := range terms {
		if HasWord(folded, tm.folded) {
			return tm.canonical, tm.folded, true
		}
	}
	return "", "", false
}

// WeightPreference lists acceptable catalog weights for an input weight,
// most preferred first. Nil when the table has no row for it.
func (t *Tables) WeightPreference(w model.Weight) []model.Weight {
	return t.prefs[w.Key()]
}

// MMToOz converts a millimetre thickness to the ounce bucket holding its
// midpoint, or the nearest bucket when it falls outside all of them. The
// mm range rides along in MMMin/MMMax.
func (t *Tables) MMToOz(w model.Weight) (model.Weight, bool) {
	if len(t.mmBuckets) == 0 || w.IsZero() || w.IsGrade() {
		return model.Weight{}, false
	}
	mid := w.Min
	if !w.Open {
		mid = (w.Min + w.Max) / 2
	}
	best, bestDist := -1, math.MaxFloat64
	for i, b := range t.mmBuckets {
		if mid >= b.mm.Min && mid < b.mm.Max {
			best = i
			break
		}
		d := math.Min(math.Abs(mid-b.mm.Min), math.Abs(mid-b.mm.Max))
		if d < bestDist {
			best, bestDist = i, d
		}
	}
	oz := t.mmBuckets[best].oz
	oz.Unit = "mm"
	oz.MMMin, oz.MMMax = w.Min, w.Max
	oz.Raw = w.Raw
	return oz, true
}

// SampleBookTemplates returns the brand's item-name templates, or the defaults.
func (t *Tables) SampleBookTemplates(brand string) []string {
	if list, ok := t.sampleBrands[brand]; ok {
		return list
	}
	return t.sampleDefault
}

func (t *Tables) BrandWideTemplate() string { return t.brandWide }

// SportsDefault is the weight assumed for a sports leather line that states none.
func (t *Tables) SportsDefault(subKind string) (model.Weight, bool) {
	w, ok := t.sports[subKind]
	return w, ok
}

// DirectItems returns the ordered direct rules for one product type.
func (t *Tables) DirectItems(pt model.ProductType) []DirectItem {
	var out []DirectItem
	for _, d := range t.direct {
		if d.Type == pt {
			out = append(out, d)
		}
	}
	return out
}

func (t *Tables) BrandCode(brand string) (string, bool) {
	c, ok := t.brandCodes[brand]
	return c, ok
}

func (t *Tables) TypeCode(pt model.ProductType) (string, bool) {
	c, ok := t.typeCodes[pt]
	return c, ok
}

func (t *Tables) TannageCode(tannage string) (string, bool) {
	c, ok := t.tannageCodes[tannage]
	return c, ok
}

func (t *Tables) ColorCode(color string) (string, bool) {
	c, ok := t.colorCodes[color]
	return c, ok
}

// Info is the summary served by GET /tables and printed by the CLI.
type Info struct {
	Version           int            `json:"version"`
	CurrentBundle     Bundle         `json:"current_bundle"`
	MiscellaneousItem string         `json:"miscellaneous_item"`
	Brands            []Brand        `json:"brands"`
	Tannages          int            `json:"tannages"`
	Colors            int            `json:"colors"`
	WeightRows        int            `json:"weight_rows"`
	DirectItems       int            `json:"direct_items"`
	TypeRules         map[string]int `json:"type_rules"`
}

func (t *Tables) Info() Info {
	groups := map[string]bool{}
	for _, c := range t.colorCanon {
		groups[c] = true
	}
	rules := map[string]int{}
	for _, r := range t.typeRules {
		rules[string(r.Type)] += len(r.Keywords)
	}
	return Info{
		Version:           t.version,
		CurrentBundle:     t.bundle,
		MiscellaneousItem: t.misc,
		Brands:            t.Brands(),
		Tannages:          len(t.forms),
		Colors:            len(groups),
		WeightRows:        len(t.prefs),
		DirectItems:       len(t.direct),
		TypeRules:         rules,
	}
}
