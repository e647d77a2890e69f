package service

import (
	"regexp"
	"strings"

	"sku-recon/internal/reconcile/model"
	"sku-recon/internal/reconcile/tables"
	"sku-recon/internal/utils"
)

// en/em dashes, minus sign and figure dash all become '-'
var dashes = strings.NewReplacer("–", "-", "—", "-", "‒", "-", "−", "-")

func unifyDashes(s string) string {
	return dashes.Replace(s)
}

// "Color: Black, Weight: 3-4 oz" style pairs; the key must start with a letter
var reKeyValue = regexp.MustCompile(`(?i)(?:^|,)\s*([a-z][a-z /]{0,24}?)\s*:`)

// tuple separators: " - " (spaces required so "3-4" survives), bullets, pipes
var reTupleSep = regexp.MustCompile(`\s+-\s+|\s*[•|]\s*`)

var slotKeys = map[string]string{
	"tannage":   "tannage",
	"leather":   "tannage",
	"material":  "tannage",
	"type":      "tannage",
	"color":     "color",
	"colour":    "color",
	"weight":    "weight",
	"thickness": "weight",
	"brand":     "brand",
}

// splitVariant sniffs the variant format and fills the three slots.
// Missing trailing slots stay empty.
func splitVariant(variant string) model.VariantSlots {
	v := strings.TrimSpace(unifyDashes(variant))
	if v == "" {
		return model.VariantSlots{}
	}
	if locs := reKeyValue.FindAllStringSubmatchIndex(v, -1); len(locs) > 0 {
		return splitPairs(v, locs)
	}
	return splitTuple(v)
}

func splitPairs(v string, locs [][]int) model.VariantSlots {
	slots := model.VariantSlots{Format: "pairs"}
	for i, loc := range locs {
		key := strings.ToLower(strings.TrimSpace(v[loc[2]:loc[3]]))
		end := len(v)
		if i+1 < len(locs) {
			end = locs[i+1][0]
		}
		val := strings.Trim(v[loc[1]:end], " ,")
		switch slotKeys[key] {
		case "tannage":
			slots.Tannage = val
		case "color":
			slots.Color = val
		case "weight":
			slots.Weight = val
		case "brand":
			slots.Brand = val
		default:
			if slots.Extra == nil {
				slots.Extra = map[string]string{}
			}
			slots.Extra[key] = val
		}
	}
	return slots
}

func splitTuple(v string) model.VariantSlots {
	parts := reTupleSep.Split(v, -1)
	kept := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, p)
		}
	}
	slots := model.VariantSlots{Format: "tuple"}
	for i, p := range kept {
		switch i {
		case 0:
			slots.Tannage = p
		case 1:
			slots.Color = p
		case 2:
			slots.Weight = p
		}
	}
	if len(kept) > 3 {
		slots.Extra = map[string]string{"rest": strings.Join(kept[3:], " - ")}
	}
	return slots
}

const num = `(\d+(?:[.,]\d+)?)`

var (
	reOzRange  = regexp.MustCompile(num + `\s*(?:-|/|to)\s*` + num + `\s*(?:oz|ounces?|z)\b`)
	reOzPlus   = regexp.MustCompile(num + `\s*\+\s*(?:oz|ounces?)?`)
	reOzAndUp  = regexp.MustCompile(num + `\s*(?:oz|ounces?)\s*(?:and|&)\s*up\b`)
	reOzSingle = regexp.MustCompile(num + `\s*(?:oz|ounces?)\b`)
	reMM       = regexp.MustCompile(num + `(?:\s*(?:-|/|to)\s*` + num + `)?\s*mm\b`)
	reBare     = regexp.MustCompile(`(?:^|[^\d.,])` + num + `\s*(?:-|/)\s*` + num + `(?:$|[^\d.,])`)
	reGrade    = regexp.MustCompile(`\bgrade\s+([a-z0-9]+)\b`)
)

// parseWeight extracts the first weight token from raw text, trying the
// forms from most to least explicit. Millimetres are bucketed to ounces.
func parseWeight(raw string, t *tables.Tables) (model.Weight, bool) {
	s := strings.ToLower(unifyDashes(raw))
	if strings.TrimSpace(s) == "" {
		return model.Weight{}, false
	}
	if m := reOzRange.FindStringSubmatch(s); m != nil {
		if w, ok := rangeOf(m[1], m[2], "oz", m[0]); ok {
			return w, true
		}
	}
	for _, re := range []*regexp.Regexp{reOzAndUp, reOzPlus} {
		if m := re.FindStringSubmatch(s); m != nil {
			if lo, ok := utils.ParseDecimal(m[1]); ok {
				return model.Weight{Min: lo, Open: true, Unit: "oz", Raw: strings.TrimSpace(m[0])}, true
			}
		}
	}
	if m := reOzSingle.FindStringSubmatch(s); m != nil {
		if w, ok := rangeOf(m[1], m[1], "oz", m[0]); ok {
			return w, true
		}
	}
	if m := reMM.FindStringSubmatch(s); m != nil {
		hi := m[2]
		if hi == "" {
			hi = m[1]
		}
		if mm, ok := rangeOf(m[1], hi, "mm", m[0]); ok {
			if oz, ok := t.MMToOz(mm); ok {
				return oz, true
			}
		}
	}
	if m := reBare.FindStringSubmatch(s); m != nil {
		if w, ok := rangeOf(m[1], m[2], "oz", m[1]+"-"+m[2]); ok && w.Min < w.Max && w.Max <= 20 {
			return w, true
		}
	}
	if m := reGrade.FindStringSubmatch(s); m != nil {
		return model.Weight{Grade: strings.ToUpper(m[1]), Raw: m[0]}, true
	}
	return model.Weight{}, false
}

func rangeOf(a, b, unit, raw string) (model.Weight, bool) {
	lo, ok := utils.ParseDecimal(a)
	if !ok {
		return model.Weight{}, false
	}
	hi, ok := utils.ParseDecimal(b)
	if !ok {
		return model.Weight{}, false
	}
	return model.NewRange(lo, hi, unit, strings.TrimSpace(raw)), true
}

var reProductCode = regexp.MustCompile(`\b(\d{3,4}[a-z]?)\b`)

func productCode(folded string) string {
	if m := reProductCode.FindStringSubmatch(folded); m != nil {
		return strings.ToUpper(m[1])
	}
	return ""
}

func rollType(folded string) model.RollType {
	switch {
	case tables.HasWord(folded, "hard rolled"), tables.HasWord(folded, "hr"):
		return model.HardRolled
	case tables.HasWord(folded, "soft rolled"), tables.HasWord(folded, "sr"):
		return model.SoftRolled
	}
	return ""
}

func joinNonEmpty(sep string, parts ...string) string {
	kept := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, sep)
}
