package service

import (
	"strings"
	"unicode"

	"sku-recon/internal/reconcile/model"
	"sku-recon/internal/reconcile/tables"
)

// InternalSku builds BRAND-TYPE-TANNAGE-COLOR-WEIGHT from the table codes.
// Full hides carry no type code; unknown values use their first three letters.
func InternalSku(t *tables.Tables, a model.ParsedAttributes) string {
	var parts []string
	if a.Brand != "" {
		parts = append(parts, codeOr(t.BrandCode(a.Brand))(a.Brand))
	}
	if a.ProductType != model.FullHide {
		if c, ok := t.TypeCode(a.ProductType); ok {
			parts = append(parts, c)
		}
	}
	if a.Tannage != "" {
		parts = append(parts, codeOr(t.TannageCode(a.Tannage))(a.Tannage))
	}
	if a.Color != "" {
		parts = append(parts, codeOr(t.ColorCode(a.Color))(a.Color))
	}
	switch {
	case a.Weight.IsGrade():
		parts = append(parts, "G"+strings.ToUpper(a.Weight.Grade))
	case !a.Weight.IsZero():
		parts = append(parts, strings.NewReplacer("-", "", ".", "").Replace(a.Weight.Key()))
	}
	if len(parts) == 0 {
		return "UNKNOWN"
	}
	return strings.Join(parts, "-")
}

func codeOr(code string, ok bool) func(string) string {
	return func(name string) string {
		if ok {
			return code
		}
		return abbrev(name)
	}
}

func abbrev(s string) string {
	var b strings.Builder
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(unicode.ToUpper(r))
			if b.Len() >= 3 {
				break
			}
		}
	}
	return b.String()
}
