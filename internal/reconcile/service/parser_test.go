package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sku-recon/internal/reconcile/model"
	"sku-recon/internal/reconcile/tables"
)

func newTestParser() *Parser {
	return NewParser(tables.Default())
}

func TestSplitVariant(t *testing.T) {
	cases := []struct {
		in   string
		want model.VariantSlots
	}{
		{"", model.VariantSlots{}},
		{"Dublin - Black - 3-4 oz", model.VariantSlots{Format: "tuple", Tannage: "Dublin", Color: "Black", Weight: "3-4 oz"}},
		{"Dublin – Black", model.VariantSlots{Format: "tuple", Tannage: "Dublin", Color: "Black"}},
		{"Dublin • Black | 5 oz", model.VariantSlots{Format: "tuple", Tannage: "Dublin", Color: "Black", Weight: "5 oz"}},
		{"A - B - C - D - E", model.VariantSlots{Format: "tuple", Tannage: "A", Color: "B", Weight: "C", Extra: map[string]string{"rest": "D - E"}}},
		{"Color: Dark Brown, Weight: 4-5 oz", model.VariantSlots{Format: "pairs", Color: "Dark Brown", Weight: "4-5 oz"}},
		{"Leather: Dublin, Colour: Black, Size: Large", model.VariantSlots{Format: "pairs", Tannage: "Dublin", Color: "Black", Extra: map[string]string{"size": "Large"}}},
		{"Brand: Horween, Thickness: 1.4mm", model.VariantSlots{Format: "pairs", Brand: "Horween", Weight: "1.4mm"}},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, splitVariant(c.in), c.in)
	}
}

func TestParseWeight(t *testing.T) {
	tb := tables.Default()
	cases := []struct {
		in   string
		key  string
		unit string
	}{
		{"3-4 oz", "3-4", "oz"},
		{"3.5-4oz", "3.5-4", "oz"},
		{"3,5-4 oz", "3.5-4", "oz"},
		{"4 to 5 oz", "4-5", "oz"},
		{"4–5 oz", "4-5", "oz"},
		{"5 oz", "5", "oz"},
		{"9+ oz", "9+", "oz"},
		{"8 oz and up", "8+", "oz"},
		{"1.4mm", "3-4", "mm"},
		{"1.6-2.0 mm", "4-5", "mm"},
		{"3/4", "3-4", "oz"},
		{"Grade XS", "grade xs", ""},
		{"2003", "", ""},
		{"12 - 24", "", ""},
		{"", "", ""},
	}
	for _, c := range cases {
		w, ok := parseWeight(c.in, tb)
		assert.Equal(t, c.key != "", ok, c.in)
		assert.Equal(t, c.key, w.Key(), c.in)
		assert.Equal(t, c.unit, w.Unit, c.in)
	}

	w, ok := parseWeight("Elbamatt - Black - 1.2-1.4 mm", tb)
	require.True(t, ok)
	assert.Equal(t, "3-4", w.Key())
	assert.True(t, w.HasMM())
	assert.Equal(t, "1.2-1.4", w.MM().Key())
	assert.Equal(t, "1.2-1.4 mm", w.String())

	w, _ = parseWeight("3-4 oz", tb)
	assert.False(t, w.HasMM())
	assert.Equal(t, "3-4 oz", w.String())
}

func TestParseFullHide(t *testing.T) {
	p := newTestParser()
	a := p.Parse("Horween Dublin Leather", "Horween Dublin - Black - 3-4 oz")
	assert.Equal(t, model.FullHide, a.ProductType)
	assert.Equal(t, "Horween", a.Brand)
	assert.Equal(t, "Dublin", a.Tannage)
	assert.Equal(t, "Black", a.Color)
	assert.Equal(t, "3-4", a.Weight.Key())
	assert.False(t, a.Excluded)
	assert.Equal(t, "tuple", a.Slots.Format)
	assert.Equal(t, "Horween Dublin Leather Horween Dublin - Black - 3-4 oz", a.RawText)
}

func TestParsePairsAndBrandInference(t *testing.T) {
	p := newTestParser()
	a := p.Parse("Buttero Leather", "Color: Dark Brown, Weight: 4-5 oz")
	assert.Equal(t, "Buttero", a.Tannage)
	assert.Equal(t, "Walpier", a.Brand, "sole owner of the tannage")
	assert.Equal(t, "Dark Brown", a.Color)
	assert.Equal(t, "4-5", a.Weight.Key())

	// Vachetta is sold by two brands, so no brand is inferred
	a = p.Parse("Vachetta Leather", "Natural - 3-4 oz")
	assert.Equal(t, "Vachetta", a.Tannage)
	assert.Empty(t, a.Brand)
	assert.Equal(t, "Natural", a.Color)

	a = p.Parse("Vachetta Leather", "Tempesti - Natural - 1.4mm")
	assert.Equal(t, "Tempesti", a.Brand)
	assert.Equal(t, "3-4", a.Weight.Key())
	assert.Equal(t, "mm", a.Weight.Unit)

	a = p.Parse("Leather", "Brand: C.F. Stead, Leather: Waxy Commander")
	assert.Equal(t, "CF Stead", a.Brand)
	assert.Equal(t, "Waxy Commander", a.Tannage)
}

func TestParseAbbreviationsAreSymmetric(t *testing.T) {
	p := newTestParser()
	long := p.Parse("Horween Chromexcel", "Light Natural - 4-5 oz")
	short := p.Parse("Horween Chrxl", "Lt Nat - 4-5 oz")
	for _, a := range []model.ParsedAttributes{long, short} {
		assert.Equal(t, "Chromexcel", a.Tannage)
		assert.Equal(t, "Light Natural", a.Color)
		assert.Equal(t, "4-5", a.Weight.Key())
		assert.Equal(t, "Horween", a.Brand)
	}
}

func TestParseColorNotTakenFromTannage(t *testing.T) {
	p := newTestParser()
	a := p.Parse("Russet Horsehide Leather", "")
	assert.Equal(t, "Russet Horsehide", a.Tannage)
	assert.Empty(t, a.Color)

	a = p.Parse("Russet Horsehide Leather", "Black")
	assert.Equal(t, "Black", a.Color)
}

func TestParseWeightFormsAndRoll(t *testing.T) {
	p := newTestParser()
	a := p.Parse("Horween Latigo", "Black - 9+ oz")
	assert.True(t, a.Weight.Open)
	assert.Equal(t, "9+", a.Weight.Key())

	a = p.Parse("Horween Strips", "Dublin - Black - Grade S - Hard Rolled")
	assert.Equal(t, model.Strip, a.ProductType)
	assert.Equal(t, "S", a.Weight.Grade)
	assert.Equal(t, model.HardRolled, a.RollType)
	assert.Equal(t, "Hard Rolled", a.Slots.Extra["rest"])

	a = p.Parse("Horween Strips", "Dublin - Black - 4-5 oz - SR")
	assert.Equal(t, model.SoftRolled, a.RollType)
}

func TestParseExclusions(t *testing.T) {
	p := newTestParser()
	cases := []struct {
		product string
		reason  string
	}{
		{"Tannery Row Cotton T-Shirt", ReasonMerchandise},
		{"Waxed Canvas Apron", ReasonMerchandise},
		{"2024 Holiday Mystery Bundle", ReasonDeprecatedBundle},
		{"Mystery Leather Box", ReasonDeprecatedBundle},
		{"Gift Card Redemption", "redemption"},
		{"Shipping Protection", "service"},
	}
	for _, c := range cases {
		a := p.Parse(c.product, "")
		assert.True(t, a.Excluded, c.product)
		assert.Equal(t, c.reason, a.ExclusionReason, c.product)
	}
	a := p.Parse("2025 Holiday Mystery Bundle", "")
	assert.Equal(t, model.MysteryBundle, a.ProductType)
	assert.False(t, a.Excluded)
}

func TestParseSportsAndSampleBook(t *testing.T) {
	p := newTestParser()
	a := p.Parse("Basketball Leather", "2003C - Black")
	assert.Equal(t, model.SportsLeather, a.ProductType)
	assert.Equal(t, "basketball", a.SubKind)
	assert.Equal(t, "2003C", a.ProductCode)
	assert.Equal(t, "Black", a.Color)

	a = p.Parse("Swatch Book", "Tusting & Burnett - Sokoto")
	assert.Equal(t, model.SampleBook, a.ProductType)
	assert.Equal(t, "Tusting & Burnett", a.Brand)
	assert.Equal(t, "Sokoto", a.Tannage)
	assert.Empty(t, a.Color)
}

func TestParseNeverFails(t *testing.T) {
	p := newTestParser()
	a := p.Parse("", "")
	assert.Equal(t, model.Unknown, a.ProductType)
	assert.Empty(t, a.RawText)

	a = p.Parse("", "Black")
	assert.Equal(t, model.Unknown, a.ProductType)
	assert.Equal(t, "Black", a.Color)

	require.NotPanics(t, func() {
		p.Parse("::::", "Color:, : - - -")
		p.Parse("Leather 999999999999999999999 oz", "1e9-2e9 mm")
	})
}

func TestParseCatalogName(t *testing.T) {
	p := newTestParser()
	a := p.ParseCatalogName("*Sides Dublin Black 3.5-4 oz")
	assert.True(t, a.Legacy)
	assert.Equal(t, model.FullHide, a.ProductType)
	assert.Equal(t, "Dublin", a.Tannage)
	assert.Equal(t, "Horween", a.Brand)
	assert.Equal(t, "3.5-4", a.Weight.Key())
	assert.Equal(t, "*Sides Dublin Black 3.5-4 oz", a.RawText)

	a = p.ParseCatalogName("DHF Chromexcel Black")
	assert.Equal(t, model.DoubleHorsefront, a.ProductType)
	assert.False(t, a.Legacy)

	a = p.ParseCatalogName("2023 Mystery Bundle")
	assert.Equal(t, model.MysteryBundle, a.ProductType)
	assert.False(t, a.Excluded)
}
