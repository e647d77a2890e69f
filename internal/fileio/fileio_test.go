package fileio

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	excelize "github.com/xuri/excelize/v2"

	"sku-recon/internal/reconcile/model"
)

const shopifyExport = "\ufeffName,Lineitem quantity,Lineitem name,Lineitem sku,Lineitem variant\n" +
	"#1001,2,Horween Dublin,HD-1,Dublin - Black - 3-4 oz\n" +
	"#1001,,Swatch Book,,Tusting & Burnett - Sokoto\n" +
	",,,,\n" +
	"Name,Lineitem quantity,Lineitem name,Lineitem sku,Lineitem variant\n" +
	"#1002,\"1,0\",Cotton T-Shirt,TS,Large\n" +
	"#1003,3,,,\n"

func TestReadAnyMapsCSV(t *testing.T) {
	rows, err := ReadAnyMaps(strings.NewReader(shopifyExport), "orders.CSV", 1)
	require.NoError(t, err)
	// the blank row is dropped; the repeated header row is data at this level
	require.Len(t, rows, 5)
	assert.Equal(t, "Horween Dublin", rows[0]["Lineitem name"])
	assert.Equal(t, "#1001", rows[0]["Name"], "byte order mark is stripped from the first header")
}

func TestReadAnyMapsHeaderRow(t *testing.T) {
	data := "Item List export,\nItem,Type\nDublin Black 3.5-4 oz,Inventory\n"
	rows, err := ReadAnyMaps(strings.NewReader(data), "items.csv", 2)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Dublin Black 3.5-4 oz", rows[0]["Item"])
}

func TestReadAnyMapsSemicolon(t *testing.T) {
	rows, err := ReadAnyMaps(strings.NewReader("Item;Qty\nDublin Black 3.5-4 oz;2\n;\n"), "items.csv", 1)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "2", rows[0]["Qty"])
}

func TestReadAnyMapsLegacyEncoding(t *testing.T) {
	data := []byte("Product Name,Variant\nHorween Dublin,Caf\xe9 Noir\n")
	rows, err := ReadAnyMaps(bytes.NewReader(data), "orders.csv", 1)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Horween Dublin", rows[0]["Product Name"])
	assert.True(t, utf8.ValidString(rows[0]["Variant"]))
	assert.True(t, strings.HasPrefix(rows[0]["Variant"], "Caf"))
}

func TestReadAnyMapsUnsupported(t *testing.T) {
	_, err := ReadAnyMaps(strings.NewReader("x"), "orders.pdf", 1)
	assert.Error(t, err)

	_, err = ReadAnyMaps(strings.NewReader("not a workbook"), "orders.xlsx", 1)
	assert.Error(t, err)
}

func TestResolveKey(t *testing.T) {
	rec := map[string]string{
		"Product Name":            "",
		"Qty":                     "",
		"Item Quantity (ordered)": "",
		"Lineitem sku":            "",
	}
	cases := []struct {
		want string
		key  string
	}{
		{"Qty", "Qty"},
		{"Quantity|Qty", "Qty"},
		{"product name", "Product Name"},
		{"  PRODUCT-NAME ", "Product Name"},
		{"SKU|Lineitem sku", "Lineitem sku"},
		{"Ordered", "Item Quantity (ordered)"},
		{"Color", ""},
		{"", ""},
	}
	for _, c := range cases {
		assert.Equal(t, c.key, resolveKey(rec, c.want), c.want)
	}
}

func TestLooksLikeHeaderMap(t *testing.T) {
	assert.True(t, looksLikeHeaderMap(map[string]string{"Item": "item", "Qty": "QTY", "Memo": ""}))
	assert.False(t, looksLikeHeaderMap(map[string]string{"Item": "Item", "Qty": "2"}))
}

func TestReadOrderItems(t *testing.T) {
	rows, err := ReadAnyMaps(strings.NewReader(shopifyExport), "orders.csv", 1)
	require.NoError(t, err)

	items := ReadOrderItems(rows, OrderMapping{})
	require.Len(t, items, 3)
	assert.Equal(t, model.OrderLineItem{
		ProductName: "Horween Dublin",
		VariantText: "Dublin - Black - 3-4 oz",
		Sku:         "HD-1",
		Quantity:    2,
	}, items[0])
	assert.Equal(t, 1, items[1].Quantity, "blank quantity defaults to one")
	assert.Empty(t, items[1].Sku)
	assert.Equal(t, "Cotton T-Shirt", items[2].ProductName)
	assert.Equal(t, 1, items[2].Quantity)
}

func TestReadOrderItemsCustomMapping(t *testing.T) {
	rows := []map[string]string{
		{"Title": "Horween Dublin", "Options": "Black", "Count": "4"},
	}
	items := ReadOrderItems(rows, OrderMapping{Product: "Title", Qty: "Count"})
	require.Len(t, items, 1)
	assert.Equal(t, "Black", items[0].VariantText, "default variant columns still apply")
	assert.Equal(t, 4, items[0].Quantity)
}

func TestReadCatalog(t *testing.T) {
	rows := []map[string]string{
		{"Item": "Dublin Black 3.5-4 oz", "Type": "Inventory"},
		{"Item": "  ", "Type": "Inventory"},
		{"Item": "Item", "Type": "Type"},
		{"Item": "*Essex Natural", "Type": "Inventory"},
	}
	assert.Equal(t, []string{"Dublin Black 3.5-4 oz", "*Essex Natural"}, ReadCatalog(rows, ""))
	assert.Equal(t, []string{"Inventory", "Inventory", "Inventory"}, ReadCatalog(rows, "Type"))
}

func sampleRows() []model.MappingRow {
	return []model.MappingRow{
		{
			InputSku: "HD-1", InputProduct: "Horween Dublin", InputVariant: "Dublin - Black - 3-4 oz",
			Quantity: 2, MatchedItem: "Dublin Black 3.5-4 oz", ProductType: model.FullHide,
			Brand: "Horween", Tannage: "Dublin", Color: "Black", Weight: "3-4 oz",
			MatchKind: model.Exact, InternalSku: "HOR-DUB-BLK-34", Rationale: "weight 3.5-4 oz, first preference",
		},
		{
			InputProduct: "Pierrot Lux Panel", InputVariant: "Burgundy", Quantity: 1,
			ProductType: model.Panel, MatchKind: model.Miscellaneous, NeedsCatalogItem: true,
			FallbackItem: "MISCELLANEOUS LEATHER", InternalSku: "VIR-PNL-PIE-BUR", Rationale: "no panel in the catalog",
		},
	}
}

func TestWriteMappingCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteMappingCSV(&buf, sampleRows()))

	recs, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, recs, 3)
	assert.Equal(t, mappingHeader, recs[0])
	assert.Equal(t, "Dublin Black 3.5-4 oz", recs[1][4])
	assert.Equal(t, "miscellaneous", recs[2][5])
	assert.Equal(t, "true", recs[2][7])
	assert.Equal(t, "MISCELLANEOUS LEATHER", recs[2][8])
}

func TestWriteMappingXLSX(t *testing.T) {
	st := model.Stats{
		Total: 3, Considered: 2, Excluded: 1,
		ByKind: map[model.MatchKind]model.KindCount{
			model.Exact:         {Count: 1, Percent: 33.3},
			model.Miscellaneous: {Count: 1, Percent: 33.3},
			model.Excluded:      {Count: 1, Percent: 33.3},
		},
		ExcludedByReason: map[string]int{"merchandise": 1},
		ByType: map[model.ProductType]model.TypeCount{
			model.FullHide: {Total: 1, Matched: 1},
			model.Panel:    {Total: 1},
		},
	}
	var buf bytes.Buffer
	require.NoError(t, WriteMappingXLSX(&buf, sampleRows(), st))
	raw := buf.Bytes()

	rows, err := ReadAnyMaps(bytes.NewReader(raw), "mapping.xlsx", 1)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "HOR-DUB-BLK-34", rows[0]["internal_sku"])
	assert.Equal(t, "exact", rows[0]["match_kind"])
	assert.Equal(t, "true", rows[1]["needs_catalog_item"])

	f, err := excelize.OpenReader(bytes.NewReader(raw))
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, []string{mappingSheet, statsSheet}, f.GetSheetList())
	stats, err := f.GetRows(statsSheet)
	require.NoError(t, err)
	require.Greater(t, len(stats), 5)
	assert.Equal(t, []string{"total", "3"}, stats[1][:2])
	assert.Equal(t, []string{"kind:exact", "1", "33.3"}, stats[5])
}

func TestStatsRecordsOrder(t *testing.T) {
	recs := statsRecords(model.Stats{
		ExcludedByReason: map[string]int{"service": 1, "merchandise": 2},
		ByType: map[model.ProductType]model.TypeCount{
			model.Strip:    {Total: 2, Matched: 1},
			model.FullHide: {Total: 1, Matched: 1},
		},
	})
	var labels []string
	for _, r := range recs[9:] {
		labels = append(labels, r[0])
	}
	assert.Equal(t, []string{"excluded:merchandise", "excluded:service", "type:full_hide", "type:strip"}, labels)
	assert.Equal(t, "1/2", recs[len(recs)-1][1])
}
