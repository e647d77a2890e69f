package fileio

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"

	excelize "github.com/xuri/excelize/v2"

	"sku-recon/internal/reconcile/model"
)

const (
	mappingSheet = "Mapping"
	statsSheet   = "Stats"
)

var mappingHeader = []string{
	"input_sku", "input_product", "input_variant", "quantity",
	"matched_item", "match_kind", "needs_review", "needs_catalog_item", "fallback_item",
	"internal_sku", "product_type", "brand", "tannage", "color", "weight", "rationale",
}

func mappingRecord(r model.MappingRow) []string {
	return []string{
		r.InputSku, r.InputProduct, r.InputVariant, strconv.Itoa(r.Quantity),
		r.MatchedItem, string(r.MatchKind), strconv.FormatBool(r.NeedsReview),
		strconv.FormatBool(r.NeedsCatalogItem), r.FallbackItem,
		r.InternalSku, string(r.ProductType), r.Brand, r.Tannage, r.Color, r.Weight, r.Rationale,
	}
}

// WriteMappingCSV writes the mapping table with a header row.
func WriteMappingCSV(w io.Writer, rows []model.MappingRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(mappingHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for i, r := range rows {
		if err := cw.Write(mappingRecord(r)); err != nil {
			return fmt.Errorf("write csv row %d: %w", i+1, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteMappingXLSX writes the mapping table to a "Mapping" sheet and the run
// counters to a "Stats" sheet.
func WriteMappingXLSX(w io.Writer, rows []model.MappingRow, st model.Stats) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), mappingSheet); err != nil {
		return fmt.Errorf("xlsx: %w", err)
	}
	if err := setRow(f, mappingSheet, 1, mappingHeader); err != nil {
		return err
	}
	for i, r := range rows {
		if err := setRow(f, mappingSheet, i+2, mappingRecord(r)); err != nil {
			return err
		}
	}
	if len(rows) > 0 {
		last, err := excelize.CoordinatesToCellName(len(mappingHeader), len(rows)+1)
		if err != nil {
			return fmt.Errorf("xlsx: %w", err)
		}
		if err := f.AutoFilter(mappingSheet, "A1:"+last, nil); err != nil {
			return fmt.Errorf("xlsx autofilter: %w", err)
		}
	}

	if _, err := f.NewSheet(statsSheet); err != nil {
		return fmt.Errorf("xlsx: %w", err)
	}
	for i, rec := range statsRecords(st) {
		if err := setRow(f, statsSheet, i+1, rec); err != nil {
			return err
		}
	}
	if err := f.Write(w); err != nil {
		return fmt.Errorf("write xlsx: %w", err)
	}
	return nil
}

func setRow(f *excelize.File, sheet string, row int, vals []string) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return fmt.Errorf("xlsx: %w", err)
	}
	cells := make([]interface{}, len(vals))
	for i, v := range vals {
		cells[i] = v
	}
	if err := f.SetSheetRow(sheet, cell, &cells); err != nil {
		return fmt.Errorf("xlsx %s row %d: %w", sheet, row, err)
	}
	return nil
}

// statsRecords lays the counters out as label/value rows.
func statsRecords(st model.Stats) [][]string {
	itoa := strconv.Itoa
	out := [][]string{
		{"metric", "count", "percent"},
		{"total", itoa(st.Total), ""},
		{"considered", itoa(st.Considered), ""},
		{"excluded", itoa(st.Excluded), ""},
		{"needs_review", itoa(st.NeedsReview), ""},
	}
	for _, k := range []model.MatchKind{model.Exact, model.Closest, model.Miscellaneous, model.Excluded} {
		kc := st.ByKind[k]
		out = append(out, []string{"kind:" + string(k), itoa(kc.Count), strconv.FormatFloat(kc.Percent, 'f', 1, 64)})
	}

	reasons := make([]string, 0, len(st.ExcludedByReason))
	for r := range st.ExcludedByReason {
		reasons = append(reasons, r)
	}
	sort.Strings(reasons)
	for _, r := range reasons {
		out = append(out, []string{"excluded:" + r, itoa(st.ExcludedByReason[r]), ""})
	}

	types := make([]string, 0, len(st.ByType))
	for t := range st.ByType {
		types = append(types, string(t))
	}
	sort.Strings(types)
	for _, t := range types {
		tc := st.ByType[model.ProductType(t)]
		out = append(out, []string{"type:" + t, itoa(tc.Matched) + "/" + itoa(tc.Total), ""})
	}
	return out
}
