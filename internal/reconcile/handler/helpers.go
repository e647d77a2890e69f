package handler

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"sku-recon/internal/fileio"
)

func readUpload(r *http.Request, field string, headerRow int) ([]map[string]string, error) {
	f, fh, err := r.FormFile(field)
	if err != nil {
		return nil, fmt.Errorf("missing %s file: %w", field, err)
	}
	defer f.Close()
	rows, err := fileio.ReadAnyMaps(f, fh.Filename, headerRow)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", field, err)
	}
	return rows, nil
}

// formMapping takes column overrides from the form; blanks fall back to the
// storefront defaults.
func formMapping(r *http.Request) fileio.OrderMapping {
	return fileio.OrderMapping{
		Product: strings.TrimSpace(r.FormValue("product_col")),
		Variant: strings.TrimSpace(r.FormValue("variant_col")),
		Sku:     strings.TrimSpace(r.FormValue("sku_col")),
		Qty:     strings.TrimSpace(r.FormValue("qty_col")),
	}
}

func atoi(s string, def int) int {
	i, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || i < 1 {
		return def
	}
	return i
}

func toBool(s string, def bool) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	default:
		return def
	}
}
