package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"sku-recon/internal/config"
	"sku-recon/internal/fileio"
	"sku-recon/internal/middleware"
	"sku-recon/internal/reconcile/model"
	"sku-recon/internal/reconcile/service"
	"sku-recon/internal/reconcile/tables"
)

const multipartMemory = 32 << 20

type reconcileResponse struct {
	model.Result
	Catalog       service.IndexStats `json:"catalog"`
	TablesVersion int                `json:"tables_version"`
}

// Reconcile maps an uploaded order export onto an uploaded catalog export.
// Form fields:
//
//	orders, catalog              files (.csv, .xlsx, .xls)
//	orders_header_row            1-based, default 1
//	catalog_header_row           1-based, default 1
//	product_col, variant_col,
//	sku_col, qty_col, item_col   column names, "a|b" alternatives
//	aggregate                    merge duplicate lines
//	format                       json (default), csv or xlsx
func Reconcile(cfg config.Config, logger zerolog.Logger, tb *tables.Tables) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		log := logger.With().Str("rid", middleware.GetRequestID(r)).Logger()
		defer r.Body.Close()

		if err := r.ParseMultipartForm(multipartMemory); err != nil {
			var tooBig *http.MaxBytesError
			if errors.As(err, &tooBig) {
				http.Error(w, fmt.Sprintf("upload exceeds %d MB", cfg.MaxUploadMB), http.StatusRequestEntityTooLarge)
				return
			}
			http.Error(w, "bad multipart form: "+err.Error(), http.StatusBadRequest)
			return
		}
		defer func() { _ = r.MultipartForm.RemoveAll() }()

		format := strings.ToLower(strings.TrimSpace(r.FormValue("format")))
		if format == "" {
			format = "json"
		}
		if format != "json" && format != "csv" && format != "xlsx" {
			http.Error(w, "format must be json, csv or xlsx", http.StatusBadRequest)
			return
		}

		orderRows, err := readUpload(r, "orders", atoi(r.FormValue("orders_header_row"), 1))
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		catalogRows, err := readUpload(r, "catalog", atoi(r.FormValue("catalog_header_row"), 1))
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		items := fileio.ReadOrderItems(orderRows, formMapping(r))
		if len(items) == 0 {
			http.Error(w, "orders: no line items found; check product_col", http.StatusBadRequest)
			return
		}
		names := fileio.ReadCatalog(catalogRows, r.FormValue("item_col"))
		if len(names) == 0 {
			http.Error(w, "catalog: no items found; check item_col", http.StatusBadRequest)
			return
		}

		idx := service.BuildIndex(names, service.NewParser(tb))
		st := idx.Stats()
		log.Debug().
			Int("order_rows", len(orderRows)).
			Int("lines", len(items)).
			Int("catalog_items", st.Items).
			Int("unclassified", st.Unclassified).
			Int("duplicates", st.Duplicates).
			Msg("inputs read")

		res := service.NewReconciler(tb, idx,
			service.WithWorkers(cfg.Workers),
			service.WithAggregate(toBool(r.FormValue("aggregate"), false)),
			service.WithLogger(log),
		).Run(items)

		switch format {
		case "csv":
			w.Header().Set("Content-Type", "text/csv; charset=utf-8")
			w.Header().Set("Content-Disposition", `attachment; filename="sku-mapping.csv"`)
			if err := fileio.WriteMappingCSV(w, model.Rows(res.Rows)); err != nil {
				log.Error().Err(err).Msg("write csv")
				return
			}
		case "xlsx":
			var buf bytes.Buffer
			if err := fileio.WriteMappingXLSX(&buf, model.Rows(res.Rows), res.Stats); err != nil {
				log.Error().Err(err).Msg("build xlsx")
				http.Error(w, "failed to build workbook", http.StatusInternalServerError)
				return
			}
			w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
			w.Header().Set("Content-Disposition", `attachment; filename="sku-mapping.xlsx"`)
			if _, err := buf.WriteTo(w); err != nil {
				log.Error().Err(err).Msg("write xlsx")
				return
			}
		default:
			writeJSON(w, log, http.StatusOK, reconcileResponse{Result: res, Catalog: st, TablesVersion: tb.Version()})
		}

		log.Info().
			Int("lines", len(items)).
			Int("catalog_items", st.Items).
			Str("format", format).
			Dur("elapsed", time.Since(start)).
			Msg("reconcile done")
	}
}

// Tables reports the active normalization tables.
func Tables(logger zerolog.Logger, tb *tables.Tables) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, logger, http.StatusOK, tb.Info())
	}
}

func writeJSON(w http.ResponseWriter, log zerolog.Logger, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		log.Error().Err(err).Msg("write json")
	}
}
