package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"saldo/internal/core"
	"saldo/internal/importer"
	"saldo/internal/log"
)

// parseFilter reads type, category_id, date_from, date_to, limit and either
// offset or a 1-based page.
func parseFilter(q url.Values) (core.TransactionFilter, error) {
	var f core.TransactionFilter
	f.Type = core.TransactionType(strings.ToLower(strings.TrimSpace(q.Get("type"))))
	f.CategoryID = strings.TrimSpace(q.Get("category_id"))

	var err error
	if f.DateFrom, err = parseOptionalDate("date_from", q.Get("date_from")); err != nil {
		return f, err
	}
	if f.DateTo, err = parseOptionalDate("date_to", q.Get("date_to")); err != nil {
		return f, err
	}

	intParam := func(name string) (int, error) {
		v := strings.TrimSpace(q.Get(name))
		if v == "" {
			return 0, nil
		}
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return 0, core.Validationf("%s must be a non-negative integer", name)
		}
		return n, nil
	}
	if f.Limit, err = intParam("limit"); err != nil {
		return f, err
	}
	if f.Offset, err = intParam("offset"); err != nil {
		return f, err
	}
	page, err := intParam("page")
	if err != nil {
		return f, err
	}
	if page > 0 {
		limit := f.Limit
		if limit <= 0 {
			limit = core.DefaultPageSize
		}
		f.Limit = limit
		f.Offset = (page - 1) * limit
	}
	return f, nil
}

// labels loads the owner's accounts and categories for transaction responses.
// The write has already happened when this runs, so a failed lookup only
// drops the names.
func (s *Server) labels(ctx context.Context, owner string) labels {
	accounts, err := s.svc.Accounts.ListAccounts(ctx, owner)
	if err != nil {
		s.logger.WarnContext(ctx, "Failed to load account labels", log.FieldOwner, owner, log.FieldError, err)
		return labels{}
	}
	categories, err := s.svc.Categories.ListCategories(ctx, owner)
	if err != nil {
		s.logger.WarnContext(ctx, "Failed to load category labels", log.FieldOwner, owner, log.FieldError, err)
		return labels{}
	}
	return newLabels(accounts, categories)
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request, owner string) {
	f, err := parseFilter(r.URL.Query())
	if err != nil {
		writeError(w, r, err)
		return
	}
	page, err := s.svc.Query.Page(r.Context(), owner, f)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, pageJSON{
		Transactions: s.labels(r.Context(), owner).transactions(page.Items),
		Total:        page.Total,
		Limit:        page.Limit,
		Offset:       page.Offset,
		Pages:        page.Pages(),
	})
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request, owner string) {
	var req transactionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	in, err := req.toNew()
	if err != nil {
		writeError(w, r, err)
		return
	}
	t, err := s.svc.Ledger.Create(r.Context(), owner, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, s.labels(r.Context(), owner).transaction(t))
}

func (s *Server) handleGetTransaction(w http.ResponseWriter, r *http.Request, owner string) {
	t, err := s.svc.Ledger.Get(r.Context(), owner, r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, s.labels(r.Context(), owner).transaction(t))
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request, owner string) {
	var req transactionPatchRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	patch, err := req.toPatch()
	if err != nil {
		writeError(w, r, err)
		return
	}
	t, err := s.svc.Ledger.Update(r.Context(), owner, r.PathValue("id"), patch)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, s.labels(r.Context(), owner).transaction(t))
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request, owner string) {
	t, err := s.svc.Ledger.Delete(r.Context(), owner, r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, s.labels(r.Context(), owner).transaction(t))
}

type importRequest struct {
	Rows []json.RawMessage `json:"rows"`
}

// handleImport accepts {"rows": [...]} as JSON or a CSV/XLSX upload in the
// multipart field "file". Row failures are reported in the result; only a
// request that cannot be read at all fails as a whole.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request, owner string) {
	var (
		rows []core.ImportRow
		err  error
	)
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		rows, err = s.readUpload(w, r)
	} else {
		rows, err = readJSONRows(w, r)
	}
	if err != nil {
		writeError(w, r, err)
		return
	}

	res, err := s.svc.Ledger.BulkImport(r.Context(), owner, rows)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, toImportResultJSON(res, s.labels(r.Context(), owner)))
}

// readJSONRows numbers rows from 1. A row that does not decode becomes an
// empty row so the ledger reports it against its own number.
func readJSONRows(w http.ResponseWriter, r *http.Request) ([]core.ImportRow, error) {
	var req importRequest
	if err := decodeJSON(w, r, &req); err != nil {
		return nil, err
	}
	if len(req.Rows) == 0 {
		return nil, core.Validationf("rows must contain at least one row")
	}
	rows := make([]core.ImportRow, len(req.Rows))
	for i, raw := range req.Rows {
		var tr transactionRequest
		if err := json.Unmarshal(raw, &tr); err != nil {
			rows[i] = core.ImportRow{Line: i + 1}
			continue
		}
		rows[i] = tr.toImportRow(i + 1)
	}
	return rows, nil
}

func (s *Server) readUpload(w http.ResponseWriter, r *http.Request) ([]core.ImportRow, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return nil, core.Validationf("upload larger than %d bytes", maxErr.Limit)
		}
		return nil, core.Validationf("invalid multipart form")
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		return nil, core.Validationf("multipart field \"file\" is required")
	}
	defer file.Close()

	format, err := importer.DetectFormat(header.Filename)
	if err != nil {
		return nil, err
	}
	rows, err := importer.Parse(format, file)
	if err != nil {
		return nil, err
	}
	log.FromContext(r.Context()).InfoContext(r.Context(), "Import file parsed",
		log.FieldOperation, log.OpImport,
		"filename", header.Filename,
		"format", string(format),
		"rows", len(rows))
	return rows, nil
}

// handleExport streams every transaction matching the list filters as CSV
// or XLSX. Paging parameters are ignored.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request, owner string) {
	q := r.URL.Query()
	format := importer.Format(strings.ToLower(strings.TrimSpace(q.Get("format"))))
	if format == "" {
		format = importer.FormatCSV
	}
	if format != importer.FormatCSV && format != importer.FormatXLSX {
		writeError(w, r, importer.ErrUnsupportedFormat)
		return
	}
	f, err := parseFilter(q)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var all []core.Transaction
	f.Limit, f.Offset = s.exportPageSize(), 0
	for {
		items, err := s.svc.Query.ListTransactions(r.Context(), owner, f)
		if err != nil {
			writeError(w, r, err)
			return
		}
		all = append(all, items...)
		if len(items) < f.Limit {
			break
		}
		f.Offset += len(items)
	}

	var buf bytes.Buffer
	contentType := "text/csv; charset=utf-8"
	if format == importer.FormatXLSX {
		contentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
		err = importer.WriteXLSX(&buf, all)
	} else {
		err = importer.WriteCSV(&buf, all)
	}
	if err != nil {
		writeError(w, r, core.Internal("export transactions", err))
		return
	}

	name := fmt.Sprintf("transactions-%s.%s", time.Now().UTC().Format("20060102"), format)
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

func (s *Server) exportPageSize() int {
	if s.maxPageSize > 0 {
		return s.maxPageSize
	}
	return core.MaxPageSize
}
