package web

import (
	"bytes"
	"errors"
	"mime"
	"net/http"
	"strconv"

	"github.com/dustin/go-humanize"

	"github.com/JonMunkholm/sheetdash/internal/core"
	"github.com/JonMunkholm/sheetdash/internal/web/templates"
)

// multipartOverhead is the allowance for form boundaries and headers on top
// of the workbook size limit.
const multipartOverhead = 1 << 20

// handleHome lists the workbooks and renders the upload form.
func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	sess := session(r)
	render(w, r, templates.Home(templates.HomeData{
		Workbooks: s.service.Workbooks(sess),
		Counters:  sess.Counters(),
		MaxUpload: humanize.Bytes(uint64(s.service.MaxFileSize())),
	}))
}

// handleUpload stores an uploaded workbook in the session and redirects to
// its dashboard.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	maxSize := s.service.MaxFileSize()
	r.Body = http.MaxBytesReader(w, r.Body, maxSize+multipartOverhead)

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			respondError(w, r, core.ErrFileTooLarge)
			return
		}
		respondError(w, r, core.ErrNoFile)
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		respondError(w, r, core.ErrNoFile)
		return
	}
	defer file.Close()

	up, err := s.service.UploadWorkbook(r.Context(), session(r), header.Filename, file, header.Size)
	if err != nil {
		respondError(w, r, err)
		return
	}

	http.Redirect(w, r, workbookPath(up.ID), http.StatusSeeOther)
}

// handleWorkbook renders the dashboard for one workbook sheet.
func (s *Server) handleWorkbook(w http.ResponseWriter, r *http.Request) {
	sess := session(r)
	req, multi := parseViewRequest(r)

	res, err := s.service.View(r.Context(), sess, req)
	if err != nil {
		respondError(w, r, err)
		return
	}

	// Links carry the effective selection, so stale values are not replayed.
	effective := req
	effective.Sheet = res.Sheet
	if res.View != nil {
		effective.Query = res.Query
	}
	effective.Column = res.ChartColumn
	qs := viewQuery(effective, multi).Encode()
	base := workbookPath(req.Workbook)

	render(w, r, templates.Dashboard(templates.DashboardData{
		Result:     res,
		Multi:      multi,
		Counters:   sess.Counters(),
		FormAction: base,
		ExportURL:  base + "/export?" + qs,
		ChartURL:   base + "/chart.png?" + qs,
	}))
}

// handleExport downloads the filtered sheet as CSV.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	req, _ := parseViewRequest(r)

	name, data, err := s.service.Export(r.Context(), session(r), req)
	if err != nil {
		respondError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": name}))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Write(data)
}

// handleChart renders the line chart PNG for the current filters.
func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	req, _ := parseViewRequest(r)

	var buf bytes.Buffer
	if err := s.service.Chart(r.Context(), session(r), req, &buf); err != nil {
		respondError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.Write(buf.Bytes())
}

// handleHealth reports liveness and upload capacity.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, map[string]any{
		"status":   "ok",
		"sessions": s.service.Sessions().Len(),
		"uploads":  s.service.Limiter().Status(),
	})
}
