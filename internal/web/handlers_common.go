package web

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"

	"github.com/a-h/templ"
	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/sheetdash/internal/core"
	"github.com/JonMunkholm/sheetdash/internal/logging"
	"github.com/JonMunkholm/sheetdash/internal/table"
)

const modeMulti = "multi"

// parseIntParam parses an integer query parameter with a default value.
func parseIntParam(r *http.Request, name string, defaultVal int) int {
	val := r.URL.Query().Get(name)
	if val == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(val)
	if err != nil || i < 1 {
		return defaultVal
	}
	return i
}

// parseViewRequest reads the workbook id from the path and the sheet, filters
// and chart column from the query string. Repeated campaign and process
// parameters form a multi-selection; in single mode only the first counts.
func parseViewRequest(r *http.Request) (core.ViewRequest, bool) {
	q := r.URL.Query()
	multi := q.Get("mode") == modeMulti

	pick := func(values []string) table.Selection {
		sel := table.Select(values...)
		if !multi && len(sel) > 1 {
			sel = sel[:1]
		}
		return sel
	}

	req := core.ViewRequest{
		Workbook: chi.URLParam(r, "id"),
		Sheet:    q.Get("sheet"),
	}

	// The dashboard form posts back the sheet it was rendered for. Filters
	// picked on another company's sheet do not carry over.
	if shown := q.Get("shown"); shown != "" && shown != req.Sheet {
		return req, multi
	}

	req.Query = table.Query{
		Campaign: pick(q["campaign"]),
		Process:  pick(q["process"]),
	}
	req.Column = q.Get("column")
	return req, multi
}

// viewQuery encodes req back into query parameters for export and chart links.
func viewQuery(req core.ViewRequest, multi bool) url.Values {
	v := url.Values{}
	if req.Sheet != "" {
		v.Set("sheet", req.Sheet)
	}
	if multi {
		v.Set("mode", modeMulti)
	}
	for _, c := range req.Query.Campaign.Values() {
		v.Add("campaign", c)
	}
	for _, p := range req.Query.Process.Values() {
		v.Add("process", p)
	}
	if req.Column != "" {
		v.Set("column", req.Column)
	}
	return v
}

// workbookPath returns the dashboard path of a workbook.
func workbookPath(id string) string {
	return "/workbook/" + url.PathEscape(id)
}

// writeJSON encodes v as JSON and writes it to w.
// Logs encoding errors since headers are already sent.
func writeJSON(w http.ResponseWriter, r *http.Request, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.FromContext(r.Context()).Error("json encode error", "error", err)
	}
}

// render buffers c so a failed render can still produce an error response.
func render(w http.ResponseWriter, r *http.Request, c templ.Component) {
	var buf bytes.Buffer
	if err := c.Render(r.Context(), &buf); err != nil {
		respondError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(buf.Bytes())
}
