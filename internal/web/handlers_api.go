package web

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/sheetdash/internal/chart"
	"github.com/JonMunkholm/sheetdash/internal/core"
)

// viewResponse is the JSON form of a dashboard view.
type viewResponse struct {
	Workbook core.WorkbookInfo `json:"workbook"`
	Sheet    string            `json:"sheet"`
	Sheets   []string          `json:"sheets"`
	Warning  string            `json:"warning,omitempty"`

	Campaign        []string `json:"campaign,omitempty"`
	Process         []string `json:"process,omitempty"`
	CampaignOptions []string `json:"campaign_options,omitempty"`
	ProcessOptions  []string `json:"process_options,omitempty"`

	NumericColumns []string       `json:"numeric_columns,omitempty"`
	KeyColumns     []string       `json:"key_columns,omitempty"`
	ChartColumn    string         `json:"chart_column,omitempty"`
	Summary        *chart.Summary `json:"summary,omitempty"`

	TotalRows    int        `json:"total_rows"`
	TotalColumns int        `json:"total_columns"`
	Columns      []string   `json:"columns"`
	Rows         [][]string `json:"rows"`
	Truncated    bool       `json:"truncated,omitempty"`
}

func newViewResponse(res *core.ViewResult, limit int) viewResponse {
	resp := viewResponse{
		Workbook: res.Workbook,
		Sheet:    res.Sheet,
		Sheets:   res.Sheets,
	}

	shown := res.View.Sheet
	if res.Filterable() {
		shown = res.Filtered
		resp.Campaign = res.Query.Campaign.Values()
		resp.Process = res.Query.Process.Values()
		resp.CampaignOptions = res.CampaignOptions
		resp.ProcessOptions = res.ProcessOptions
		resp.NumericColumns = res.NumericColumns
		resp.KeyColumns = res.KeyColumns
		resp.ChartColumn = res.ChartColumn
		resp.Summary = res.Summary
	} else {
		resp.Warning = core.MapError(res.Warning).Message
	}

	resp.TotalRows = shown.Len()
	resp.TotalColumns = shown.Width()
	resp.Columns = shown.Columns
	resp.Rows = shown.Rows
	if limit > 0 && len(resp.Rows) > limit {
		resp.Rows = resp.Rows[:limit]
		resp.Truncated = true
	}
	return resp
}

// handleListWorkbooks returns the workbooks visible to the session.
func (s *Server) handleListWorkbooks(w http.ResponseWriter, r *http.Request) {
	workbooks := s.service.Workbooks(session(r))
	if workbooks == nil {
		workbooks = []core.WorkbookInfo{}
	}
	writeJSON(w, r, workbooks)
}

// handleListSheets returns a workbook's sheet names.
func (s *Server) handleListSheets(w http.ResponseWriter, r *http.Request) {
	sheets, err := s.service.Sheets(session(r), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, r, map[string][]string{"sheets": sheets})
}

// handleAPIView returns the filtered view as JSON. ?limit=N caps the rows.
func (s *Server) handleAPIView(w http.ResponseWriter, r *http.Request) {
	req, _ := parseViewRequest(r)

	res, err := s.service.View(r.Context(), session(r), req)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, r, newViewResponse(res, parseIntParam(r, "limit", 0)))
}

// sessionResponse is the JSON form of the caller's session.
type sessionResponse struct {
	ID        string                   `json:"id"`
	CreatedAt time.Time                `json:"created_at"`
	LastSeen  time.Time                `json:"last_seen"`
	Counters  core.Counters            `json:"counters"`
	Uploads   []core.WorkbookInfo      `json:"uploads"`
	Limiter   core.UploadLimiterStatus `json:"upload_limiter"`
}

// handleSession returns the caller's session counters and uploads.
func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	sess := session(r)

	uploads := []core.WorkbookInfo{}
	for _, wb := range s.service.Workbooks(sess) {
		if wb.Source == core.SourceUpload {
			uploads = append(uploads, wb)
		}
	}

	writeJSON(w, r, sessionResponse{
		ID:        sess.ID,
		CreatedAt: sess.CreatedAt,
		LastSeen:  sess.LastSeen(),
		Counters:  sess.Counters(),
		Uploads:   uploads,
		Limiter:   s.service.Limiter().Status(),
	})
}

// handleAudit returns recent audit entries. Callers see their own session's
// entries; with API keys required, scope=all lists every session.
func (s *Server) handleAudit(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := core.AuditFilter{
		Action:    core.AuditAction(q.Get("action")),
		SessionID: session(r).ID,
		Limit:     parseIntParam(r, "limit", core.DefaultAuditLimit),
	}
	if q.Get("scope") == "all" && s.cfg.Security.RequireAPIKey {
		filter.SessionID = ""
	}

	entries, err := s.service.RecentAudit(r.Context(), filter)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if entries == nil {
		entries = []core.AuditEntry{}
	}
	writeJSON(w, r, map[string]any{"entries": entries})
}
