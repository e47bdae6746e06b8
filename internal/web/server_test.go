package web

import (
	"bytes"
	"encoding/json"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/sheetdash/internal/config"
	"github.com/JonMunkholm/sheetdash/internal/core"
)

const acmeCSV = `campaign,process,leadset,calls
Retail,Inbound,L1,10
,Outbound,L2,20
Telco,Inbound,L3,30
`

func testConfig() *config.Config {
	return &config.Config{
		Server:   config.ServerConfig{RequestTimeout: 10 * time.Second},
		Workbook: config.WorkbookConfig{MaxFileSize: 1 << 20, MaxConcurrent: 2, MaxWaitTime: time.Second},
		Session:  config.SessionConfig{CookieName: "sheetdash_session", IdleTimeout: time.Hour, MaxWorkbooks: 5},
		Security: config.SecurityConfig{EnableCSP: true},
		Chart:    config.ChartConfig{Width: 320, Height: 200},
	}
}

// client is a cookie-keeping test client, so requests share one session.
type client struct {
	t       *testing.T
	handler http.Handler
	cookies []*http.Cookie
}

func newClient(t *testing.T, cfg *config.Config) *client {
	t.Helper()
	svc := core.NewService(cfg, nil, core.NewMemoryAuditStore(100))
	srv := NewServer(svc, cfg)
	t.Cleanup(func() { srv.Shutdown(t.Context()) })
	return &client{t: t, handler: srv.Router()}
}

func (c *client) do(req *http.Request) *httptest.ResponseRecorder {
	for _, ck := range c.cookies {
		req.AddCookie(ck)
	}
	rec := httptest.NewRecorder()
	c.handler.ServeHTTP(rec, req)
	if cs := rec.Result().Cookies(); len(cs) > 0 {
		c.cookies = cs
	}
	return rec
}

func (c *client) get(target string, headers ...string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	return c.do(req)
}

// upload posts a workbook and returns the dashboard location.
func (c *client) upload(name, body string) string {
	c.t.Helper()

	var buf bytes.Buffer
	mpw := multipart.NewWriter(&buf)
	fw, err := mpw.CreateFormFile("file", name)
	require.NoError(c.t, err)
	_, err = fw.Write([]byte(body))
	require.NoError(c.t, err)
	require.NoError(c.t, mpw.Close())

	req := httptest.NewRequest(http.MethodPost, "/upload", &buf)
	req.Header.Set("Content-Type", mpw.FormDataContentType())
	rec := c.do(req)
	require.Equal(c.t, http.StatusSeeOther, rec.Code, rec.Body.String())

	loc := rec.Header().Get("Location")
	require.True(c.t, strings.HasPrefix(loc, "/workbook/"), loc)
	return loc
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return resp
}

func TestHome_StartsSessionAndPromptsUpload(t *testing.T) {
	c := newClient(t, testConfig())

	rec := c.get("/")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Please upload an Excel file to get started.")
	require.Len(t, c.cookies, 1)
	assert.Equal(t, "sheetdash_session", c.cookies[0].Name)
	assert.True(t, c.cookies[0].HttpOnly)

	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.NotEmpty(t, rec.Header().Get("Content-Security-Policy"))
}

func TestUploadAndDashboard(t *testing.T) {
	c := newClient(t, testConfig())
	loc := c.upload("Acme.csv", acmeCSV)

	rec := c.get(loc + "?campaign=Retail")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Acme → All Processes")
	assert.Contains(t, body, "Total Rows")
	assert.Contains(t, body, "Key Info")
	assert.Contains(t, body, "Download CSV")
	assert.Contains(t, body, "chart.png?")
	assert.Contains(t, body, `<option value="Retail" selected="selected">Retail</option>`)

	rec = c.get(loc + "?campaign=Retail&process=Outbound")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Acme → Outbound")

	home := c.get("/")
	assert.Contains(t, home.Body.String(), loc)
}

func TestUpload_Errors(t *testing.T) {
	c := newClient(t, testConfig())

	req := httptest.NewRequest(http.MethodPost, "/upload", strings.NewReader("plain"))
	req.Header.Set("Content-Type", "text/plain")
	rec := c.do(req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "FILE004")

	var buf bytes.Buffer
	mpw := multipart.NewWriter(&buf)
	fw, err := mpw.CreateFormFile("file", "notes.txt")
	require.NoError(t, err)
	fw.Write([]byte("hello"))
	require.NoError(t, mpw.Close())

	req = httptest.NewRequest(http.MethodPost, "/upload", &buf)
	req.Header.Set("Content-Type", mpw.FormDataContentType())
	req.Header.Set("Accept", "application/json")
	rec = c.do(req)
	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
	assert.Equal(t, "WB002", decodeError(t, rec).Code)
}

func TestExport(t *testing.T) {
	c := newClient(t, testConfig())
	loc := c.upload("Acme.csv", acmeCSV)

	rec := c.get(loc + "/export?mode=multi&campaign=Retail&campaign=Telco")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "Acme_export.csv")
	assert.Equal(t, "CAMPAIGN,PROCESS,LEADSET,CALLS\n"+
		"Retail,Inbound,L1,10\n"+
		",Outbound,L2,20\n"+
		"Telco,Inbound,L3,30\n", rec.Body.String())
}

func TestExport_UnknownCampaign(t *testing.T) {
	c := newClient(t, testConfig())
	loc := c.upload("Acme.csv", acmeCSV)

	rec := c.get(loc + "/export?campaign=Retial")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "CAMPAIGN,PROCESS,LEADSET,CALLS\n", rec.Body.String())
}

func TestExport_MissingColumns(t *testing.T) {
	c := newClient(t, testConfig())
	loc := c.upload("Plain.csv", "name,score\nann,1\n")

	page := c.get(loc)
	require.Equal(t, http.StatusOK, page.Code)
	assert.Contains(t, page.Body.String(), "columns not found in this sheet.")

	rec := c.get(loc+"/export", "Accept", "application/json")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "COL001", decodeError(t, rec).Code)
}

func TestChart(t *testing.T) {
	c := newClient(t, testConfig())
	loc := c.upload("Acme.csv", acmeCSV)

	rec := c.get(loc + "/chart.png?column=CALLS")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	img, err := png.Decode(rec.Body)
	require.NoError(t, err)
	assert.Equal(t, 320, img.Bounds().Dx())

	text := c.upload("Text.csv", "campaign,process,note\nA,P,hello\n")
	page := c.get(text)
	assert.Contains(t, page.Body.String(), "No numeric columns to visualize.")

	rec = c.get(text+"/chart.png", "Accept", "application/json")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "CHT001", decodeError(t, rec).Code)
}

func TestUnknownWorkbook(t *testing.T) {
	c := newClient(t, testConfig())

	rec := c.get("/workbook/does-not-exist")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "WB003")

	rec = c.get("/api/workbooks/does-not-exist/sheets")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "WB003", decodeError(t, rec).Code)
}

func TestAPI(t *testing.T) {
	c := newClient(t, testConfig())
	loc := c.upload("Acme.csv", acmeCSV)
	id := strings.TrimPrefix(loc, "/workbook/")

	rec := c.get("/api/workbooks")
	require.Equal(t, http.StatusOK, rec.Code)
	var workbooks []core.WorkbookInfo
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&workbooks))
	require.Len(t, workbooks, 1)
	assert.Equal(t, id, workbooks[0].ID)
	assert.Equal(t, core.SourceUpload, workbooks[0].Source)

	rec = c.get("/api/workbooks/" + id + "/view?campaign=Retail&limit=1")
	require.Equal(t, http.StatusOK, rec.Code)
	var view viewResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&view))
	assert.Equal(t, "Acme", view.Sheet)
	assert.Equal(t, []string{"Retail"}, view.Campaign)
	assert.Equal(t, 2, view.TotalRows)
	assert.Len(t, view.Rows, 1)
	assert.True(t, view.Truncated)
	assert.Equal(t, "CALLS", view.ChartColumn)

	rec = c.get("/api/session")
	require.Equal(t, http.StatusOK, rec.Code)
	var sess sessionResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&sess))
	assert.Equal(t, 1, sess.Counters.Uploads)
	assert.Equal(t, 1, sess.Counters.Views)
	assert.Len(t, sess.Uploads, 1)

	rec = c.get("/api/audit?action=view")
	require.Equal(t, http.StatusOK, rec.Code)
	var audit struct {
		Entries []core.AuditEntry `json:"entries"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&audit))
	require.Len(t, audit.Entries, 1)
	assert.Equal(t, sess.ID, audit.Entries[0].SessionID)
}

func TestAPI_RequiresKey(t *testing.T) {
	cfg := testConfig()
	cfg.Security.RequireAPIKey = true
	cfg.Security.APIKeys = []string{"secret"}
	c := newClient(t, cfg)

	rec := c.get("/api/workbooks")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = c.get("/api/workbooks", "X-API-Key", "secret")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = c.get("/")
	assert.Equal(t, http.StatusOK, rec.Code, "pages do not need a key")
}

func TestRateLimit(t *testing.T) {
	cfg := testConfig()
	cfg.Rate = config.RateLimitConfig{Enabled: true, RequestsPerMinute: 2, UploadLimit: 1}
	c := newClient(t, cfg)

	assert.Equal(t, http.StatusOK, c.get("/").Code)
	assert.Equal(t, http.StatusOK, c.get("/").Code)

	rec := c.get("/", "Accept", "application/json")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
	assert.Equal(t, "RATE001", decodeError(t, rec).Code)
}

func TestRateLimiter_WindowResets(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	rl := &rateLimiter{
		visitors: make(map[string]*visitor),
		rate:     2,
		window:   time.Minute,
		now:      func() time.Time { return now },
		stop:     make(chan struct{}),
	}

	assert.True(t, rl.allow("a"))
	assert.True(t, rl.allow("a"))
	assert.False(t, rl.allow("a"))
	assert.True(t, rl.allow("b"), "limits are per client")
	assert.Equal(t, 60, rl.retryAfter("a"))

	now = now.Add(61 * time.Second)
	assert.True(t, rl.allow("a"))

	now = now.Add(5 * time.Minute)
	rl.evict()
	rl.mu.Lock()
	assert.Empty(t, rl.visitors)
	rl.mu.Unlock()
}

func TestParseViewRequest_SingleModeKeepsFirst(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/workbook/x?campaign=A&campaign=B&process=P", nil)
	got, multi := parseViewRequest(req)
	assert.False(t, multi)
	assert.Equal(t, []string{"A"}, []string(got.Query.Campaign))

	req = httptest.NewRequest(http.MethodGet, "/workbook/x?mode=multi&campaign=A&campaign=B", nil)
	got, multi = parseViewRequest(req)
	assert.True(t, multi)
	assert.Equal(t, []string{"A", "B"}, []string(got.Query.Campaign))
	assert.Equal(t, "campaign=A&campaign=B&mode=multi", viewQuery(got, multi).Encode())
}

func TestParseViewRequest_SheetSwitchDropsFilters(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/workbook/x?sheet=Beta&shown=Alpha&campaign=A&process=P&column=CALLS", nil)
	got, _ := parseViewRequest(req)
	assert.Equal(t, "Beta", got.Sheet)
	assert.True(t, got.Query.Campaign.Unrestricted())
	assert.True(t, got.Query.Process.Unrestricted())
	assert.Empty(t, got.Column)

	req = httptest.NewRequest(http.MethodGet, "/workbook/x?sheet=Alpha&shown=Alpha&campaign=A", nil)
	got, _ = parseViewRequest(req)
	assert.Equal(t, []string{"A"}, []string(got.Query.Campaign))
}
