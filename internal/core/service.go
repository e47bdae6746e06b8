package core

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"time"

	"github.com/JonMunkholm/sheetdash/internal/chart"
	"github.com/JonMunkholm/sheetdash/internal/config"
	"github.com/JonMunkholm/sheetdash/internal/logging"
	"github.com/JonMunkholm/sheetdash/internal/table"
	"github.com/JonMunkholm/sheetdash/internal/workbook"
	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
)

var (
	// ErrFileTooLarge is returned when an upload exceeds the configured size.
	ErrFileTooLarge = errors.New("file too large")

	// ErrNoFile is returned when an upload carries no file name.
	ErrNoFile = errors.New("no file provided")

	// ErrEmptyFile is returned for zero-byte uploads.
	ErrEmptyFile = errors.New("empty file")

	// ErrNoNumericColumns is returned when a chart is requested for a view
	// without numeric columns.
	ErrNoNumericColumns = errors.New("no numeric columns")
)

// Workbook sources.
const (
	SourceCatalog = "catalog"
	SourceUpload  = "upload"
)

// WorkbookInfo describes a workbook the session can open.
type WorkbookInfo struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Source    string    `json:"source"`
	Size      int64     `json:"size"`
	SizeLabel string    `json:"size_label"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ViewRequest selects a workbook sheet, the filters, and optionally a chart
// column.
type ViewRequest struct {
	Workbook string
	Sheet    string
	Query    table.Query

	// Column is the numeric column to chart. Empty selects the first one.
	Column string
}

// ViewResult is one recompute of the dashboard for a ViewRequest.
type ViewResult struct {
	Workbook WorkbookInfo
	Sheets   []string
	Sheet    string

	*table.View

	// Warning is set when the sheet lacks the filter columns. The
	// unfiltered sheet is still shown, without filters, export or chart.
	Warning error

	// ChartColumn is the resolved numeric column, empty when there is none.
	ChartColumn string
	Summary     *chart.Summary
}

// Filterable reports whether filters and export are available.
func (r *ViewResult) Filterable() bool {
	return r.Warning == nil && r.Filtered != nil
}

// Service provides the dashboard's business logic.
type Service struct {
	catalog      *workbook.Catalog
	audits       AuditStore
	sessions     *SessionManager
	limiter      *UploadLimiter
	maxFileSize  int64
	chartOptions chart.Options
}

// NewService wires a Service. catalog and store may be nil: without a catalog
// only uploaded workbooks are available, without a store nothing is audited.
func NewService(cfg *config.Config, catalog *workbook.Catalog, store AuditStore) *Service {
	return &Service{
		catalog:     catalog,
		audits:      store,
		sessions:    NewSessionManager(cfg.Session.IdleTimeout, cfg.Session.MaxWorkbooks),
		limiter:     NewUploadLimiter(cfg.Workbook.MaxConcurrent, cfg.Workbook.MaxWaitTime),
		maxFileSize: int64(cfg.Workbook.MaxFileSize),
		chartOptions: chart.Options{
			Width:  cfg.Chart.Width,
			Height: cfg.Chart.Height,
		},
	}
}

// Sessions returns the session manager.
func (s *Service) Sessions() *SessionManager {
	return s.sessions
}

// StartSessionSweeper expires idle sessions until ctx is cancelled. It blocks.
func (s *Service) StartSessionSweeper(ctx context.Context, interval time.Duration) {
	s.sessions.StartSweeper(ctx, interval)
}

// Limiter returns the upload limiter.
func (s *Service) Limiter() *UploadLimiter {
	return s.limiter
}

// MaxFileSize returns the upload size limit in bytes.
func (s *Service) MaxFileSize() int64 {
	return s.maxFileSize
}

func (s *Service) logger(ctx context.Context) *slog.Logger {
	return logging.FromContext(ctx)
}

// UploadWorkbook parses an uploaded workbook and stores it in the session.
// size is the client-declared size, or -1 when unknown; the body is limited to
// the configured maximum either way. Nothing is stored when parsing fails.
func (s *Service) UploadWorkbook(ctx context.Context, sess *Session, fileName string, r io.Reader, size int64) (*Upload, error) {
	if fileName == "" {
		return nil, ErrNoFile
	}
	if !workbook.Supported(fileName) {
		return nil, fmt.Errorf("%w: %s", workbook.ErrUnsupportedFormat, fileName)
	}
	if size > s.maxFileSize {
		return nil, s.tooLarge(size)
	}
	if size == 0 {
		return nil, ErrEmptyFile
	}

	if err := s.limiter.Acquire(ctx); err != nil {
		return nil, err
	}
	defer s.limiter.Release()

	data, err := io.ReadAll(io.LimitReader(r, s.maxFileSize+1))
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if int64(len(data)) > s.maxFileSize {
		return nil, s.tooLarge(int64(len(data)))
	}
	if len(data) == 0 {
		return nil, ErrEmptyFile
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	start := time.Now()
	wb, err := workbook.Read(fileName, bytes.NewReader(data))
	if err != nil {
		return nil, err
	}

	up := &Upload{
		ID:         uuid.NewString(),
		FileName:   fileName,
		Size:       int64(len(data)),
		UploadedAt: time.Now(),
		Workbook:   wb,
	}
	evicted := sess.addUpload(up, s.sessions.maxWorkbooks)

	log := s.logger(ctx)
	log.Info("workbook uploaded",
		"upload_id", up.ID,
		"file", fileName,
		"size", humanize.Bytes(uint64(up.Size)),
		"sheets", len(wb.SheetNames()),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	for _, old := range evicted {
		log.Info("upload evicted from session", "upload_id", old.ID, "file", old.FileName)
	}

	s.audit(ctx, AuditEntry{
		Action:    ActionUpload,
		SessionID: sess.ID,
		Workbook:  wb.Name,
		Bytes:     up.Size,
	})
	return up, nil
}

func (s *Service) tooLarge(size int64) error {
	return fmt.Errorf("%w: %s exceeds %s", ErrFileTooLarge,
		humanize.Bytes(uint64(size)), humanize.Bytes(uint64(s.maxFileSize)))
}

// Workbooks lists the session's uploads, newest first, followed by the
// catalog workbooks in id order.
func (s *Service) Workbooks(sess *Session) []WorkbookInfo {
	var out []WorkbookInfo
	for _, up := range sess.Uploads() {
		out = append(out, uploadInfo(up))
	}
	if s.catalog != nil {
		for _, e := range s.catalog.Entries() {
			out = append(out, catalogInfo(e))
		}
	}
	return out
}

func uploadInfo(up *Upload) WorkbookInfo {
	return WorkbookInfo{
		ID:        up.ID,
		Name:      up.Workbook.Name,
		Source:    SourceUpload,
		Size:      up.Size,
		SizeLabel: humanize.Bytes(uint64(up.Size)),
		UpdatedAt: up.UploadedAt,
	}
}

func catalogInfo(e workbook.Entry) WorkbookInfo {
	return WorkbookInfo{
		ID:        e.ID,
		Name:      e.ID,
		Source:    SourceCatalog,
		Size:      e.Size,
		SizeLabel: humanize.Bytes(uint64(e.Size)),
		UpdatedAt: e.ModTime,
	}
}

// openWorkbook resolves id against the session's uploads first, then the
// catalog.
func (s *Service) openWorkbook(sess *Session, id string) (*workbook.Workbook, WorkbookInfo, error) {
	if up, ok := sess.Upload(id); ok {
		return up.Workbook, uploadInfo(up), nil
	}
	if s.catalog == nil {
		return nil, WorkbookInfo{}, fmt.Errorf("%w: %s", workbook.ErrNotFound, id)
	}

	e, ok := s.catalog.Lookup(id)
	if !ok {
		return nil, WorkbookInfo{}, fmt.Errorf("%w: %s", workbook.ErrNotFound, id)
	}
	wb, err := s.catalog.Load(id)
	if err != nil {
		return nil, WorkbookInfo{}, err
	}
	return wb, catalogInfo(e), nil
}

// Sheets returns the sheet names of a workbook in workbook order.
func (s *Service) Sheets(sess *Session, id string) ([]string, error) {
	wb, _, err := s.openWorkbook(sess, id)
	if err != nil {
		return nil, err
	}
	return wb.SheetNames(), nil
}

// compute runs the pipeline for req without touching counters or the audit
// trail.
func (s *Service) compute(sess *Session, req ViewRequest) (*ViewResult, error) {
	wb, info, err := s.openWorkbook(sess, req.Workbook)
	if err != nil {
		return nil, err
	}
	raw, err := wb.Sheet(req.Sheet)
	if err != nil {
		return nil, err
	}

	res := &ViewResult{
		Workbook: info,
		Sheets:   wb.SheetNames(),
		Sheet:    raw.Name,
	}

	v, err := table.Apply(raw, req.Query)
	res.View = v
	if err != nil {
		if !errors.Is(err, table.ErrMissingColumns) {
			return nil, err
		}
		res.Warning = err
		return res, nil
	}

	if len(v.NumericColumns) > 0 {
		res.ChartColumn = v.NumericColumns[0]
		if slices.Contains(v.NumericColumns, req.Column) {
			res.ChartColumn = req.Column
		}
		if _, ys, err := table.NumericValues(v.Filtered, res.ChartColumn); err == nil {
			if sum, err := chart.Summarize(ys); err == nil {
				res.Summary = &sum
			}
		}
	}
	return res, nil
}

// View recomputes the dashboard for req. A sheet without CAMPAIGN or PROCESS
// is not an error: the result carries a Warning instead.
func (s *Service) View(ctx context.Context, sess *Session, req ViewRequest) (*ViewResult, error) {
	res, err := s.compute(sess, req)
	if err != nil {
		return nil, err
	}

	rows := res.View.Sheet.Len()
	if res.Filterable() {
		rows = res.Filtered.Len()
	}
	sess.update(func(c *Counters) {
		c.Views++
		c.RowsViewed += rows
	})

	s.audit(ctx, AuditEntry{
		Action:    ActionView,
		SessionID: sess.ID,
		Workbook:  res.Workbook.Name,
		Sheet:     res.Sheet,
		Campaigns: res.Query.Campaign.Values(),
		Processes: res.Query.Process.Values(),
		Rows:      rows,
	})
	return res, nil
}

// Export returns the download file name and CSV bytes for req: the filtered
// rows with repeated adjacent campaign values blanked.
func (s *Service) Export(ctx context.Context, sess *Session, req ViewRequest) (string, []byte, error) {
	res, err := s.compute(sess, req)
	if err != nil {
		return "", nil, err
	}
	if res.Warning != nil {
		return "", nil, res.Warning
	}

	data, err := res.View.Export()
	if err != nil {
		return "", nil, err
	}

	sess.update(func(c *Counters) { c.Exports++ })

	s.logger(ctx).Info("export written",
		"workbook", res.Workbook.Name,
		"sheet", res.Sheet,
		"rows", res.Filtered.Len(),
		"bytes", len(data),
	)
	s.audit(ctx, AuditEntry{
		Action:    ActionExport,
		SessionID: sess.ID,
		Workbook:  res.Workbook.Name,
		Sheet:     res.Sheet,
		Campaigns: res.Query.Campaign.Values(),
		Processes: res.Query.Process.Values(),
		Rows:      res.Filtered.Len(),
		Bytes:     int64(len(data)),
	})
	return table.ExportFileName(res.Sheet), data, nil
}

// Chart renders the line chart of req.Column (or the first numeric column)
// over the filtered rows as a PNG.
func (s *Service) Chart(ctx context.Context, sess *Session, req ViewRequest, w io.Writer) error {
	res, err := s.compute(sess, req)
	if err != nil {
		return err
	}
	if res.Warning != nil {
		return res.Warning
	}
	if res.ChartColumn == "" {
		return ErrNoNumericColumns
	}
	if req.Column != "" && req.Column != res.ChartColumn {
		if !res.Filtered.HasColumn(req.Column) {
			return fmt.Errorf("%w: %s", table.ErrColumnNotFound, req.Column)
		}
		return fmt.Errorf("column %s: %w", req.Column, table.ErrNotNumeric)
	}

	xs, ys, err := table.NumericValues(res.Filtered, res.ChartColumn)
	if err != nil {
		return err
	}

	opts := s.chartOptions
	opts.YLabel = res.ChartColumn
	title := fmt.Sprintf("%s: %s", res.Sheet, res.ChartColumn)
	return chart.LinePNG(w, title, xs, ys, opts)
}
