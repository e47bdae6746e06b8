package templates

import (
	"context"
	"fmt"
	"io"

	"github.com/a-h/templ"

	"github.com/JonMunkholm/sheetdash/internal/core"
	"github.com/JonMunkholm/sheetdash/internal/table"
)

// DashboardData is the model of the workbook dashboard page.
type DashboardData struct {
	Result   *core.ViewResult
	Multi    bool
	Counters core.Counters

	FormAction string
	ExportURL  string
	ChartURL   string
}

// Heading returns "<company> → <process>" for the current process selection.
func Heading(company string, process table.Selection) string {
	if process.Unrestricted() {
		return company + " → All Processes"
	}
	return company + " → " + process.Label()
}

// Dashboard renders the filters, metrics, tables and chart of one view.
func Dashboard(data DashboardData) templ.Component {
	res := data.Result
	body := templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := newHTML(ctx, w)

		h.raw(`<div class="layout">`)
		h.component(filterForm(data))

		h.raw(`<div class="main">`)
		h.elem("p", res.Workbook.Name, "class", "crumb")

		if !res.Filterable() {
			h.component(Notice("warning", "'CAMPAIGN' and 'PROCESS' columns not found in this sheet."))
			h.elem("h2", res.Sheet)
			h.component(metrics(res.View.Sheet))
			h.component(DataTable(res.View.Sheet))
			h.raw("</div></div>")
			return h.err
		}

		h.elem("h2", Heading(res.Sheet, res.Query.Process))
		h.component(metrics(res.Filtered))

		if len(res.KeyColumns) > 0 {
			h.raw(`<section class="panel">`)
			h.elem("h3", "Key Info")
			h.component(DataTable(res.Filtered.Project(res.KeyColumns)))
			h.raw("</section>")
		}

		h.raw(`<section class="panel">`)
		h.elem("h3", "Full Data Table")
		h.component(DataTable(res.Filtered))
		h.open("a", "href", data.ExportURL, "class", "button", "download", table.ExportFileName(res.Sheet))
		h.text("Download CSV")
		h.close("a")
		h.raw("</section>")

		h.raw(`<section class="panel">`)
		h.elem("h3", "Quick Chart")
		if res.ChartColumn == "" {
			h.component(Notice("info", "No numeric columns to visualize."))
		} else {
			h.open("img", "src", data.ChartURL, "alt", res.ChartColumn, "class", "chart")
			if s := res.Summary; s != nil {
				h.open("dl", "class", "summary")
				for _, item := range []struct {
					label string
					value float64
				}{
					{"Min", s.Min},
					{"Max", s.Max},
					{"Mean", s.Mean},
					{"Median", s.Median},
				} {
					h.elem("dt", item.label)
					h.elem("dd", formatNumber(item.value))
				}
				h.close("dl")
			}
		}
		h.raw("</section>")

		h.raw("</div></div>")
		return h.err
	})
	return Page(Heading(res.Sheet, res.Query.Process), body)
}

func formatNumber(v float64) string {
	return fmt.Sprintf("%.4g", v)
}

func metrics(s *table.Sheet) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := newHTML(ctx, w)
		h.raw(`<div class="metrics">`)
		h.raw(`<div class="metric">`)
		h.elem("span", "Total Rows", "class", "label")
		h.elem("span", humanizeInt(s.Len()), "class", "value")
		h.raw(`</div><div class="metric">`)
		h.elem("span", "Total Columns", "class", "label")
		h.elem("span", humanizeInt(s.Width()), "class", "value")
		h.raw("</div></div>")
		return h.err
	})
}

// DataTable renders every row of s.
func DataTable(s *table.Sheet) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := newHTML(ctx, w)
		h.raw(`<div class="scroll"><table class="data"><thead><tr>`)
		for _, c := range s.Columns {
			h.elem("th", c)
		}
		h.raw("</tr></thead><tbody>")
		for _, row := range s.Rows {
			h.raw("<tr>")
			for _, v := range row {
				h.elem("td", v)
			}
			h.raw("</tr>")
		}
		h.raw("</tbody></table></div>")
		return h.err
	})
}

func filterForm(data DashboardData) templ.Component {
	res := data.Result
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := newHTML(ctx, w)
		h.open("form", "method", "get", "action", data.FormAction, "class", "sidebar")
		h.elem("h3", "Filters")

		h.elem("label", "Company", "for", "sheet")
		h.open("select", "id", "sheet", "name", "sheet")
		for _, name := range res.Sheets {
			option(h, name, name == res.Sheet)
		}
		h.close("select")
		h.open("input", "type", "hidden", "name", "shown", "value", res.Sheet)

		if res.Filterable() {
			h.raw(`<fieldset class="mode">`)
			h.elem("legend", "Selection")
			radio(h, "mode", "single", "Single", !data.Multi)
			radio(h, "mode", "multi", "Multiple", data.Multi)
			h.raw("</fieldset>")

			selectBox(h, "campaign", "Campaign", res.CampaignOptions, res.Query.Campaign, data.Multi)
			selectBox(h, "process", "Process", res.ProcessOptions, res.Query.Process, data.Multi)

			if len(res.NumericColumns) > 0 {
				h.elem("label", "Chart column", "for", "column")
				h.open("select", "id", "column", "name", "column")
				for _, c := range res.NumericColumns {
					option(h, c, c == res.ChartColumn)
				}
				h.close("select")
			}
		}

		h.elem("button", "Apply", "type", "submit")
		h.elem("h3", "Session")
		h.component(Counters(data.Counters))
		h.close("form")
		return h.err
	})
}

func selectBox(h *html, name, label string, options []string, sel table.Selection, multi bool) {
	h.elem("label", label, "for", name)
	attrs := []string{"id", name, "name", name}
	attrs = append(attrs, flag("multiple", multi)...)
	h.open("select", attrs...)
	for _, o := range options {
		selected := sel.Contains(o)
		if o == table.AllOption {
			selected = sel.Unrestricted()
		}
		option(h, o, selected)
	}
	h.close("select")
}

func option(h *html, value string, selected bool) {
	attrs := append([]string{"value", value}, flag("selected", selected)...)
	h.open("option", attrs...)
	h.text(value)
	h.close("option")
}

func radio(h *html, name, value, label string, checked bool) {
	h.raw("<label>")
	attrs := append([]string{"type", "radio", "name", name, "value", value}, flag("checked", checked)...)
	h.open("input", attrs...)
	h.text(" " + label)
	h.raw("</label>")
}
