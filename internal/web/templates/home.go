package templates

import (
	"context"
	"io"
	"net/url"
	"strings"

	"github.com/a-h/templ"
	"github.com/dustin/go-humanize"

	"github.com/JonMunkholm/sheetdash/internal/core"
	"github.com/JonMunkholm/sheetdash/internal/workbook"
)

// HomeData is the model of the workbook list page.
type HomeData struct {
	Workbooks []core.WorkbookInfo
	Counters  core.Counters
	MaxUpload string
}

func humanizeInt(n int) string {
	return humanize.Comma(int64(n))
}

// Home lists the available workbooks and offers the upload form.
func Home(data HomeData) templ.Component {
	body := templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := newHTML(ctx, w)

		h.raw(`<section class="panel">`)
		h.elem("h2", "Upload a workbook")
		h.open("form", "method", "post", "action", "/upload", "enctype", "multipart/form-data", "class", "upload")
		h.open("input", "type", "file", "name", "file", "accept", strings.Join(workbook.Extensions, ","), "required", "required")
		h.elem("button", "Upload", "type", "submit")
		h.close("form")
		h.elem("small", "Excel (.xlsx, .xlsm) or CSV, up to "+data.MaxUpload+".", "class", "hint")
		h.raw("</section>")

		h.raw(`<section class="panel">`)
		h.elem("h2", "Workbooks")
		if len(data.Workbooks) == 0 {
			h.component(Notice("info", "Please upload an Excel file to get started."))
		} else {
			h.raw(`<table class="data"><thead><tr>`)
			for _, c := range []string{"Name", "Source", "Size", "Updated"} {
				h.elem("th", c)
			}
			h.raw("</tr></thead><tbody>")
			for _, wb := range data.Workbooks {
				h.raw("<tr><td>")
				h.open("a", "href", "/workbook/"+url.PathEscape(wb.ID))
				h.text(wb.Name)
				h.close("a")
				h.raw("</td>")
				h.elem("td", wb.Source)
				h.elem("td", wb.SizeLabel)
				h.elem("td", humanize.Time(wb.UpdatedAt))
				h.raw("</tr>")
			}
			h.raw("</tbody></table>")
		}
		h.raw("</section>")

		h.raw(`<section class="panel">`)
		h.elem("h2", "Your session")
		h.component(Counters(data.Counters))
		h.raw("</section>")
		return h.err
	})
	return Page(AppTitle, body)
}
