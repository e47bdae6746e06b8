package templates

import (
	"context"
	"io"

	"github.com/a-h/templ"

	"github.com/JonMunkholm/sheetdash/internal/core"
)

// AppTitle is shown in the page header and the browser tab.
const AppTitle = "Company → Campaign → Process Dashboard"

// Page wraps body in the common document layout.
func Page(title string, body templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := newHTML(ctx, w)
		h.raw("<!DOCTYPE html>")
		h.open("html", "lang", "en")
		h.raw("<head>")
		h.raw(`<meta charset="utf-8">`)
		h.raw(`<meta name="viewport" content="width=device-width, initial-scale=1">`)
		h.elem("title", title)
		h.raw(`<link rel="stylesheet" href="/static/style.css">`)
		h.raw("</head><body>")

		h.raw(`<header class="topbar">`)
		h.open("a", "href", "/", "class", "brand")
		h.text(AppTitle)
		h.close("a")
		h.raw("</header>")

		h.raw(`<main class="content">`)
		h.component(body)
		h.raw("</main></body></html>")
		return h.err
	})
}

// ErrorAlert renders a user-facing error with its suggested action and code.
func ErrorAlert(message, action, code string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := newHTML(ctx, w)
		h.open("div", "class", "alert alert-error", "role", "alert")
		h.elem("strong", message)
		if action != "" {
			h.elem("p", action)
		}
		if code != "" {
			h.elem("small", "Code: "+code, "class", "code")
		}
		h.close("div")
		return h.err
	})
}

// ErrorPage is the full page shown when a page request fails.
func ErrorPage(msg core.UserMessage) templ.Component {
	return Page("Error", templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := newHTML(ctx, w)
		h.component(ErrorAlert(msg.Message, msg.Action, msg.Code))
		h.open("p")
		h.open("a", "href", "/")
		h.text("Back to workbooks")
		h.close("a")
		h.close("p")
		return h.err
	}))
}

// Notice renders an informational or warning message.
func Notice(kind, message string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := newHTML(ctx, w)
		h.elem("div", message, "class", "alert alert-"+kind, "role", "status")
		return h.err
	})
}

// Counters renders the session activity counters.
func Counters(c core.Counters) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := newHTML(ctx, w)
		h.open("ul", "class", "counters")
		for _, item := range []struct {
			label string
			value int
		}{
			{"Uploads", c.Uploads},
			{"Views", c.Views},
			{"Rows viewed", c.RowsViewed},
			{"Exports", c.Exports},
		} {
			h.raw("<li>")
			h.elem("span", item.label, "class", "label")
			h.elem("span", humanizeInt(item.value), "class", "value")
			h.raw("</li>")
		}
		h.close("ul")
		return h.err
	})
}
