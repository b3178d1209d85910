package layouts

import (
	"github.com/nfrund/patientdesk/internal/view"
	"github.com/nfrund/patientdesk/internal/view/dto/dashboard"
	cmp "maragu.dev/gomponents"
	hx "maragu.dev/gomponents-htmx"
	"maragu.dev/gomponents/components"
	g "maragu.dev/gomponents/html"
)

// HTMXScript is the htmx build the pages load for hx-boost navigation.
const HTMXScript = "https://unpkg.com/htmx.org@2.0.4"

// Base is the HTML document shared by every page. Links and forms inside the
// body are boosted by htmx, so navigation swaps the body without a reload.
func Base(title string, flashes view.FlashData, body ...cmp.Node) cmp.Node {
	return components.HTML5(components.HTML5Props{
		Title:    CalculateTitle(title),
		Language: "pt-BR",
		Head: []cmp.Node{
			g.Meta(g.Name("viewport"), g.Content("width=device-width, initial-scale=1")),
			g.Link(g.Rel("stylesheet"), g.Href("/static/css/app.css")),
			g.Script(g.Src(HTMXScript), g.Defer()),
		},
		Body: []cmp.Node{
			hx.Boost("true"),
			Flashes(flashes),
			g.Main(g.Class("page"), cmp.Group(body)),
		},
	})
}

// Flashes renders the one-shot messages, if any.
func Flashes(f view.FlashData) cmp.Node {
	if f.Empty() {
		return nil
	}
	return g.Div(
		g.ID("flashes"),
		cmp.Map(f.Success, func(msg string) cmp.Node {
			return g.Div(g.Class("flash flash-success"), cmp.Attr("role", "status"), cmp.Text(msg))
		}),
		cmp.Map(f.Error, func(msg string) cmp.Node {
			return g.Div(g.Class("flash flash-error"), cmp.Attr("role", "alert"), cmp.Text(msg))
		}),
	)
}

type navItem struct {
	key   string
	href  string
	label string
}

var navItems = []navItem{
	{key: dashboard.NavHome, href: "/dashboard", label: "Home"},
	{key: dashboard.NavAdd, href: "/dashboard/add", label: "Novo Paciente"},
	{key: dashboard.NavPatients, href: "/dashboard/patients", label: "Pacientes"},
}

// Dashboard wraps content in the dashboard shell with its navigation menu.
func Dashboard(title string, flashes view.FlashData, active string, content ...cmp.Node) cmp.Node {
	return Base(title, flashes,
		g.Div(
			g.Class("shell"),
			g.Nav(
				g.Class("shell-nav"),
				g.Ul(
					cmp.Map(navItems, func(item navItem) cmp.Node {
						return g.Li(
							g.A(
								g.Href(item.href),
								cmp.If(item.key == active, g.Class("active")),
								cmp.If(item.key == active, cmp.Attr("aria-current", "page")),
								cmp.Text(item.label),
							),
						)
					}),
				),
				g.A(g.Class("logout"), g.Href("/logout"), cmp.Text("Sair")),
			),
			g.Div(g.Class("shell-content"), cmp.Group(content)),
		),
	)
}
