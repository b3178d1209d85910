package pages

import (
	cmp "maragu.dev/gomponents"
	g "maragu.dev/gomponents/html"
)

type field struct {
	name        string
	label       string
	inputType   string
	value       string
	placeholder string
	err         string
}

// formField renders a labelled input with its validation message.
func formField(f field) cmp.Node {
	return g.Div(
		g.Class("field"),
		g.Label(g.For(f.name), cmp.Text(f.label)),
		g.Input(
			g.ID(f.name),
			g.Name(f.name),
			g.Type(f.inputType),
			cmp.If(f.value != "", g.Value(f.value)),
			cmp.If(f.placeholder != "", g.Placeholder(f.placeholder)),
			cmp.If(f.err != "", cmp.Attr("aria-invalid", "true")),
		),
		cmp.If(f.err != "", g.P(g.Class("field-error"), cmp.Text(f.err))),
	)
}

// card is the centered panel holding a form.
func card(title, description string, children ...cmp.Node) cmp.Node {
	return g.Div(
		g.Class("card"),
		g.Div(
			g.Class("card-header"),
			g.H1(g.Class("card-title"), cmp.Text(title)),
			g.P(g.Class("card-description"), cmp.Text(description)),
		),
		g.Div(g.Class("card-content"), cmp.Group(children)),
	)
}
