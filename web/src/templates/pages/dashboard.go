package pages

import (
	"github.com/nfrund/patientdesk/internal/view/dto/dashboard"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	cmp "maragu.dev/gomponents"
	g "maragu.dev/gomponents/html"
)

// DisplayName formats a first name for the greeting.
func DisplayName(firstName string) string {
	// A Caser keeps state, so each call gets its own.
	return cases.Title(language.BrazilianPortuguese).String(firstName)
}

// DashboardHome renders the greeting of the dashboard overview.
func DashboardHome(data dashboard.Data) cmp.Node {
	if data.FirstName == "" {
		return g.H1(cmp.Text("Dashboard"))
	}
	return g.H1(cmp.Text("Dashboard, " + DisplayName(data.FirstName)))
}

// NewPatient is the placeholder of the patient creation page.
func NewPatient() cmp.Node {
	return placeholder("Novo Paciente")
}

// Patients is the placeholder of the patient list.
func Patients() cmp.Node {
	return placeholder("Pacientes")
}

func placeholder(title string) cmp.Node {
	return g.Section(
		g.Class("placeholder"),
		g.H1(cmp.Text(title)),
		g.P(cmp.Text("Em breve.")),
	)
}
