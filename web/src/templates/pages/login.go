package pages

import (
	"github.com/nfrund/patientdesk/internal/view/dto/auth"
	cmp "maragu.dev/gomponents"
	g "maragu.dev/gomponents/html"
)

// Login renders the login form with any previous values and messages.
func Login(data auth.LoginData) cmp.Node {
	return card("Entrar", "Digite seu email e senha de usuário.",
		g.Form(
			g.Class("form-grid"),
			g.Method("post"),
			g.Action("/login"),
			cmp.Attr("novalidate"),
			formField(field{name: "username", label: "Nome", inputType: "text", value: data.Form.Username, placeholder: "Ex: Julia", err: data.Errors["username"]}),
			formField(field{name: "email", label: "Email", inputType: "email", value: data.Form.Email, placeholder: "m@exemplo.com", err: data.Errors["email"]}),
			formField(field{name: "password", label: "Senha", inputType: "password", err: data.Errors["password"]}),
			g.Button(g.Class("button"), g.Type("submit"), cmp.Text("Entrar")),
		),
		g.P(g.Class("card-footer"),
			cmp.Text("Ainda não tem conta? "),
			g.A(g.Href("/register"), cmp.Text("Criar Conta")),
		),
	)
}
