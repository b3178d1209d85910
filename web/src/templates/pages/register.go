package pages

import (
	"github.com/nfrund/patientdesk/internal/view/dto/auth"
	cmp "maragu.dev/gomponents"
	g "maragu.dev/gomponents/html"
)

// Register renders the registration form. Password inputs are never
// prefilled.
func Register(data auth.RegisterData) cmp.Node {
	return card("Criar Conta", "Insira seu melhor email e crie uma senha forte.",
		g.Form(
			g.Class("form-grid"),
			g.Method("post"),
			g.Action("/register"),
			cmp.Attr("novalidate"),
			formField(field{name: "username", label: "Usuário", inputType: "text", value: data.Form.Username, err: data.Errors["username"]}),
			formField(field{name: "first_name", label: "Nome", inputType: "text", value: data.Form.FirstName, placeholder: "Ex: Julia", err: data.Errors["first_name"]}),
			formField(field{name: "email", label: "Email", inputType: "email", value: data.Form.Email, placeholder: "m@exemplo.com", err: data.Errors["email"]}),
			formField(field{name: "password1", label: "Senha", inputType: "password", err: data.Errors["password1"]}),
			formField(field{name: "password2", label: "Confirme a senha", inputType: "password", err: data.Errors["password2"]}),
			g.Button(g.Class("button"), g.Type("submit"), cmp.Text("Criar Conta")),
		),
		g.P(g.Class("card-footer"),
			cmp.Text("Já tem conta? "),
			g.A(g.Href("/login"), cmp.Text("Entrar")),
		),
	)
}
