package forms

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/nfrund/patientdesk/internal/domain"
)

// validate is a package-level validator instance.
// A single instance caches struct information across calls.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report fields by their form name so messages line up with the inputs.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("form"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Messages shown under the inputs, keyed by field then by failing rule.
// The "*" entry applies to any rule of that field without its own message.
var messages = map[string]map[string]string{
	"username": {
		"*": "Nome precisa ter pelo menos 2 caracteres",
	},
	"first_name": {
		"*": "Nome precisa ter pelo menos 2 caracteres",
	},
	"email": {
		"*": "Insira um email válido",
	},
	"password": {
		"*": "Senha inválida",
	},
	"password1": {
		"*": "A senha precisa ter pelo menos 12 caracteres",
	},
	"password2": {
		"required": "Confirme a senha",
		"eqfield":  "As senhas não coincidem",
	},
}

const defaultMessage = "Campo inválido"

func messageFor(field, tag string) string {
	byTag, ok := messages[field]
	if !ok {
		return defaultMessage
	}
	if msg, ok := byTag[tag]; ok {
		return msg
	}
	if msg, ok := byTag["*"]; ok {
		return msg
	}
	return defaultMessage
}

// ValidateLogin checks a login form against its schema.
func ValidateLogin(f LoginForm) error {
	return check(LoginFormName, f)
}

// ValidateRegistration checks a registration form against its schema.
// A password confirmation mismatch is reported on password2 only.
func ValidateRegistration(f RegistrationForm) error {
	return check(RegistrationFormName, f)
}

func check(form string, s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	ve := &domain.ValidationError{Form: form, Fields: make(map[string]string, len(verrs))}
	for _, fe := range verrs {
		field := fe.Field()
		if _, seen := ve.Fields[field]; seen {
			continue
		}
		ve.Fields[field] = messageFor(field, fe.Tag())
	}
	return ve
}
