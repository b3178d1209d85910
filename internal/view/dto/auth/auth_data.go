package auth

import "github.com/nfrund/patientdesk/internal/forms"

// LoginData is a View Model (DTO) used specifically for the login page.
// Form carries the previously submitted values; Errors the per-field messages.
type LoginData struct {
	Form   forms.LoginForm
	Errors map[string]string
}

// RegisterData is the View Model for the registration page.
type RegisterData struct {
	Form   forms.RegistrationForm
	Errors map[string]string
}
