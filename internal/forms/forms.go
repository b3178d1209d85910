// Package forms declares the input schemas of the login and registration
// forms and validates them before anything is sent to the backend.
package forms

import (
	"strings"

	"github.com/nfrund/patientdesk/internal/backend"
)

// Form names used in validation errors and log records.
const (
	LoginFormName        = "login"
	RegistrationFormName = "registration"
)

// LoginForm is the input of the login page.
type LoginForm struct {
	Username string `form:"username" json:"username" validate:"required,min=2"`
	Email    string `form:"email" json:"email" validate:"required,email"`
	Password string `form:"password" json:"password" validate:"required,min=12"`
}

// Normalize trims the free-text fields. Passwords are left as typed.
func (f *LoginForm) Normalize() {
	f.Username = strings.TrimSpace(f.Username)
	f.Email = strings.ToLower(strings.TrimSpace(f.Email))
}

// RegistrationForm is the input of the registration page. FirstName is
// collected locally and is not part of the registration payload.
type RegistrationForm struct {
	Username  string `form:"username" json:"username" validate:"required,min=2"`
	FirstName string `form:"first_name" json:"-" validate:"required,min=2"`
	Email     string `form:"email" json:"email" validate:"required,email"`
	Password1 string `form:"password1" json:"password1" validate:"required,min=12"`
	Password2 string `form:"password2" json:"password2" validate:"required,eqfield=Password1"`
}

// Normalize trims the free-text fields. Passwords are left as typed.
func (f *RegistrationForm) Normalize() {
	f.Username = strings.TrimSpace(f.Username)
	f.FirstName = strings.TrimSpace(f.FirstName)
	f.Email = strings.ToLower(strings.TrimSpace(f.Email))
}

// ClearPasswords wipes the password fields, e.g. before echoing the form back
// to the browser.
func (f *RegistrationForm) ClearPasswords() {
	f.Password1 = ""
	f.Password2 = ""
}

// ClearPassword wipes the password field.
func (f *LoginForm) ClearPassword() {
	f.Password = ""
}

// Payload returns the body of the login call.
func (f LoginForm) Payload() backend.LoginRequest {
	return backend.LoginRequest{
		Username: f.Username,
		Email:    f.Email,
		Password: f.Password,
	}
}

// Payload returns the body of the registration call. FirstName is left out.
func (f RegistrationForm) Payload() backend.RegistrationRequest {
	return backend.RegistrationRequest{
		Username:  f.Username,
		Email:     f.Email,
		Password1: f.Password1,
		Password2: f.Password2,
	}
}
