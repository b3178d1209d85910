package backend

// Endpoint names used in errors, logs and metric labels.
const (
	EndpointCSRFToken    = "token-issue"
	EndpointLogin        = "login"
	EndpointRegistration = "registration"
	EndpointUserProfile  = "user-profile"
	EndpointCurrentUser  = "current-user"
)

// DefaultCSRFHeader is the header that carries the anti-forgery token.
const DefaultCSRFHeader = "X-CSRFToken"

// Endpoints holds the backend paths, relative to the base URL.
type Endpoints struct {
	CSRFToken    string `json:"csrf_token"`
	Login        string `json:"login"`
	Registration string `json:"registration"`
	UserProfile  string `json:"user_profile"`
	CurrentUser  string `json:"current_user"`
}

// DefaultEndpoints returns the paths exposed by the backend out of the box.
func DefaultEndpoints() Endpoints {
	return Endpoints{
		CSRFToken:    "/csrf-token/",
		Login:        "/api/auth/login/",
		Registration: "/api/auth/registration/",
		UserProfile:  "/api/auth/user/",
		CurrentUser:  "/current-user/",
	}
}

// withDefaults fills every empty path from DefaultEndpoints.
func (e Endpoints) withDefaults() Endpoints {
	d := DefaultEndpoints()
	if e.CSRFToken == "" {
		e.CSRFToken = d.CSRFToken
	}
	if e.Login == "" {
		e.Login = d.Login
	}
	if e.Registration == "" {
		e.Registration = d.Registration
	}
	if e.UserProfile == "" {
		e.UserProfile = d.UserProfile
	}
	if e.CurrentUser == "" {
		e.CurrentUser = d.CurrentUser
	}
	return e
}

// LoginRequest is the body of the login call.
type LoginRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RegistrationRequest is the body of the registration call. It never carries
// the first name; that goes out in the profile follow-up.
type RegistrationRequest struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	Password1 string `json:"password1"`
	Password2 string `json:"password2"`
}

// RegistrationResponse is the part of the registration reply the front end
// reads. Access is the bearer credential for the new account.
type RegistrationResponse struct {
	Access string `json:"access"`
}

type csrfTokenResponse struct {
	CSRFToken string `json:"csrfToken"`
}

type profileRequest struct {
	FirstName string `json:"first_name"`
}
