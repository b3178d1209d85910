package domain

// User is the slice of the backend's user record the front end displays.
type User struct {
	Username  string `json:"username,omitempty"`
	Email     string `json:"email,omitempty"`
	FirstName string `json:"first_name"`
}

// Profile holds the locally collected profile fields that are not part of the
// registration payload and are sent by the follow-up request instead.
type Profile struct {
	FirstName string `json:"first_name"`
}

// IsZero reports whether the profile has nothing to send.
func (p Profile) IsZero() bool {
	return p.FirstName == ""
}
