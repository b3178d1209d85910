package dashboard

// Navigation entries of the dashboard shell.
const (
	NavHome     = "home"
	NavAdd      = "add"
	NavPatients = "patients"
)

// Data is the View Model for the pages inside the dashboard shell.
type Data struct {
	// FirstName is empty until the current user has been read.
	FirstName string
	Active    string
}
