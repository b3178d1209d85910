// Package version holds build information.
package version

// Version is set at build time:
//
//	go build -ldflags "-X github.com/nfrund/patientdesk/internal/version.Version=1.2.3"
var Version = "0.1.0"
