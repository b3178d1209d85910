package main

import "github.com/nfrund/patientdesk/cmd/patientdesk/cmd"

func main() {
	cmd.Execute()
}
