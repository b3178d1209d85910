package cmd

import (
	"fmt"

	"github.com/nfrund/patientdesk/internal/version"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of PatientDesk",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "PatientDesk v%s\n", version.Version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
