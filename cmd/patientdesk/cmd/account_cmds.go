package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var registerOpts, loginOpts, whoamiOpts accountOptions

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Create an account",
	Long: `Create an account on the backend and set its first name.

Missing fields are asked for. Passwords are always prompted for and are not
echoed when the input is a terminal.

Examples:
  patientdesk register --username julia --first-name Julia --email julia@exemplo.com`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadConfig()
		if err != nil {
			return err
		}
		p := newPrompter(cmd.InOrStdin(), cmd.OutOrStdout())
		return runRegister(cmd.Context(), cfg, logger, p, registerOpts)
	},
}

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in and check the credentials",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadConfig()
		if err != nil {
			return err
		}
		p := newPrompter(cmd.InOrStdin(), cmd.OutOrStdout())
		s, err := runLogin(cmd.Context(), cfg, logger, p, loginOpts)
		if err != nil {
			return err
		}
		s.Close()
		fmt.Fprintln(cmd.OutOrStdout(), "Login realizado com sucesso!")
		return nil
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Sign in and print the current user",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadConfig()
		if err != nil {
			return err
		}
		p := newPrompter(cmd.InOrStdin(), cmd.OutOrStdout())
		return runWhoami(cmd.Context(), cfg, logger, p, whoamiOpts)
	},
}

func init() {
	registerCmd.Flags().StringVar(&registerOpts.Username, "username", "", "user name")
	registerCmd.Flags().StringVar(&registerOpts.FirstName, "first-name", "", "first name")
	registerCmd.Flags().StringVar(&registerOpts.Email, "email", "", "email address")

	for _, c := range []struct {
		cmd  *cobra.Command
		opts *accountOptions
	}{{loginCmd, &loginOpts}, {whoamiCmd, &whoamiOpts}} {
		c.cmd.Flags().StringVar(&c.opts.Username, "username", "", "user name")
		c.cmd.Flags().StringVar(&c.opts.Email, "email", "", "email address")
	}

	rootCmd.AddCommand(registerCmd, loginCmd, whoamiCmd)
}
