package main

import (
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage the local user session",
}

var loginRole string

var authLoginCmd = &cobra.Command{
	Use:   "login <address>",
	Short: "Start a session for a wallet address",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := initEnv()
		if err != nil {
			return err
		}
		defer e.Close()

		sess, err := e.Sessions.Login(cmd.Context(), args[0], loginRole)
		if err != nil {
			return eris.Wrap(err, "auth login")
		}

		return printJSON(os.Stdout, sess)
	},
}

var authWhoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the current session",
	RunE: func(cmd *cobra.Command, _ []string) error {
		e, err := initEnv()
		if err != nil {
			return err
		}
		defer e.Close()

		sess, err := e.Sessions.Current(cmd.Context())
		if err != nil {
			fmt.Fprintln(os.Stderr, "Not logged in.")
			return nil
		}

		return printJSON(os.Stdout, sess)
	},
}

var authLogoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "End the current session",
	RunE: func(cmd *cobra.Command, _ []string) error {
		e, err := initEnv()
		if err != nil {
			return err
		}
		defer e.Close()

		e.Sessions.Logout(cmd.Context())
		fmt.Println("Logged out.")
		return nil
	},
}

func init() {
	authLoginCmd.Flags().StringVar(&loginRole, "role", "manager", "session role (manager, farmer, or investor)")

	authCmd.AddCommand(authLoginCmd, authWhoamiCmd, authLogoutCmd)
	rootCmd.AddCommand(authCmd)
}
