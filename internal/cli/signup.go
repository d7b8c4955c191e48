package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var signupCmd = &cobra.Command{
	Use:   "signup <name> <email>",
	Short: "Create a new user account",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		client, err := newClient(ctx)
		if err != nil {
			return err
		}

		password, err := promptPassword("Password: ")
		if err != nil {
			return err
		}
		confirm, err := promptPassword("Confirm password: ")
		if err != nil {
			return err
		}
		if password != confirm {
			return errors.New("passwords do not match")
		}

		if err := client.CreateUser(ctx, args[0], args[1], password, confirm); err != nil {
			return err
		}
		fmt.Println("Account created and logged in.")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(signupCmd)
}
