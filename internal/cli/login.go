package cli

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/pquerna/otp/totp"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/luminous-money/client-go/pkg/luminous"
)

var flagTOTPSecret string

var loginCmd = &cobra.Command{
	Use:   "login <email>",
	Short: "Log in and persist the session",
	Args:  cobra.ExactArgs(1),
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

		result, err := client.Login(ctx, args[0], password)
		if err != nil {
			return err
		}

		if result.Status == luminous.LoginSecondFactor {
			code, err := secondFactorCode()
			if err != nil {
				return err
			}
			result, err = client.CompleteTOTP(ctx, result.TOTPState, code)
			if err != nil {
				return err
			}
		}

		switch result.Status {
		case luminous.LoginSuccess:
			fmt.Println("Logged in.")
			return nil
		case luminous.LoginEmailPending:
			fmt.Println("Check your email to finish logging in.")
			return nil
		case luminous.LoginRejected:
			return fmt.Errorf("login rejected: %s", result.Err.Detail)
		default:
			return fmt.Errorf("unhandled login outcome %q", result.Status)
		}
	},
}

// secondFactorCode produces the one-time code: generated locally when a TOTP
// secret was supplied, prompted for otherwise.
func secondFactorCode() (string, error) {
	if flagTOTPSecret != "" {
		return totp.GenerateCode(flagTOTPSecret, time.Now())
	}

	fmt.Fprint(os.Stderr, "One-time code: ")
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return "", err
	}
	code := strings.TrimSpace(line)
	if code == "" {
		return "", errors.New("a one-time code is required")
	}
	return code, nil
}

func promptPassword(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	raw, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return string(raw), nil
}

func init() {
	loginCmd.Flags().StringVar(&flagTOTPSecret, "totp-secret", "",
		"TOTP secret for generating second-factor codes locally")
	rootCmd.AddCommand(loginCmd)
}
