package cli

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/spf13/cobra"
)

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the currently authenticated user",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		client, err := newClient(ctx)
		if err != nil {
			return err
		}
		if !client.Authenticated() {
			return fmt.Errorf("not logged in")
		}

		env, err := client.Get(ctx, "/accounts/v1/users/current", nil)
		if err != nil {
			return err
		}
		pretty, err := json.MarshalIndent(json.RawMessage(env.Data), "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(pretty))

		if session := client.CurrentSession(); session != nil {
			if exp, ok := tokenExpiry(session.Token); ok {
				fmt.Printf("Access token expires: %s\n", exp.Format(time.RFC3339))
			}
		}
		return nil
	},
}

// tokenExpiry extracts the expiry claim when the access token happens to be a
// decodable JWT. Tokens are opaque by contract, so this is display-only
// best effort and never affects behavior.
func tokenExpiry(token string) (time.Time, bool) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}, false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}

func init() {
	rootCmd.AddCommand(whoamiCmd)
}
