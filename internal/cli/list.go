package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/luminous-money/client-go/pkg/luminous"
)

var (
	flagPageSize int
	flagSort     string
	flagPages    int
)

var listCmd = &cobra.Command{
	Use:   "list <endpoint>",
	Short: "Fetch a collection endpoint, following pagination cursors",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		client, err := newClient(ctx)
		if err != nil {
			return err
		}

		params := map[string]any{}
		if flagPageSize > 0 {
			params["pg"] = map[string]any{"size": flagPageSize}
		}
		if flagSort != "" {
			params["sort"] = flagSort
		}

		page, err := client.List(ctx, args[0], params)
		for n := 1; err == nil; n++ {
			pretty, jsonErr := json.MarshalIndent(json.RawMessage(page.Response.Data), "", "  ")
			if jsonErr != nil {
				return jsonErr
			}
			fmt.Println(string(pretty))

			if flagPages > 0 && n >= flagPages {
				return nil
			}
			page, err = client.Next(ctx, page)
		}
		if errors.Is(err, luminous.ErrEndOfResults) {
			return nil
		}
		return err
	},
}

func init() {
	listCmd.Flags().IntVar(&flagPageSize, "size", 0, "page size to request")
	listCmd.Flags().StringVar(&flagSort, "sort", "", "sort specification")
	listCmd.Flags().IntVar(&flagPages, "pages", 0, "maximum pages to fetch (0 = all)")
	rootCmd.AddCommand(listCmd)
}
