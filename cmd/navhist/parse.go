package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/vango-dev/navhist/pkg/history"
)

func parseCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "parse <href>",
		Short: "Split an address into pathname, search and hash",
		Long: `Split an address the way every history backend does.

A '?' after the first '#' belongs to the hash.

Examples:
  navhist parse "/users?id=1#top"
  navhist parse --json "/a#frag?x"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			loc := history.ParseLocation(args[0], history.State{})
			out := cmd.OutOrStdout()

			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(map[string]string{
					"href":     loc.Href,
					"pathname": loc.Pathname,
					"search":   loc.Search,
					"hash":     loc.Hash,
				})
			}

			fmt.Fprintf(out, "  pathname: %q\n", loc.Pathname)
			fmt.Fprintf(out, "  search:   %q\n", loc.Search)
			fmt.Fprintf(out, "  hash:     %q\n", loc.Hash)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the location as JSON")

	return cmd
}
