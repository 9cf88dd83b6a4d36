package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ZebulonRouseFrantzich/cuimp/internal/profile"
)

func newProfilesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "profiles",
		Short: "List the browsers and versions that can be impersonated",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			for _, browser := range profile.Browsers() {
				versions := profile.Versions(browser)
				fmt.Fprintf(out, "%-8s %s (latest %s)\n", browser, strings.Join(versions, ", "), profile.Latest(browser))
			}
			return nil
		},
	}
}
