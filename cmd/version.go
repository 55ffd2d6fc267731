// File: cmd/version.go
package cmd

import (
	"fmt"
	"sort"

	"github.com/browserify/uglifyify/pkg/version"
	"github.com/spf13/cobra"
)

// versionCmd prints build information. --short prints the version number only.
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Display the version of uglifyify",
	Long:  `Display the version of uglifyify along with the versions of its minifier engines.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		short, err := cmd.Flags().GetBool("short")
		if err != nil {
			return fmt.Errorf("error reading flags: %w", err)
		}

		info := version.Get()
		out := cmd.OutOrStdout()
		if short {
			fmt.Fprintln(out, info.Version)
			return nil
		}

		fmt.Fprintln(out, info.String())
		mods := make([]string, 0, len(info.Engines))
		for mod := range info.Engines {
			mods = append(mods, mod)
		}
		sort.Strings(mods)
		for _, mod := range mods {
			fmt.Fprintf(out, "  %s %s\n", mod, info.Engines[mod])
		}
		return nil
	},
}

func init() {
	versionCmd.Flags().BoolP("short", "s", false, "Print the version number only")
	RootCmd.AddCommand(versionCmd)
}
