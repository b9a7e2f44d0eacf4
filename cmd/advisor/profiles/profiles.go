// Package profilescmder provides the profiles command that lists the
// built-in provider profiles.
package profilescmder

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/advisor/pkg/cliui"
	"github.com/papercomputeco/advisor/pkg/credentials"
	"github.com/papercomputeco/advisor/pkg/llm/provider"
)

const profilesLongDesc string = `List the built-in provider profiles.

A profile bundles an endpoint, default model, request and response
format, and prompt template. Select one with --profile or the
provider.profile config key.

Examples:
  advisor profiles
  advisor profiles --json`

const profilesShortDesc string = "List built-in provider profiles"

func NewProfilesCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "profiles",
		Short: profilesShortDesc,
		Long:  profilesLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if asJSON {
				return writeJSON(cmd.OutOrStdout())
			}
			return writeTable(cmd.OutOrStdout())
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print profiles as JSON")

	return cmd
}

func writeJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(provider.Profiles())
}

func writeTable(w io.Writer) error {
	profiles := provider.Profiles()

	nameWidth := 0
	for _, p := range profiles {
		nameWidth = max(nameWidth, len(p.Name))
	}

	fmt.Fprintf(w, "\n  %s\n\n", cliui.HeaderStyle.Render("Provider profiles"))
	for _, p := range profiles {
		fmt.Fprintf(w, "  %s  %s\n",
			cliui.NameStyle.Render(fmt.Sprintf("%-*s", nameWidth, p.Name)),
			p.Description,
		)

		details := fmt.Sprintf("model=%s  request=%s", p.Model, p.Request)
		if p.NeedsCredential() {
			details += "  key=" + credentials.EnvVarForProvider(p.Provider)
		}
		fmt.Fprintf(w, "  %-*s  %s\n", nameWidth, "", cliui.DimStyle.Render(details))
	}
	fmt.Fprintln(w)

	return nil
}
