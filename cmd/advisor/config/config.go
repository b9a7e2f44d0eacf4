// Package configcmder provides the config command for managing persistent
// advisor configuration stored in the .advisor/ directory.
package configcmder

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/advisor/pkg/cliui"
	"github.com/papercomputeco/advisor/pkg/config"
)

const configLongDesc string = `Manage persistent advisor configuration.

Configuration is stored as config.toml in the .advisor/ directory and provides
default values for command flags. CLI flags and ADVISOR_* environment
variables take precedence over config file values.

Keys use dotted notation matching the TOML section structure:
  provider.profile, provider.endpoint, provider.model,
  generation.max_tokens, generation.temperature, generation.top_p, generation.do_sample,
  session.system_prompt, session.timeout, session.history_turns,
  api.listen,
  eventstream.provider, eventstream.brokers, eventstream.topic

Use subcommands to get, set, or list configuration values:
  advisor config set <key> <value>    Set a configuration value
  advisor config get <key>            Get a configuration value
  advisor config list                 List all configuration values

Examples:
  advisor config set provider.profile groq
  advisor config set generation.temperature 0.3
  advisor config get provider.profile
  advisor config list`

const configShortDesc string = "Manage persistent advisor configuration"

func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: configShortDesc,
		Long:  configLongDesc,
	}

	cmd.AddCommand(newSetCmd())
	cmd.AddCommand(newGetCmd())
	cmd.AddCommand(newListCmd())

	return cmd
}

func completeKeys(_ *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
	if len(args) == 0 {
		return config.ValidConfigKeys(), cobra.ShellCompDirectiveNoFileComp
	}
	return nil, cobra.ShellCompDirectiveNoFileComp
}

func printTarget(w io.Writer, cfger *config.Configer) {
	fmt.Fprintf(w, "\n  %s %s\n\n",
		cliui.KeyStyle.Render("Config file:"),
		cliui.DimStyle.Render(cfger.GetTarget()),
	)
}
