// Package advisorcmder
package advisorcmder

import (
	"github.com/spf13/cobra"

	authcmder "github.com/papercomputeco/advisor/cmd/advisor/auth"
	chatcmder "github.com/papercomputeco/advisor/cmd/advisor/chat"
	configcmder "github.com/papercomputeco/advisor/cmd/advisor/config"
	initcmder "github.com/papercomputeco/advisor/cmd/advisor/init"
	profilescmder "github.com/papercomputeco/advisor/cmd/advisor/profiles"
	servecmder "github.com/papercomputeco/advisor/cmd/advisor/serve"
	versioncmder "github.com/papercomputeco/advisor/cmd/version"
)

const advisorLongDesc string = `Advisor is a chat client for gadget recommendations backed by
hosted or local LLM inference endpoints.

Talk to it using:
  advisor chat         Start an interactive chat in the terminal
  advisor serve        Run the session API and MCP server
  advisor profiles     List the built-in provider profiles`

const advisorShortDesc string = "Advisor - LLM Gadget Advisor"

func NewAdvisorCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "advisor",
		Short:         advisorShortDesc,
		Long:          advisorLongDesc,
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	// Global flags
	cmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug logging")
	cmd.PersistentFlags().String("config-dir", "", "Override path to .advisor/ config directory")

	// Add subcommands
	cmd.AddCommand(chatcmder.NewChatCmd())
	cmd.AddCommand(servecmder.NewServeCmd())
	cmd.AddCommand(authcmder.NewAuthCmd())
	cmd.AddCommand(configcmder.NewConfigCmd())
	cmd.AddCommand(initcmder.NewInitCmd())
	cmd.AddCommand(profilescmder.NewProfilesCmd())
	cmd.AddCommand(versioncmder.NewVersionCmd())

	return cmd
}
