// Package initcmder provides the init command for initializing a local
// .advisor directory in the current working directory.
package initcmder

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/advisor/pkg/cliui"
	"github.com/papercomputeco/advisor/pkg/config"
	"github.com/papercomputeco/advisor/pkg/dotdir"
)

const initLongDesc string = `Initialize a new .advisor/ directory in the current working directory.

Creates a local .advisor/ directory that takes precedence over the default
~/.advisor/ directory, and writes a config.toml with default values.
Use --preset to point the config at one of the built-in provider profiles.

Examples:
  advisor init
  advisor init --preset ollama`

const initShortDesc string = "Initialize a local .advisor/ directory"

func NewInitCmd() *cobra.Command {
	var preset string

	cmd := &cobra.Command{
		Use:   "init",
		Short: initShortDesc,
		Long:  initLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runInit(cmd.OutOrStdout(), preset)
		},
		ValidArgsFunction: cobra.NoFileCompletions,
	}

	cmd.Flags().StringVar(&preset, "preset", "",
		"Provider profile for the new config ("+strings.Join(config.ValidPresetNames(), ", ")+")")

	return cmd
}

func runInit(w io.Writer, preset string) error {
	cfg := config.NewDefaultConfig()
	if preset != "" {
		var err error
		cfg, err = config.PresetConfig(preset)
		if err != nil {
			return err
		}
	}

	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("getting current directory: %w", err)
	}

	dir := filepath.Join(cwd, dotdir.DirName)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating .advisor directory: %w", err)
	}

	cfger, err := config.NewConfiger(dir)
	if err != nil {
		return err
	}

	if _, err := os.Stat(cfger.GetTarget()); err == nil {
		fmt.Fprintf(w, "Already initialized: %s\n", dir)
		return nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("checking config: %w", err)
	}

	if err := cfger.SaveConfig(cfg); err != nil {
		return err
	}

	fmt.Fprintf(w, "  %s Initialized .advisor directory: %s\n", cliui.SuccessMark, dir)
	fmt.Fprintf(w, "  %s %s\n", cliui.KeyStyle.Render("Profile:"), cliui.NameStyle.Render(cfg.Provider.Profile))
	return nil
}
