package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Veraticus/sortwise/internal/cli"
	"github.com/Veraticus/sortwise/internal/storage"
)

func settingsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Show or change preferences",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show current preferences",
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := openStorage(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			settings, err := store.LoadSettings(cmd.Context())
			if err != nil {
				return err
			}
			_, err = fmt.Fprint(cmd.OutOrStdout(), cli.RenderSettings(settings))
			return err
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "set <name> <value>",
		Short: "Change a preference",
		Long: fmt.Sprintf(`Set changes one preference.

Known settings: %s. Use an empty value to clear the ZIP code.`, strings.Join(storage.SettingNames, ", ")),
		Example: `  sortwise settings set zip 94102
  sortwise settings set auto_sync false`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStorage(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			settings, err := store.LoadSettings(cmd.Context())
			if err != nil {
				return err
			}
			if err := settings.Apply(args[0], args[1]); err != nil {
				return err
			}
			if err := store.SaveSettings(cmd.Context(), settings); err != nil {
				return err
			}

			_, err = fmt.Fprint(cmd.OutOrStdout(), cli.RenderSettings(settings))
			return err
		},
	})

	return cmd
}
