package app

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/GoEventHub/GoEventHub/internal/daemon"
	"github.com/GoEventHub/GoEventHub/internal/settings"
	"github.com/GoEventHub/GoEventHub/internal/web/handler/admin/settings/branding"
)

func init() { //nolint: gochecknoinits
	settingCmd.AddCommand(settingListCmd, settingGetCmd, settingSetCmd, settingResetCmd)
	rootCmd.AddCommand(settingCmd)
}

var (
	settingCmd = &cobra.Command{
		Use:   "setting",
		Short: "Inspect and change the branding settings",
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			return loadConfig(false)
		},
	}

	settingListCmd = &cobra.Command{
		Use:   "list",
		Short: "List the stored settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withSettings(func(p *settings.Provider) error {
				rows, err := p.Stored(cmd.Context())
				if err != nil {
					return err
				}

				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0) //nolint:mnd
				_, _ = fmt.Fprintln(w, "NAME\tPUBLIC\tVALUE")

				for _, row := range rows {
					_, _ = fmt.Fprintf(w, "%s\t%t\t%s\n", row.Name, row.Public, row.Value)
				}

				return w.Flush()
			})
		},
	}

	settingGetCmd = &cobra.Command{
		Use:   "get NAME",
		Short: "Print the value of a setting",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSettings(func(p *settings.Provider) error {
				row, err := p.Lookup(cmd.Context(), args[0])
				if err != nil {
					return err
				}

				_, err = fmt.Fprintln(cmd.OutOrStdout(), row.Value)

				return err
			})
		},
	}

	settingSetCmd = &cobra.Command{
		Use:   "set NAME VALUE",
		Short: "Change a setting, validated like the admin form",
		Args:  cobra.ExactArgs(2), //nolint:mnd
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := branding.ValidateValue(args[0], args[1]); err != nil {
				return err
			}

			return withSettings(func(p *settings.Provider) error {
				return p.Set(cmd.Context(), args[0], args[1])
			})
		},
	}

	settingResetCmd = &cobra.Command{
		Use:   "reset NAME",
		Short: "Restore the default value of a setting",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSettings(func(p *settings.Provider) error {
				return p.Reset(cmd.Context(), args[0])
			})
		},
	}
)

// withSettings opens the database and the shared cache storage, so changes
// invalidate the cache of running servers using the database backend.
func withSettings(fn func(p *settings.Provider) error) error {
	gormDB, err := daemon.Database(&cfg)
	if err != nil {
		return err
	}

	store := daemon.NewStorage(&cfg)
	defer func() { _ = store.Close() }()

	return fn(settings.NewProvider(gormDB, store, cfg.Cache.SettingsTTL))
}
