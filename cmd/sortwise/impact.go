package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Veraticus/sortwise/internal/cli"
	"github.com/Veraticus/sortwise/internal/common"
	"github.com/Veraticus/sortwise/internal/impact"
)

func impactCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "impact",
		Short: "Show your recycling impact",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			entries, err := a.history.List(ctx)
			if err != nil {
				return err
			}

			display := a.aggregator.Display(ctx, a.session, entries)
			_, err = fmt.Fprint(cmd.OutOrStdout(), cli.RenderImpact(display))
			return err
		},
	}
}

func leaderboardCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "leaderboard",
		Short: "Show the top recyclers",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			rows, err := a.aggregator.Leaderboard(ctx, a.session, limit)
			if err != nil {
				if errors.Is(err, impact.ErrNoBackend) {
					return common.NewUserError("The leaderboard needs a backend; set backend.url in your config.", err)
				}
				return err
			}

			_, err = fmt.Fprint(cmd.OutOrStdout(), cli.RenderLeaderboard(rows))
			return err
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "number of rows to show")

	return cmd
}

func quotaCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "quota",
		Short: "Show remaining guest scans",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			if a.session.Authenticated() {
				_, err = fmt.Fprintln(cmd.OutOrStdout(), cli.FormatInfo("Signed in as "+a.session.Name()+"; guest limits do not apply"))
				return err
			}

			quota, err := a.scanner.GuestQuota(ctx)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), cli.RenderQuota(quota))
			return err
		},
	}
}
