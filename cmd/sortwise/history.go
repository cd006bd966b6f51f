package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Veraticus/sortwise/internal/cli"
	"github.com/Veraticus/sortwise/internal/common"
	"github.com/Veraticus/sortwise/internal/history"
)

func historyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show and manage past scans",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List past scans, newest first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withHistory(cmd.Context(), func(hist *history.Engine) error {
				entries, err := hist.List(cmd.Context())
				if err != nil {
					return err
				}
				_, err = fmt.Fprint(cmd.OutOrStdout(), cli.RenderHistory(entries))
				return err
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "delete <id>",
		Short: "Delete one scan from history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withHistory(cmd.Context(), func(hist *history.Engine) error {
				id, err := resolveID(cmd.Context(), hist, args[0])
				if err != nil {
					return err
				}
				if err := hist.Delete(cmd.Context(), id); err != nil {
					if errors.Is(err, common.ErrNotFound) {
						return common.NewUserError("No history entry with id "+args[0], err)
					}
					return err
				}
				_, err = fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess("Deleted "+id))
				return err
			})
		},
	})

	var force bool
	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete every scan from history",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !force {
				return fmt.Errorf("refusing to clear history without --force")
			}
			return withHistory(cmd.Context(), func(hist *history.Engine) error {
				if err := hist.Clear(cmd.Context()); err != nil {
					return err
				}
				_, err := fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess("History cleared"))
				return err
			})
		},
	}
	clearCmd.Flags().BoolVarP(&force, "force", "f", false, "confirm clearing history")
	cmd.AddCommand(clearCmd)

	return cmd
}

func withHistory(ctx context.Context, fn func(*history.Engine) error) error {
	store, err := openStorage(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	return fn(history.NewEngine(store, slog.Default()))
}

// resolveID accepts the short id shown by "history list".
func resolveID(ctx context.Context, hist *history.Engine, prefix string) (string, error) {
	entries, err := hist.List(ctx)
	if err != nil {
		return "", err
	}

	var matches []string
	for _, e := range entries {
		if e.ID == prefix {
			return e.ID, nil
		}
		if len(prefix) >= 4 && strings.HasPrefix(e.ID, prefix) {
			matches = append(matches, e.ID)
		}
	}

	switch len(matches) {
	case 1:
		return matches[0], nil
	case 0:
		return prefix, nil
	default:
		return "", fmt.Errorf("id %q is ambiguous, %d entries match", prefix, len(matches))
	}
}
