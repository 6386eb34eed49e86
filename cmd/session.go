package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newSessionCmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Manage collection sessions",
	}

	cmd.AddCommand(newSessionStartCmd(app), newSessionStopCmd(app))

	return cmd
}

func newSessionStartCmd(app *app) *cobra.Command {
	var target int64

	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start a collection session with a target amount",
		RunE: func(cmd *cobra.Command, _ []string) error {
			session, err := app.ledger.StartSession(cmd.Context(), target)
			if err != nil {
				return err
			}

			_, err = fmt.Fprintf(cmd.OutOrStdout(), "session #%d started, target %d\n", session.ID, session.Target)
			return err
		},
	}

	cmd.Flags().Int64Var(&target, "target", 0, "Target amount for the session")
	_ = cmd.MarkFlagRequired("target")

	return cmd
}

func newSessionStopCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "Stop the active collection session",
		RunE: func(cmd *cobra.Command, _ []string) error {
			collected, err := app.ledger.StopSession(cmd.Context())
			if err != nil {
				return err
			}

			_, err = fmt.Fprintf(cmd.OutOrStdout(), "session stopped, collected %d\n", collected)
			return err
		},
	}
}
