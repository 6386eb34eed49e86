package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/velmik/intake/internal/domain"
)

func newRolesCmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "roles",
		Short: "Manage operator and administrator identities",
	}

	cmd.AddCommand(
		newRolesAddOperatorCmd(app),
		newRolesRemoveOperatorCmd(app),
		newRolesAddAdminCmd(app),
		newRolesListCmd(app),
	)

	return cmd
}

func newRolesAddOperatorCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "add-operator <identity>",
		Short: "Register an identity as an operator",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := domain.NormalizeIdentity(args[0])
			if err := app.directory.AddOperator(cmd.Context(), id); err != nil {
				return err
			}

			_, err := fmt.Fprintf(cmd.OutOrStdout(), "operator @%s registered\n", id)
			return err
		},
	}
}

func newRolesRemoveOperatorCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "remove-operator <identity>",
		Short: "Remove an identity from the operator set",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := domain.NormalizeIdentity(args[0])
			if err := app.directory.RemoveOperator(cmd.Context(), id); err != nil {
				return err
			}

			_, err := fmt.Fprintf(cmd.OutOrStdout(), "operator @%s removed\n", id)
			return err
		},
	}
}

func newRolesAddAdminCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "add-admin <identity>",
		Short: "Register an identity as an administrator",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := domain.NormalizeIdentity(args[0])
			if err := app.directory.AddAdmin(cmd.Context(), id); err != nil {
				return err
			}

			_, err := fmt.Fprintf(cmd.OutOrStdout(), "administrator @%s registered\n", id)
			return err
		},
	}
}

func newRolesListCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List registered operators and administrators",
		RunE: func(cmd *cobra.Command, _ []string) error {
			admins, err := app.directory.Admins(cmd.Context())
			if err != nil {
				return err
			}
			operators, err := app.directory.Operators(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if _, err := fmt.Fprintf(out, "administrators: %d\n", len(admins)); err != nil {
				return err
			}
			for _, id := range admins {
				if _, err := fmt.Fprintf(out, "  @%s\n", id); err != nil {
					return err
				}
			}
			if _, err := fmt.Fprintf(out, "operators: %d\n", len(operators)); err != nil {
				return err
			}
			for _, id := range operators {
				if _, err := fmt.Fprintf(out, "  @%s\n", id); err != nil {
					return err
				}
			}

			return nil
		},
	}
}
