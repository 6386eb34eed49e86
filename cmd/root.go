package cmd

import "github.com/spf13/cobra"

func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "intake",
		Short:         "intake: message-driven collection ledger",
		Long:          "intake extracts payment details from free-form messages, assembles them into transactions, tracks collection sessions, and routes receipt confirmations to operators.",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	app, err := wireApp()
	if err != nil {
		rootCmd.RunE = func(_ *cobra.Command, _ []string) error {
			return err
		}
		return rootCmd
	}

	rootCmd.AddCommand(
		newVersionCmd(),
		newRunCmd(app),
		newSessionCmd(app),
		newStatusCmd(app),
		newRolesCmd(app),
	)

	return rootCmd
}
