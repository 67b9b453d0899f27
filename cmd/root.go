package cmd

import "github.com/spf13/cobra"

func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "sk",
		Short:         "Session keys (sk): delegate, bridge and supply from smart accounts",
		Long:          "sk manages session-key delegations for ERC-4337 smart accounts across Base, Arbitrum and Optimism, and runs bridge-and-supply workflows signed by the session key instead of the owner.",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	wired, err := wireApp()
	versionCmd := newVersionCmd()
	if err != nil {
		failWiring := func(_ *cobra.Command, _ []string) error {
			return err
		}
		rootCmd.RunE = failWiring
		rootCmd.PersistentPreRunE = failWiring
		versionCmd.PersistentPreRunE = func(_ *cobra.Command, _ []string) error { return nil }
		wired = &app{}
	} else {
		rootCmd.PersistentPostRunE = func(_ *cobra.Command, _ []string) error {
			return wired.Close()
		}
	}

	rootCmd.AddCommand(
		versionCmd,
		newOwnerCmd(wired),
		newSessionCmd(wired),
		newBalancesCmd(wired),
		newBridgeSupplyCmd(wired),
		newSupplyCmd(wired),
		newServeCmd(wired),
	)

	return rootCmd
}
