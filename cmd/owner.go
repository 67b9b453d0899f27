package cmd

import (
	"fmt"

	"github.com/bnema/sessionkeys/internal/domain"
	"github.com/spf13/cobra"
)

func newOwnerCmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "owner",
		Short: "Manage custodial owner keys",
	}

	cmd.AddCommand(newOwnerCreateCmd(app))

	return cmd
}

func newOwnerCreateCmd(app *app) *cobra.Command {
	var orgID string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Generate an owner key and print its smart account address",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			owner, err := app.custodian.Create(cmd.Context(), orgID)
			if err != nil {
				return err
			}

			chain, err := domain.LookupChain(domain.ChainBase)
			if err != nil {
				return err
			}
			account, err := app.provider.AccountAddress(cmd.Context(), owner, chain)
			if err != nil {
				return fmt.Errorf("derive smart account address: %w", err)
			}

			_, err = fmt.Fprintf(cmd.OutOrStdout(), "owner\t%s\naccount\t%s\n", owner.Hex(), account.Hex())
			return err
		},
	}

	cmd.Flags().StringVar(&orgID, "org", "", "Organization id the owner key is stored under")
	_ = cmd.MarkFlagRequired("org")

	return cmd
}
