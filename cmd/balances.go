package cmd

import (
	"context"

	statusadapter "github.com/bnema/sessionkeys/internal/adapters/render/status"
	"github.com/bnema/sessionkeys/internal/domain"
	"github.com/spf13/cobra"
)

type balanceView struct {
	Chain     string `json:"chain"`
	Token     string `json:"token"`
	Raw       string `json:"raw,omitempty"`
	Formatted string `json:"formatted,omitempty"`
	Error     string `json:"error,omitempty"`
}

func newBalancesCmd(app *app) *cobra.Command {
	var flags sessionFlags

	cmd := &cobra.Command{
		Use:   "balances",
		Short: "Read registry token balances of the smart account on every approved chain",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			account, err := flags.accountAddress()
			if err != nil {
				return err
			}
			chains, err := flags.chainIDs()
			if err != nil {
				return err
			}

			userKey := domain.UserKey(flags.userKey)
			manager := app.factory.ForUser(userKey)
			defer manager.Close()

			if err := manager.Restore(cmd.Context(), chains, account, userKey); err != nil {
				return err
			}

			var balances domain.Balances
			err = runWorkflowSpinner(cmd.Context(), cmd.ErrOrStderr(), "Reading balances...", func(ctx context.Context) error {
				balances = manager.GetBalances(ctx)
				return nil
			})
			if err != nil {
				return err
			}

			if flags.asJSON {
				return writeJSON(cmd, balanceViews(balances))
			}
			return writeReport(cmd, app, statusadapter.Report{
				UserKey:      userKey,
				SmartAccount: account,
				Status:       manager.GetStatus(),
				Balances:     balances,
			}, statusadapter.RenderOptions{Chains: chains})
		},
	}

	flags.register(cmd, true)

	return cmd
}

func balanceViews(balances domain.Balances) []balanceView {
	views := make([]balanceView, 0)
	for _, id := range domain.SupportedChains() {
		tokens, ok := balances[id]
		if !ok {
			continue
		}
		chain, err := domain.LookupChain(id)
		if err != nil {
			continue
		}
		for _, token := range chain.Tokens {
			slot, ok := tokens[token.Symbol]
			if !ok {
				continue
			}
			view := balanceView{Chain: id.String(), Token: string(token.Symbol)}
			if slot.OK() {
				view.Raw = slot.Snapshot.Raw.String()
				view.Formatted = slot.Snapshot.Formatted
			} else {
				view.Error = slot.Err.Error()
			}
			views = append(views, view)
		}
	}
	return views
}
