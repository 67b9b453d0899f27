package cmd

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"

	statusadapter "github.com/bnema/sessionkeys/internal/adapters/render/status"
	"github.com/bnema/sessionkeys/internal/application"
	"github.com/bnema/sessionkeys/internal/domain"
	"github.com/spf13/cobra"
)

type workflowView struct {
	Workflow    string            `json:"workflow"`
	Success     bool              `json:"success"`
	Outcome     string            `json:"outcome"`
	FailedStage string            `json:"failed_stage,omitempty"`
	Error       string            `json:"error,omitempty"`
	Deposited   string            `json:"deposited,omitempty"`
	StepHashes  map[string]string `json:"step_hashes"`
}

func newWorkflowView(name string, result domain.WorkflowResult) workflowView {
	view := workflowView{
		Workflow:    name,
		Success:     result.Success,
		Outcome:     result.Outcome(),
		FailedStage: string(result.FailedStage),
		Error:       result.Error,
		StepHashes:  map[string]string{},
	}
	if result.Deposited != nil {
		view.Deposited = result.Deposited.String()
	}
	if result.StepHashes.Approval != nil {
		view.StepHashes["approval"] = result.StepHashes.Approval.Hex()
	}
	if result.StepHashes.Bridge != nil {
		view.StepHashes["bridge"] = result.StepHashes.Bridge.Hex()
	}
	if result.StepHashes.Deposit != nil {
		view.StepHashes["deposit"] = result.StepHashes.Deposit.Hex()
	}
	return view
}

func newBridgeSupplyCmd(app *app) *cobra.Command {
	var flags sessionFlags
	var from, to, token, amount string

	cmd := &cobra.Command{
		Use:   "bridge-supply",
		Short: "Bridge tokens to another chain and supply what arrives to the lending market",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			account, err := flags.accountAddress()
			if err != nil {
				return err
			}
			chains, err := domain.ParseChains([]string{from, to})
			if err != nil {
				return err
			}
			if len(chains) != 2 {
				return errors.New("--from and --to must be different chains")
			}

			userKey := domain.UserKey(flags.userKey)
			manager := app.factory.ForUser(userKey)
			defer manager.Close()

			if err := manager.Restore(cmd.Context(), chains, account, userKey); err != nil {
				return err
			}
			symbol := domain.TokenSymbol(strings.ToUpper(token))
			raw, err := parseTokenAmount(cmd.Context(), manager, chains[0], symbol, amount)
			if err != nil {
				return err
			}

			var result domain.WorkflowResult
			err = runWorkflowSpinner(cmd.Context(), cmd.ErrOrStderr(), "Bridging and supplying...", func(ctx context.Context) error {
				result = manager.BridgeAndSupply(ctx, domain.BridgeAndSupplyRequest{
					UserKey:             userKey,
					SmartAccountAddress: account,
					SourceChain:         chains[0],
					DestinationChain:    chains[1],
					Token:               symbol,
					Amount:              raw,
				})
				return nil
			})
			if err != nil {
				return err
			}

			return writeWorkflowResult(cmd, app, flags, userKey, "bridge-supply", result, chains)
		},
	}

	flags.register(cmd, false)
	cmd.Flags().StringVar(&from, "from", "", "Source chain")
	cmd.Flags().StringVar(&to, "to", "", "Destination chain")
	cmd.Flags().StringVar(&token, "token", string(domain.TokenUSDC), "Token symbol")
	cmd.Flags().StringVar(&amount, "amount", "", "Amount in token units, e.g. 12.5")
	_ = cmd.MarkFlagRequired("from")
	_ = cmd.MarkFlagRequired("to")
	_ = cmd.MarkFlagRequired("amount")

	return cmd
}

func newSupplyCmd(app *app) *cobra.Command {
	var flags sessionFlags
	var chain, token, amount string

	cmd := &cobra.Command{
		Use:   "supply",
		Short: "Supply tokens already on a chain to its lending market",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			account, err := flags.accountAddress()
			if err != nil {
				return err
			}
			chainID, err := domain.ParseChain(chain)
			if err != nil {
				return err
			}

			userKey := domain.UserKey(flags.userKey)
			manager := app.factory.ForUser(userKey)
			defer manager.Close()

			if err := manager.Restore(cmd.Context(), []domain.ChainID{chainID}, account, userKey); err != nil {
				return err
			}
			symbol := domain.TokenSymbol(strings.ToUpper(token))
			raw, err := parseTokenAmount(cmd.Context(), manager, chainID, symbol, amount)
			if err != nil {
				return err
			}

			var result domain.WorkflowResult
			err = runWorkflowSpinner(cmd.Context(), cmd.ErrOrStderr(), "Supplying...", func(ctx context.Context) error {
				result = manager.Supply(ctx, domain.SupplyRequest{
					UserKey:             userKey,
					SmartAccountAddress: account,
					Chain:               chainID,
					Token:               symbol,
					Amount:              raw,
				})
				return nil
			})
			if err != nil {
				return err
			}

			return writeWorkflowResult(cmd, app, flags, userKey, "supply", result, []domain.ChainID{chainID})
		},
	}

	flags.register(cmd, false)
	cmd.Flags().StringVar(&chain, "chain", "", "Chain holding the tokens")
	cmd.Flags().StringVar(&token, "token", string(domain.TokenUSDC), "Token symbol")
	cmd.Flags().StringVar(&amount, "amount", "", "Amount in token units, e.g. 12.5")
	_ = cmd.MarkFlagRequired("chain")
	_ = cmd.MarkFlagRequired("amount")

	return cmd
}

// parseTokenAmount converts a human amount with the token's on-chain decimals.
func parseTokenAmount(ctx context.Context, manager *application.SessionManager, chainID domain.ChainID, symbol domain.TokenSymbol, amount string) (*big.Int, error) {
	ops, err := manager.Operations(chainID)
	if err != nil {
		return nil, err
	}
	token, err := ops.Token(symbol)
	if err != nil {
		return nil, err
	}

	return domain.ParseUnits(amount, ops.Decimals(ctx, token))
}

// writeWorkflowResult prints the result and turns a failed run into a
// command error. A run still waiting for bridged funds is not an error.
func writeWorkflowResult(cmd *cobra.Command, app *app, flags sessionFlags, userKey domain.UserKey, name string, result domain.WorkflowResult, chains []domain.ChainID) error {
	var err error
	if flags.asJSON {
		err = writeJSON(cmd, newWorkflowView(name, result))
	} else {
		account, _ := flags.accountAddress()
		err = writeReport(cmd, app, statusadapter.Report{
			UserKey:      userKey,
			SmartAccount: account,
			Workflow:     &statusadapter.WorkflowReport{Name: name, Result: result},
		}, statusadapter.RenderOptions{Chains: chains})
	}
	if err != nil {
		return err
	}

	if result.Outcome() == "failed" {
		return fmt.Errorf("%s failed at %s: %s", name, result.FailedStage, result.Error)
	}
	return nil
}
