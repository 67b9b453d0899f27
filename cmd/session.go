package cmd

import (
	"errors"
	"fmt"

	statusadapter "github.com/bnema/sessionkeys/internal/adapters/render/status"
	"github.com/bnema/sessionkeys/internal/domain"
	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
)

func newSessionCmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Create, inspect and reset session-key delegations",
	}

	cmd.AddCommand(
		newSessionSetupCmd(app),
		newSessionStatusCmd(app),
		newSessionResetCmd(app),
	)

	return cmd
}

type sessionStatusView struct {
	UserKey           string   `json:"user_key"`
	SmartAccount      string   `json:"smart_account"`
	HasSessionKey     bool     `json:"has_session_key"`
	SessionKeyAddress string   `json:"session_key_address,omitempty"`
	ApprovedChains    []string `json:"approved_chains"`
}

func newSessionStatusView(userKey domain.UserKey, account common.Address, status domain.SessionStatus) sessionStatusView {
	view := sessionStatusView{
		UserKey:        string(userKey),
		SmartAccount:   account.Hex(),
		HasSessionKey:  status.HasSessionKey,
		ApprovedChains: make([]string, 0, len(status.ApprovedChains)),
	}
	if status.HasSessionKey {
		view.SessionKeyAddress = status.SessionKeyAddress.Hex()
	}
	for _, id := range status.ApprovedChains {
		view.ApprovedChains = append(view.ApprovedChains, id.String())
	}
	return view
}

func newSessionSetupCmd(app *app) *cobra.Command {
	var flags sessionFlags
	var orgID, ownerRaw string

	cmd := &cobra.Command{
		Use:   "setup",
		Short: "Approve the session key on each chain, reusing stored delegations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			owner, err := parseAddressFlag("owner", ownerRaw)
			if err != nil {
				return err
			}
			chains, err := flags.chainIDs()
			if err != nil {
				return err
			}
			if orgID == "" {
				orgID = flags.userKey
			}

			account := common.Address{}
			if flags.account != "" {
				if account, err = flags.accountAddress(); err != nil {
					return err
				}
			} else {
				chain, err := domain.LookupChain(chains[0])
				if err != nil {
					return err
				}
				if account, err = app.provider.AccountAddress(cmd.Context(), owner, chain); err != nil {
					return fmt.Errorf("derive smart account address: %w", err)
				}
			}

			signer, err := app.custodian.SignerFor(cmd.Context(), orgID, owner)
			if err != nil {
				return err
			}

			userKey := domain.UserKey(flags.userKey)
			manager := app.factory.ForUser(userKey)
			defer manager.Close()

			if err := manager.SetupForChains(cmd.Context(), chains, signer, owner, account, userKey); err != nil {
				return err
			}

			status := manager.GetStatus()
			if flags.asJSON {
				return writeJSON(cmd, newSessionStatusView(userKey, account, status))
			}
			return writeReport(cmd, app, statusadapter.Report{UserKey: userKey, SmartAccount: account, Status: status}, statusadapter.RenderOptions{Chains: chains})
		},
	}

	cmd.Flags().StringVar(&flags.userKey, "user", "", "User key the session belongs to")
	cmd.Flags().StringVar(&flags.account, "account", "", "Smart account address (default: derived from --owner)")
	cmd.Flags().StringSliceVar(&flags.chains, "chains", nil, "Chains by name or id (default: all supported)")
	cmd.Flags().BoolVar(&flags.asJSON, "json", false, "Render JSON output")
	cmd.Flags().StringVar(&orgID, "org", "", "Organization holding the owner key (default: --user)")
	cmd.Flags().StringVar(&ownerRaw, "owner", "", "Owner address of the smart account")
	_ = cmd.MarkFlagRequired("user")
	_ = cmd.MarkFlagRequired("owner")

	return cmd
}

func newSessionStatusCmd(app *app) *cobra.Command {
	var flags sessionFlags

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the stored session key and approved chains",
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

			if err := manager.Restore(cmd.Context(), chains, account, userKey); err != nil && !errors.Is(err, domain.ErrDelegationNotFound) {
				return err
			}

			status := manager.GetStatus()
			if flags.asJSON {
				return writeJSON(cmd, newSessionStatusView(userKey, account, status))
			}
			return writeReport(cmd, app, statusadapter.Report{UserKey: userKey, SmartAccount: account, Status: status}, statusadapter.RenderOptions{Chains: chains})
		},
	}

	flags.register(cmd, true)

	return cmd
}

func newSessionResetCmd(app *app) *cobra.Command {
	var flags sessionFlags
	var ownerRaw string

	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Revoke stored delegations so the next setup mints a new key",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			account, err := flags.accountAddress()
			if err != nil {
				return err
			}
			var owner common.Address
			if ownerRaw != "" {
				if owner, err = parseAddressFlag("owner", ownerRaw); err != nil {
					return err
				}
			}

			userKey := domain.UserKey(flags.userKey)
			manager := app.factory.ForUser(userKey)
			defer manager.Close()

			if err := manager.Reset(cmd.Context(), owner, account, userKey); err != nil {
				return err
			}

			_, err = fmt.Fprintf(cmd.OutOrStdout(), "session reset for %s\n", userKey)
			return err
		},
	}

	flags.register(cmd, false)
	cmd.Flags().StringVar(&ownerRaw, "owner", "", "Owner address to check delegations against")

	return cmd
}
