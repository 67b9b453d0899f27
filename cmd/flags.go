package cmd

import (
	"encoding/json"
	"fmt"
	"strings"

	statusadapter "github.com/bnema/sessionkeys/internal/adapters/render/status"
	"github.com/bnema/sessionkeys/internal/domain"
	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
)

// sessionFlags are shared by every command that acts for one user's account.
type sessionFlags struct {
	userKey string
	account string
	chains  []string
	asJSON  bool
}

func (f *sessionFlags) register(cmd *cobra.Command, withChains bool) {
	cmd.Flags().StringVar(&f.userKey, "user", "", "User key the session belongs to")
	cmd.Flags().StringVar(&f.account, "account", "", "Smart account address")
	if withChains {
		cmd.Flags().StringSliceVar(&f.chains, "chains", nil, "Chains by name or id (default: all supported)")
	}
	cmd.Flags().BoolVar(&f.asJSON, "json", false, "Render JSON output")
	_ = cmd.MarkFlagRequired("user")
	_ = cmd.MarkFlagRequired("account")
}

func (f *sessionFlags) accountAddress() (common.Address, error) {
	return parseAddressFlag("account", f.account)
}

func (f *sessionFlags) chainIDs() ([]domain.ChainID, error) {
	if len(f.chains) == 0 {
		return domain.SupportedChains(), nil
	}
	return domain.ParseChains(f.chains)
}

func parseAddressFlag(name, raw string) (common.Address, error) {
	raw = strings.TrimSpace(raw)
	if !common.IsHexAddress(raw) {
		return common.Address{}, fmt.Errorf("--%s must be a hex address, got %q", name, raw)
	}
	return common.HexToAddress(raw), nil
}

func writeJSON(cmd *cobra.Command, value any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(value)
}

func writeReport(cmd *cobra.Command, app *app, report statusadapter.Report, opts statusadapter.RenderOptions) error {
	rendered, err := app.statusRenderer(report, opts)
	if err != nil {
		return fmt.Errorf("render status: %w", err)
	}

	_, err = fmt.Fprintln(cmd.OutOrStdout(), rendered)
	return err
}
