package status

import (
	"fmt"
	"math"
	"math/big"
	"sort"
	"strings"

	"github.com/bnema/sessionkeys/internal/domain"
	"github.com/charmbracelet/lipgloss"
	"github.com/ethereum/go-ethereum/common"
)

// Report is everything one `sk` invocation knows about a user's session.
// Balances and Workflow are optional.
type Report struct {
	UserKey      domain.UserKey
	SmartAccount common.Address
	Status       domain.SessionStatus
	Balances     domain.Balances
	Workflow     *WorkflowReport
}

type WorkflowReport struct {
	Name   string
	Result domain.WorkflowResult
}

type RenderOptions struct {
	// Chains lists the chains that were asked for; those without a
	// delegation are marked as not approved.
	Chains   []domain.ChainID
	BarWidth int
}

func renderView(report Report, opts RenderOptions, s styles) string {
	lines := []string{
		s.title.Render("Session Keys"),
		s.header.Render(fmt.Sprintf("user: %s  account: %s", report.UserKey, shortAddress(report.SmartAccount))),
	}

	if !report.Status.HasSessionKey {
		lines = append(lines, s.empty.Render("No active session key."))
	} else {
		lines = append(lines, s.detail.Render("session key: "+report.Status.SessionKeyAddress.Hex()))
		lines = append(lines, chainLines(report.Status, opts, s)...)
	}

	if len(report.Balances) > 0 {
		lines = append(lines, s.section.Render(renderBalances(report.Balances, opts, s)))
	}
	if report.Workflow != nil {
		lines = append(lines, s.section.Render(renderWorkflow(*report.Workflow, s)))
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func chainLines(status domain.SessionStatus, opts RenderOptions, s styles) []string {
	approved := make(map[domain.ChainID]bool, len(status.ApprovedChains))
	for _, id := range status.ApprovedChains {
		approved[id] = true
	}

	chains := append([]domain.ChainID(nil), status.ApprovedChains...)
	for _, id := range opts.Chains {
		if !approved[id] {
			chains = append(chains, id)
		}
	}
	sortChains(chains)

	lines := make([]string, 0, len(chains))
	for _, id := range chains {
		mark := s.ok.Render("approved")
		if !approved[id] {
			mark = s.warning.Render("not approved")
		}
		lines = append(lines, lipgloss.JoinHorizontal(lipgloss.Top, s.chain.Render(fmt.Sprintf("%-9s", id)), " ", mark))
	}

	return lines
}

// renderBalances groups balances by token and draws each chain's share of
// that token's total.
func renderBalances(balances domain.Balances, opts RenderOptions, s styles) string {
	width := opts.BarWidth
	if width <= 0 {
		width = 24
	}

	byToken := make(map[domain.TokenSymbol][]domain.ChainID)
	totals := make(map[domain.TokenSymbol]*big.Int)
	for chainID, tokens := range balances {
		for symbol, slot := range tokens {
			byToken[symbol] = append(byToken[symbol], chainID)
			if totals[symbol] == nil {
				totals[symbol] = new(big.Int)
			}
			if slot.OK() && slot.Snapshot.Raw != nil {
				totals[symbol].Add(totals[symbol], slot.Snapshot.Raw)
			}
		}
	}

	symbols := make([]domain.TokenSymbol, 0, len(byToken))
	for symbol := range byToken {
		symbols = append(symbols, symbol)
	}
	sort.Slice(symbols, func(i, j int) bool { return symbols[i] < symbols[j] })

	lines := []string{s.title.Render("Balances")}
	for _, symbol := range symbols {
		chains := byToken[symbol]
		sortChains(chains)
		lines = append(lines, s.tokenKey.Render(string(symbol)))

		for _, chainID := range chains {
			slot := balances[chainID][symbol]
			label := s.chain.Render(fmt.Sprintf("  %-9s", chainID))
			if !slot.OK() {
				lines = append(lines, lipgloss.JoinHorizontal(lipgloss.Top, label, " ", s.warning.Render("unavailable")))
				continue
			}

			share := sharePercent(slot.Snapshot.Raw, totals[symbol])
			amountStyle := lipgloss.NewStyle().Foreground(interpolateColor(share, 0, 100))
			lines = append(lines, lipgloss.JoinHorizontal(
				lipgloss.Top,
				label,
				" ",
				renderProgressBar(share, width, s),
				" ",
				amountStyle.Render(slot.Snapshot.Formatted),
			))
		}
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func renderWorkflow(workflow WorkflowReport, s styles) string {
	result := workflow.Result
	var outcome string
	switch result.Outcome() {
	case "success":
		outcome = s.ok.Render("completed")
	case "pending":
		if result.FailedStage == domain.FailedBridgeUnconfirmed {
			outcome = s.warning.Render("bridge sent, not yet confirmed")
		} else {
			outcome = s.warning.Render("bridged, not yet supplied")
		}
	default:
		outcome = s.warning.Render("failed at " + string(result.FailedStage))
	}

	lines := []string{lipgloss.JoinHorizontal(lipgloss.Top, s.title.Render(workflow.Name), " ", outcome)}
	for _, step := range []struct {
		name string
		hash *common.Hash
	}{
		{"approval", result.StepHashes.Approval},
		{"bridge", result.StepHashes.Bridge},
		{"deposit", result.StepHashes.Deposit},
	} {
		if step.hash == nil {
			continue
		}
		lines = append(lines, s.hash.Render(fmt.Sprintf("  %-8s %s", step.name, step.hash.Hex())))
	}
	if result.Deposited != nil {
		lines = append(lines, s.detail.Render("  deposited "+result.Deposited.String()+" base units"))
	}
	if result.Error != "" {
		lines = append(lines, s.warning.Render("  "+result.Error))
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func renderProgressBar(percent float64, width int, s styles) string {
	if width <= 0 {
		return ""
	}

	filled := int(math.Round(float64(width) * clampPercent(percent) / 100.0))
	if filled > width {
		filled = width
	}

	return lipgloss.JoinHorizontal(
		lipgloss.Top,
		s.barBracket.Render("["),
		s.barFill.Render(strings.Repeat("=", filled)),
		s.barEmpty.Render(strings.Repeat("-", width-filled)),
		s.barBracket.Render("]"),
	)
}

func sharePercent(part, total *big.Int) float64 {
	if part == nil || total == nil || total.Sign() <= 0 {
		return 0
	}

	ratio, _ := new(big.Rat).SetFrac(new(big.Int).Mul(part, big.NewInt(100)), total).Float64()
	return clampPercent(ratio)
}

func clampPercent(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

func interpolateColor(value, min, max float64) lipgloss.Color {
	if max == min {
		return lipgloss.Color("255")
	}

	normalized := (value - min) / (max - min)
	if normalized < 0 {
		normalized = 0
	}
	if normalized > 1 {
		normalized = 1
	}

	// ANSI 256 greyscale ramp, 240 (faded) to 255 (bright).
	return lipgloss.Color(fmt.Sprintf("%d", int(240+15*normalized)))
}

func shortAddress(address common.Address) string {
	if address == (common.Address{}) {
		return "n/a"
	}
	hex := address.Hex()
	return hex[:6] + "…" + hex[len(hex)-4:]
}

func sortChains(chains []domain.ChainID) {
	sort.Slice(chains, func(i, j int) bool { return chains[i] < chains[j] })
}
