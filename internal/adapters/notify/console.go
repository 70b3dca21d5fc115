package notify

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/alejandrodnm/coinscout/internal/domain"
	"github.com/olekukonko/tablewriter"
)

// Console writes cycle summaries to a terminal.
type Console struct {
	out   io.Writer
	table bool
}

// NewConsole creates a notifier that writes to stdout.
func NewConsole(table bool) *Console {
	return &Console{out: os.Stdout, table: table}
}

// NewConsoleWriter creates a notifier for tests.
func NewConsoleWriter(w io.Writer, table bool) *Console {
	return &Console{out: w, table: table}
}

// ResearchInput bundles everything PrintResearch needs.
type ResearchInput struct {
	AsOf       string
	NAV        float64
	Cash       float64
	Positions  int
	TableRows  int
	Candidates []domain.Candidate
	Orders     []domain.Order
	Buys       int
	Sells      int
	Warnings   []string
}

// PrintResearch prints the research cycle output in the configured mode.
func (c *Console) PrintResearch(in ResearchInput) {
	if c.table {
		c.printResearchFull(in)
	} else {
		c.printResearchCompact(in)
	}
}

// printResearchCompact prints the essentials in one line plus warnings.
func (c *Console) printResearchCompact(in ResearchInput) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "[%s] %d rows → %d ranked | NAV $%.2f cash $%.2f pos %d | orders %d (buy:%d sell:%d)",
		in.AsOf, in.TableRows, len(in.Candidates), in.NAV, in.Cash, in.Positions,
		len(in.Orders), in.Buys, in.Sells)

	for i, warn := range in.Warnings {
		if i >= 2 {
			break
		}
		fmt.Fprintf(&sb, "\n  >> %s", warn)
	}

	fmt.Fprintln(c.out, sb.String())
}

// printResearchFull prints the ranked table and planned orders.
func (c *Console) printResearchFull(in ResearchInput) {
	fmt.Fprintf(c.out, "\n[%s] universe %d rows → %d ranked | NAV $%.2f cash $%.2f | %d positions\n",
		in.AsOf, in.TableRows, len(in.Candidates), in.NAV, in.Cash, in.Positions)

	top := in.Candidates
	if len(top) > 12 {
		top = top[:12]
	}
	if len(top) > 0 {
		table := tablewriter.NewWriter(c.out)
		table.Header("#", "Symbol", "Price", "Score", "r7", "r30", "vol20", "Mcap$M", "Source")

		for i, cand := range top {
			table.Append(
				fmt.Sprintf("%d", i+1),
				cand.Symbol,
				fmt.Sprintf("%.6g", cand.Price),
				fmt.Sprintf("%.4f", cand.Score),
				fmt.Sprintf("%+.3f", cand.EffR7),
				fmt.Sprintf("%+.3f", cand.EffR30),
				fmt.Sprintf("%.4f", cand.EffVol20),
				mcapLabel(cand.MarketCap),
				cand.Source,
			)
		}
		table.Render()
	}

	if len(in.Orders) == 0 {
		fmt.Fprintln(c.out, "  no orders planned")
	} else {
		fmt.Fprintf(c.out, "\n  PLANNED ORDERS (buy:%d sell:%d)\n", in.Buys, in.Sells)
		c.printOrders(in.Orders)
	}

	for _, warn := range in.Warnings {
		fmt.Fprintf(c.out, "  >> %s\n", warn)
	}
	fmt.Fprintln(c.out)
}

// printOrders prints one order table.
func (c *Console) printOrders(orders []domain.Order) {
	table := tablewriter.NewWriter(c.out)
	table.Header("Side", "Symbol", "Qty", "Notional", "Stop", "Take", "Notes")

	for _, o := range orders {
		qty := fmt.Sprintf("%.6f", o.Quantity)
		if o.All {
			qty = "ALL"
		}
		table.Append(
			string(o.Side),
			o.Symbol,
			qty,
			dollarLabel(o.NotionalUSD),
			pctLabel(o.StopLossPct),
			pctLabel(o.TakeProfitPct),
			truncate(o.Notes, 44),
		)
	}
	table.Render()
}

// ApplyInput bundles everything PrintApply needs.
type ApplyInput struct {
	Date      string
	NoOp      bool
	Fills     []domain.Fill
	Rejected  []string
	Skipped   []string
	NAV       float64
	Cash      float64
	Positions int
	Unpriced  []string
}

// PrintApply prints the result of applying an order file.
func (c *Console) PrintApply(in ApplyInput) {
	now := time.Now().Format("15:04:05")
	if in.NoOp {
		fmt.Fprintf(c.out, "[%s] no pending orders\n", now)
		return
	}

	if !c.table {
		fmt.Fprintf(c.out, "[%s] applied %d fills (rej:%d skip:%d) | NAV $%.2f cash $%.2f pos %d\n",
			now, len(in.Fills), len(in.Rejected), len(in.Skipped), in.NAV, in.Cash, in.Positions)
		return
	}

	fmt.Fprintf(c.out, "\n[%s] %s — %d fills, %d rejected, %d skipped\n",
		now, in.Date, len(in.Fills), len(in.Rejected), len(in.Skipped))

	if len(in.Fills) > 0 {
		table := tablewriter.NewWriter(c.out)
		table.Header("Side", "Symbol", "Qty", "Price", "Fee")
		for _, f := range in.Fills {
			table.Append(
				string(f.Side),
				f.Symbol,
				fmt.Sprintf("%.6f", f.Qty),
				fmt.Sprintf("%.8g", f.Price),
				fmt.Sprintf("$%.6f", f.Fee),
			)
		}
		table.Render()
	}

	for _, r := range in.Rejected {
		fmt.Fprintf(c.out, "  >> rejected: %s\n", r)
	}
	for _, s := range in.Skipped {
		fmt.Fprintf(c.out, "  >> skipped: %s\n", s)
	}

	fmt.Fprintf(c.out, "  NAV $%.2f | cash $%.2f | %d positions\n", in.NAV, in.Cash, in.Positions)
	if len(in.Unpriced) > 0 {
		fmt.Fprintf(c.out, "  >> no fresh price for: %s (valued at 0)\n", strings.Join(in.Unpriced, ", "))
	}
	fmt.Fprintln(c.out)
}

// ReportInput bundles everything PrintReport needs.
type ReportInput struct {
	Portfolio *domain.Portfolio
	Dailies   []domain.DailySummary
}

// PrintReport prints the portfolio state and NAV history.
func (c *Console) PrintReport(in ReportInput) {
	p := in.Portfolio
	if p == nil {
		fmt.Fprintln(c.out, "\n  No portfolio yet. Run -research first.")
		return
	}

	fmt.Fprintf(c.out, "\n========================================================\n")
	fmt.Fprintf(c.out, "  PORTFOLIO REPORT\n")
	fmt.Fprintf(c.out, "========================================================\n\n")

	fmt.Fprintf(c.out, "  Cash:       $%.2f\n", p.Cash)
	fmt.Fprintf(c.out, "  Positions:  %d\n", len(p.Positions))
	fmt.Fprintf(c.out, "  Fills:      %d\n", len(p.Fills))

	if len(p.Positions) > 0 {
		fmt.Fprintln(c.out)
		table := tablewriter.NewWriter(c.out)
		table.Header("Symbol", "Qty")
		for _, sym := range sortedSymbols(p.Positions) {
			table.Append(sym, fmt.Sprintf("%.6f", p.Positions[sym]))
		}
		table.Render()
	}

	if len(p.NavHistory) > 0 {
		last := p.NavHistory[len(p.NavHistory)-1]
		first := p.NavHistory[0]
		fmt.Fprintf(c.out, "\n  --- NAV HISTORY (%d points) ---\n", len(p.NavHistory))

		tbl := tablewriter.NewWriter(c.out)
		tbl.Header("Date", "NAV", "Cash")
		hist := p.NavHistory
		if len(hist) > 14 {
			hist = hist[len(hist)-14:]
		}
		for _, pt := range hist {
			tbl.Append(pt.Date, fmt.Sprintf("$%.2f", pt.NAV), fmt.Sprintf("$%.2f", pt.Cash))
		}
		tbl.Render()

		if first.NAV > 0 {
			ret := (last.NAV/first.NAV - 1) * 100
			fmt.Fprintf(c.out, "  Return since %s: %+.2f%%\n", first.Date, ret)
		}
	}

	if len(in.Dailies) > 0 {
		var fees float64
		var orders int
		for _, d := range in.Dailies {
			fees += d.Fees
			orders += d.OrdersApplied
		}
		fmt.Fprintf(c.out, "\n  --- ACTIVITY (%d days logged) ---\n", len(in.Dailies))
		fmt.Fprintf(c.out, "  Orders applied:  %d\n", orders)
		fmt.Fprintf(c.out, "  Fees paid:       $%.4f\n", fees)
	}

	fmt.Fprintln(c.out)
}

// --- helpers ---

func mcapLabel(mcap *float64) string {
	if mcap == nil || *mcap <= 0 {
		return "-"
	}
	return fmt.Sprintf("%.1f", *mcap/1e6)
}

func dollarLabel(v float64) string {
	if v <= 0 {
		return "-"
	}
	return fmt.Sprintf("$%.2f", v)
}

func pctLabel(v float64) string {
	if v <= 0 {
		return "-"
	}
	return fmt.Sprintf("%.0f%%", v*100)
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}

func sortedSymbols(positions map[string]float64) []string {
	syms := make([]string, 0, len(positions))
	for s := range positions {
		syms = append(syms, s)
	}
	sort.Strings(syms)
	return syms
}
