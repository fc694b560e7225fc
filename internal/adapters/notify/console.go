package notify

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/alejandrodnm/cardbot/internal/domain"
	"github.com/olekukonko/tablewriter"
	"github.com/shopspring/decimal"
)

const (
	defaultMaxRows = 10
	titleWidth     = 50
	topDeals       = 3
)

// Console implementa ports.Notifier.
type Console struct {
	out     io.Writer
	maxRows int
}

// NewConsole crea un notificador que escribe a stdout. maxRows limita las
// filas por término (0 = 10).
func NewConsole(maxRows int) *Console {
	if maxRows <= 0 {
		maxRows = defaultMaxRows
	}
	return &Console{out: os.Stdout, maxRows: maxRows}
}

// NewConsoleWriter crea un notificador para tests.
func NewConsoleWriter(w io.Writer) *Console {
	return &Console{out: w, maxRows: defaultMaxRows}
}

// Notify imprime una tabla por término, los términos fallidos y el resumen.
func (c *Console) Notify(_ context.Context, b domain.BatchResult) error {
	stamp := b.StartedAt.Format("15:04:05")
	if b.Summary.TotalDeals == 0 {
		fmt.Fprintf(c.out, "[%s] no opportunities found%s\n", stamp, failedSuffix(b.Failed))
		return nil
	}

	terms := b.Terms()
	fmt.Fprintf(c.out, "\n[%s] %d opportunities across %d terms (run %s, %s)\n",
		stamp, b.Summary.TotalDeals, len(terms), shortID(b.RunID), b.Duration.Round(time.Millisecond))

	for _, term := range terms {
		if err := c.printTerm(term, b.ByTerm[term]); err != nil {
			return fmt.Errorf("notify.Notify: term %q: %w", term, err)
		}
	}
	if len(b.Failed) > 0 {
		fmt.Fprintf(c.out, "\n  ⚠ failed terms: %s\n", strings.Join(b.Failed, ", "))
	}

	c.printSummary(b.Summary)
	c.printTopDeals(b.All())
	return nil
}

func (c *Console) printTerm(term string, opps []domain.Opportunity) error {
	fmt.Fprintf(c.out, "\n=== %s (%d) ===\n", term, len(opps))

	table := tablewriter.NewWriter(c.out)
	table.Header("#", "Title", "Price", "Value", "Discount", "Profit", "Margin", "Source", "Match")

	shown := opps
	if len(shown) > c.maxRows {
		shown = shown[:c.maxRows]
	}
	for i, o := range shown {
		if err := table.Append(
			fmt.Sprintf("%d", i+1),
			domain.TruncateTitle(o.Listing.Title, titleWidth),
			money(o.ComparisonPrice),
			money(o.MarketValue()),
			fmt.Sprintf("%.1f%%", o.DiscountPct),
			money(o.PotentialProfit),
			fmt.Sprintf("%.1f%%", o.ProfitMarginPct),
			string(o.Listing.Source),
			matchLabel(o),
		); err != nil {
			return err
		}
	}
	if err := table.Render(); err != nil {
		return err
	}

	if hidden := len(opps) - len(shown); hidden > 0 {
		fmt.Fprintf(c.out, "  ... %d more\n", hidden)
	}
	return nil
}

func (c *Console) printSummary(s domain.Summary) {
	fmt.Fprintf(c.out, "\n=== SUMMARY ===\n")
	fmt.Fprintf(c.out, "  Deals:            %d\n", s.TotalDeals)
	fmt.Fprintf(c.out, "  Avg discount:     %.1f%%\n", s.AvgDiscount)
	fmt.Fprintf(c.out, "  Best discount:    %.1f%%\n", s.MaxDiscount)
	fmt.Fprintf(c.out, "  Potential profit: %s (avg %s, best %s)\n",
		money(s.TotalPotentialProfit), money(s.AvgPotentialProfit), money(s.MaxProfit))
}

// printTopDeals lista los mejores anuncios con su URL.
func (c *Console) printTopDeals(all []domain.Opportunity) {
	if len(all) > topDeals {
		all = all[:topDeals]
	}
	fmt.Fprintf(c.out, "\n  Top deals:\n")
	for i, o := range all {
		fmt.Fprintf(c.out, "  %d. [%s] %s  %s → %s (-%.1f%%)\n",
			i+1, o.Term, domain.TruncateTitle(o.Listing.Title, titleWidth),
			money(o.ComparisonPrice), money(o.MarketValue()), o.DiscountPct)
		if o.Listing.URL != "" {
			fmt.Fprintf(c.out, "     %s\n", o.Listing.URL)
		}
	}
	fmt.Fprintln(c.out)
}

func money(d decimal.Decimal) string {
	return "$" + d.StringFixed(2)
}

func matchLabel(o domain.Opportunity) string {
	if o.Match == nil {
		return "-"
	}
	return fmt.Sprintf("%.2f", o.Match.Score)
}

func failedSuffix(failed []string) string {
	if len(failed) == 0 {
		return ""
	}
	return fmt.Sprintf(" (%d terms failed: %s)", len(failed), strings.Join(failed, ", "))
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
