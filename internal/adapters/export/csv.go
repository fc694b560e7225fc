package export

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/alejandrodnm/cardbot/internal/domain"
)

var header = []string{
	"run_id", "scanned_at", "term", "title", "price", "market_value",
	"discount_pct", "potential_profit", "profit_margin_pct", "source", "match_score", "url",
}

// CSV implementa ports.Exporter: escribe una fila por oportunidad,
// ordenadas por descuento. Cada Export reemplaza el fichero.
type CSV struct {
	path string
}

// NewCSV crea un exportador que escribe en path.
func NewCSV(path string) *CSV {
	return &CSV{path: path}
}

// Export escribe el lote completo en el fichero CSV.
func (c *CSV) Export(ctx context.Context, b domain.BatchResult) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("export.CSV: %w", err)
	}
	if err := ensureDir(c.path); err != nil {
		return err
	}

	f, err := os.Create(c.path)
	if err != nil {
		return fmt.Errorf("export.CSV: create csv file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return fmt.Errorf("export.CSV: write csv header: %w", err)
	}

	scannedAt := b.StartedAt.UTC().Format(time.RFC3339)
	for _, o := range b.All() {
		record := []string{
			b.RunID,
			scannedAt,
			o.Term,
			o.Listing.Title,
			o.ComparisonPrice.StringFixed(2),
			o.MarketValue().StringFixed(2),
			strconv.FormatFloat(o.DiscountPct, 'f', 2, 64),
			o.PotentialProfit.StringFixed(2),
			strconv.FormatFloat(o.ProfitMarginPct, 'f', 2, 64),
			string(o.Listing.Source),
			strconv.FormatFloat(o.MatchScore(), 'f', 2, 64),
			o.Listing.URL,
		}
		if err := w.Write(record); err != nil {
			return fmt.Errorf("export.CSV: write csv record: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("export.CSV: flush csv records: %w", err)
	}
	return f.Close()
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("export.CSV: create dir %q: %w", dir, err)
	}
	return nil
}
