package s3

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"strconv"
	"time"

	"homepro/internal/app/policies"
	domainpayout "homepro/internal/domain/payout"
)

// StatementExporter writes one CSV statement per payout to
// statements/{professional}/{period start}.csv.
type StatementExporter struct {
	Uploader Uploader
}

func (e StatementExporter) ExportStatement(ctx context.Context, p *domainpayout.Payout) (string, error) {
	if e.Uploader == nil {
		return "", errors.New("s3: statement uploader not configured")
	}
	body, err := renderStatement(p)
	if err != nil {
		return "", err
	}
	return e.Uploader.Upload(ctx, statementKey(p), bytes.NewReader(body), int64(len(body)), "text/csv")
}

func statementKey(p *domainpayout.Payout) string {
	return fmt.Sprintf("statements/%s/%s.csv", p.ProfessionalID, p.PeriodStart.UTC().Format(time.DateOnly))
}

func renderStatement(p *domainpayout.Payout) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	calc := p.Calculation
	rows := [][]string{{"booking_id", "gross", "commission", "net", "rate", "rate_source", "currency"}}
	for _, l := range calc.Lines {
		rows = append(rows, []string{
			l.BookingID,
			strconv.FormatInt(l.Gross, 10),
			strconv.FormatInt(l.Commission, 10),
			strconv.FormatInt(l.Gross-l.Commission, 10),
			strconv.FormatFloat(l.Rate, 'f', 4, 64),
			string(l.Source),
			calc.Currency,
		})
	}
	rows = append(rows, []string{
		"total",
		strconv.FormatInt(calc.GrossAmount, 10),
		strconv.FormatInt(calc.CommissionAmount, 10),
		strconv.FormatInt(calc.NetAmount, 10),
		strconv.FormatFloat(calc.CommissionRate, 'f', 4, 64),
		"",
		calc.Currency,
	})
	if err := w.WriteAll(rows); err != nil {
		return nil, fmt.Errorf("s3: render statement: %w", err)
	}
	return buf.Bytes(), nil
}

var _ policies.StatementExporter = StatementExporter{}
