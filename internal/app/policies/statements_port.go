package policies

import (
	"context"

	domainpayout "homepro/internal/domain/payout"
)

// StatementExporter stores a payout statement and returns where it can be fetched.
type StatementExporter interface {
	ExportStatement(ctx context.Context, p *domainpayout.Payout) (string, error)
}
