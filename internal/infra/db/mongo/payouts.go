package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainpayout "homepro/internal/domain/payout"
)

const payoutsCollection = "agg_payout"

type PayoutRepository struct {
	col *mongo.Collection
}

func NewPayoutRepository(db *mongo.Database) *PayoutRepository {
	return &PayoutRepository{col: db.Collection(payoutsCollection)}
}

// EnsureIndexes enforces one payout per professional and period.
func (r *PayoutRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "professional_id", Value: 1}, {Key: "period_start", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("uniq_professional_period"),
	})
	return err
}

func (r *PayoutRepository) Save(ctx context.Context, p *domainpayout.Payout) error {
	doc := newPayoutDocument(p)
	_, err := r.col.ReplaceOne(ctx, bson.M{"_id": doc.ID}, doc, options.Replace().SetUpsert(true))
	if mongo.IsDuplicateKeyError(err) {
		return domainpayout.ErrPayoutExists
	}
	return err
}

func (r *PayoutRepository) ByPeriod(ctx context.Context, professionalID string, periodStart time.Time) (*domainpayout.Payout, error) {
	var doc payoutDocument
	err := r.col.FindOne(ctx, bson.M{"professional_id": professionalID, "period_start": periodStart.UTC()}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, domainpayout.ErrPayoutNotFound
	}
	if err != nil {
		return nil, err
	}
	return doc.toAggregate(), nil
}

type payoutDocument struct {
	ID             string               `bson:"_id"`
	ProfessionalID string               `bson:"professional_id"`
	PeriodStart    time.Time            `bson:"period_start"`
	PeriodEnd      time.Time            `bson:"period_end"`
	ScheduledFor   time.Time            `bson:"scheduled_for"`
	Currency       string               `bson:"currency"`
	Gross          int64                `bson:"gross"`
	Commission     int64                `bson:"commission"`
	Net            int64                `bson:"net"`
	Rate           float64              `bson:"rate"`
	BookingIDs     []string             `bson:"booking_ids"`
	Lines          []payoutLineDocument `bson:"lines"`
	Status         string               `bson:"status"`
	StatementURL   string               `bson:"statement_url,omitempty"`
	CreatedAt      time.Time            `bson:"created_at"`
}

type payoutLineDocument struct {
	BookingID  string  `bson:"booking_id"`
	Gross      int64   `bson:"gross"`
	Commission int64   `bson:"commission"`
	Rate       float64 `bson:"rate"`
	Source     string  `bson:"source"`
	LookupErr  string  `bson:"lookup_error,omitempty"`
}

func newPayoutDocument(p *domainpayout.Payout) payoutDocument {
	calc := p.Calculation
	lines := make([]payoutLineDocument, 0, len(calc.Lines))
	for _, l := range calc.Lines {
		line := payoutLineDocument{BookingID: l.BookingID, Gross: l.Gross, Commission: l.Commission, Rate: l.Rate, Source: string(l.Source)}
		if l.LookupErr != nil {
			line.LookupErr = l.LookupErr.Error()
		}
		lines = append(lines, line)
	}
	return payoutDocument{
		ID:             string(p.ID),
		ProfessionalID: p.ProfessionalID,
		PeriodStart:    p.PeriodStart.UTC(),
		PeriodEnd:      p.PeriodEnd.UTC(),
		ScheduledFor:   p.ScheduledFor.UTC(),
		Currency:       calc.Currency,
		Gross:          calc.GrossAmount,
		Commission:     calc.CommissionAmount,
		Net:            calc.NetAmount,
		Rate:           calc.CommissionRate,
		BookingIDs:     calc.BookingIDs,
		Lines:          lines,
		Status:         string(p.Status),
		StatementURL:   p.StatementURL,
		CreatedAt:      p.CreatedAt.UTC(),
	}
}

func (d payoutDocument) toAggregate() *domainpayout.Payout {
	lines := make([]domainpayout.Line, 0, len(d.Lines))
	for _, l := range d.Lines {
		line := domainpayout.Line{BookingID: l.BookingID, Gross: l.Gross, Commission: l.Commission, Rate: l.Rate, Source: domainpayout.RateSource(l.Source)}
		if l.LookupErr != "" {
			line.LookupErr = errors.New(l.LookupErr)
		}
		lines = append(lines, line)
	}
	return &domainpayout.Payout{
		ID:             domainpayout.PayoutID(d.ID),
		ProfessionalID: d.ProfessionalID,
		PeriodStart:    d.PeriodStart.UTC(),
		PeriodEnd:      d.PeriodEnd.UTC(),
		ScheduledFor:   d.ScheduledFor.UTC(),
		Calculation: domainpayout.Calculation{
			GrossAmount:      d.Gross,
			CommissionAmount: d.Commission,
			NetAmount:        d.Net,
			Currency:         d.Currency,
			BookingIDs:       d.BookingIDs,
			BookingCount:     len(d.BookingIDs),
			CommissionRate:   d.Rate,
			Lines:            lines,
		},
		Status:       domainpayout.Status(d.Status),
		StatementURL: d.StatementURL,
		CreatedAt:    d.CreatedAt.UTC(),
	}
}

var _ domainpayout.Repository = (*PayoutRepository)(nil)
