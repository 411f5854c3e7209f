package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"homepro/internal/app/uow"
	domainbooking "homepro/internal/domain/booking"
	"homepro/internal/domain/shared/money"
)

var ErrConcurrentUpdate = fmt.Errorf("mongo: %w", uow.ErrConcurrentUpdate)

const bookingsCollection = "agg_booking"

type BookingRepository struct {
	col *mongo.Collection
}

func NewBookingRepository(db *mongo.Database) *BookingRepository {
	return &BookingRepository{col: db.Collection(bookingsCollection)}
}

// EnsureIndexes creates the indexes used by the payout and availability queries.
func (r *BookingRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.col.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "professional_id", Value: 1}, {Key: "scheduled_start", Value: 1}}},
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "completion_at", Value: 1}}},
	})
	return err
}

func (r *BookingRepository) ByID(ctx context.Context, id domainbooking.BookingID) (*domainbooking.Booking, error) {
	var doc bookingDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainbooking.ErrBookingNotFound
		}
		return nil, err
	}
	return doc.toAggregate(), nil
}

// Save upserts on the stored version; a stale version collides with the
// existing _id and surfaces as ErrConcurrentUpdate.
func (r *BookingRepository) Save(ctx context.Context, b *domainbooking.Booking) error {
	doc := newBookingDocument(b)
	filter := bson.M{"_id": doc.ID, "version": b.Version}
	doc.Version = b.Version + 1
	res, err := r.col.UpdateOne(ctx, filter, bson.M{"$set": doc}, options.Update().SetUpsert(true))
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrConcurrentUpdate
		}
		return err
	}
	if res.MatchedCount == 0 && res.UpsertedCount == 0 {
		return ErrConcurrentUpdate
	}
	b.Version = doc.Version
	return nil
}

func (r *BookingRepository) ListCompleted(ctx context.Context, filter domainbooking.CompletedFilter) ([]*domainbooking.Booking, error) {
	q := bson.M{"status": string(domainbooking.StatusCompleted)}
	if filter.ProfessionalID != "" {
		q["professional_id"] = filter.ProfessionalID
	}
	window := bson.M{"$ne": nil}
	if !filter.From.IsZero() {
		window["$gte"] = filter.From.UTC()
	}
	if !filter.To.IsZero() {
		window["$lt"] = filter.To.UTC()
	}
	q["completion_at"] = window
	return r.find(ctx, q)
}

func (r *BookingRepository) ListByProfessionalBetween(ctx context.Context, professionalID string, from, to time.Time) ([]*domainbooking.Booking, error) {
	return r.find(ctx, bson.M{
		"professional_id": professionalID,
		"scheduled_start": bson.M{"$gte": from.UTC(), "$lt": to.UTC()},
	})
}

func (r *BookingRepository) find(ctx context.Context, filter bson.M) ([]*domainbooking.Booking, error) {
	opts := options.Find().SetSort(bson.D{{Key: "scheduled_start", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	var docs []bookingDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	out := make([]*domainbooking.Booking, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toAggregate())
	}
	return out, nil
}

type bookingDocument struct {
	ID              string     `bson:"_id"`
	ProfessionalID  string     `bson:"professional_id"`
	CustomerID      string     `bson:"customer_id"`
	ServiceCategory string     `bson:"service_category"`
	City            string     `bson:"city"`
	CountryCode     string     `bson:"country_code"`
	ScheduledStart  time.Time  `bson:"scheduled_start"`
	DurationMinutes int64      `bson:"duration_minutes"`
	Amount          int64      `bson:"amount"`
	Currency        string     `bson:"currency"`
	Status          string     `bson:"status"`
	CompletedAt     *time.Time `bson:"completed_at,omitempty"`
	CompletionAt    *time.Time `bson:"completion_at"`
	CheckedOutAt    *time.Time `bson:"checked_out_at,omitempty"`
	CancelledAt     *time.Time `bson:"cancelled_at,omitempty"`
	CancelReason    string     `bson:"cancel_reason,omitempty"`
	RefundAmount    int64      `bson:"refund_amount"`
	CreatedAt       time.Time  `bson:"created_at"`
	UpdatedAt       time.Time  `bson:"updated_at"`
	Version         int64      `bson:"version"`
}

// completion_at holds the completion time, or the check-out time when the
// booking never recorded one, so ListCompleted filters on a single field.
func newBookingDocument(b *domainbooking.Booking) bookingDocument {
	completion := b.CompletedAt
	if completion == nil {
		completion = b.CheckedOutAt
	}
	return bookingDocument{
		ID:              string(b.ID),
		ProfessionalID:  b.ProfessionalID,
		CustomerID:      b.CustomerID,
		ServiceCategory: b.ServiceCategory,
		City:            b.City,
		CountryCode:     b.CountryCode,
		ScheduledStart:  b.ScheduledStart.UTC(),
		DurationMinutes: int64(b.Duration / time.Minute),
		Amount:          b.Amount.Amount,
		Currency:        b.Amount.Currency,
		Status:          string(b.Status),
		CompletedAt:     utcPtr(b.CompletedAt),
		CompletionAt:    utcPtr(completion),
		CheckedOutAt:    utcPtr(b.CheckedOutAt),
		CancelledAt:     utcPtr(b.CancelledAt),
		CancelReason:    b.CancelReason,
		RefundAmount:    b.RefundAmount.Amount,
		CreatedAt:       b.CreatedAt.UTC(),
		UpdatedAt:       b.UpdatedAt.UTC(),
		Version:         b.Version,
	}
}

func (d bookingDocument) toAggregate() *domainbooking.Booking {
	return &domainbooking.Booking{
		ID:              domainbooking.BookingID(d.ID),
		ProfessionalID:  d.ProfessionalID,
		CustomerID:      d.CustomerID,
		ServiceCategory: d.ServiceCategory,
		City:            d.City,
		CountryCode:     d.CountryCode,
		ScheduledStart:  d.ScheduledStart.UTC(),
		Duration:        time.Duration(d.DurationMinutes) * time.Minute,
		Amount:          money.Money{Amount: d.Amount, Currency: d.Currency},
		Status:          domainbooking.Status(d.Status),
		CompletedAt:     utcPtr(d.CompletedAt),
		CheckedOutAt:    utcPtr(d.CheckedOutAt),
		CancelledAt:     utcPtr(d.CancelledAt),
		CancelReason:    d.CancelReason,
		RefundAmount:    money.Money{Amount: d.RefundAmount, Currency: d.Currency},
		CreatedAt:       d.CreatedAt.UTC(),
		UpdatedAt:       d.UpdatedAt.UTC(),
		Version:         d.Version,
	}
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := t.UTC()
	return &v
}

var _ domainbooking.Repository = (*BookingRepository)(nil)
