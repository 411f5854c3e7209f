package outbox

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	appoutbox "homepro/internal/app/outbox"
)

const (
	stateNew     = "NEW"
	stateClaimed = "CLAIMED"
	stateSent    = "SENT"
	stateFailed  = "FAILED"
)

const collectionName = "outbox_events"

// Store keeps outbox records in MongoDB. Add writes through the session stored
// in ctx by the mongo unit of work, so records commit with the command.
type Store struct {
	col        *mongo.Collection
	claimAfter time.Duration
}

// NewStore makes sure the claim index exists. Claims older than claimTimeout
// are handed out again.
func NewStore(ctx context.Context, db *mongo.Database, claimTimeout time.Duration) (*Store, error) {
	col := db.Collection(collectionName)
	_, err := col.Indexes().CreateOne(ctx, mongo.IndexModel{Keys: bson.D{{Key: "state", Value: 1}, {Key: "next_attempt_at", Value: 1}}})
	if err != nil {
		return nil, fmt.Errorf("outbox: create index: %w", err)
	}
	if claimTimeout <= 0 {
		claimTimeout = time.Minute
	}
	return &Store{col: col, claimAfter: claimTimeout}, nil
}

func (s *Store) Add(ctx context.Context, record appoutbox.EventRecord) error {
	now := time.Now().UTC()
	_, err := s.col.InsertOne(ctx, Message{
		ID:          record.ID,
		Name:        record.Name,
		Payload:     record.Payload,
		OccurredAt:  record.OccurredAt,
		Aggregate:   record.Aggregate,
		Headers:     record.Headers,
		State:       stateNew,
		NextAttempt: now,
	})
	return err
}

// Flush is a no-op: records become visible when the surrounding transaction commits.
func (s *Store) Flush(context.Context) error {
	return nil
}

func (s *Store) Claim(ctx context.Context, workerID string) (*Message, error) {
	now := time.Now().UTC()
	filter := bson.M{"$or": bson.A{
		bson.M{"state": bson.M{"$in": bson.A{stateNew, stateFailed}}, "next_attempt_at": bson.M{"$lte": now}},
		bson.M{"state": stateClaimed, "claimed_at": bson.M{"$lte": now.Add(-s.claimAfter)}},
	}}
	update := bson.M{"$set": bson.M{"state": stateClaimed, "claimed_by": workerID, "claimed_at": now}}
	opts := options.FindOneAndUpdate().
		SetReturnDocument(options.After).
		SetSort(bson.D{{Key: "next_attempt_at", Value: 1}})
	var msg Message
	if err := s.col.FindOneAndUpdate(ctx, filter, update, opts).Decode(&msg); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return &msg, nil
}

func (s *Store) MarkSent(ctx context.Context, id string) error {
	_, err := s.col.UpdateByID(ctx, id, bson.M{"$set": bson.M{"state": stateSent, "sent_at": time.Now().UTC()}})
	return err
}

func (s *Store) MarkFailed(ctx context.Context, id string, next time.Time, errMsg string) error {
	_, err := s.col.UpdateByID(ctx, id, bson.M{
		"$set": bson.M{"state": stateFailed, "next_attempt_at": next, "last_error": errMsg},
		"$inc": bson.M{"attempts": 1},
	})
	return err
}

var (
	_ appoutbox.Outbox = (*Store)(nil)
	_ Source           = (*Store)(nil)
)
