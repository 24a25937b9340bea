// Package ledger implements the IssuanceLedger port.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/layer-3/karat/core"
	"github.com/layer-3/karat/ports"
)

// issuanceDoc is the stored shape of an IssuanceRecord. The natural key is
// duplicated into its own indexed field so retried writes collapse onto
// one document.
type issuanceDoc struct {
	Key       string    `bson:"key"`
	PolicyID  string    `bson:"policy_id"`
	AssetName string    `bson:"asset_name"`
	TxHash    string    `bson:"tx_hash"`
	Creator   string    `bson:"creator"`
	Recipient string    `bson:"recipient"`
	CreatedAt time.Time `bson:"created_at"`
}

// MongoLedger stores issuance records in a MongoDB collection with a
// unique index on the natural key.
type MongoLedger struct {
	coll *mongo.Collection
}

// NewMongoLedger creates the ledger over an existing collection and
// ensures the uniqueness index backing idempotent writes.
func NewMongoLedger(ctx context.Context, coll *mongo.Collection) (ports.IssuanceLedger, error) {
	_, err := coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "key", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return nil, fmt.Errorf("create issuance index: %w", err)
	}
	return &MongoLedger{coll: coll}, nil
}

// Record inserts the record unless its key already exists. A retried write
// of the same completed action succeeds as a no-op; a different payload
// under an existing key is a conflict.
func (l *MongoLedger) Record(ctx context.Context, rec core.IssuanceRecord) error {
	_, err := l.coll.InsertOne(ctx, toDoc(rec))
	if err == nil {
		return nil
	}
	if !mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("insert issuance record: %w", err)
	}

	existing, err := l.Lookup(ctx, rec.Key())
	if err != nil {
		return err
	}
	if existing == nil || !existing.Same(rec) {
		return core.ErrIssuanceConflict
	}
	return nil
}

// Lookup returns the record under key, or nil when absent.
func (l *MongoLedger) Lookup(ctx context.Context, key string) (*core.IssuanceRecord, error) {
	var doc issuanceDoc
	err := l.coll.FindOne(ctx, bson.M{"key": key}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("lookup issuance record: %w", err)
	}
	rec := fromDoc(doc)
	return &rec, nil
}

// ListByCreator returns all records created by the address, newest first.
func (l *MongoLedger) ListByCreator(ctx context.Context, creator string) ([]core.IssuanceRecord, error) {
	cur, err := l.coll.Find(ctx, bson.M{"creator": creator},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
	if err != nil {
		return nil, fmt.Errorf("list issuance records: %w", err)
	}
	defer cur.Close(ctx)

	var docs []issuanceDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode issuance records: %w", err)
	}

	recs := make([]core.IssuanceRecord, len(docs))
	for i, doc := range docs {
		recs[i] = fromDoc(doc)
	}
	return recs, nil
}

func toDoc(rec core.IssuanceRecord) issuanceDoc {
	return issuanceDoc{
		Key:       rec.Key(),
		PolicyID:  rec.PolicyID,
		AssetName: rec.AssetName,
		TxHash:    rec.TxHash,
		Creator:   rec.Creator,
		Recipient: rec.Recipient,
		CreatedAt: rec.CreatedAt,
	}
}

func fromDoc(doc issuanceDoc) core.IssuanceRecord {
	return core.IssuanceRecord{
		PolicyID:  doc.PolicyID,
		AssetName: doc.AssetName,
		TxHash:    doc.TxHash,
		Creator:   doc.Creator,
		Recipient: doc.Recipient,
		CreatedAt: doc.CreatedAt,
	}
}
