package mongodb

import (
	"context"

	"catsvg-indexer/internal/indexer/domain/model"
	"catsvg-indexer/internal/shared/logger"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const tokenCollection = "svgs"

// TokenRepository is the MongoDB implementation of repository.TokenRepository.
type TokenRepository struct {
	collection *mongo.Collection
	log        logger.Logger
}

// NewTokenRepository creates a TokenRepository bound to the svgs collection.
func NewTokenRepository(db *mongo.Database, log logger.Logger) *TokenRepository {
	return &TokenRepository{
		collection: db.Collection(tokenCollection),
		log:        log.WithComponent("token_repository"),
	}
}

// EnsureIndexes creates the partial unique index on tokenId. Published
// records carry no tokenId, so the constraint applies only where the field
// is present; this turns the overlapping-tick duplicate insert into a
// store-enforced invariant.
func (r *TokenRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "tokenId", Value: 1}},
		Options: options.Index().
			SetName("uq_token_id").
			SetUnique(true).
			SetPartialFilterExpression(bson.D{
				{Key: "tokenId", Value: bson.D{{Key: "$type", Value: "string"}}},
			}),
	})
	return err
}

// Exists reports whether a record with the given tokenId is stored.
func (r *TokenRepository) Exists(ctx context.Context, tokenID string) (bool, error) {
	count, err := r.collection.CountDocuments(ctx,
		bson.M{"tokenId": tokenID},
		options.Count().SetLimit(1))
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// Insert stores a new record. A duplicate-key conflict on tokenId means a
// concurrent tick won the race; that is reported as inserted=false, not an
// error.
func (r *TokenRepository) Insert(ctx context.Context, rec *model.TokenRecord) (bool, error) {
	_, err := r.collection.InsertOne(ctx, rec)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			r.log.Debugf("Duplicate insert ignored for tokenId %s", rec.TokenID)
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// ListAll returns every stored record, reconciled and published alike.
func (r *TokenRepository) ListAll(ctx context.Context) ([]model.TokenRecord, error) {
	cursor, err := r.collection.Find(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	records := make([]model.TokenRecord, 0)
	if err := cursor.All(ctx, &records); err != nil {
		return nil, err
	}
	return records, nil
}
