package mongodb

import (
	"context"
	"errors"
	"time"

	"catsvg-indexer/internal/indexer/domain/model"
	"catsvg-indexer/internal/shared/logger"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const catTextCollection = "catTexts"

// CatTextRepository is the MongoDB implementation of repository.CatTextRepository.
type CatTextRepository struct {
	collection *mongo.Collection
	log        logger.Logger
}

// NewCatTextRepository creates a CatTextRepository bound to the catTexts collection.
func NewCatTextRepository(db *mongo.Database, log logger.Logger) *CatTextRepository {
	return &CatTextRepository{
		collection: db.Collection(catTextCollection),
		log:        log.WithComponent("cattext_repository"),
	}
}

// EnsureIndexes creates the unique index on tokenId.
func (r *CatTextRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "tokenId", Value: 1}},
		Options: options.Index().SetName("uq_cattext_token_id").SetUnique(true),
	})
	return err
}

// Upsert inserts or replaces the text for tokenID, last-write-wins.
func (r *CatTextRepository) Upsert(ctx context.Context, tokenID, text string) error {
	rec := model.CatTextRecord{
		TokenID:   tokenID,
		Text:      text,
		UpdatedAt: time.Now().UTC(),
	}
	_, err := r.collection.ReplaceOne(ctx,
		bson.M{"tokenId": tokenID},
		rec,
		options.Replace().SetUpsert(true))
	return err
}

// GetText returns the stored text for tokenID and whether a record exists.
func (r *CatTextRepository) GetText(ctx context.Context, tokenID string) (string, bool, error) {
	var rec model.CatTextRecord
	err := r.collection.FindOne(ctx, bson.M{"tokenId": tokenID}).Decode(&rec)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return "", false, nil
		}
		return "", false, err
	}
	return rec.Text, true, nil
}
