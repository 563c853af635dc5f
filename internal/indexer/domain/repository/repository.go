package repository

import (
	"context"

	"catsvg-indexer/internal/indexer/domain/model"
)

// TokenRepository persists TokenRecords in the svgs collection.
type TokenRepository interface {
	// Exists reports whether a reconciled record with the given tokenId is
	// already stored.
	Exists(ctx context.Context, tokenID string) (bool, error)

	// Insert stores a new record. Inserting a reconciled record whose
	// tokenId already exists is not an error; it reports inserted=false so
	// overlapping reconciler ticks stay idempotent.
	Insert(ctx context.Context, rec *model.TokenRecord) (inserted bool, err error)

	// ListAll returns every stored record, both reconciled and published,
	// unfiltered and unpaginated.
	ListAll(ctx context.Context) ([]model.TokenRecord, error)
}

// CatTextRepository persists the latest cat text per token, last-write-wins.
type CatTextRepository interface {
	// Upsert inserts or replaces the text for tokenID.
	Upsert(ctx context.Context, tokenID, text string) error

	// GetText returns the stored text and whether a record exists.
	GetText(ctx context.Context, tokenID string) (text string, found bool, err error)
}

// SeenCache is a best-effort cache of token ids already persisted. A cache
// miss or cache failure always falls through to the repository; the cache
// never has to be correct, only fast.
type SeenCache interface {
	Seen(ctx context.Context, tokenID string) bool
	MarkSeen(ctx context.Context, tokenID string)
}
