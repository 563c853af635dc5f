package model

import (
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TokenSource tags which path produced a TokenRecord. The svgs collection
// holds two populations: records reconciled from chain state (keyed by
// tokenId) and records published through the API (keyed by a generated id).
type TokenSource string

const (
	// SourceReconciled marks records discovered by the reconciler. Exactly
	// one record per tokenId may exist with this source.
	SourceReconciled TokenSource = "reconciled"
	// SourcePublished marks records inserted via POST /publish-svg. These
	// carry no tokenId, only a generated PublishID.
	SourcePublished TokenSource = "published"
)

// TokenRecord is a stored SVG, either reconciled from the contract or
// published by a caller.
type TokenRecord struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"-"`
	TokenID   string             `bson:"tokenId,omitempty" json:"tokenId,omitempty"`
	PublishID string             `bson:"publishId,omitempty" json:"publishId,omitempty"`
	SVG       string             `bson:"svg" json:"svg"`
	Source    TokenSource        `bson:"source" json:"source"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
}

// NewReconciledToken builds a TokenRecord for a token discovered on chain.
// tokenID is the canonical decimal string form of the on-chain identifier.
func NewReconciledToken(tokenID, svg string) *TokenRecord {
	return &TokenRecord{
		TokenID:   tokenID,
		SVG:       svg,
		Source:    SourceReconciled,
		CreatedAt: time.Now().UTC(),
	}
}

// NewPublishedSVG builds a TokenRecord for a caller-published SVG with a
// freshly generated publish id.
func NewPublishedSVG(svg string) *TokenRecord {
	return &TokenRecord{
		PublishID: uuid.NewString(),
		SVG:       svg,
		Source:    SourcePublished,
		CreatedAt: time.Now().UTC(),
	}
}

// CatTextRecord is the latest freeform text attached to a token by the
// contract's CatTextSet event. Later events overwrite earlier ones.
type CatTextRecord struct {
	TokenID   string    `bson:"tokenId" json:"tokenId"`
	Text      string    `bson:"text" json:"text"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}
