package model

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewReconciledToken(t *testing.T) {
	rec := NewReconciledToken("101", "<svg></svg>")

	assert.Equal(t, "101", rec.TokenID)
	assert.Equal(t, "<svg></svg>", rec.SVG)
	assert.Equal(t, SourceReconciled, rec.Source)
	assert.Empty(t, rec.PublishID)
	assert.WithinDuration(t, time.Now().UTC(), rec.CreatedAt, time.Second)
}

func TestNewPublishedSVG(t *testing.T) {
	rec := NewPublishedSVG("<svg>cat</svg>")

	assert.Equal(t, SourcePublished, rec.Source)
	assert.Empty(t, rec.TokenID)
	_, err := uuid.Parse(rec.PublishID)
	require.NoError(t, err)

	other := NewPublishedSVG("<svg>cat</svg>")
	assert.NotEqual(t, rec.PublishID, other.PublishID)
}
