// Package repository defines the datastore contract shared by the sqlite and
// postgres adapters and opens the configured one.
package repository

import (
	"context"

	"github.com/okian/skillmatch/internal/domain/matching"
	"github.com/okian/skillmatch/internal/domain/model"
	"github.com/okian/skillmatch/internal/domain/users"
)

// EnrichmentStore tracks the state of enrichment records.
type EnrichmentStore interface {
	UpdateEnrichmentState(ctx context.Context, id, state string) error
	GetEnrichmentRecord(ctx context.Context, id string) (model.EnrichmentRecord, error)
}

// EmbeddingWriter stores profile embeddings produced out of band.
type EmbeddingWriter interface {
	PutEmbedding(ctx context.Context, userID string, vec []float32) error
}

// Store provides read/write access to every persisted entity.
type Store interface {
	matching.Store
	users.Store
	EnrichmentStore
	EmbeddingWriter

	// Migrate creates the schema when missing.
	Migrate(ctx context.Context) error
	Close() error
}
