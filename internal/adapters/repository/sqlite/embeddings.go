package sqlite

import (
	"context"
	"database/sql"
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/okian/skillmatch/internal/domain/model"
)

// ErrBadVector is returned for empty or malformed embedding vectors.
var ErrBadVector = errors.New("invalid embedding vector")

// PutEmbedding stores the profile embedding of userID, replacing any
// previous vector.
func (s *Store) PutEmbedding(ctx context.Context, userID string, vec []float32) error {
	if len(vec) == 0 {
		return ErrBadVector
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO user_embeddings (user_id, vector, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET vector = excluded.vector, updated_at = excluded.updated_at`,
		userID, encodeVector(vec), millis(s.now()))
	if err != nil {
		return fmt.Errorf("put embedding %s: %w", userID, err)
	}
	return nil
}

// EmbeddingSimilarities maps the cosine similarity of the viewer and each
// candidate onto [0,1]. Pairs where either side lacks a usable vector are
// omitted.
func (s *Store) EmbeddingSimilarities(ctx context.Context, viewerID string, candidateIDs []string) ([]model.EmbeddingSimilarity, error) {
	out := []model.EmbeddingSimilarity{}
	if len(candidateIDs) == 0 {
		return out, nil
	}

	var blob []byte
	err := s.db.QueryRowContext(ctx, `SELECT vector FROM user_embeddings WHERE user_id = ?`, viewerID).Scan(&blob)
	if errors.Is(err, sql.ErrNoRows) {
		return out, nil
	}
	if err != nil {
		return nil, fmt.Errorf("viewer embedding %s: %w", viewerID, err)
	}
	viewer, err := decodeVector(blob)
	if err != nil {
		return out, nil //nolint:nilerr // unusable viewer vector means no signal
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT user_id, vector FROM user_embeddings WHERE user_id IN (`+placeholders(len(candidateIDs))+`)`,
		stringArgs(candidateIDs)...)
	if err != nil {
		return nil, fmt.Errorf("candidate embeddings: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id string
		if err := rows.Scan(&id, &blob); err != nil {
			return nil, fmt.Errorf("scan embedding: %w", err)
		}
		vec, err := decodeVector(blob)
		if err != nil {
			continue
		}
		cos, ok := cosine(viewer, vec)
		if !ok {
			continue
		}
		out = append(out, model.EmbeddingSimilarity{
			CandidateID: id,
			Similarity:  math.Max(0, math.Min(1, (cos+1)/2)),
		})
	}
	return out, rows.Err()
}

// encodeVector packs vec as little-endian float32 values.
func encodeVector(vec []float32) []byte {
	b := make([]byte, 4*len(vec))
	for i, v := range vec {
		binary.LittleEndian.PutUint32(b[4*i:], math.Float32bits(v))
	}
	return b
}

func decodeVector(b []byte) ([]float32, error) {
	if len(b) == 0 || len(b)%4 != 0 {
		return nil, ErrBadVector
	}
	vec := make([]float32, len(b)/4)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[4*i:]))
	}
	return vec, nil
}

// cosine is false for vectors of different length or zero norm.
func cosine(a, b []float32) (float64, bool) {
	if len(a) != len(b) {
		return 0, false
	}
	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0, false
	}
	c := dot / (math.Sqrt(na) * math.Sqrt(nb))
	if math.IsNaN(c) {
		return 0, false
	}
	return c, true
}
