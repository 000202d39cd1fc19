// Package archive keeps an embedded vector index of agent intent
// snapshots so the dashboard can answer "which agents are most aligned
// with this direction" queries without scanning the population.
package archive

import (
	"context"
	"fmt"
	"strconv"

	"github.com/philippgille/chromem-go"
)

type Archive struct {
	collection *chromem.Collection
	db         *chromem.DB
	name       string
}

// Match is one nearest-intent answer.
type Match struct {
	AgentID    int     `json:"agent_id"`
	Label      string  `json:"label"`
	Similarity float64 `json:"similarity"`
}

func New(collection string) (*Archive, error) {
	db := chromem.NewDB()
	c, err := db.GetOrCreateCollection(collection, nil, precomputedOnly)
	if err != nil {
		return nil, err
	}
	return &Archive{
		collection: c,
		db:         db,
		name:       collection,
	}, nil
}

// Intents are recorded with their own values as embeddings; the archive
// never computes one from text.
func precomputedOnly(ctx context.Context, text string) ([]float32, error) {
	return nil, fmt.Errorf("archive stores precomputed embeddings only")
}

// Record upserts one agent's intent snapshot, keyed by agent index.
func (a *Archive) Record(ctx context.Context, agentID int, label string, intent []float64) error {
	if len(intent) == 0 {
		return fmt.Errorf("empty intent for agent %d", agentID)
	}
	embedding := make([]float32, len(intent))
	for i, x := range intent {
		embedding[i] = float32(x)
	}
	return a.collection.AddDocument(ctx, chromem.Document{
		ID:        strconv.Itoa(agentID),
		Content:   label,
		Embedding: embedding,
		Metadata:  map[string]string{"label": label},
	})
}

// Search returns up to n agents whose recorded intent is closest to
// target, best first.
func (a *Archive) Search(ctx context.Context, target []float64, n int) ([]Match, error) {
	if a.collection.Count() == 0 {
		return nil, nil
	}
	if n > a.collection.Count() {
		n = a.collection.Count()
	}
	embedding := make([]float32, len(target))
	for i, x := range target {
		embedding[i] = float32(x)
	}

	results, err := a.collection.QueryEmbedding(ctx, embedding, n, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("archive query failed: %w", err)
	}

	matches := make([]Match, 0, len(results))
	for _, r := range results {
		id, err := strconv.Atoi(r.ID)
		if err != nil {
			continue
		}
		matches = append(matches, Match{
			AgentID:    id,
			Label:      r.Content,
			Similarity: float64(r.Similarity),
		})
	}
	return matches, nil
}

// Reset drops and recreates the collection.
func (a *Archive) Reset() error {
	if err := a.db.DeleteCollection(a.name); err != nil {
		return err
	}
	c, err := a.db.GetOrCreateCollection(a.name, nil, precomputedOnly)
	if err != nil {
		return err
	}
	a.collection = c
	return nil
}
