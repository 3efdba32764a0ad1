package semantic

import (
	"context"
	"crypto/sha256"
	"fmt"

	"github.com/qdrant/go-client/qdrant"
)

// Config addresses one Qdrant collection shared by every project this
// process serves; project and ref are payload fields filtered on at
// query time rather than separate collections, since collections are
// comparatively expensive to create and a deployment may index many
// small repos.
type Config struct {
	Host       string
	Port       int
	APIKey     string
	UseTLS     bool
	Collection string
	Dim        int
}

// QdrantProvider implements Provider against a Qdrant collection.
type QdrantProvider struct {
	client     *qdrant.Client
	embedder   Embedder
	collection string
	dim        int
}

// NewQdrantProvider dials cfg.Host:cfg.Port and ensures the configured
// collection exists with cosine distance over cfg.Dim-wide vectors.
func NewQdrantProvider(cfg Config, embedder Embedder) (*QdrantProvider, error) {
	if cfg.Collection == "" {
		cfg.Collection = "cruxe_symbols"
	}
	if cfg.Dim <= 0 {
		return nil, fmt.Errorf("semantic: Config.Dim must be positive")
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   cfg.Host,
		Port:   cfg.Port,
		APIKey: cfg.APIKey,
		UseTLS: cfg.UseTLS,
	})
	if err != nil {
		return nil, fmt.Errorf("create qdrant client: %w", err)
	}

	p := &QdrantProvider{client: client, embedder: embedder, collection: cfg.Collection, dim: cfg.Dim}
	if err := p.ensureCollection(); err != nil {
		client.Close()
		return nil, err
	}
	return p, nil
}

func (p *QdrantProvider) ensureCollection() error {
	ctx := context.Background()
	collections, err := p.client.ListCollections(ctx)
	if err != nil {
		return fmt.Errorf("list collections: %w", err)
	}
	for _, c := range collections {
		if c == p.collection {
			return nil
		}
	}
	err = p.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: p.collection,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     uint64(p.dim),
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return fmt.Errorf("create collection: %w", err)
	}
	return nil
}

// pointID derives a stable Qdrant point UUID from a project-scoped
// result id, the same sha256-to-UUID projection the teacher pack's
// Qdrant-backed storage uses to accept arbitrary string ids.
func pointID(projectID, ref, resultID string) string {
	sum := sha256.Sum256([]byte(projectID + ":" + ref + ":" + resultID))
	return fmt.Sprintf("%x-%x-%x-%x-%x", sum[0:4], sum[4:6], sum[6:8], sum[8:10], sum[10:16])
}

// Index upserts one point per document, embedding its content and
// tagging the point with project_id/ref so Search and DeleteRef can
// filter to one project's one ref.
func (p *QdrantProvider) Index(ctx context.Context, projectID, ref string, docs []Document) error {
	if len(docs) == 0 {
		return nil
	}
	points := make([]*qdrant.PointStruct, 0, len(docs))
	for _, doc := range docs {
		vec, err := p.embedder.Embed(doc.Content)
		if err != nil {
			return fmt.Errorf("embed %s: %w", doc.ResultID, err)
		}
		points = append(points, &qdrant.PointStruct{
			Id:      qdrant.NewID(pointID(projectID, ref, doc.ResultID)),
			Vectors: qdrant.NewVectors(vec...),
			Payload: map[string]*qdrant.Value{
				"project_id": qdrant.NewValueString(projectID),
				"ref":        qdrant.NewValueString(ref),
				"result_id":  qdrant.NewValueString(doc.ResultID),
				"symbol_id":  qdrant.NewValueString(doc.SymbolID),
				"path":       qdrant.NewValueString(doc.Path),
				"start_line": qdrant.NewValueInt(int64(doc.LineStart)),
				"end_line":   qdrant.NewValueInt(int64(doc.LineEnd)),
			},
		})
	}
	_, err := p.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: p.collection,
		Points:         points,
	})
	if err != nil {
		return fmt.Errorf("upsert points: %w", err)
	}
	return nil
}

// Search embeds queryText and returns the nearest points scoped to
// project and ref.
func (p *QdrantProvider) Search(ctx context.Context, projectID, ref, queryText string, limit int) ([]Hit, error) {
	vec, err := p.embedder.Embed(queryText)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	if limit <= 0 {
		limit = 10
	}

	result, err := p.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: p.collection,
		Query:          qdrant.NewQuery(vec...),
		Filter: &qdrant.Filter{
			Must: []*qdrant.Condition{
				qdrant.NewMatch("project_id", projectID),
				qdrant.NewMatch("ref", ref),
			},
		},
		WithPayload: qdrant.NewWithPayload(true),
		Limit:       qdrant.PtrOf(uint64(limit)),
	})
	if err != nil {
		return nil, fmt.Errorf("query points: %w", err)
	}

	hits := make([]Hit, 0, len(result))
	for _, point := range result {
		hits = append(hits, scoredPointToHit(point))
	}
	return hits, nil
}

func scoredPointToHit(point *qdrant.ScoredPoint) Hit {
	var hit Hit
	hit.Score = float64(point.Score)
	payload := point.Payload
	if payload == nil {
		return hit
	}
	if v, ok := payload["result_id"]; ok {
		hit.ResultID = v.GetStringValue()
	}
	if v, ok := payload["symbol_id"]; ok {
		hit.SymbolID = v.GetStringValue()
	}
	if v, ok := payload["path"]; ok {
		hit.Path = v.GetStringValue()
	}
	if v, ok := payload["start_line"]; ok {
		hit.LineStart = int(v.GetIntegerValue())
	}
	if v, ok := payload["end_line"]; ok {
		hit.LineEnd = int(v.GetIntegerValue())
	}
	return hit
}

// DeleteRef removes every point indexed for one project's ref, mirroring
// eviction's overlay cleanup for the vector side of the index.
func (p *QdrantProvider) DeleteRef(ctx context.Context, projectID, ref string) error {
	_, err := p.client.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: p.collection,
		Points: &qdrant.PointsSelector{
			PointsSelectorOneOf: &qdrant.PointsSelector_Filter{
				Filter: &qdrant.Filter{
					Must: []*qdrant.Condition{
						qdrant.NewMatch("project_id", projectID),
						qdrant.NewMatch("ref", ref),
					},
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("delete ref points: %w", err)
	}
	return nil
}

// Close releases the underlying gRPC connection.
func (p *QdrantProvider) Close() error {
	return p.client.Close()
}
