package search

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"
	"go.uber.org/zap"

	"github.com/coldreach/email-generator/internal/llm"
	"github.com/coldreach/email-generator/internal/model"
	"github.com/coldreach/email-generator/pkg/logger"
)

// Payload keys stored with each template point.
const (
	payloadTemplateID = "template_id"
	payloadName       = "name"
	payloadContent    = "content"
	payloadTags       = "tags"
	payloadCreatedAt  = "created_at"
)

// QdrantIndex stores template embeddings in a Qdrant collection and answers
// searches by nearest-neighbour query on the description embedding.
type QdrantIndex struct {
	client     *qdrant.Client
	collection string
	embedder   llm.Embedder
	log        *logger.Logger
}

// NewQdrantIndex creates a Qdrant-backed index.
func NewQdrantIndex(client *qdrant.Client, collection string, embedder llm.Embedder, log *logger.Logger) *QdrantIndex {
	if collection == "" {
		collection = DefaultCollection
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &QdrantIndex{client: client, collection: collection, embedder: embedder, log: log}
}

// EnsureCollection creates the collection with cosine distance when it does
// not exist yet.
func (q *QdrantIndex) EnsureCollection(ctx context.Context, dim uint64) error {
	exists, err := q.client.CollectionExists(ctx, q.collection)
	if err != nil {
		return fmt.Errorf("failed to check collection: %w", err)
	}
	if exists {
		return nil
	}

	err = q.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: q.collection,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     dim,
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return fmt.Errorf("failed to create collection: %w", err)
	}
	q.log.Info("qdrant collection created", zap.String("collection", q.collection), zap.Uint64("dim", dim))
	return nil
}

// Index embeds the template content and upserts it. Re-indexing the same
// template id overwrites the previous point.
func (q *QdrantIndex) Index(ctx context.Context, t model.Template) error {
	vector, err := q.embedder.Embed(ctx, t.Name+"\n"+t.Content)
	if err != nil {
		return &model.TransportError{Op: "embed template", Err: err}
	}

	wait := true
	_, err = q.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: q.collection,
		Wait:           &wait,
		Points: []*qdrant.PointStruct{
			{
				Id:      qdrant.NewIDUUID(pointID(t.ID)),
				Vectors: qdrant.NewVectors(vector...),
				Payload: qdrant.NewValueMap(templatePayload(t)),
			},
		},
	})
	if err != nil {
		return &model.TransportError{Op: "upsert template", Err: err}
	}
	return nil
}

// Seed indexes templates, stopping at the first failure.
func (q *QdrantIndex) Seed(ctx context.Context, templates []model.Template) error {
	for _, t := range templates {
		if err := q.Index(ctx, t); err != nil {
			return fmt.Errorf("seed template %s: %w", t.ID, err)
		}
	}
	return nil
}

// Search embeds description and returns the closest templates.
func (q *QdrantIndex) Search(ctx context.Context, description string, limit int) ([]model.Template, error) {
	vector, err := q.embedder.Embed(ctx, description)
	if err != nil {
		return nil, &model.TransportError{Op: "embed description", Err: err}
	}

	hits, err := q.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: q.collection,
		Query:          qdrant.NewQuery(vector...),
		Limit:          qdrant.PtrOf(uint64(Limit(limit))),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, &model.TransportError{Op: "query templates", Err: err}
	}

	out := make([]model.Template, 0, len(hits))
	for _, hit := range hits {
		out = append(out, templateFromPayload(hit.GetPayload()))
	}
	return out, nil
}

// Health checks that the Qdrant server answers.
func (q *QdrantIndex) Health(ctx context.Context) error {
	if _, err := q.client.HealthCheck(ctx); err != nil {
		return &model.TransportError{Op: "qdrant health check", Err: err}
	}
	return nil
}

// pointID derives a stable point UUID from a template id, which need not be
// a UUID itself.
func pointID(templateID string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte("template:"+templateID)).String()
}

func templatePayload(t model.Template) map[string]any {
	tags := make([]any, len(t.Tags))
	for i, tag := range t.Tags {
		tags[i] = tag
	}
	return map[string]any{
		payloadTemplateID: t.ID,
		payloadName:       t.Name,
		payloadContent:    t.Content,
		payloadTags:       tags,
		payloadCreatedAt:  t.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
}

func templateFromPayload(payload map[string]*qdrant.Value) model.Template {
	t := model.Template{
		ID:      payload[payloadTemplateID].GetStringValue(),
		Name:    payload[payloadName].GetStringValue(),
		Content: payload[payloadContent].GetStringValue(),
		Tags:    []string{},
	}
	for _, v := range payload[payloadTags].GetListValue().GetValues() {
		t.Tags = append(t.Tags, v.GetStringValue())
	}
	// Points written before timestamps were stored as RFC3339 carry Unix seconds.
	createdAt := payload[payloadCreatedAt]
	if ts, err := time.Parse(time.RFC3339Nano, createdAt.GetStringValue()); err == nil {
		t.CreatedAt = ts.UTC()
	} else if secs := createdAt.GetIntegerValue(); secs != 0 {
		t.CreatedAt = time.Unix(secs, 0).UTC()
	}
	return t
}
