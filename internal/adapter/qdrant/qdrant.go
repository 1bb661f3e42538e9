package qdrant

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Sahil13Singh/Mini-Rag-Assesment/internal/adapter/remote"
	"github.com/Sahil13Singh/Mini-Rag-Assesment/internal/domain"
	"github.com/Sahil13Singh/Mini-Rag-Assesment/internal/port"
)

// payloadChunkID keeps the original chunk ID; Qdrant point IDs must be UUIDs.
const payloadChunkID = "chunk_id"

// Store is a minimal REST client to Qdrant using cosine distance.
type Store struct {
	url        string
	collection string
	dimension  int
	batchSize  int
	client     *remote.Client
}

type Config struct {
	URL        string
	APIKey     string
	Collection string
	Dimension  int
	BatchSize  int
	Timeout    time.Duration
}

// New connects to Qdrant and creates the collection if it is missing. An
// existing collection with another vector size fails with
// domain.ErrDimensionMismatch.
func New(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.Dimension <= 0 {
		return nil, fmt.Errorf("%w: dimension must be positive", domain.ErrInvalidConfig)
	}
	if cfg.Collection == "" {
		return nil, fmt.Errorf("%w: qdrant collection is required", domain.ErrInvalidConfig)
	}
	batch := cfg.BatchSize
	if batch <= 0 {
		batch = 100
	}

	headers := map[string]string{}
	if cfg.APIKey != "" {
		headers["api-key"] = cfg.APIKey
	}

	s := &Store{
		url:        strings.TrimRight(cfg.URL, "/"),
		collection: cfg.Collection,
		dimension:  cfg.Dimension,
		batchSize:  batch,
		client:     remote.NewClient(cfg.Timeout, domain.ErrStoreUnavailable, headers),
	}
	if err := s.ensureCollection(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

type collectionInfo struct {
	Result struct {
		Config struct {
			Params struct {
				Vectors struct {
					Size     int    `json:"size"`
					Distance string `json:"distance"`
				} `json:"vectors"`
			} `json:"params"`
		} `json:"config"`
	} `json:"result"`
}

func (s *Store) ensureCollection(ctx context.Context) error {
	var info collectionInfo
	err := s.client.Do(ctx, http.MethodGet, s.collectionURL(""), nil, &info)
	if err == nil {
		vec := info.Result.Config.Params.Vectors
		if vec.Size != s.dimension {
			return fmt.Errorf("collection %s: %w", s.collection, domain.DimensionError(vec.Size, s.dimension))
		}
		if vec.Distance != "" && !strings.EqualFold(vec.Distance, "Cosine") {
			return fmt.Errorf("%w: collection %s uses %s distance", domain.ErrDimensionMismatch, s.collection, vec.Distance)
		}
		return nil
	}
	if !remote.HasStatus(err, http.StatusNotFound) {
		return err
	}

	body := map[string]any{
		"vectors": map[string]any{
			"size":     s.dimension,
			"distance": "Cosine",
		},
	}
	return s.client.Do(ctx, http.MethodPut, s.collectionURL(""), body, nil)
}

// Upsert writes items in batches. When a later batch fails the earlier ones
// stay applied and a *domain.PartialUpsertError is returned.
func (s *Store) Upsert(ctx context.Context, items []port.VectorItem) error {
	for _, item := range items {
		if len(item.Vector) != s.dimension {
			return fmt.Errorf("upsert %s: %w", item.ID, domain.DimensionError(s.dimension, len(item.Vector)))
		}
	}

	stored := 0
	for start := 0; start < len(items); start += s.batchSize {
		end := start + s.batchSize
		if end > len(items) {
			end = len(items)
		}

		points := make([]map[string]any, 0, end-start)
		for _, item := range items[start:end] {
			payload := make(map[string]any, len(item.Metadata)+1)
			for k, v := range item.Metadata {
				payload[k] = v
			}
			payload[payloadChunkID] = item.ID
			points = append(points, map[string]any{
				"id":      PointID(item.ID),
				"vector":  item.Vector,
				"payload": payload,
			})
		}

		err := s.client.Do(ctx, http.MethodPut, s.collectionURL("/points?wait=true"), map[string]any{"points": points}, nil)
		if err != nil {
			if stored == 0 {
				return err
			}
			return &domain.PartialUpsertError{Stored: stored, Total: len(items), Err: err}
		}
		stored = end
	}
	return nil
}

func (s *Store) Query(ctx context.Context, vector []float32, topK int, includeMetadata bool) ([]port.VectorResult, error) {
	if len(vector) != s.dimension {
		return nil, fmt.Errorf("query: %w", domain.DimensionError(s.dimension, len(vector)))
	}
	if topK <= 0 {
		return []port.VectorResult{}, nil
	}

	req := map[string]any{
		"vector":       vector,
		"limit":        topK,
		"with_payload": true,
	}
	var resp struct {
		Result []struct {
			ID      any            `json:"id"`
			Score   float64        `json:"score"`
			Payload map[string]any `json:"payload"`
		} `json:"result"`
	}
	if err := s.client.Do(ctx, http.MethodPost, s.collectionURL("/points/search"), req, &resp); err != nil {
		return nil, err
	}

	results := make([]port.VectorResult, 0, len(resp.Result))
	for _, r := range resp.Result {
		res := port.VectorResult{Score: r.Score}
		if id, ok := r.Payload[payloadChunkID].(string); ok {
			res.ID = id
		} else {
			res.ID = fmt.Sprint(r.ID)
		}
		if includeMetadata {
			res.Metadata = make(map[string]string, len(r.Payload))
			for k, v := range r.Payload {
				if k == payloadChunkID {
					continue
				}
				if sv, ok := v.(string); ok {
					res.Metadata[k] = sv
				}
			}
		}
		results = append(results, res)
	}
	return results, nil
}

// Delete looks the points up first so it can report how many existed;
// Qdrant's delete acknowledges without a count.
func (s *Store) Delete(ctx context.Context, ids []string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	points := make([]string, len(ids))
	for i, id := range ids {
		points[i] = PointID(id)
	}

	var found struct {
		Result []struct {
			ID any `json:"id"`
		} `json:"result"`
	}
	lookup := map[string]any{"ids": points, "with_payload": false, "with_vector": false}
	if err := s.client.Do(ctx, http.MethodPost, s.collectionURL("/points"), lookup, &found); err != nil {
		return 0, err
	}
	if len(found.Result) == 0 {
		return 0, nil
	}

	if err := s.client.Do(ctx, http.MethodPost, s.collectionURL("/points/delete?wait=true"), map[string]any{"points": points}, nil); err != nil {
		return 0, err
	}
	return len(found.Result), nil
}

func (s *Store) Count(ctx context.Context) (int, error) {
	var resp struct {
		Result struct {
			Count int `json:"count"`
		} `json:"result"`
	}
	if err := s.client.Do(ctx, http.MethodPost, s.collectionURL("/points/count"), map[string]any{"exact": true}, &resp); err != nil {
		return 0, err
	}
	return resp.Result.Count, nil
}

func (s *Store) Dimension() int {
	return s.dimension
}

func (s *Store) Close() error {
	return nil
}

func (s *Store) collectionURL(suffix string) string {
	return fmt.Sprintf("%s/collections/%s%s", s.url, s.collection, suffix)
}

// PointID maps a chunk ID onto the deterministic UUID used as its point ID,
// so re-upserting a chunk overwrites the same point.
func PointID(chunkID string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(chunkID)).String()
}
