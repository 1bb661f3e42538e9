package qdrant

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/Sahil13Singh/Mini-Rag-Assesment/internal/domain"
	"github.com/Sahil13Singh/Mini-Rag-Assesment/internal/port"
)

// fakeQdrant implements the handful of endpoints the store uses.
type fakeQdrant struct {
	mu         sync.Mutex
	size       int
	exists     bool
	points     map[string]map[string]any
	failAfter   int // fail upsert calls after this many succeeded; <0 never
	upsertCall  int
	deleteCalls int
}

func newFakeQdrant() *fakeQdrant {
	return &fakeQdrant{points: make(map[string]map[string]any), failAfter: -1}
}

func (f *fakeQdrant) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	switch {
	case r.Method == http.MethodGet && r.URL.Path == "/collections/test":
		if !f.exists {
			http.Error(w, `{"status":{"error":"Not found"}}`, http.StatusNotFound)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"result": map[string]any{"config": map[string]any{"params": map[string]any{
				"vectors": map[string]any{"size": f.size, "distance": "Cosine"},
			}}},
		})
	case r.Method == http.MethodPut && r.URL.Path == "/collections/test":
		var body struct {
			Vectors struct {
				Size int `json:"size"`
			} `json:"vectors"`
		}
		json.NewDecoder(r.Body).Decode(&body)
		f.size = body.Vectors.Size
		f.exists = true
		w.Write([]byte(`{"result":true}`))
	case r.Method == http.MethodPut && r.URL.Path == "/collections/test/points":
		if f.failAfter >= 0 && f.upsertCall >= f.failAfter {
			http.Error(w, "overloaded", http.StatusServiceUnavailable)
			return
		}
		f.upsertCall++
		var body struct {
			Points []struct {
				ID      string         `json:"id"`
				Payload map[string]any `json:"payload"`
			} `json:"points"`
		}
		json.NewDecoder(r.Body).Decode(&body)
		for _, p := range body.Points {
			f.points[p.ID] = p.Payload
		}
		w.Write([]byte(`{"result":{"status":"completed"}}`))
	case r.Method == http.MethodPost && r.URL.Path == "/collections/test/points/search":
		results := []map[string]any{}
		for id, payload := range f.points {
			results = append(results, map[string]any{"id": id, "score": 0.5, "payload": payload})
		}
		json.NewEncoder(w).Encode(map[string]any{"result": results})
	case r.Method == http.MethodPost && r.URL.Path == "/collections/test/points":
		var body struct {
			IDs []string `json:"ids"`
		}
		json.NewDecoder(r.Body).Decode(&body)
		results := []map[string]any{}
		for _, id := range body.IDs {
			if _, ok := f.points[id]; ok {
				results = append(results, map[string]any{"id": id})
			}
		}
		json.NewEncoder(w).Encode(map[string]any{"result": results})
	case r.Method == http.MethodPost && r.URL.Path == "/collections/test/points/delete":
		f.deleteCalls++
		var body struct {
			Points []string `json:"points"`
		}
		json.NewDecoder(r.Body).Decode(&body)
		for _, id := range body.Points {
			delete(f.points, id)
		}
		w.Write([]byte(`{"result":{"status":"completed"}}`))
	case r.Method == http.MethodPost && r.URL.Path == "/collections/test/points/count":
		json.NewEncoder(w).Encode(map[string]any{"result": map[string]any{"count": len(f.points)}})
	default:
		http.Error(w, "unexpected "+r.Method+" "+r.URL.Path, http.StatusBadRequest)
	}
}

func vectorItems(n, dim int) []port.VectorItem {
	items := make([]port.VectorItem, n)
	for i := range items {
		vec := make([]float32, dim)
		vec[0] = 1
		items[i] = port.VectorItem{
			ID:       domain.ChunkID("notes.txt", i),
			Vector:   vec,
			Metadata: map[string]string{domain.MetaText: strings.Repeat("x", i+1), domain.MetaSource: "notes.txt"},
		}
	}
	return items
}

func TestStoreCreatesCollectionAndRoundTrips(t *testing.T) {
	fake := newFakeQdrant()
	srv := httptest.NewServer(fake)
	defer srv.Close()

	ctx := context.Background()
	st, err := New(ctx, Config{URL: srv.URL, Collection: "test", Dimension: 4})
	if err != nil {
		t.Fatal(err)
	}
	if fake.size != 4 {
		t.Errorf("expected collection of size 4, got %d", fake.size)
	}

	if err := st.Upsert(ctx, vectorItems(3, 4)); err != nil {
		t.Fatal(err)
	}
	if count, err := st.Count(ctx); err != nil || count != 3 {
		t.Errorf("Count() = %d, %v; want 3", count, err)
	}

	results, err := st.Query(ctx, []float32{1, 0, 0, 0}, 10, true)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	for _, r := range results {
		if !strings.HasPrefix(r.ID, "notes.txt_") {
			t.Errorf("expected original chunk id, got %s", r.ID)
		}
		if r.Metadata[domain.MetaSource] != "notes.txt" {
			t.Errorf("expected source metadata, got %v", r.Metadata)
		}
		if _, ok := r.Metadata[payloadChunkID]; ok {
			t.Errorf("internal chunk id key leaked into metadata")
		}
	}
}

func TestStoreRejectsExistingCollectionOfOtherSize(t *testing.T) {
	fake := newFakeQdrant()
	fake.exists = true
	fake.size = 1536
	srv := httptest.NewServer(fake)
	defer srv.Close()

	_, err := New(context.Background(), Config{URL: srv.URL, Collection: "test", Dimension: 768})
	if !errors.Is(err, domain.ErrDimensionMismatch) {
		t.Errorf("expected ErrDimensionMismatch, got %v", err)
	}
}

func TestStoreReportsPartialUpsert(t *testing.T) {
	fake := newFakeQdrant()
	fake.failAfter = 1
	srv := httptest.NewServer(fake)
	defer srv.Close()

	ctx := context.Background()
	st, err := New(ctx, Config{URL: srv.URL, Collection: "test", Dimension: 2, BatchSize: 2})
	if err != nil {
		t.Fatal(err)
	}

	err = st.Upsert(ctx, vectorItems(5, 2))
	var partial *domain.PartialUpsertError
	if !errors.As(err, &partial) {
		t.Fatalf("expected PartialUpsertError, got %v", err)
	}
	if partial.Stored != 2 || partial.Total != 5 {
		t.Errorf("expected 2 of 5 stored, got %d of %d", partial.Stored, partial.Total)
	}
	if !errors.Is(err, domain.ErrStoreUnavailable) || !domain.IsRetryable(err) {
		t.Errorf("expected retryable ErrStoreUnavailable inside, got %v", err)
	}
}

func TestStoreDeleteReportsRemoved(t *testing.T) {
	fake := newFakeQdrant()
	srv := httptest.NewServer(fake)
	defer srv.Close()

	ctx := context.Background()
	st, err := New(ctx, Config{URL: srv.URL, Collection: "test", Dimension: 2})
	if err != nil {
		t.Fatal(err)
	}
	if err := st.Upsert(ctx, vectorItems(3, 2)); err != nil {
		t.Fatal(err)
	}

	removed, err := st.Delete(ctx, []string{domain.ChunkID("notes.txt", 2), domain.ChunkID("notes.txt", 3)})
	if err != nil {
		t.Fatal(err)
	}
	if removed != 1 {
		t.Errorf("expected 1 removed, got %d", removed)
	}
	if count, _ := st.Count(ctx); count != 2 {
		t.Errorf("expected 2 points left, got %d", count)
	}

	removed, err = st.Delete(ctx, []string{domain.ChunkID("notes.txt", 9)})
	if err != nil || removed != 0 {
		t.Errorf("Delete(missing) = %d, %v; want 0, nil", removed, err)
	}
	if fake.deleteCalls != 1 {
		t.Errorf("expected delete to be skipped when nothing matches, got %d calls", fake.deleteCalls)
	}
}

func TestPointIDIsStable(t *testing.T) {
	if PointID("doc_0") != PointID("doc_0") {
		t.Error("PointID is not deterministic")
	}
	if PointID("doc_0") == PointID("doc_1") {
		t.Error("distinct chunk ids map to the same point")
	}
}
