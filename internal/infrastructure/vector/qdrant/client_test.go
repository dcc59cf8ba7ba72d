package qdrant

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/mzolotarev/notegraph/internal/core/domain"
)

func testRecords() []domain.ChunkRecord {
	return []domain.ChunkRecord{
		{
			ID:         "note_a_chunk_0",
			NoteID:     "note_a",
			ChunkIndex: 0,
			ChunkTotal: 2,
			Text:       "first chunk",
			Vector:     []float32{0.1, 0.2},
			Metadata:   map[string]string{"title": "Graphs"},
		},
		{
			ID:         "note_a_chunk_1",
			NoteID:     "note_a",
			ChunkIndex: 1,
			ChunkTotal: 2,
			Text:       "second chunk",
			Vector:     []float32{0.3, 0.4},
			Metadata:   map[string]string{"title": "Graphs"},
		},
	}
}

func TestAddRecordsEnsuresCollectionOncePerVectorSize(t *testing.T) {
	var ensureCalls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPut && r.URL.Path == "/collections/notes":
			atomic.AddInt32(&ensureCalls, 1)
			w.WriteHeader(http.StatusCreated)
		case r.Method == http.MethodPut && r.URL.Path == "/collections/notes/points":
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`{"status":"ok"}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	client := New(server.URL, "notes")
	if err := client.AddRecords(context.Background(), testRecords()); err != nil {
		t.Fatalf("first AddRecords() error = %v", err)
	}
	if err := client.AddRecords(context.Background(), testRecords()); err != nil {
		t.Fatalf("second AddRecords() error = %v", err)
	}
	if got := atomic.LoadInt32(&ensureCalls); got != 1 {
		t.Fatalf("expected ensure collection called once, got %d", got)
	}
}

func TestAddRecordsDeterministicPointIDs(t *testing.T) {
	var pointIDs []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPut && r.URL.Path == "/collections/notes":
			w.WriteHeader(http.StatusOK)
		case r.Method == http.MethodPut && r.URL.Path == "/collections/notes/points":
			var body struct {
				Points []struct {
					ID      string         `json:"id"`
					Payload map[string]any `json:"payload"`
				} `json:"points"`
			}
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
				t.Errorf("decode points body: %v", err)
			}
			for _, p := range body.Points {
				pointIDs = append(pointIDs, p.ID)
				if p.Payload["note_id"] != "note_a" {
					t.Errorf("expected note_id payload, got %v", p.Payload)
				}
			}
			w.WriteHeader(http.StatusOK)
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	client := New(server.URL, "notes")
	if err := client.AddRecords(context.Background(), testRecords()); err != nil {
		t.Fatalf("AddRecords() error = %v", err)
	}
	if err := client.AddRecords(context.Background(), testRecords()); err != nil {
		t.Fatalf("AddRecords() error = %v", err)
	}

	if len(pointIDs) != 4 {
		t.Fatalf("expected 4 recorded points, got %d", len(pointIDs))
	}
	if pointIDs[0] != pointIDs[2] || pointIDs[1] != pointIDs[3] {
		t.Fatalf("expected stable point ids across re-ingestion, got %v", pointIDs)
	}
	if pointIDs[0] == pointIDs[1] {
		t.Fatal("distinct records must map to distinct point ids")
	}
}

func TestSearchMapsScoreToDistanceAndSimilarity(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost && r.URL.Path == "/collections/notes/points/search" {
			_, _ = w.Write([]byte(`{"result":[
				{"score":0.8,"payload":{"record_id":"note_a_chunk_0","note_id":"note_a","title":"Graphs","text":"first chunk"}},
				{"score":-0.2,"payload":{"record_id":"note_b_chunk_0","note_id":"note_b","text":"other"}}
			]}`))
			return
		}
		http.NotFound(w, r)
	}))
	defer server.Close()

	client := New(server.URL, "notes")
	matches, err := client.Search(context.Background(), []float32{0.1, 0.2}, 5)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(matches) != 2 {
		t.Fatalf("expected 2 matches, got %d", len(matches))
	}

	first := matches[0]
	if first.ID != "note_a_chunk_0" || first.NoteID != "note_a" || first.Title != "Graphs" {
		t.Fatalf("unexpected match fields: %+v", first)
	}
	if math.Abs(first.Distance-0.2) > 1e-9 || math.Abs(first.Similarity-0.9) > 1e-9 {
		t.Fatalf("unexpected score mapping: distance=%v similarity=%v", first.Distance, first.Similarity)
	}
	if math.Abs(matches[1].Similarity-0.4) > 1e-9 {
		t.Fatalf("negative score must map into [0,1], got %v", matches[1].Similarity)
	}
	if matches[0].Similarity <= matches[1].Similarity {
		t.Fatal("similarity must decrease with distance")
	}
}

func TestSearchMissingCollectionReturnsEmpty(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer server.Close()

	client := New(server.URL, "notes")
	matches, err := client.Search(context.Background(), []float32{0.1}, 5)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(matches) != 0 {
		t.Fatalf("expected no matches for missing collection, got %v", matches)
	}
}

func TestSearchUnreachableIndexTypedError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	server.Close()

	client := New(server.URL, "notes")
	_, err := client.Search(context.Background(), []float32{0.1}, 5)
	if !domain.IsKind(err, domain.ErrIndexUnavailable) {
		t.Fatalf("expected index-unavailable error, got %v", err)
	}
}

func TestDeleteByNoteSendsFilter(t *testing.T) {
	var gotFilter string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost && r.URL.Path == "/collections/notes/points/delete" {
			var body map[string]any
			_ = json.NewDecoder(r.Body).Decode(&body)
			raw, _ := json.Marshal(body["filter"])
			gotFilter = string(raw)
			w.WriteHeader(http.StatusOK)
			return
		}
		http.NotFound(w, r)
	}))
	defer server.Close()

	client := New(server.URL, "notes")
	if err := client.DeleteByNote(context.Background(), "note_a"); err != nil {
		t.Fatalf("DeleteByNote() error = %v", err)
	}
	if !strings.Contains(gotFilter, `"note_id"`) || !strings.Contains(gotFilter, `"note_a"`) {
		t.Fatalf("expected note_id filter, got %s", gotFilter)
	}
}

func TestDeleteByNoteMissingCollectionIsNoop(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer server.Close()

	client := New(server.URL, "notes")
	if err := client.DeleteByNote(context.Background(), "note_a"); err != nil {
		t.Fatalf("expected missing collection tolerated, got %v", err)
	}
}

func TestCountMissingCollectionIsZero(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer server.Close()

	client := New(server.URL, "notes")
	count, err := client.Count(context.Background())
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if count != 0 {
		t.Fatalf("expected zero count, got %d", count)
	}
}

func TestCountParsesResult(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost && r.URL.Path == "/collections/notes/points/count" {
			_, _ = w.Write([]byte(`{"result":{"count":42}}`))
			return
		}
		http.NotFound(w, r)
	}))
	defer server.Close()

	client := New(server.URL, "notes")
	count, err := client.Count(context.Background())
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if count != 42 {
		t.Fatalf("expected 42, got %d", count)
	}
}

func TestEnsureCollectionIncludesResponseBodyInError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPut && r.URL.Path == "/collections/notes" {
			http.Error(w, "boom", http.StatusInternalServerError)
			return
		}
		http.NotFound(w, r)
	}))
	defer server.Close()

	client := New(server.URL, "notes")
	err := client.AddRecords(context.Background(), testRecords())
	if err == nil || !strings.Contains(err.Error(), "boom") {
		t.Fatalf("expected error to include body, got %v", err)
	}
}
