package domain

// ChunkRecord is one indexed slice of a note as stored in the vector index.
type ChunkRecord struct {
	ID         string            `json:"id"`
	NoteID     string            `json:"note_id"`
	ChunkIndex int               `json:"chunk_index"`
	ChunkTotal int               `json:"chunk_total"`
	Text       string            `json:"text"`
	Vector     []float32         `json:"vector"`
	Metadata   map[string]string `json:"metadata,omitempty"`
}

// RetrievalMatch is one nearest-neighbor search hit.
//
// Distance is the provider-native closeness metric; Similarity is its
// normalized complement in [0,1], higher meaning closer. Similarity must be
// a monotonically decreasing function of Distance.
type RetrievalMatch struct {
	ID         string  `json:"id"`
	NoteID     string  `json:"note_id"`
	Title      string  `json:"title,omitempty"`
	Text       string  `json:"text"`
	Distance   float64 `json:"distance"`
	Similarity float64 `json:"similarity"`
}

// Answer is the query engine output.
//
// Invariant: HasSufficientSources == false implies Sources is empty and
// Confidence is zero.
type Answer struct {
	Content              string           `json:"content"`
	Sources              []string         `json:"sources"`
	Confidence           float64          `json:"confidence"`
	HasSufficientSources bool             `json:"has_sufficient_sources"`
	RelatedNotes         []string         `json:"related_notes"`
	SourceChunks         []RetrievalMatch `json:"source_chunks"`
}
