package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

type NoteStatus string

const (
	StatusPending    NoteStatus = "pending"
	StatusProcessing NoteStatus = "processing"
	StatusReady      NoteStatus = "ready"
	StatusFailed     NoteStatus = "failed"
)

type SourceType string

const (
	SourceWeb         SourceType = "web"
	SourcePDF         SourceType = "pdf"
	SourceMarkdown    SourceType = "markdown"
	SourceImage       SourceType = "image"
	SourceSpreadsheet SourceType = "spreadsheet"
)

// Note is one ingested unit of content: a fetched page, a parsed file.
type Note struct {
	ID         string            `json:"id"`
	SourceType SourceType        `json:"source_type"`
	SourcePath string            `json:"source_path"`
	Title      string            `json:"title,omitempty"`
	Content    string            `json:"content,omitempty"`
	Metadata   map[string]string `json:"metadata,omitempty"`
	Tags       []string          `json:"tags,omitempty"`
	VectorIDs  []string          `json:"vector_ids,omitempty"`
	Status     NoteStatus        `json:"status"`
	Error      string            `json:"error,omitempty"`
	CreatedAt  time.Time         `json:"created_at"`
	UpdatedAt  time.Time         `json:"updated_at"`
}

// NoteID derives the stable note identifier from the source coordinates.
// The same source always maps to the same id, so re-adding a page or file
// replaces the earlier note instead of duplicating it.
func NoteID(sourceType SourceType, sourcePath string) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s:%s", sourceType, sourcePath)))
	return "note_" + hex.EncodeToString(sum[:])[:16]
}

// Entity is a knowledge-graph node extracted from note content.
type Entity struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Type        string `json:"type"`
	Description string `json:"description,omitempty"`
}

// Relation links two extracted entities by name.
type Relation struct {
	Source string `json:"source"`
	Target string `json:"target"`
	Type   string `json:"type"`
}

// EntityID derives a stable entity identifier from the entity name.
func EntityID(name string) string {
	sum := sha256.Sum256([]byte(name))
	return hex.EncodeToString(sum[:])[:12]
}
