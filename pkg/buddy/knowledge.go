package buddy

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Document is one user-provided text added to the knowledge base.
type Document struct {
	ID      string    `json:"id"`
	Name    string    `json:"name"`
	Content string    `json:"content"`
	Active  bool      `json:"active"`
	AddedAt time.Time `json:"added_at"`
}

// Knowledge stores the documents the companion can draw on during a
// conversation. Only active documents feed the system prompt.
type Knowledge struct {
	mu   sync.RWMutex
	docs []Document
	path string
}

// NewKnowledge creates an in-memory knowledge base (no persistence).
func NewKnowledge() *Knowledge {
	return &Knowledge{}
}

// NewKnowledgeWithFile creates a knowledge base that persists to a
// JSON file, loading existing documents if the file exists.
func NewKnowledgeWithFile(path string) *Knowledge {
	k := &Knowledge{path: path}
	_ = k.load()
	return k
}

// Add stores a document and marks it active.
func (k *Knowledge) Add(name, content string) Document {
	doc := Document{
		ID:      uuid.NewString(),
		Name:    name,
		Content: content,
		Active:  true,
		AddedAt: time.Now(),
	}

	k.mu.Lock()
	k.docs = append(k.docs, doc)
	k.mu.Unlock()

	_ = k.save()
	return doc
}

// Remove deletes a document by ID. Returns false if not found.
func (k *Knowledge) Remove(id string) bool {
	k.mu.Lock()
	found := false
	for i, doc := range k.docs {
		if doc.ID == id {
			k.docs = append(k.docs[:i], k.docs[i+1:]...)
			found = true
			break
		}
	}
	k.mu.Unlock()

	if found {
		_ = k.save()
	}
	return found
}

// Toggle flips whether a document feeds the system prompt.
func (k *Knowledge) Toggle(id string, active bool) bool {
	k.mu.Lock()
	found := false
	for i := range k.docs {
		if k.docs[i].ID == id {
			k.docs[i].Active = active
			found = true
			break
		}
	}
	k.mu.Unlock()

	if found {
		_ = k.save()
	}
	return found
}

// List returns all documents, newest last.
func (k *Knowledge) List() []Document {
	k.mu.RLock()
	defer k.mu.RUnlock()
	out := make([]Document, len(k.docs))
	copy(out, k.docs)
	return out
}

// ActiveContext concatenates the active documents into the block
// embedded in the system prompt.
func (k *Knowledge) ActiveContext() string {
	k.mu.RLock()
	defer k.mu.RUnlock()

	var parts []string
	for _, doc := range k.docs {
		if doc.Active {
			parts = append(parts, fmt.Sprintf("--- Document: %s ---\n%s", doc.Name, doc.Content))
		}
	}
	return strings.Join(parts, "\n\n")
}

func (k *Knowledge) save() error {
	if k.path == "" {
		return nil
	}

	k.mu.RLock()
	data, err := json.MarshalIndent(k.docs, "", "  ")
	k.mu.RUnlock()
	if err != nil {
		return err
	}

	dir := filepath.Dir(k.path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory: %w", err)
		}
	}
	return os.WriteFile(k.path, data, 0o644)
}

func (k *Knowledge) load() error {
	if k.path == "" {
		return nil
	}

	data, err := os.ReadFile(k.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read knowledge file: %w", err)
	}

	var docs []Document
	if err := json.Unmarshal(data, &docs); err != nil {
		return err
	}

	k.mu.Lock()
	k.docs = docs
	k.mu.Unlock()
	return nil
}
