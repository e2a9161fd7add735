package store

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/dmitrijs2005/dmoclinic/internal/common"
	"github.com/google/uuid"
)

var (
	_ Store  = (*MemoryStore)(nil)
	_ Dumper = (*MemoryStore)(nil)
)

// MemoryStore is a goroutine-safe in-memory Store. The server uses it in
// "memory" mode and tests use it as the remote collaborator.
type MemoryStore struct {
	mu    sync.RWMutex
	docs  map[string]*Document
	newID func() string
}

// NewMemoryStore returns an empty store that names pushed children with
// random UUIDs.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{docs: map[string]*Document{}, newID: uuid.NewString}
}

func (m *MemoryStore) Get(ctx context.Context, path string) (*Document, error) {
	if err := ValidatePath(path); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	doc, ok := m.docs[path]
	if !ok {
		return nil, fmt.Errorf("%s: %w", path, common.ErrorNotFound)
	}
	return clone(doc)
}

func (m *MemoryStore) Set(ctx context.Context, path string, fields map[string]any) (int64, error) {
	if err := ValidatePath(path); err != nil {
		return 0, err
	}
	normalized, err := Normalize(fields)
	if err != nil {
		return 0, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	return m.put(path, normalized), nil
}

func (m *MemoryStore) Update(ctx context.Context, path string, fields map[string]any) (int64, error) {
	if err := ValidatePath(path); err != nil {
		return 0, err
	}
	normalized, err := Normalize(fields)
	if err != nil {
		return 0, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	merged := map[string]any{}
	if doc, ok := m.docs[path]; ok {
		for k, v := range doc.Fields {
			merged[k] = v
		}
	}
	for k, v := range normalized {
		merged[k] = v
	}
	return m.put(path, merged), nil
}

func (m *MemoryStore) CompareAndSet(ctx context.Context, path string, fields map[string]any, version int64) (int64, error) {
	if err := ValidatePath(path); err != nil {
		return 0, err
	}
	normalized, err := Normalize(fields)
	if err != nil {
		return 0, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	var current int64
	if doc, ok := m.docs[path]; ok {
		current = doc.Version
	}
	if current != version {
		return 0, fmt.Errorf("%s: have %d, want %d: %w", path, current, version, common.ErrVersionConflict)
	}
	return m.put(path, normalized), nil
}

func (m *MemoryStore) Push(ctx context.Context, parent string, fields map[string]any) (string, error) {
	if err := ValidatePath(parent); err != nil {
		return "", err
	}
	normalized, err := Normalize(fields)
	if err != nil {
		return "", err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	id := m.newID()
	m.put(Join(parent, id), normalized)
	return id, nil
}

func (m *MemoryStore) List(ctx context.Context, parent string) ([]*Document, error) {
	if err := ValidatePath(parent); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	prefix := parent + "/"
	var out []*Document
	for path, doc := range m.docs {
		rest, ok := strings.CutPrefix(path, prefix)
		if !ok || strings.Contains(rest, "/") {
			continue
		}
		c, err := clone(doc)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	sortByPath(out)
	return out, nil
}

func (m *MemoryStore) Dump(ctx context.Context) ([]*Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*Document, 0, len(m.docs))
	for _, doc := range m.docs {
		c, err := clone(doc)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	sortByPath(out)
	return out, nil
}

// put stores fields under path with the next version. Caller holds m.mu.
func (m *MemoryStore) put(path string, fields map[string]any) int64 {
	var version int64 = 1
	if doc, ok := m.docs[path]; ok {
		version = doc.Version + 1
	}
	m.docs[path] = &Document{Path: path, Fields: fields, Version: version}
	return version
}

func clone(doc *Document) (*Document, error) {
	fields, err := Normalize(doc.Fields)
	if err != nil {
		return nil, err
	}
	return &Document{Path: doc.Path, Fields: fields, Version: doc.Version}, nil
}

func sortByPath(docs []*Document) {
	sort.Slice(docs, func(i, j int) bool { return docs[i].Path < docs[j].Path })
}
