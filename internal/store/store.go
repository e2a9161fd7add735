package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/dmoclinic/internal/common"
)

// Document is a single record of the remote store.
type Document struct {
	Path    string
	Fields  map[string]any
	Version int64
}

// ID returns the last path segment.
func (d *Document) ID() string {
	return Base(d.Path)
}

// Store is the path-addressed document store.
//
// Get returns common.ErrorNotFound for missing documents. CompareAndSet with
// version 0 creates the document only if it does not exist yet; any other
// version must match the stored one, otherwise common.ErrVersionConflict is
// returned.
type Store interface {
	Get(ctx context.Context, path string) (*Document, error)
	Set(ctx context.Context, path string, fields map[string]any) (int64, error)
	Update(ctx context.Context, path string, fields map[string]any) (int64, error)
	CompareAndSet(ctx context.Context, path string, fields map[string]any, version int64) (int64, error)
	Push(ctx context.Context, parent string, fields map[string]any) (string, error)
	List(ctx context.Context, parent string) ([]*Document, error)
}

// Dumper is implemented by stores that can enumerate every document.
type Dumper interface {
	Dump(ctx context.Context) ([]*Document, error)
}

// Join builds a path from segments.
func Join(segments ...string) string {
	return strings.Join(segments, "/")
}

// Base returns the last segment of path.
func Base(path string) string {
	if i := strings.LastIndex(path, "/"); i >= 0 {
		return path[i+1:]
	}
	return path
}

// Parent returns everything before the last segment, or "" for top-level paths.
func Parent(path string) string {
	if i := strings.LastIndex(path, "/"); i >= 0 {
		return path[:i]
	}
	return ""
}

// ValidatePath rejects empty paths and paths with empty segments.
func ValidatePath(path string) error {
	if path == "" {
		return fmt.Errorf("%w: empty path", common.ErrInvalidInput)
	}
	for _, seg := range strings.Split(path, "/") {
		if strings.TrimSpace(seg) == "" {
			return fmt.Errorf("%w: malformed path %q", common.ErrInvalidInput, path)
		}
	}
	return nil
}

// Normalize converts fields to plain JSON types. A nil map becomes empty.
func Normalize(fields map[string]any) (map[string]any, error) {
	if len(fields) == 0 {
		return map[string]any{}, nil
	}
	b, err := json.Marshal(fields)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrInvalidInput, err)
	}
	out := map[string]any{}
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrInvalidInput, err)
	}
	return out, nil
}

// ErrNoChange is returned by a Modify callback to leave the document as is.
var ErrNoChange = errors.New("no change")

// DefaultAttempts bounds the compare-and-set retry loop in Modify.
const DefaultAttempts = 5

// Modify performs an optimistic read-modify-write of the document at path.
//
// fn receives a copy of the current fields (nil when the document does not
// exist) and returns the full replacement. The write is a CompareAndSet
// against the version that was read; on common.ErrVersionConflict the cycle
// is repeated, at most attempts times. If fn returns ErrNoChange, nothing is
// written and the current document is returned (nil if it does not exist).
func Modify(ctx context.Context, s Store, path string, attempts int,
	fn func(fields map[string]any) (map[string]any, error)) (*Document, error) {

	if attempts <= 0 {
		attempts = DefaultAttempts
	}

	for i := 0; i < attempts; i++ {
		var current map[string]any
		var version int64

		doc, err := s.Get(ctx, path)
		switch {
		case err == nil:
			current = copyFields(doc.Fields)
			version = doc.Version
		case errors.Is(err, common.ErrorNotFound):
			doc = nil
		default:
			return nil, err
		}

		next, err := fn(current)
		if errors.Is(err, ErrNoChange) {
			return doc, nil
		}
		if err != nil {
			return nil, err
		}

		v, err := s.CompareAndSet(ctx, path, next, version)
		if errors.Is(err, common.ErrVersionConflict) {
			continue
		}
		if err != nil {
			return nil, err
		}

		normalized, err := Normalize(next)
		if err != nil {
			return nil, err
		}
		return &Document{Path: path, Fields: normalized, Version: v}, nil
	}

	return nil, fmt.Errorf("%s: %w after %d attempts", path, common.ErrVersionConflict, attempts)
}

func copyFields(fields map[string]any) map[string]any {
	out := make(map[string]any, len(fields))
	for k, v := range fields {
		out[k] = v
	}
	return out
}
