package rpc

import (
	"fmt"

	"github.com/dmitrijs2005/dmoclinic/internal/common"
	"github.com/dmitrijs2005/dmoclinic/internal/store"
	"google.golang.org/protobuf/types/known/structpb"
)

// Request is the decoded form of a request envelope.
type Request struct {
	Path    string
	Fields  map[string]any
	Version int64
}

// EncodeRequest builds the wire envelope for r.
func EncodeRequest(r Request) (*structpb.Struct, error) {
	fields, err := store.Normalize(r.Fields)
	if err != nil {
		return nil, err
	}
	return structpb.NewStruct(map[string]any{
		"path":    r.Path,
		"fields":  fields,
		"version": float64(r.Version),
	})
}

// DecodeRequest reads a request envelope.
func DecodeRequest(s *structpb.Struct) (Request, error) {
	m := s.AsMap()
	r := Request{
		Path:    store.String(m, "path"),
		Fields:  store.Map(m, "fields"),
		Version: store.Int(m, "version"),
	}
	if err := store.ValidatePath(r.Path); err != nil {
		return Request{}, err
	}
	if r.Fields == nil {
		r.Fields = map[string]any{}
	}
	return r, nil
}

// EncodeDocument builds a document envelope.
func EncodeDocument(d *store.Document) (*structpb.Struct, error) {
	m, err := documentMap(d)
	if err != nil {
		return nil, err
	}
	return structpb.NewStruct(m)
}

// DecodeDocument reads a document envelope.
func DecodeDocument(s *structpb.Struct) (*store.Document, error) {
	return documentFromMap(s.AsMap())
}

// EncodeDocuments builds a list envelope.
func EncodeDocuments(docs []*store.Document) (*structpb.Struct, error) {
	list := make([]any, 0, len(docs))
	for _, d := range docs {
		m, err := documentMap(d)
		if err != nil {
			return nil, err
		}
		list = append(list, m)
	}
	return structpb.NewStruct(map[string]any{"documents": list})
}

// DecodeDocuments reads a list envelope.
func DecodeDocuments(s *structpb.Struct) ([]*store.Document, error) {
	raw, _ := s.AsMap()["documents"].([]any)
	docs := make([]*store.Document, 0, len(raw))
	for _, item := range raw {
		m, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%w: malformed document list", common.ErrInvalidInput)
		}
		d, err := documentFromMap(m)
		if err != nil {
			return nil, err
		}
		docs = append(docs, d)
	}
	return docs, nil
}

// EncodeVersion builds a write reply.
func EncodeVersion(v int64) *structpb.Struct {
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"version": structpb.NewNumberValue(float64(v)),
	}}
}

// DecodeVersion reads a write reply.
func DecodeVersion(s *structpb.Struct) int64 {
	return store.Int(s.AsMap(), "version")
}

// EncodeID builds a push reply.
func EncodeID(id string) *structpb.Struct {
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"id": structpb.NewStringValue(id),
	}}
}

// DecodeID reads a push reply.
func DecodeID(s *structpb.Struct) string {
	return store.String(s.AsMap(), "id")
}

func documentMap(d *store.Document) (map[string]any, error) {
	fields, err := store.Normalize(d.Fields)
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"path":    d.Path,
		"fields":  fields,
		"version": float64(d.Version),
	}, nil
}

func documentFromMap(m map[string]any) (*store.Document, error) {
	d := &store.Document{
		Path:    store.String(m, "path"),
		Fields:  store.Map(m, "fields"),
		Version: store.Int(m, "version"),
	}
	if d.Path == "" {
		return nil, fmt.Errorf("%w: document without path", common.ErrInvalidInput)
	}
	if d.Fields == nil {
		d.Fields = map[string]any{}
	}
	return d, nil
}
