// Package documents persists store documents in PostgreSQL.
package documents

import "github.com/dmitrijs2005/dmoclinic/internal/store"

// Repository is the server-side document store.
type Repository interface {
	store.Store
	store.Dumper
}
