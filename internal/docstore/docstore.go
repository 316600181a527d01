// Package docstore defines the remote document store contract the portal
// persists into: schemaless JSON documents addressed by collection and id,
// with merge-writes, a field-delete sentinel, and ordered cursor-paginated
// queries. Implementations: postgres (JSONB) and memory (tests/offline).
package docstore

import (
	"context"

	"github.com/dayhubapp/dayhub/internal/docval"
)

// Document is a schemaless JSON-like document. Values are the usual
// encoding/json shapes plus the docval.Delete sentinel inside merge patches.
type Document map[string]any

// Query describes an ordered, limited, cursor-paginated collection read.
// A zero Query returns the whole collection in unspecified order.
type Query struct {
	// OrderBy names the document field holding the sort key.
	OrderBy string

	// Descending orders largest-first when set.
	Descending bool

	// StartAfter is an exclusive cursor on the OrderBy field: only
	// documents strictly past it (in query order) are returned. Nil
	// starts from the beginning.
	StartAfter any

	// Limit caps the number of returned documents; <= 0 means no cap.
	Limit int
}

// Store is the remote document store collaborator.
type Store interface {
	// Get returns the document or common.ErrNotFound.
	Get(ctx context.Context, collection, id string) (Document, error)

	// Set creates or fully replaces the document.
	Set(ctx context.Context, collection, id string, doc Document) error

	// Merge deep-merges patch into the stored document, creating it if
	// absent. Map fields merge recursively; scalars and arrays replace;
	// a docval.Delete value removes the field.
	Merge(ctx context.Context, collection, id string, patch Document) error

	// Delete removes the document. Deleting a missing document is not
	// an error.
	Delete(ctx context.Context, collection, id string) error

	// Query returns documents matching q.
	Query(ctx context.Context, collection string, q Query) ([]Document, error)
}

// MergeInto applies patch onto dst following Merge semantics and returns
// dst. Shared by store implementations.
func MergeInto(dst, patch map[string]any) map[string]any {
	if dst == nil {
		dst = make(map[string]any, len(patch))
	}
	for k, v := range patch {
		if _, del := v.(docval.Delete); del {
			delete(dst, k)
			continue
		}
		pm, pok := v.(map[string]any)
		dm, dok := dst[k].(map[string]any)
		if pok && dok {
			dst[k] = MergeInto(dm, pm)
			continue
		}
		if pok {
			dst[k] = MergeInto(nil, pm)
			continue
		}
		dst[k] = v
	}
	return dst
}
