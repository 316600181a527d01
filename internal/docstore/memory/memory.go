// Package memory implements docstore.Store entirely in memory. It backs
// tests and offline development; semantics mirror the postgres
// implementation, including merge and cursor pagination.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/dayhubapp/dayhub/internal/common"
	"github.com/dayhubapp/dayhub/internal/docstore"
)

type Store struct {
	mu          sync.RWMutex
	collections map[string]map[string]docstore.Document
}

func NewStore() *Store {
	return &Store{collections: make(map[string]map[string]docstore.Document)}
}

func (s *Store) Get(ctx context.Context, collection, id string) (docstore.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, ok := s.collections[collection][id]
	if !ok {
		return nil, common.ErrNotFound
	}
	return clone(doc), nil
}

func (s *Store) Set(ctx context.Context, collection, id string, doc docstore.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Run the patch through merge semantics so Delete sentinels never
	// end up stored.
	s.col(collection)[id] = docstore.MergeInto(nil, clone(doc))
	return nil
}

func (s *Store) Merge(ctx context.Context, collection, id string, patch docstore.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	col := s.col(collection)
	col[id] = docstore.MergeInto(col[id], clone(patch))
	return nil
}

func (s *Store) Delete(ctx context.Context, collection, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.collections[collection], id)
	return nil
}

func (s *Store) Query(ctx context.Context, collection string, q docstore.Query) ([]docstore.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []docstore.Document
	for _, doc := range s.collections[collection] {
		if q.OrderBy != "" {
			if _, ok := doc[q.OrderBy]; !ok {
				continue
			}
		}
		result = append(result, clone(doc))
	}

	if q.OrderBy != "" {
		sort.Slice(result, func(i, j int) bool {
			c := compare(result[i][q.OrderBy], result[j][q.OrderBy])
			if q.Descending {
				return c > 0
			}
			return c < 0
		})

		if q.StartAfter != nil {
			filtered := result[:0]
			for _, doc := range result {
				c := compare(doc[q.OrderBy], q.StartAfter)
				if (q.Descending && c < 0) || (!q.Descending && c > 0) {
					filtered = append(filtered, doc)
				}
			}
			result = filtered
		}
	}

	if q.Limit > 0 && len(result) > q.Limit {
		result = result[:q.Limit]
	}
	return result, nil
}

func (s *Store) col(name string) map[string]docstore.Document {
	col, ok := s.collections[name]
	if !ok {
		col = make(map[string]docstore.Document)
		s.collections[name] = col
	}
	return col
}

func clone[M ~map[string]any](m M) M {
	if m == nil {
		return nil
	}
	out := make(M, len(m))
	for k, v := range m {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch value := v.(type) {
	case map[string]any:
		return clone(value)
	case docstore.Document:
		return map[string]any(clone(value))
	case []any:
		out := make([]any, len(value))
		for i, elem := range value {
			out[i] = cloneValue(elem)
		}
		return out
	default:
		return v
	}
}

// compare orders mixed numeric types and strings; values of different
// kinds compare by kind name to keep the sort stable.
func compare(a, b any) int {
	af, aok := toFloat(a)
	bf, bok := toFloat(b)
	if aok && bok {
		switch {
		case af < bf:
			return -1
		case af > bf:
			return 1
		default:
			return 0
		}
	}
	as, aok := a.(string)
	bs, bok := b.(string)
	if aok && bok {
		switch {
		case as < bs:
			return -1
		case as > bs:
			return 1
		default:
			return 0
		}
	}
	return 0
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}
