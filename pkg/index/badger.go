package index

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/dgraph-io/badger/v4"
)

// BadgerStore implements Store on an embedded BadgerDB database with a
// brute-force cosine scan. It trades query speed for zero operational
// dependencies and is the backend used in tests and single-node deployments.
type BadgerStore struct {
	db *badger.DB
}

// key layout: c!<collection> for collection metadata,
// d!<collection>!<id> for documents.
const (
	collPrefix = "c!"
	docPrefix  = "d!"
)

type badgerRecord struct {
	Vector   []float32         `json:"vector"`
	Metadata map[string]string `json:"metadata,omitempty"`
	Document string            `json:"document,omitempty"`
}

// NewBadgerStore opens (or creates) a Badger database at path. An empty path
// opens an in-memory database.
func NewBadgerStore(path string) (*BadgerStore, error) {
	var opts badger.Options
	if path == "" {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		opts = badger.DefaultOptions(path)
	}
	opts = opts.WithLogger(nil)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger store: %w", err)
	}
	return &BadgerStore{db: db}, nil
}

func collKey(name string) []byte {
	return []byte(collPrefix + name)
}

func docKey(collection, id string) []byte {
	return []byte(docPrefix + collection + "!" + id)
}

func (s *BadgerStore) collectionExists(txn *badger.Txn, name string) error {
	_, err := txn.Get(collKey(name))
	if err == badger.ErrKeyNotFound {
		return ErrCollectionNotFound
	}
	return err
}

// GetOrCreateCollection implements Store. Collection names must not contain
// '!', the key-layout separator: a name like "a!b" would otherwise alias the
// document keyspace of collection "a".
func (s *BadgerStore) GetOrCreateCollection(ctx context.Context, name string, metadata map[string]string) (*CollectionInfo, error) {
	if strings.ContainsRune(name, '!') {
		return nil, &ValidationError{Field: "name", Reason: "must not contain '!'"}
	}

	info := &CollectionInfo{Name: name, Metadata: metadata}

	err := s.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get(collKey(name))
		if err == nil {
			return item.Value(func(val []byte) error {
				return json.Unmarshal(val, info)
			})
		}
		if err != badger.ErrKeyNotFound {
			return err
		}

		data, err := json.Marshal(info)
		if err != nil {
			return err
		}
		return txn.Set(collKey(name), data)
	})
	if err != nil {
		return nil, &StoreError{Op: "create collection", Err: err}
	}
	return info, nil
}

// AddDocuments implements Store.
func (s *BadgerStore) AddDocuments(ctx context.Context, collection string, ids []string, vectors [][]float32, metadatas []map[string]string, documents []string) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		if err := s.collectionExists(txn, collection); err != nil {
			return err
		}

		for i, id := range ids {
			record := badgerRecord{Vector: vectors[i]}
			if metadatas != nil {
				record.Metadata = metadatas[i]
			}
			if documents != nil {
				record.Document = documents[i]
			}

			data, err := json.Marshal(record)
			if err != nil {
				return err
			}
			if err := txn.Set(docKey(collection, id), data); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return &StoreError{Op: "add", Err: err}
	}
	return nil
}

// cosineDistance returns 1 - cosine similarity.
func cosineDistance(a, b []float32) float32 {
	var dot, normA, normB float64
	for i := range a {
		if i >= len(b) {
			break
		}
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 1
	}
	return float32(1 - dot/(math.Sqrt(normA)*math.Sqrt(normB)))
}

func matchesFilter(metadata, filter map[string]string) bool {
	for k, v := range filter {
		if metadata[k] != v {
			return false
		}
	}
	return true
}

// Query implements Store with a full scan over the collection.
func (s *BadgerStore) Query(ctx context.Context, collection string, vector []float32, topK int, filter map[string]string) (*QueryResult, error) {
	type scored struct {
		id       string
		distance float32
		record   badgerRecord
	}

	var matches []scored

	err := s.db.View(func(txn *badger.Txn) error {
		if err := s.collectionExists(txn, collection); err != nil {
			return err
		}

		prefix := []byte(docPrefix + collection + "!")
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}

			item := it.Item()
			var record badgerRecord
			if err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &record)
			}); err != nil {
				return err
			}

			if len(filter) > 0 && !matchesFilter(record.Metadata, filter) {
				continue
			}

			id := strings.TrimPrefix(string(item.Key()), string(prefix))
			matches = append(matches, scored{
				id:       id,
				distance: cosineDistance(vector, record.Vector),
				record:   record,
			})
		}
		return nil
	})
	if err != nil {
		return nil, &StoreError{Op: "query", Err: err}
	}

	sort.Slice(matches, func(i, j int) bool {
		return matches[i].distance < matches[j].distance
	})
	if len(matches) > topK {
		matches = matches[:topK]
	}

	result := &QueryResult{
		IDs:       make([]string, len(matches)),
		Distances: make([]float32, len(matches)),
		Metadatas: make([]map[string]string, len(matches)),
		Documents: make([]string, len(matches)),
	}
	for i, m := range matches {
		result.IDs[i] = m.id
		result.Distances[i] = m.distance
		result.Metadatas[i] = m.record.Metadata
		result.Documents[i] = m.record.Document
	}
	return result, nil
}

// UpdateDocuments implements Store. Missing ids are an error.
func (s *BadgerStore) UpdateDocuments(ctx context.Context, collection string, ids []string, vectors [][]float32, metadatas []map[string]string, documents []string) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		if err := s.collectionExists(txn, collection); err != nil {
			return err
		}

		for i, id := range ids {
			item, err := txn.Get(docKey(collection, id))
			if err == badger.ErrKeyNotFound {
				return fmt.Errorf("document %q not found", id)
			}
			if err != nil {
				return err
			}

			var record badgerRecord
			if err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &record)
			}); err != nil {
				return err
			}

			if vectors != nil {
				record.Vector = vectors[i]
			}
			if metadatas != nil {
				record.Metadata = metadatas[i]
			}
			if documents != nil {
				record.Document = documents[i]
			}

			data, err := json.Marshal(record)
			if err != nil {
				return err
			}
			if err := txn.Set(docKey(collection, id), data); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return &StoreError{Op: "update", Err: err}
	}
	return nil
}

// DeleteDocuments implements Store.
func (s *BadgerStore) DeleteDocuments(ctx context.Context, collection string, ids []string) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		if err := s.collectionExists(txn, collection); err != nil {
			return err
		}
		for _, id := range ids {
			if err := txn.Delete(docKey(collection, id)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return &StoreError{Op: "delete", Err: err}
	}
	return nil
}

// DeleteCollection implements Store.
func (s *BadgerStore) DeleteCollection(ctx context.Context, name string) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		prefix := []byte(docPrefix + name + "!")
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		opts.PrefetchValues = false

		it := txn.NewIterator(opts)
		var keys [][]byte
		for it.Rewind(); it.Valid(); it.Next() {
			keys = append(keys, it.Item().KeyCopy(nil))
		}
		it.Close()

		for _, key := range keys {
			if err := txn.Delete(key); err != nil {
				return err
			}
		}
		return txn.Delete(collKey(name))
	})
	if err != nil {
		return &StoreError{Op: "delete collection", Err: err}
	}
	return nil
}

// ListCollections implements Store.
func (s *BadgerStore) ListCollections(ctx context.Context) ([]string, error) {
	var names []string
	err := s.db.View(func(txn *badger.Txn) error {
		prefix := []byte(collPrefix)
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		opts.PrefetchValues = false

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			names = append(names, strings.TrimPrefix(string(it.Item().Key()), collPrefix))
		}
		return nil
	})
	if err != nil {
		return nil, &StoreError{Op: "list collections", Err: err}
	}
	return names, nil
}

// DescribeCollection implements Store.
func (s *BadgerStore) DescribeCollection(ctx context.Context, name string) (*CollectionInfo, error) {
	info := &CollectionInfo{}
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(collKey(name))
		if err == badger.ErrKeyNotFound {
			return ErrCollectionNotFound
		}
		if err != nil {
			return err
		}
		if err := item.Value(func(val []byte) error {
			return json.Unmarshal(val, info)
		}); err != nil {
			return err
		}

		prefix := []byte(docPrefix + name + "!")
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		opts.PrefetchValues = false

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			info.Count++
		}
		return nil
	})
	if err != nil {
		return nil, &StoreError{Op: "describe collection", Err: err}
	}
	return info, nil
}

// Close implements Store.
func (s *BadgerStore) Close() error {
	return s.db.Close()
}
