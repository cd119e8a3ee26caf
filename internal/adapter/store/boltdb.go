package store

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"go.etcd.io/bbolt"

	"florify/internal/domain"
)

var (
	bucketEntries = []byte("entries")
	bucketVectors = []byte("vectors")
	bucketMeta    = []byte("meta")
	keyMeta       = []byte("corpus_meta")
)

// ErrCorpusArtifact marks a corpus that cannot be loaded at all: missing
// file, missing bucket, or an entry/vector misalignment. It is a hard
// failure, never degraded to a partial result.
var ErrCorpusArtifact = errors.New("corpus artifact unavailable")

// CorpusStore persists the corpus artifact in a bbolt database. Rows are
// keyed by 8-byte big-endian index so bucket iteration preserves corpus
// order; row i of the vectors bucket belongs to row i of the entries bucket.
type CorpusStore struct {
	db *bbolt.DB
}

type entryRecord struct {
	EmptyID  string `json:"empty_id"`
	FilledID string `json:"filled_id"`
}

type vectorRecord struct {
	V []float32 `json:"v"`
}

// Create opens (or creates) a corpus artifact for writing. Used by the
// corpus builder.
func Create(path string) (*CorpusStore, error) {
	db, err := bbolt.Open(path, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open corpus db: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, b := range [][]byte{bucketEntries, bucketVectors, bucketMeta} {
			if _, err := tx.CreateBucketIfNotExists(b); err != nil {
				return fmt.Errorf("failed to create bucket %s: %w", b, err)
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &CorpusStore{db: db}, nil
}

// Open opens an existing corpus artifact read-only. A missing file is a
// configuration error, not a not-found outcome.
func Open(path string) (*CorpusStore, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrCorpusArtifact, path)
	}

	db, err := bbolt.Open(path, 0600, &bbolt.Options{ReadOnly: true})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorpusArtifact, err)
	}

	return &CorpusStore{db: db}, nil
}

func (s *CorpusStore) Close() error {
	return s.db.Close()
}

func rowKey(i int) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, uint64(i))
	return key
}

// PutEntry writes one corpus row: the pair identifiers and their embedding.
func (s *CorpusStore) PutEntry(row int, entry domain.CorpusEntry) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		rec, err := json.Marshal(entryRecord{
			EmptyID:  entry.EmptyID,
			FilledID: entry.FilledID,
		})
		if err != nil {
			return err
		}
		vec, err := json.Marshal(vectorRecord{V: entry.Embedding})
		if err != nil {
			return err
		}

		key := rowKey(row)
		if err := tx.Bucket(bucketEntries).Put(key, rec); err != nil {
			return err
		}
		return tx.Bucket(bucketVectors).Put(key, vec)
	})
}

// PutMeta writes the optional corpus metadata blob.
func (s *CorpusStore) PutMeta(meta domain.CorpusMeta) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		data, err := json.Marshal(meta)
		if err != nil {
			return err
		}
		return tx.Bucket(bucketMeta).Put(keyMeta, data)
	})
}

// Load hydrates the full corpus into memory in row order. It fails with
// ErrCorpusArtifact when the buckets are absent, entry and vector counts
// disagree, or any vector has the wrong dimension.
func (s *CorpusStore) Load(dimension int) ([]domain.CorpusEntry, *domain.CorpusMeta, error) {
	var entries []domain.CorpusEntry
	var meta *domain.CorpusMeta

	err := s.db.View(func(tx *bbolt.Tx) error {
		eb := tx.Bucket(bucketEntries)
		vb := tx.Bucket(bucketVectors)
		if eb == nil || vb == nil {
			return fmt.Errorf("%w: corpus buckets missing", ErrCorpusArtifact)
		}

		if eb.Stats().KeyN != vb.Stats().KeyN {
			return fmt.Errorf("%w: %d entries but %d vectors",
				ErrCorpusArtifact, eb.Stats().KeyN, vb.Stats().KeyN)
		}

		entries = make([]domain.CorpusEntry, 0, eb.Stats().KeyN)
		err := eb.ForEach(func(k, v []byte) error {
			var rec entryRecord
			if err := json.Unmarshal(v, &rec); err != nil {
				return fmt.Errorf("%w: corrupt entry %x: %v", ErrCorpusArtifact, k, err)
			}

			data := vb.Get(k)
			if data == nil {
				return fmt.Errorf("%w: no vector for row %x", ErrCorpusArtifact, k)
			}
			var vec vectorRecord
			if err := json.Unmarshal(data, &vec); err != nil {
				return fmt.Errorf("%w: corrupt vector %x: %v", ErrCorpusArtifact, k, err)
			}
			if dimension > 0 && len(vec.V) != dimension {
				return fmt.Errorf("%w: row %x has dimension %d, want %d",
					ErrCorpusArtifact, k, len(vec.V), dimension)
			}

			entries = append(entries, domain.CorpusEntry{
				EmptyID:   rec.EmptyID,
				FilledID:  rec.FilledID,
				Embedding: vec.V,
			})
			return nil
		})
		if err != nil {
			return err
		}

		if mb := tx.Bucket(bucketMeta); mb != nil {
			if data := mb.Get(keyMeta); data != nil {
				var m domain.CorpusMeta
				if err := json.Unmarshal(data, &m); err == nil {
					meta = &m
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	return entries, meta, nil
}

// Count returns the number of corpus rows.
func (s *CorpusStore) Count() (int, error) {
	var n int
	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketEntries)
		if b == nil {
			return fmt.Errorf("%w: entries bucket missing", ErrCorpusArtifact)
		}
		n = b.Stats().KeyN
		return nil
	})
	return n, err
}
