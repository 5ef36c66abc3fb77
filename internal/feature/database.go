// Package feature provides the immutable catalog feature store: precomputed
// garment embeddings with category labels and item image paths, loaded once
// at startup and shared read-only across requests.
package feature

import (
	"fmt"

	"github.com/hyperjump/kimawashi/pkg/utils"
)

// Snapshot is the raw four-field schema read from a persisted source before
// validation: N vectors, N labels, N item paths and C class names.
type Snapshot struct {
	Vectors [][]float32
	Labels  []int
	Paths   []string
	Classes []string
}

// Database is the validated, normalized feature store. Immutable after New;
// safe for concurrent readers without locking.
type Database struct {
	vectors [][]float32
	labels  []int
	paths   []string
	classes []string
	classOf map[string]int
	// byClass maps class index to store row indices in ascending order,
	// so per-category search never rescans the label slice.
	byClass [][]int
	dim     int
}

// New validates snap against the store invariants, rescales every vector to
// unit L2 norm and builds the per-class inverse index. The snapshot slices
// are copied; callers may reuse them. Returns ErrInvalidSnapshot for schema
// violations and ErrDegenerateVector for zero-norm vectors.
func New(snap *Snapshot) (*Database, error) {
	if snap == nil {
		return nil, fmt.Errorf("%w: nil snapshot", ErrInvalidSnapshot)
	}
	n := len(snap.Vectors)
	if n == 0 {
		return nil, fmt.Errorf("%w: no vectors", ErrInvalidSnapshot)
	}
	if len(snap.Labels) != n || len(snap.Paths) != n {
		return nil, fmt.Errorf("%w: misaligned fields: %d vectors, %d labels, %d paths",
			ErrInvalidSnapshot, n, len(snap.Labels), len(snap.Paths))
	}
	if len(snap.Classes) == 0 {
		return nil, fmt.Errorf("%w: no classes", ErrInvalidSnapshot)
	}

	classOf := make(map[string]int, len(snap.Classes))
	for i, name := range snap.Classes {
		if name == "" {
			return nil, fmt.Errorf("%w: empty class name at index %d", ErrInvalidSnapshot, i)
		}
		if _, dup := classOf[name]; dup {
			return nil, fmt.Errorf("%w: duplicate class %q", ErrInvalidSnapshot, name)
		}
		classOf[name] = i
	}

	dim := len(snap.Vectors[0])
	if dim == 0 {
		return nil, fmt.Errorf("%w: zero-dimension vectors", ErrInvalidSnapshot)
	}

	db := &Database{
		vectors: make([][]float32, n),
		labels:  make([]int, n),
		paths:   make([]string, n),
		classes: append([]string(nil), snap.Classes...),
		classOf: classOf,
		byClass: make([][]int, len(snap.Classes)),
		dim:     dim,
	}
	copy(db.labels, snap.Labels)
	copy(db.paths, snap.Paths)

	for i, vec := range snap.Vectors {
		if len(vec) != dim {
			return nil, fmt.Errorf("%w: vector %d has dimension %d, expected %d",
				ErrInvalidSnapshot, i, len(vec), dim)
		}
		label := snap.Labels[i]
		if label < 0 || label >= len(snap.Classes) {
			return nil, fmt.Errorf("%w: label %d at row %d out of range [0,%d)",
				ErrInvalidSnapshot, label, i, len(snap.Classes))
		}
		if utils.L2Norm(vec) == 0 {
			return nil, fmt.Errorf("%w: row %d (%s)", ErrDegenerateVector, i, snap.Paths[i])
		}
		v := make([]float32, dim)
		copy(v, vec)
		utils.NormalizeL2(v)
		db.vectors[i] = v
		db.byClass[label] = append(db.byClass[label], i)
	}
	return db, nil
}

// Size returns the number of catalog items.
func (db *Database) Size() int {
	return len(db.vectors)
}

// Dim returns the embedding dimension.
func (db *Database) Dim() int {
	return db.dim
}

// Categories returns the ordered class name list. The returned slice is a copy.
func (db *Database) Categories() []string {
	out := make([]string, len(db.classes))
	copy(out, db.classes)
	return out
}

// ClassIndex resolves a class name to its index, case-sensitive exact match.
func (db *Database) ClassIndex(name string) (int, bool) {
	idx, ok := db.classOf[name]
	return idx, ok
}

// ClassName returns the name of the class at idx.
func (db *Database) ClassName(idx int) string {
	return db.classes[idx]
}

// ClassRows returns the store row indices belonging to the class at idx, in
// ascending store order. Callers must not modify the returned slice.
func (db *Database) ClassRows(idx int) []int {
	return db.byClass[idx]
}

// Path returns the item image path for store row i.
func (db *Database) Path(i int) string {
	return db.paths[i]
}

// Label returns the class index for store row i.
func (db *Database) Label(i int) int {
	return db.labels[i]
}

// Similarities computes the dot product of query against every stored vector
// in store order. With a unit-normalized query this is cosine similarity,
// since stored vectors are unit-normalized at load. The query is not
// re-normalized here. Returns ErrDimensionMismatch if the query dimension
// differs from the store's.
func (db *Database) Similarities(query []float32) ([]float64, error) {
	if len(query) != db.dim {
		return nil, fmt.Errorf("%w: query has %d, store has %d", ErrDimensionMismatch, len(query), db.dim)
	}
	sims := make([]float64, len(db.vectors))
	for i, vec := range db.vectors {
		var dot float64
		for j := 0; j < db.dim; j++ {
			dot += float64(query[j] * vec[j])
		}
		sims[i] = dot
	}
	return sims, nil
}
