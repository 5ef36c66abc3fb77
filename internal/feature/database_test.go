package feature

import (
	"errors"
	"math"
	"testing"
)

func testSnapshot() *Snapshot {
	return &Snapshot{
		Vectors: [][]float32{
			{1, 0, 0},
			{3, 4, 0}, // not unit norm; must be rescaled at load
			{0, 0, 2},
		},
		Labels:  []int{0, 0, 1},
		Paths:   []string{"a.jpg", "b.jpg", "c.jpg"},
		Classes: []string{"tops", "pants"},
	}
}

func TestNew(t *testing.T) {
	db, err := New(testSnapshot())
	if err != nil {
		t.Fatal(err)
	}
	if db.Size() != 3 {
		t.Errorf("Size=%d", db.Size())
	}
	if db.Dim() != 3 {
		t.Errorf("Dim=%d", db.Dim())
	}
	cats := db.Categories()
	if len(cats) != 2 || cats[0] != "tops" || cats[1] != "pants" {
		t.Errorf("Categories=%v", cats)
	}
}

func TestNewNormalizesVectors(t *testing.T) {
	db, err := New(testSnapshot())
	if err != nil {
		t.Fatal(err)
	}
	// Row 1 was (3,4,0); after normalization its self-similarity must be 1.
	sims, err := db.Similarities([]float32{0.6, 0.8, 0})
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(sims[1]-1.0) > 1e-6 {
		t.Errorf("self-similarity of normalized row = %f", sims[1])
	}
}

func TestNewCopiesInput(t *testing.T) {
	snap := testSnapshot()
	db, err := New(snap)
	if err != nil {
		t.Fatal(err)
	}
	snap.Vectors[0][0] = 42
	snap.Paths[0] = "mutated"
	sims, err := db.Similarities([]float32{1, 0, 0})
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(sims[0]-1.0) > 1e-6 {
		t.Errorf("store affected by caller mutation: sims[0]=%f", sims[0])
	}
	if db.Path(0) != "a.jpg" {
		t.Errorf("store path affected by caller mutation: %s", db.Path(0))
	}
}

func TestNewInvalid(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Snapshot)
		want   error
	}{
		{"misaligned labels", func(s *Snapshot) { s.Labels = s.Labels[:2] }, ErrInvalidSnapshot},
		{"misaligned paths", func(s *Snapshot) { s.Paths = append(s.Paths, "d.jpg") }, ErrInvalidSnapshot},
		{"label out of range", func(s *Snapshot) { s.Labels[2] = 2 }, ErrInvalidSnapshot},
		{"negative label", func(s *Snapshot) { s.Labels[0] = -1 }, ErrInvalidSnapshot},
		{"duplicate class", func(s *Snapshot) { s.Classes[1] = "tops" }, ErrInvalidSnapshot},
		{"empty class name", func(s *Snapshot) { s.Classes[0] = "" }, ErrInvalidSnapshot},
		{"no classes", func(s *Snapshot) { s.Classes = nil }, ErrInvalidSnapshot},
		{"ragged vectors", func(s *Snapshot) { s.Vectors[1] = []float32{1, 2} }, ErrInvalidSnapshot},
		{"zero-norm vector", func(s *Snapshot) { s.Vectors[2] = []float32{0, 0, 0} }, ErrDegenerateVector},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snap := testSnapshot()
			tt.mutate(snap)
			if _, err := New(snap); !errors.Is(err, tt.want) {
				t.Errorf("New() error = %v, want %v", err, tt.want)
			}
		})
	}
	if _, err := New(nil); !errors.Is(err, ErrInvalidSnapshot) {
		t.Errorf("New(nil) error = %v", err)
	}
	if _, err := New(&Snapshot{Classes: []string{"tops"}}); !errors.Is(err, ErrInvalidSnapshot) {
		t.Errorf("New(empty) error = %v", err)
	}
}

func TestClassIndex(t *testing.T) {
	db, err := New(testSnapshot())
	if err != nil {
		t.Fatal(err)
	}
	if idx, ok := db.ClassIndex("pants"); !ok || idx != 1 {
		t.Errorf("ClassIndex(pants)=%d,%v", idx, ok)
	}
	// Case-sensitive exact match.
	if _, ok := db.ClassIndex("Pants"); ok {
		t.Error("ClassIndex should be case-sensitive")
	}
	if _, ok := db.ClassIndex("shoes"); ok {
		t.Error("ClassIndex found unknown class")
	}
}

func TestClassRows(t *testing.T) {
	db, err := New(testSnapshot())
	if err != nil {
		t.Fatal(err)
	}
	tops := db.ClassRows(0)
	if len(tops) != 2 || tops[0] != 0 || tops[1] != 1 {
		t.Errorf("ClassRows(0)=%v", tops)
	}
	pants := db.ClassRows(1)
	if len(pants) != 1 || pants[0] != 2 {
		t.Errorf("ClassRows(1)=%v", pants)
	}
}

func TestSimilaritiesDimensionMismatch(t *testing.T) {
	db, err := New(testSnapshot())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := db.Similarities([]float32{1, 0}); !errors.Is(err, ErrDimensionMismatch) {
		t.Errorf("Similarities error = %v", err)
	}
}
