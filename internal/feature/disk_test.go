package feature

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"
)

func TestSnapshotRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "features.snap")
	want := testSnapshot()
	if err := WriteSnapshot(path, want); err != nil {
		t.Fatal(err)
	}
	got, err := ReadSnapshot(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(got.Vectors) != 3 || len(got.Classes) != 2 {
		t.Fatalf("got %d vectors, %d classes", len(got.Vectors), len(got.Classes))
	}
	for i, name := range want.Classes {
		if got.Classes[i] != name {
			t.Errorf("class %d = %q, want %q", i, got.Classes[i], name)
		}
	}
	for i := range want.Vectors {
		if got.Labels[i] != want.Labels[i] {
			t.Errorf("label %d = %d, want %d", i, got.Labels[i], want.Labels[i])
		}
		if got.Paths[i] != want.Paths[i] {
			t.Errorf("path %d = %q, want %q", i, got.Paths[i], want.Paths[i])
		}
		for j := range want.Vectors[i] {
			if math.Abs(float64(got.Vectors[i][j]-want.Vectors[i][j])) > 1e-9 {
				t.Errorf("vector %d[%d] = %f, want %f", i, j, got.Vectors[i][j], want.Vectors[i][j])
			}
		}
	}
}

func TestOpenBinary(t *testing.T) {
	path := filepath.Join(t.TempDir(), "features.snap")
	if err := WriteSnapshot(path, testSnapshot()); err != nil {
		t.Fatal(err)
	}
	db, err := Open(path, FormatAuto)
	if err != nil {
		t.Fatal(err)
	}
	if db.Size() != 3 {
		t.Errorf("Size=%d", db.Size())
	}
}

func TestReadSnapshotMissing(t *testing.T) {
	if _, err := ReadSnapshot(filepath.Join(t.TempDir(), "nope.snap")); err == nil {
		t.Error("expected error for missing snapshot")
	}
}

func TestReadSnapshotTruncated(t *testing.T) {
	path := filepath.Join(t.TempDir(), "features.snap")
	if err := WriteSnapshot(path, testSnapshot()); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, data[:len(data)-5], 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := ReadSnapshot(path); !errors.Is(err, ErrInvalidSnapshot) {
		t.Errorf("truncated snapshot error = %v", err)
	}
}

func TestReadSnapshotGarbageHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "features.snap")
	if err := os.WriteFile(path, []byte("\xff\xff\xff\xff\xff\xff\xff\xff\xff\xff\xff\xff"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := ReadSnapshot(path); !errors.Is(err, ErrInvalidSnapshot) {
		t.Errorf("garbage header error = %v", err)
	}
}

func TestOpenUnknownFormat(t *testing.T) {
	if _, err := Open("features.snap", Format("parquet")); err == nil {
		t.Error("expected error for unknown format")
	}
}
