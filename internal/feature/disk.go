package feature

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
)

// Binary snapshot layout, little-endian: dim (4), n (4), c (4), then c class
// names (nameLen (4), name bytes), then n records: label (4), pathLen (4),
// path bytes, vector (dim*4 bytes).

const (
	maxSnapshotDim     = 1 << 16
	maxSnapshotRecords = 1 << 26
)

// WriteSnapshot writes snap to path in the binary snapshot format. The
// directory is created if needed. Used by offline snapshot tooling and tests;
// the serving path only reads.
func WriteSnapshot(path string, snap *Snapshot) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create snapshot dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create snapshot file: %w", err)
	}
	defer f.Close()

	dim := 0
	if len(snap.Vectors) > 0 {
		dim = len(snap.Vectors[0])
	}
	for _, v := range []uint32{uint32(dim), uint32(len(snap.Vectors)), uint32(len(snap.Classes))} {
		if err := binary.Write(f, binary.LittleEndian, v); err != nil {
			return fmt.Errorf("write header: %w", err)
		}
	}
	for _, name := range snap.Classes {
		if err := writeString(f, name); err != nil {
			return fmt.Errorf("write class: %w", err)
		}
	}
	for i, vec := range snap.Vectors {
		if err := binary.Write(f, binary.LittleEndian, uint32(snap.Labels[i])); err != nil {
			return fmt.Errorf("write label: %w", err)
		}
		if err := writeString(f, snap.Paths[i]); err != nil {
			return fmt.Errorf("write path: %w", err)
		}
		if _, err := f.Write(float32SliceToBytes(vec)); err != nil {
			return fmt.Errorf("write vector: %w", err)
		}
	}
	return nil
}

// ReadSnapshot reads a binary snapshot from path. The result is raw and
// unvalidated; pass it to New.
func ReadSnapshot(path string) (*Snapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open snapshot file: %w", err)
	}
	defer f.Close()

	var dim, n, c uint32
	for _, p := range []*uint32{&dim, &n, &c} {
		if err := binary.Read(f, binary.LittleEndian, p); err != nil {
			return nil, fmt.Errorf("%w: short header: %v", ErrInvalidSnapshot, err)
		}
	}
	if dim == 0 || dim > maxSnapshotDim || n > maxSnapshotRecords || c > maxSnapshotRecords {
		return nil, fmt.Errorf("%w: implausible header dim=%d n=%d c=%d", ErrInvalidSnapshot, dim, n, c)
	}

	snap := &Snapshot{
		Vectors: make([][]float32, 0, n),
		Labels:  make([]int, 0, n),
		Paths:   make([]string, 0, n),
		Classes: make([]string, 0, c),
	}
	for i := uint32(0); i < c; i++ {
		name, err := readString(f)
		if err != nil {
			return nil, fmt.Errorf("%w: read class %d: %v", ErrInvalidSnapshot, i, err)
		}
		snap.Classes = append(snap.Classes, name)
	}
	vecBuf := make([]byte, dim*4)
	for i := uint32(0); i < n; i++ {
		var label uint32
		if err := binary.Read(f, binary.LittleEndian, &label); err != nil {
			return nil, fmt.Errorf("%w: read label %d: %v", ErrInvalidSnapshot, i, err)
		}
		path, err := readString(f)
		if err != nil {
			return nil, fmt.Errorf("%w: read path %d: %v", ErrInvalidSnapshot, i, err)
		}
		if _, err := io.ReadFull(f, vecBuf); err != nil {
			return nil, fmt.Errorf("%w: read vector %d: %v", ErrInvalidSnapshot, i, err)
		}
		snap.Labels = append(snap.Labels, int(label))
		snap.Paths = append(snap.Paths, path)
		snap.Vectors = append(snap.Vectors, bytesToFloat32Slice(vecBuf))
	}
	return snap, nil
}

func writeString(w io.Writer, s string) error {
	if err := binary.Write(w, binary.LittleEndian, uint32(len(s))); err != nil {
		return err
	}
	_, err := w.Write([]byte(s))
	return err
}

func readString(r io.Reader) (string, error) {
	var n uint32
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		return "", err
	}
	if n > maxSnapshotDim {
		return "", fmt.Errorf("string length %d too large", n)
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", err
	}
	return string(buf), nil
}

func float32SliceToBytes(s []float32) []byte {
	const size = 4
	out := make([]byte, len(s)*size)
	for i, v := range s {
		binary.LittleEndian.PutUint32(out[i*size:(i+1)*size], math.Float32bits(v))
	}
	return out
}

func bytesToFloat32Slice(b []byte) []float32 {
	const size = 4
	out := make([]float32, len(b)/size)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*size : (i+1)*size]))
	}
	return out
}
