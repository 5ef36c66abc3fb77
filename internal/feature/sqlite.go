package feature

import (
	"database/sql"
	"fmt"
	"os"

	_ "github.com/mattn/go-sqlite3"
)

// SQLite snapshot schema:
//
//	CREATE TABLE classes (id INTEGER PRIMARY KEY, name TEXT NOT NULL UNIQUE);
//	CREATE TABLE items (
//		id INTEGER PRIMARY KEY,
//		class_id INTEGER NOT NULL REFERENCES classes(id),
//		path TEXT NOT NULL,
//		vector BLOB NOT NULL
//	);
//
// vector is dim*4 bytes of little-endian float32. Class ids need not be
// contiguous; the loader maps them to indices in id order.

// ReadSQLiteSnapshot reads a snapshot from a sqlite database at path. The
// database is opened read-only and never modified. The result is raw and
// unvalidated; pass it to New.
func ReadSQLiteSnapshot(path string) (*Snapshot, error) {
	// sql.Open would silently create an empty database for a missing path.
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("stat snapshot database: %w", err)
	}
	db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?mode=ro", path))
	if err != nil {
		return nil, fmt.Errorf("open snapshot database: %w", err)
	}
	defer db.Close()

	classIdx := make(map[int64]int)
	snap := &Snapshot{}

	rows, err := db.Query("SELECT id, name FROM classes ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("%w: query classes: %v", ErrInvalidSnapshot, err)
	}
	for rows.Next() {
		var id int64
		var name string
		if err := rows.Scan(&id, &name); err != nil {
			rows.Close()
			return nil, fmt.Errorf("%w: scan class: %v", ErrInvalidSnapshot, err)
		}
		classIdx[id] = len(snap.Classes)
		snap.Classes = append(snap.Classes, name)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("%w: iterate classes: %v", ErrInvalidSnapshot, err)
	}
	rows.Close()

	rows, err = db.Query("SELECT class_id, path, vector FROM items ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("%w: query items: %v", ErrInvalidSnapshot, err)
	}
	defer rows.Close()
	for rows.Next() {
		var classID int64
		var path string
		var blob []byte
		if err := rows.Scan(&classID, &path, &blob); err != nil {
			return nil, fmt.Errorf("%w: scan item: %v", ErrInvalidSnapshot, err)
		}
		idx, ok := classIdx[classID]
		if !ok {
			return nil, fmt.Errorf("%w: item %q references unknown class id %d", ErrInvalidSnapshot, path, classID)
		}
		if len(blob)%4 != 0 {
			return nil, fmt.Errorf("%w: item %q has %d-byte vector blob", ErrInvalidSnapshot, path, len(blob))
		}
		snap.Labels = append(snap.Labels, idx)
		snap.Paths = append(snap.Paths, path)
		snap.Vectors = append(snap.Vectors, bytesToFloat32Slice(blob))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate items: %v", ErrInvalidSnapshot, err)
	}
	return snap, nil
}
