package feature

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Format selects a snapshot encoding.
type Format string

const (
	// FormatAuto picks the format from the file extension.
	FormatAuto Format = ""
	// FormatBinary is the length-prefixed binary file format (disk.go).
	FormatBinary Format = "binary"
	// FormatSQLite is the sqlite database format (sqlite.go).
	FormatSQLite Format = "sqlite"
)

// Open reads the snapshot at path in the given format and returns a validated
// Database. It either returns a fully constructed store or an error; no
// partially loaded store is ever returned.
func Open(path string, format Format) (*Database, error) {
	var snap *Snapshot
	var err error
	switch resolveFormat(path, format) {
	case FormatSQLite:
		snap, err = ReadSQLiteSnapshot(path)
	case FormatBinary:
		snap, err = ReadSnapshot(path)
	default:
		return nil, fmt.Errorf("unknown snapshot format %q (supported: binary, sqlite)", format)
	}
	if err != nil {
		return nil, err
	}
	return New(snap)
}

func resolveFormat(path string, format Format) Format {
	if format != FormatAuto {
		return format
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".db", ".sqlite", ".sqlite3":
		return FormatSQLite
	default:
		return FormatBinary
	}
}
