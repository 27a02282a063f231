// Package output writes the ranking artifact and its in-progress checkpoint
// as human-readable JSON.
package output

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"steamrank/ranking"
)

// Writer persists ranking entries to a final path and a checkpoint path.
// Both files hold the same format: an indented JSON array with non-ASCII
// characters preserved literally.
type Writer struct {
	FinalPath      string
	CheckpointPath string
}

// NewWriter creates a Writer for the given paths.
func NewWriter(finalPath, checkpointPath string) *Writer {
	return &Writer{FinalPath: finalPath, CheckpointPath: checkpointPath}
}

// WriteCheckpoint overwrites the checkpoint file with the entries so far.
func (w *Writer) WriteCheckpoint(entries []ranking.Entry) error {
	return writeJSON(w.CheckpointPath, entries)
}

// WriteFinal overwrites the final output file with the complete ranking.
func (w *Writer) WriteFinal(entries []ranking.Entry) error {
	return writeJSON(w.FinalPath, entries)
}

// RemoveCheckpoint deletes the checkpoint file. A missing file is not an
// error: after a successful run no checkpoint must remain either way.
func (w *Writer) RemoveCheckpoint() error {
	err := os.Remove(w.CheckpointPath)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("removing checkpoint %s: %w", w.CheckpointPath, err)
	}
	return nil
}

func writeJSON(path string, entries []ranking.Entry) error {
	if entries == nil {
		entries = []ranking.Entry{}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(entries); err != nil {
		f.Close()
		return fmt.Errorf("encoding %s: %w", path, err)
	}

	if err := f.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", path, err)
	}
	return nil
}
