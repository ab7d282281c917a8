package io

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/nunet/pkg/errors"
)

// Format is a snapshot encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatTOML Format = "toml"
)

// FormatForPath picks the encoding from a file extension: ".toml" is TOML,
// anything else (".nunet", ".json") is JSON.
func FormatForPath(path string) Format {
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		return FormatTOML
	}
	return FormatJSON
}

// WriteJSON encodes s as indented JSON.
func WriteJSON(s Snapshot, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(s); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// ReadJSON decodes a JSON snapshot. Unknown fields are rejected.
func ReadJSON(r io.Reader) (Snapshot, error) {
	var s Snapshot
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&s); err != nil {
		return Snapshot{}, fmt.Errorf("decode: %w", err)
	}
	return s, nil
}

// WriteTOML encodes s as TOML.
func WriteTOML(s Snapshot, w io.Writer) error {
	if err := toml.NewEncoder(w).Encode(s); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// ReadTOML decodes a TOML snapshot. Unknown keys are rejected.
func ReadTOML(r io.Reader) (Snapshot, error) {
	var s Snapshot
	md, err := toml.NewDecoder(r).Decode(&s)
	if err != nil {
		return Snapshot{}, fmt.Errorf("decode: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return Snapshot{}, fmt.Errorf("decode: unknown keys %v", undecoded)
	}
	return s, nil
}

// Write encodes s in format f.
func Write(s Snapshot, w io.Writer, f Format) error {
	if f == FormatTOML {
		return WriteTOML(s, w)
	}
	return WriteJSON(s, w)
}

// Read decodes a snapshot in format f.
func Read(r io.Reader, f Format) (Snapshot, error) {
	if f == FormatTOML {
		return ReadTOML(r)
	}
	return ReadJSON(r)
}

// Export writes s to path, replacing any existing file. The encoding follows
// the extension. The snapshot is written to a temporary file in the same
// directory and renamed over path, so a failed export leaves path untouched.
// Failures are PERSISTENCE_FAILURE.
func Export(s Snapshot, path string) (err error) {
	fail := func(err error) error {
		return errors.Wrap(errors.ErrCodePersistence, err, "unable to save design to %s", path)
	}
	f, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fail(err)
	}
	tmp := f.Name()
	defer func() {
		if err != nil {
			os.Remove(tmp)
		}
	}()

	if err := Write(s, f, FormatForPath(path)); err != nil {
		f.Close()
		return fail(err)
	}
	if err := f.Chmod(0o644); err != nil {
		f.Close()
		return fail(err)
	}
	if err := f.Close(); err != nil {
		return fail(err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fail(err)
	}
	return nil
}

// Import reads the snapshot at path. Failures are PERSISTENCE_FAILURE.
func Import(path string) (Snapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		return Snapshot{}, errors.Wrap(errors.ErrCodePersistence, err, "file %s could not be read", path)
	}
	defer f.Close()
	s, err := Read(f, FormatForPath(path))
	if err != nil {
		return Snapshot{}, errors.Wrap(errors.ErrCodePersistence, err, "file %s could not be read, may be the wrong type or corrupted", path)
	}
	return s, nil
}
