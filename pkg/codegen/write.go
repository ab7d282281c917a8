package codegen

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"slices"

	"github.com/matzehuels/nunet/pkg/errors"
)

// Format names an output format.
type Format string

const (
	FormatPython Format = "python"
	FormatJSON   Format = "json"
)

// Formats lists the supported formats.
var Formats = []Format{FormatPython, FormatJSON}

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	f := Format(s)
	if !slices.Contains(Formats, f) {
		return "", errors.New(errors.ErrCodeInvalidInput, "unknown format %q (want one of %v)", s, Formats)
	}
	return f, nil
}

// Ext returns the conventional file extension for the format.
func (f Format) Ext() string {
	switch f {
	case FormatJSON:
		return ".json"
	default:
		return ".py"
	}
}

// WriteJSON emits p as indented JSON.
func WriteJSON(w io.Writer, p *Plan) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(p); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// Write emits p in the given format.
func Write(w io.Writer, p *Plan, f Format) error {
	switch f {
	case FormatPython:
		return WritePython(w, p)
	case FormatJSON:
		return WriteJSON(w, p)
	}
	return errors.New(errors.ErrCodeInvalidInput, "unknown format %q", f)
}

// WriteFile writes p to a new file at path. An existing file is never
// replaced unless overwrite is set. Failures are PERSISTENCE_FAILURE.
func WriteFile(path string, p *Plan, f Format, overwrite bool) (err error) {
	flags := os.O_WRONLY | os.O_CREATE | os.O_EXCL
	if overwrite {
		flags = os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	}
	file, err := os.OpenFile(path, flags, 0o644)
	if err != nil {
		return errors.Wrap(errors.ErrCodePersistence, err, "create %s", path)
	}
	defer func() {
		if cerr := file.Close(); cerr != nil && err == nil {
			err = errors.Wrap(errors.ErrCodePersistence, cerr, "close %s", path)
		}
	}()
	if err := Write(file, p, f); err != nil {
		return errors.Wrap(errors.ErrCodePersistence, err, "write %s", path)
	}
	return nil
}
