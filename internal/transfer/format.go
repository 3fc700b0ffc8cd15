// Package transfer moves ledger data in and out of files.
//
// Import runs the same pipeline for every format: read, parse into a Tree,
// Validate, Convert. Only the first two steps differ per format and live
// behind the Codec interface. Export goes the other way through an
// Exporter. Applier merges an import result into the live stores.
package transfer

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// Format is one of the supported file formats.
type Format string

const (
	JSON Format = "json"
	CSV  Format = "csv"
	YAML Format = "yaml"
)

// Formats lists every supported format in export order.
var Formats = []Format{JSON, CSV, YAML}

// ErrUnknownFormat is returned for formats outside Formats.
var ErrUnknownFormat = errors.New("unknown format")

func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "json":
		return JSON, nil
	case "csv":
		return CSV, nil
	case "yaml", "yml":
		return YAML, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
	}
}

// FormatFromPath guesses the format from the file extension.
func FormatFromPath(path string) (Format, error) {
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	if ext == "" {
		return "", fmt.Errorf("%w: %s has no extension", ErrUnknownFormat, path)
	}
	return ParseFormat(ext)
}

func (f Format) Extension() string {
	return "." + string(f)
}

func (f Format) String() string {
	return string(f)
}
