// Package sheetfile reads and writes sheet snapshots as YAML or JSON files.
// The format follows the file extension.
package sheetfile

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	mdwerror "github.com/msto63/gridwerk/foundation/core/error"
	"github.com/msto63/gridwerk/internal/sheet"
)

// Format of a snapshot file
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// FormatOf returns the format implied by the extension of path
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".json":
		return FormatJSON, nil
	default:
		return "", mdwerror.Newf("unsupported snapshot file extension %q", filepath.Ext(path)).
			WithCode(mdwerror.CodeInvalidFormat).
			WithDetail("path", path)
	}
}

// Load reads a snapshot file. A missing file is reported with CodeNotFound.
func Load(path string) (sheet.Snapshot, error) {
	format, err := FormatOf(path)
	if err != nil {
		return sheet.Snapshot{}, err
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		code := mdwerror.CodeInternal
		if os.IsNotExist(err) {
			code = mdwerror.CodeNotFound
		}
		return sheet.Snapshot{}, mdwerror.Wrap(err, "failed to read snapshot file").
			WithCode(code).
			WithDetail("path", path)
	}
	return Decode(raw, format)
}

// LoadOrNew reads path if it exists and otherwise returns an empty sheet.
// An empty path always yields an empty sheet.
func LoadOrNew(path string, rows, cols int) (sheet.Snapshot, error) {
	if path == "" {
		return sheet.New(rows, cols), nil
	}
	snap, err := Load(path)
	if mdwerror.HasCode(err, mdwerror.CodeNotFound) {
		return sheet.New(rows, cols), nil
	}
	return snap, err
}

// Decode parses raw snapshot data
func Decode(raw []byte, format Format) (sheet.Snapshot, error) {
	var d sheet.Data
	var err error
	switch format {
	case FormatYAML:
		err = yaml.Unmarshal(raw, &d)
	case FormatJSON:
		err = json.Unmarshal(raw, &d)
	default:
		return sheet.Snapshot{}, mdwerror.Newf("unsupported snapshot format %q", format).
			WithCode(mdwerror.CodeInvalidFormat)
	}
	if err != nil {
		return sheet.Snapshot{}, mdwerror.Wrap(err, "failed to decode snapshot").
			WithCode(mdwerror.CodeInvalidFormat)
	}
	return sheet.FromData(d)
}

// Encode renders a snapshot
func Encode(snap sheet.Snapshot, format Format) ([]byte, error) {
	d := snap.Data()
	switch format {
	case FormatYAML:
		return yaml.Marshal(d)
	case FormatJSON:
		return json.MarshalIndent(d, "", "  ")
	default:
		return nil, mdwerror.Newf("unsupported snapshot format %q", format).
			WithCode(mdwerror.CodeInvalidFormat)
	}
}

// Save writes snap to path, replacing the file atomically
func Save(path string, snap sheet.Snapshot) error {
	format, err := FormatOf(path)
	if err != nil {
		return err
	}
	raw, err := Encode(snap, format)
	if err != nil {
		return mdwerror.Wrap(err, "failed to encode snapshot").WithCode(mdwerror.CodeInternal)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return mdwerror.Wrap(err, "failed to create snapshot directory").WithDetail("path", dir)
		}
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0644); err != nil {
		return mdwerror.Wrap(err, "failed to write snapshot file").WithDetail("path", path)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return mdwerror.Wrap(err, "failed to replace snapshot file").WithDetail("path", path)
	}
	return nil
}
