package catalog

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Dataset is one point-in-time catalog snapshot, in source order.
type Dataset []Record

// Index builds a lookup keyed by the canonical id text. Duplicate ids are
// last-seen-wins.
func (d Dataset) Index() map[string]Record {
	m := make(map[string]Record, len(d))
	for _, r := range d {
		m[r.ID.String()] = r
	}
	return m
}

// Decode parses a JSON array of records.
func Decode(r io.Reader) (Dataset, error) {
	dec := json.NewDecoder(r)
	var raws []json.RawMessage
	if err := dec.Decode(&raws); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	// reject trailing tokens (e.g. concatenated JSON)
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		if err == nil {
			return nil, errors.New("decode catalog: trailing data")
		}
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	out := make(Dataset, 0, len(raws))
	for i, raw := range raws {
		rec, err := decodeRecord(i, raw)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

// Load reads and validates the dataset at path.
func Load(path string) (Dataset, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	ds, err := Decode(bytes.NewReader(b))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return ds, nil
}

// LoadOptional is Load, but a missing file yields an empty dataset.
func LoadOptional(path string) (Dataset, bool, error) {
	ds, err := Load(path)
	if errors.Is(err, os.ErrNotExist) {
		return Dataset{}, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return ds, true, nil
}

// Save writes the dataset to path, replacing any existing file atomically.
func Save(path string, d Dataset) error {
	if d == nil {
		d = Dataset{}
	}
	b, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return fmt.Errorf("encode catalog: %w", err)
	}
	b = append(b, '\n')
	return WriteFileAtomic(path, b)
}

// WriteFileAtomic writes data to a temp file in the target directory and
// renames it over path, so readers never observe a partial file.
func WriteFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmp := f.Name()
	cleanup := func() { _ = os.Remove(tmp) }

	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		cleanup()
		return err
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		cleanup()
		return err
	}
	if err := f.Close(); err != nil {
		cleanup()
		return err
	}
	if err := os.Chmod(tmp, 0o644); err != nil {
		cleanup()
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		cleanup()
		return err
	}
	return nil
}
