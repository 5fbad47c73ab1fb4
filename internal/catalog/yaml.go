package catalog

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

func Parse(data []byte) (*Catalog, error) {
	var c Catalog
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&c); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCatalog, err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

func Encode(c *Catalog) ([]byte, error) {
	return yaml.Marshal(c)
}

// LoadOrSeed loads path, first writing the built-in catalog there when the
// file does not exist yet so operators have a starting point to edit.
func LoadOrSeed(path string) (*Catalog, bool, error) {
	c, err := LoadFile(path)
	if err == nil || !errors.Is(err, fs.ErrNotExist) {
		return c, false, err
	}
	data, err := Encode(Default())
	if err != nil {
		return nil, false, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, false, err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return nil, false, err
	}
	c, err = Parse(data)
	return c, true, err
}
