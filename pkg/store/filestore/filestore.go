// Package filestore keeps the ledger in a local JSON or YAML file.
package filestore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/yurifrl/vizbuck/pkg/models"
	"github.com/yurifrl/vizbuck/pkg/store"
)

type Store struct {
	path string
}

var _ store.Store = (*Store)(nil)

// New returns a store backed by path. A .yaml or .yml extension selects YAML,
// anything else JSON. A leading ~/ expands to the home directory.
func New(path string) (*Store, error) {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		path = filepath.Join(home, path[2:])
	}
	return &Store{path: path}, nil
}

func (s *Store) Path() string { return s.path }

func (s *Store) Load(_ context.Context) (models.Ledger, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return models.Ledger{}, nil
	}
	if err != nil {
		return models.Ledger{}, fmt.Errorf("failed to read ledger file: %w", err)
	}

	if !s.isYAML() {
		return store.Decode(data)
	}
	var ledger models.Ledger
	if err := yaml.Unmarshal(data, &ledger); err != nil {
		return models.Ledger{}, fmt.Errorf("failed to parse ledger yaml: %w", err)
	}
	return ledger, nil
}

// Save writes to a temporary file next to the target and renames it into
// place so a failed write never leaves a truncated ledger.
func (s *Store) Save(_ context.Context, ledger models.Ledger) error {
	var (
		data []byte
		err  error
	)
	if s.isYAML() {
		data, err = yaml.Marshal(ledger)
	} else {
		data, err = store.Encode(ledger)
	}
	if err != nil {
		return fmt.Errorf("failed to encode ledger: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create ledger directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".ledger-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write ledger: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close ledger: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("failed to replace ledger: %w", err)
	}
	return nil
}

func (s *Store) isYAML() bool {
	ext := strings.ToLower(filepath.Ext(s.path))
	return ext == ".yaml" || ext == ".yml"
}
