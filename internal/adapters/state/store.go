// Package state implements the file-backed resolution state repository.
package state

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/cespare/xxhash/v2"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"go.trai.ch/redirector/internal/core/domain"
	"go.trai.ch/redirector/internal/core/ports"
	"go.trai.ch/zerr"
)

const schemaURL = "https://redirector.local/state.schema.json"

//go:embed state.schema.json
var schemaDocument []byte

// Store implements ports.StateStore on a single JSON document.
// Writes go to a temp file that is renamed over the document.
type Store struct {
	path   string
	logger ports.Logger
	schema *jsonschema.Schema

	mu     sync.Mutex
	digest uint64
}

// NewStore creates a Store for the document at path.
func NewStore(path string, logger ports.Logger) (*Store, error) {
	schema, err := compileSchema()
	if err != nil {
		return nil, err
	}
	return &Store{
		path:   path,
		logger: logger,
		schema: schema,
	}, nil
}

func compileSchema() (*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(schemaURL, bytes.NewReader(schemaDocument)); err != nil {
		return nil, zerr.Wrap(err, "failed to add state schema")
	}
	schema, err := compiler.Compile(schemaURL)
	if err != nil {
		return nil, zerr.Wrap(err, "failed to compile state schema")
	}
	return schema, nil
}

// Path returns the location of the document.
func (s *Store) Path() string {
	return s.path
}

// Load reads the document. Any problem yields a fresh state.
func (s *Store) Load() *domain.State {
	st, err := s.read()
	if err != nil {
		s.logger.Warn("state document unusable, starting fresh")
		s.logger.Error(err)
		return domain.NewState()
	}
	if st == nil {
		return domain.NewState()
	}
	return st
}

func (s *Store) read() (*domain.State, error) {
	//nolint:gosec // path is derived from the base directory
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, zerr.Wrap(err, domain.ErrStateReadFailed.Error())
	}

	s.mu.Lock()
	s.digest = xxhash.Sum64(data)
	s.mu.Unlock()

	var payload any
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, zerr.Wrap(err, domain.ErrStateUnmarshalFailed.Error())
	}
	if err := s.schema.Validate(payload); err != nil {
		return nil, zerr.Wrap(err, domain.ErrStateSchemaViolation.Error())
	}

	st := domain.NewState()
	if err := json.Unmarshal(data, st); err != nil {
		return nil, zerr.Wrap(err, domain.ErrStateUnmarshalFailed.Error())
	}
	return st, nil
}

// Save writes the document. Saving content identical to what was last read
// or written is skipped.
func (s *Store) Save(st *domain.State) error {
	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return zerr.Wrap(err, domain.ErrStateMarshalFailed.Error())
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	digest := xxhash.Sum64(data)
	if digest == s.digest {
		if _, err := os.Stat(s.path); err == nil {
			return nil
		}
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, domain.DirPerm); err != nil {
		return zerr.Wrap(err, domain.ErrStateCreateFailed.Error())
	}

	tmp, err := os.CreateTemp(dir, ".state-*.tmp")
	if err != nil {
		return zerr.Wrap(err, domain.ErrStateWriteFailed.Error())
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return zerr.Wrap(err, domain.ErrStateWriteFailed.Error())
	}
	if err := tmp.Close(); err != nil {
		return zerr.Wrap(err, domain.ErrStateWriteFailed.Error())
	}
	if err := os.Chmod(tmpName, domain.FilePerm); err != nil {
		return zerr.Wrap(err, domain.ErrStateWriteFailed.Error())
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrStateWriteFailed.Error()), "path", s.path)
	}

	s.digest = digest
	return nil
}
