package visits

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/youruser/profileart/internal/util"
)

// FileStore persists records as one indented JSON object keyed by identity.
type FileStore struct {
	*memory
	path string
}

// OpenFile loads path if it exists, otherwise starts empty.
func OpenFile(path string, opts ...Option) (*FileStore, error) {
	s := &FileStore{memory: newMemory(opts), path: path}
	raw, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading visits %s: %w", path, err)
	}
	if err := json.Unmarshal(raw, &s.data); err != nil {
		return nil, fmt.Errorf("parsing visits %s: %w", path, err)
	}
	return s, nil
}

func (s *FileStore) Persist() error {
	s.persistMu.Lock()
	defer s.persistMu.Unlock()
	data, dirty := s.snapshot()
	raw, err := json.MarshalIndent(data, "", "    ")
	if err == nil {
		err = util.WriteFileAtomic(s.path, raw)
	}
	if err != nil {
		s.markDirty(dirty)
		return fmt.Errorf("saving visits %s: %w", s.path, err)
	}
	return nil
}

func (s *FileStore) Close() error { return nil }
