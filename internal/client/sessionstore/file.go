package sessionstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/agroconnect/marketplace-auth/internal/core/domain"
)

const (
	tokenKey    = "agroconnect_token"
	identityKey = "agroconnect_user"
)

type fileLayout struct {
	Token    string          `json:"agroconnect_token,omitempty"`
	Identity json.RawMessage `json:"agroconnect_user,omitempty"`
}

// FileStore keeps the session in a single JSON document. Writes go to a
// temporary file in the same directory which is then renamed over the
// target, so both keys change together.
type FileStore struct {
	mu   sync.Mutex
	path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (f *FileStore) Path() string { return f.path }

// Load returns an empty snapshot when the file does not exist. An identity
// that fails to decode is dropped while the token is kept.
func (f *FileStore) Load() (Snapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	raw, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return Snapshot{}, nil
	}
	if err != nil {
		return Snapshot{}, fmt.Errorf("read session file: %w", err)
	}

	var layout fileLayout
	if err := json.Unmarshal(raw, &layout); err != nil {
		return Snapshot{}, fmt.Errorf("decode session file: %w", err)
	}
	if layout.Token == "" {
		return Snapshot{}, nil
	}

	snap := Snapshot{Token: layout.Token}
	if len(layout.Identity) > 0 {
		var identity domain.Identity
		if json.Unmarshal(layout.Identity, &identity) == nil {
			snap.Identity = &identity
		}
	}
	return snap, nil
}

func (f *FileStore) Save(s Snapshot) error {
	s = normalize(s)
	if s.Empty() {
		return f.Clear()
	}

	layout := fileLayout{Token: s.Token}
	if s.Identity != nil {
		raw, err := json.Marshal(s.Identity)
		if err != nil {
			return fmt.Errorf("encode %s: %w", identityKey, err)
		}
		layout.Identity = raw
	}
	data, err := json.MarshalIndent(layout, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", tokenKey, err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	return f.writeAtomic(data)
}

func (f *FileStore) Clear() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := os.Remove(f.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove session file: %w", err)
	}
	return nil
}

func (f *FileStore) writeAtomic(data []byte) error {
	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".session-*")
	if err != nil {
		return fmt.Errorf("create temp session file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write session file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync session file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close session file: %w", err)
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return fmt.Errorf("chmod session file: %w", err)
	}
	if err := os.Rename(tmpName, f.path); err != nil {
		return fmt.Errorf("replace session file: %w", err)
	}
	return nil
}
