package wizard

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// sessionSchemaVersion guards the on-disk format. A mismatch is treated
// as no session rather than an error; the user registers again.
const sessionSchemaVersion = 1

// Session is the credential set persisted between runs. All three
// fields must be present for a session to count as restorable.
type Session struct {
	APIKey   string `json:"api_key"`
	Name     string `json:"name"`
	ClaimURL string `json:"claim_url"`
}

// Complete reports whether the session can restore an agent.
func (s Session) Complete() bool {
	return s.APIKey != "" && s.Name != "" && s.ClaimURL != ""
}

// Store persists a Session. Implementations decide where: the CLI uses
// a JSON file, the web UI keeps it in browser storage.
type Store interface {
	Load() (Session, bool, error)
	Save(Session) error
	Clear() error
}

type sessionFile struct {
	SchemaVersion int    `json:"schema_version"`
	APIKey        string `json:"api_key"`
	Name          string `json:"name"`
	ClaimURL      string `json:"claim_url"`
}

// FileStore keeps the session in a JSON file with 0600 permissions.
type FileStore struct {
	path string
}

// NewFileStore creates a file-backed session store at path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Load reads the session. A missing file or a schema mismatch reads as
// no session.
func (f *FileStore) Load() (Session, bool, error) {
	raw, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return Session{}, false, nil
	}
	if err != nil {
		return Session{}, false, fmt.Errorf("read session: %w", err)
	}

	var file sessionFile
	if err := json.Unmarshal(raw, &file); err != nil {
		return Session{}, false, fmt.Errorf("decode session: %w", err)
	}
	if file.SchemaVersion != sessionSchemaVersion {
		return Session{}, false, nil
	}
	session := Session{APIKey: file.APIKey, Name: file.Name, ClaimURL: file.ClaimURL}
	if !session.Complete() {
		return Session{}, false, nil
	}
	return session, true, nil
}

// Save writes the session atomically with owner-only permissions. The
// file holds a credential.
func (f *FileStore) Save(session Session) error {
	raw, err := json.MarshalIndent(sessionFile{
		SchemaVersion: sessionSchemaVersion,
		APIKey:        session.APIKey,
		Name:          session.Name,
		ClaimURL:      session.ClaimURL,
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}

	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".session-*.json")
	if err != nil {
		return fmt.Errorf("create temp session: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return fmt.Errorf("chmod session: %w", err)
	}
	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		return fmt.Errorf("write session: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close session: %w", err)
	}
	if err := os.Rename(tmpName, f.path); err != nil {
		return fmt.Errorf("replace session: %w", err)
	}
	return nil
}

// Clear removes the session file. A missing file is not an error.
func (f *FileStore) Clear() error {
	if err := os.Remove(f.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove session: %w", err)
	}
	return nil
}
