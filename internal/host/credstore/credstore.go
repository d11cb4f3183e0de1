// Package credstore persists the extension's Credential Record as a single
// JSON blob on disk. All credential reads and writes in the host go through
// the Store interface so invalidation logic lives in one place.
package credstore

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/jobtrail/extension-host/internal/models"
)

// Store is the credential access contract handlers depend on.
type Store interface {
	// Get returns the stored record, or nil if it is absent or expired.
	Get() *models.CredentialRecord
	// Set overwrites the stored record wholesale.
	Set(rec *models.CredentialRecord) error
	// Clear removes the stored record.
	Clear() error
}

// FileStore keeps the record in a single file, mirroring the extension's
// one storage key. Expiry is checked lazily on every Get; there is no
// active eviction.
type FileStore struct {
	path string
	mu   sync.Mutex
	now  func() time.Time
}

// envelope is the on-disk shape: one fixed "auth" key holding the record.
type envelope struct {
	Auth *models.CredentialRecord `json:"auth"`
}

// NewFileStore creates a FileStore persisting to path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path, now: time.Now}
}

// Get returns the stored Credential Record if present and unexpired,
// else nil. A corrupt or unreadable file counts as absent.
func (s *FileStore) Get() *models.CredentialRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil
	}
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil
	}
	if env.Auth == nil || env.Auth.Token == "" {
		return nil
	}
	if env.Auth.Expired(s.now()) {
		return nil
	}
	return env.Auth
}

// Set overwrites the stored record atomically from the caller's perspective.
func (s *FileStore) Set(rec *models.CredentialRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.Marshal(envelope{Auth: rec})
	if err != nil {
		return fmt.Errorf("marshal credential: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0600); err != nil {
		return fmt.Errorf("write credential file: %w", err)
	}
	return nil
}

// Clear removes the stored record. Clearing an already-empty store is not
// an error.
func (s *FileStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove credential file: %w", err)
	}
	return nil
}
