// Package passstore reads and writes password records: the per-recipient
// encrypted blobs a distributed secret is stored as. Records are plain YAML
// files in the password store directory, one per password name.
package passstore

import (
	"encoding/base64"
	"os"
	"path/filepath"
	"sort"
	"time"

	"gopkg.in/yaml.v3"

	pkerrors "github.com/systmms/pkdist/internal/errors"
)

// Record is one stored password: metadata plus the encrypted secret per
// recipient.
type Record struct {
	Metadata   Metadata             `yaml:"metadata"`
	Recipients map[string]Encrypted `yaml:"recipients"`
}

// Metadata describes who created a record and why.
type Metadata struct {
	Name        string    `yaml:"name"`
	Creator     string    `yaml:"creator"`
	Description string    `yaml:"description,omitempty"`
	Authorizer  string    `yaml:"authorizer,omitempty"`
	CreatedAt   time.Time `yaml:"created_at"`
}

// Encrypted is one recipient's sealed copy of the secret.
type Encrypted struct {
	// Blob is the base64 of the ciphertext sealed to the recipient's
	// certificate.
	Blob string `yaml:"blob"`

	// Fingerprint identifies the certificate the blob was sealed to.
	Fingerprint string `yaml:"fingerprint,omitempty"`

	// Distributor is the identity that performed the encryption.
	Distributor string `yaml:"distributor"`

	Timestamp time.Time `yaml:"timestamp"`
}

// EncodeBlob and DecodeBlob fix the ciphertext wire encoding.
func EncodeBlob(ciphertext []byte) string {
	return base64.StdEncoding.EncodeToString(ciphertext)
}

func DecodeBlob(blob string) ([]byte, error) {
	return base64.StdEncoding.DecodeString(blob)
}

// Store is a directory of password records.
type Store struct {
	dir string
}

// NewStore returns a store rooted at dir. The directory must already exist;
// configuration validation checks that before any command runs.
func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

func (s *Store) path(name string) string {
	return filepath.Join(s.dir, name)
}

// Read loads a record by name.
func (s *Store) Read(name string) (*Record, error) {
	data, err := os.ReadFile(s.path(name))
	if err != nil {
		return nil, pkerrors.PasswordIOError{Name: name, Err: err}
	}
	var rec Record
	if err := yaml.Unmarshal(data, &rec); err != nil {
		return nil, pkerrors.PasswordIOError{Name: name, Err: err}
	}
	return &rec, nil
}

// Write stores a record under its metadata name. Without overwrite, an
// existing record is an error.
func (s *Store) Write(rec *Record, overwrite bool) error {
	name := rec.Metadata.Name
	if !overwrite {
		if _, err := os.Stat(s.path(name)); err == nil {
			return pkerrors.PasswordIOError{
				Name: name,
				Err:  os.ErrExist,
			}
		}
	}

	data, err := yaml.Marshal(rec)
	if err != nil {
		return pkerrors.PasswordIOError{Name: name, Err: err}
	}
	if err := os.WriteFile(s.path(name), data, 0o600); err != nil {
		return pkerrors.PasswordIOError{Name: name, Err: err}
	}
	return nil
}

// Rename moves a record and rewrites its metadata name.
func (s *Store) Rename(oldName, newName string) error {
	rec, err := s.Read(oldName)
	if err != nil {
		return err
	}
	rec.Metadata.Name = newName
	if err := s.Write(rec, true); err != nil {
		return err
	}
	if err := os.Remove(s.path(oldName)); err != nil {
		return pkerrors.PasswordIOError{Name: oldName, Err: err}
	}
	return nil
}

// Delete removes a record.
func (s *Store) Delete(name string) error {
	if err := os.Remove(s.path(name)); err != nil {
		return pkerrors.PasswordIOError{Name: name, Err: err}
	}
	return nil
}

// List returns the record names in the store, sorted.
func (s *Store) List() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, pkerrors.FileOpenError{Path: s.dir, Err: err}
	}
	var names []string
	for _, entry := range entries {
		if !entry.IsDir() {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}
