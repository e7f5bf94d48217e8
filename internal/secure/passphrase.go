// Package secure handles the operator's passphrase: held in an encrypted
// memguard enclave while the process runs, optionally cached in the OS
// keyring between runs.
//
// The enclave keeps the plaintext out of core dumps and swap; call
// memguard.Purge in main's defer for full cleanup at exit.
package secure

import (
	"sync"

	"github.com/awnumar/memguard"
)

// Passphrase is a passphrase held in protected memory. The zero value is
// unusable; construct with NewPassphrase.
type Passphrase struct {
	enclave *memguard.Enclave

	mu        sync.RWMutex
	destroyed bool
}

// NewPassphrase seals the given bytes into an encrypted enclave. The caller
// should zero its own copy afterwards.
func NewPassphrase(data []byte) *Passphrase {
	return &Passphrase{enclave: memguard.NewEnclave(data)}
}

// Open decrypts the passphrase into a locked buffer. The caller MUST call
// Destroy on the returned buffer when done to wipe the plaintext.
func (p *Passphrase) Open() (*memguard.LockedBuffer, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.destroyed || p.enclave == nil {
		return memguard.NewBufferFromBytes([]byte{}), nil
	}
	return p.enclave.Open()
}

// Destroy marks the passphrase unusable. Idempotent; the encrypted enclave
// itself is safe to leave for the garbage collector.
func (p *Passphrase) Destroy() {
	p.mu.Lock()
	p.destroyed = true
	p.mu.Unlock()
}
