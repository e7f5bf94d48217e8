package crypto

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync"
	"time"
)

// Fake is a test double for Provider. Derived fields are deterministic
// functions of the input bytes so idempotence can be asserted, and every
// Encrypt/Decrypt call is counted so tests can prove the validator gate
// fires before any cryptography.
type Fake struct {
	// VerifyResult is returned from VerifyChain for every certificate.
	VerifyResult bool

	// VerifyDelay simulates per-certificate chain-validation latency.
	VerifyDelay time.Duration

	mu           sync.Mutex
	encryptCalls int
	decryptCalls int
}

// NewFake returns a Fake whose chain verification always succeeds.
func NewFake() *Fake {
	return &Fake{VerifyResult: true}
}

func (f *Fake) VerifyChain(certDER []byte, trustAnchorPath string) bool {
	if f.VerifyDelay > 0 {
		time.Sleep(f.VerifyDelay)
	}
	return f.VerifyResult
}

func (f *Fake) Fingerprint(certDER []byte) string {
	sum := sha256.Sum256(certDER)
	return hex.EncodeToString(sum[:8])
}

func (f *Fake) Subject(certDER []byte) string {
	return "CN=" + f.Fingerprint(certDER)
}

func (f *Fake) Issuer(certDER []byte) string {
	return "CN=fake-ca"
}

func (f *Fake) SubjectHash(certDER []byte) string {
	return f.Fingerprint(certDER)[:8]
}

func (f *Fake) IssuerHash(certDER []byte) string {
	return "deadbeef"
}

func (f *Fake) NotAfter(certDER []byte) time.Time {
	return time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
}

func (f *Fake) Encrypt(certDER []byte, secret []byte) ([]byte, error) {
	f.mu.Lock()
	f.encryptCalls++
	f.mu.Unlock()
	return append([]byte("enc:"), secret...), nil
}

func (f *Fake) Decrypt(keyPath string, blob []byte, passphrase []byte) ([]byte, error) {
	f.mu.Lock()
	f.decryptCalls++
	f.mu.Unlock()
	if len(blob) < 4 || string(blob[:4]) != "enc:" {
		return nil, fmt.Errorf("malformed blob")
	}
	return blob[4:], nil
}

// EncryptCalls reports how many times Encrypt has been invoked.
func (f *Fake) EncryptCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.encryptCalls
}

// DecryptCalls reports how many times Decrypt has been invoked.
func (f *Fake) DecryptCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.decryptCalls
}
