package secure

import (
	"bytes"
	"testing"

	"github.com/zalando/go-keyring"
)

func TestPassphraseRoundTrip(t *testing.T) {
	t.Parallel()

	// memguard may zero the source buffer, so keep a copy for comparison.
	secretStr := "correct horse battery staple"
	secret := []byte(secretStr)
	expected := []byte(secretStr)

	p := NewPassphrase(secret)
	defer p.Destroy()

	locked, err := p.Open()
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer locked.Destroy()

	if !bytes.Equal(locked.Bytes(), expected) {
		t.Error("Open() did not return the sealed passphrase")
	}
}

func TestPassphraseDestroyIsIdempotent(t *testing.T) {
	t.Parallel()

	p := NewPassphrase([]byte("secret"))
	p.Destroy()
	p.Destroy()

	locked, err := p.Open()
	if err != nil {
		t.Fatalf("Open() after Destroy error = %v", err)
	}
	defer locked.Destroy()

	if len(locked.Bytes()) != 0 {
		t.Error("Open() after Destroy should yield no plaintext")
	}
}

func TestKeyringCache(t *testing.T) {
	keyring.MockInit()

	if _, ok, err := CachedPassphrase("alice"); err != nil || ok {
		t.Fatalf("CachedPassphrase() before caching = ok %v, err %v", ok, err)
	}

	if err := CachePassphrase("alice", "hunter2"); err != nil {
		t.Fatalf("CachePassphrase() error = %v", err)
	}

	p, ok, err := CachedPassphrase("alice")
	if err != nil || !ok {
		t.Fatalf("CachedPassphrase() = ok %v, err %v", ok, err)
	}
	locked, err := p.Open()
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer locked.Destroy()
	if string(locked.Bytes()) != "hunter2" {
		t.Error("cached passphrase does not round-trip")
	}

	if err := ForgetPassphrase("alice"); err != nil {
		t.Fatalf("ForgetPassphrase() error = %v", err)
	}
	if _, ok, _ := CachedPassphrase("alice"); ok {
		t.Error("passphrase survived ForgetPassphrase")
	}

	// Forgetting a missing entry is not an error.
	if err := ForgetPassphrase("alice"); err != nil {
		t.Fatalf("ForgetPassphrase() on empty keyring error = %v", err)
	}
}
