package secure

import (
	goerrors "errors"

	"github.com/zalando/go-keyring"
)

// keyringService namespaces pkdist entries in the OS keyring.
const keyringService = "pkdist"

// CachePassphrase stores the operator's passphrase in the OS keyring so
// subsequent commands can skip the prompt.
func CachePassphrase(identity string, passphrase string) error {
	return keyring.Set(keyringService, identity, passphrase)
}

// CachedPassphrase fetches a previously cached passphrase. The second
// return is false when no entry exists.
func CachedPassphrase(identity string) (*Passphrase, bool, error) {
	value, err := keyring.Get(keyringService, identity)
	if err != nil {
		if goerrors.Is(err, keyring.ErrNotFound) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return NewPassphrase([]byte(value)), true, nil
}

// ForgetPassphrase removes the cached passphrase, if any.
func ForgetPassphrase(identity string) error {
	err := keyring.Delete(keyringService, identity)
	if goerrors.Is(err, keyring.ErrNotFound) {
		return nil
	}
	return err
}
