// Package crypto defines the cryptographic capability pkdist depends on.
//
// The trust store and the commands never touch certificate math directly;
// they call a Provider. The default implementation is backed by crypto/x509,
// but the interface exists so deployments with hardware tokens or alternate
// chain-validation rules can swap their own in.
//
// Providers must fail closed: a certificate that cannot be parsed is treated
// as unverified, never as a crash.
package crypto

import (
	"time"
)

// Provider is the cryptographic capability consumed by the trust store and
// the password commands. Certificate arguments are DER-encoded.
//
// Implementations must be safe for concurrent use; the trust store fans
// verification out across goroutines.
type Provider interface {
	// VerifyChain reports whether the certificate chains to the CA bundle
	// at trustAnchorPath. Any parse or I/O failure yields false.
	VerifyChain(certDER []byte, trustAnchorPath string) bool

	// Fingerprint returns a stable fingerprint for the certificate, or ""
	// if the certificate cannot be parsed.
	Fingerprint(certDER []byte) string

	// Subject and Issuer return the distinguished names, "" on parse failure.
	Subject(certDER []byte) string
	Issuer(certDER []byte) string

	// SubjectHash and IssuerHash return short lookup hashes of the
	// distinguished names, "" on parse failure.
	SubjectHash(certDER []byte) string
	IssuerHash(certDER []byte) string

	// NotAfter returns the certificate expiration, zero time on parse failure.
	NotAfter(certDER []byte) time.Time

	// Encrypt encrypts a secret to the certificate's public key.
	Encrypt(certDER []byte, secret []byte) ([]byte, error)

	// Decrypt decrypts a blob with the private key stored at keyPath.
	// passphrase may be nil for unencrypted keys.
	Decrypt(keyPath string, blob []byte, passphrase []byte) ([]byte, error)
}
