package identity

import "time"

// CertificateRecord holds one certificate found in an identity's certificate
// file, together with the attributes derived during verification. Derived
// fields are only meaningful once the record exists at all: records are
// created by verification, never by loading.
type CertificateRecord struct {
	// Raw is the DER-encoded certificate.
	Raw []byte

	// Verified reports whether chain validation against the store's trust
	// anchor succeeded.
	Verified bool

	Fingerprint string
	Subject     string
	Issuer      string
	SubjectHash string
	IssuerHash  string

	// NotAfter is the certificate expiration.
	NotAfter time.Time
}

// Identity is one entry in the trust store, keyed by UID. The certificate
// and key paths accumulate independently: a directory scan for keys updates
// KeyPath on the same record a certificate scan created.
type Identity struct {
	// UID is the identity's unique name, derived from a certificate or key
	// file's base name.
	UID string

	// CertificatePath points at the file holding the identity's
	// certificate(s). Empty for identities known only by a private key.
	CertificatePath string

	// KeyPath points at the identity's private key. Usually set only for
	// the local operator; other key material may live on hardware tokens.
	KeyPath string

	// TrustAnchor is the CA bundle this identity was verified against.
	// Assigned during verification.
	TrustAnchor string

	// Certificates holds one record per certificate in CertificatePath,
	// populated by VerifyIdentity. May be nil before verification even when
	// CertificatePath is set.
	Certificates []CertificateRecord
}
