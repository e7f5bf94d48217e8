package crypto

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/x509"
	"encoding/hex"
	"encoding/pem"
	"fmt"
	"os"
	"strings"
	"time"
)

// X509Provider implements Provider with the standard library certificate
// machinery. It is stateless and safe for concurrent use.
type X509Provider struct{}

// NewX509Provider returns the default crypto provider.
func NewX509Provider() *X509Provider {
	return &X509Provider{}
}

func (p *X509Provider) parse(certDER []byte) *x509.Certificate {
	cert, err := x509.ParseCertificate(certDER)
	if err != nil {
		return nil
	}
	return cert
}

// VerifyChain validates the certificate against the CA bundle. The bundle
// file may hold several PEM certificates; all become trusted roots.
func (p *X509Provider) VerifyChain(certDER []byte, trustAnchorPath string) bool {
	cert := p.parse(certDER)
	if cert == nil {
		return false
	}

	bundle, err := os.ReadFile(trustAnchorPath)
	if err != nil {
		return false
	}

	roots := x509.NewCertPool()
	if !roots.AppendCertsFromPEM(bundle) {
		return false
	}

	_, err = cert.Verify(x509.VerifyOptions{Roots: roots})
	return err == nil
}

// Fingerprint returns the colon-separated SHA-256 digest of the DER bytes.
func (p *X509Provider) Fingerprint(certDER []byte) string {
	if p.parse(certDER) == nil {
		return ""
	}
	sum := sha256.Sum256(certDER)
	parts := make([]string, len(sum))
	for i, b := range sum {
		parts[i] = fmt.Sprintf("%02X", b)
	}
	return strings.Join(parts, ":")
}

func (p *X509Provider) Subject(certDER []byte) string {
	cert := p.parse(certDER)
	if cert == nil {
		return ""
	}
	return cert.Subject.String()
}

func (p *X509Provider) Issuer(certDER []byte) string {
	cert := p.parse(certDER)
	if cert == nil {
		return ""
	}
	return cert.Issuer.String()
}

// nameHash produces a short lookup hash over a raw distinguished name,
// comparable to the subject/issuer hashes CA directories are keyed by.
func nameHash(raw []byte) string {
	sum := sha1.Sum(raw)
	return hex.EncodeToString(sum[:4])
}

func (p *X509Provider) SubjectHash(certDER []byte) string {
	cert := p.parse(certDER)
	if cert == nil {
		return ""
	}
	return nameHash(cert.RawSubject)
}

func (p *X509Provider) IssuerHash(certDER []byte) string {
	cert := p.parse(certDER)
	if cert == nil {
		return ""
	}
	return nameHash(cert.RawIssuer)
}

func (p *X509Provider) NotAfter(certDER []byte) time.Time {
	cert := p.parse(certDER)
	if cert == nil {
		return time.Time{}
	}
	return cert.NotAfter
}

// Encrypt seals a secret to the certificate holder with RSA-OAEP.
func (p *X509Provider) Encrypt(certDER []byte, secret []byte) ([]byte, error) {
	cert, err := x509.ParseCertificate(certDER)
	if err != nil {
		return nil, fmt.Errorf("parse certificate: %w", err)
	}

	pub, ok := cert.PublicKey.(*rsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("certificate public key is %T, want RSA", cert.PublicKey)
	}

	return rsa.EncryptOAEP(sha256.New(), rand.Reader, pub, secret, nil)
}

// Decrypt opens a blob with the PEM private key at keyPath.
func (p *X509Provider) Decrypt(keyPath string, blob []byte, passphrase []byte) ([]byte, error) {
	keyPEM, err := os.ReadFile(keyPath)
	if err != nil {
		return nil, fmt.Errorf("read private key: %w", err)
	}

	block, _ := pem.Decode(keyPEM)
	if block == nil {
		return nil, fmt.Errorf("no PEM block in %s", keyPath)
	}

	der := block.Bytes
	//nolint:staticcheck // legacy encrypted PEM keys are still common in the field
	if x509.IsEncryptedPEMBlock(block) {
		der, err = x509.DecryptPEMBlock(block, passphrase)
		if err != nil {
			return nil, fmt.Errorf("decrypt private key: %w", err)
		}
	}

	key, err := parsePrivateKey(der)
	if err != nil {
		return nil, err
	}

	return rsa.DecryptOAEP(sha256.New(), rand.Reader, key, blob, nil)
}

func parsePrivateKey(der []byte) (*rsa.PrivateKey, error) {
	if key, err := x509.ParsePKCS1PrivateKey(der); err == nil {
		return key, nil
	}
	parsed, err := x509.ParsePKCS8PrivateKey(der)
	if err != nil {
		return nil, fmt.Errorf("parse private key: %w", err)
	}
	key, ok := parsed.(*rsa.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("private key is %T, want RSA", parsed)
	}
	return key, nil
}
