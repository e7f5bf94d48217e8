package identity

import (
	"context"
	"encoding/pem"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	pkerrors "github.com/systmms/pkdist/internal/errors"
	"github.com/systmms/pkdist/internal/logging"
	"github.com/systmms/pkdist/pkg/connector"
	"github.com/systmms/pkdist/pkg/crypto"
)

type artifactKind int

const (
	artifactCertificate artifactKind = iota
	artifactKey
)

var certificateExtensions = []string{".cert", ".crt"}

const keyExtension = ".key"

// Store is the in-memory identity database: the mapping from identity name
// to certificate and key material, plus the verification state derived from
// it. A store lives for one command invocation and is never persisted.
//
// Loading and verification are separate phases. All load operations complete
// before VerifyAll is invoked, so concurrent verification only ever writes
// each identity's own Certificates field; the outer map is not mutated
// while workers run.
type Store struct {
	trustAnchor string
	crypto      crypto.Provider
	logger      *logging.Logger
	registry    *connector.Registry
	cacheRoot   string

	mu         sync.RWMutex
	identities map[string]*Identity
}

// Option configures a Store.
type Option func(*Store)

// WithCacheRoot overrides the directory connector results are cached under.
// The default is the system temp directory.
func WithCacheRoot(dir string) Option {
	return func(s *Store) {
		s.cacheRoot = dir
	}
}

// New creates an empty store bound to a trust anchor. The anchor is fixed
// for the store's lifetime; build a new store to verify against a different
// bundle.
func New(trustAnchor string, provider crypto.Provider, logger *logging.Logger, registry *connector.Registry, opts ...Option) *Store {
	s := &Store{
		trustAnchor: trustAnchor,
		crypto:      provider,
		logger:      logger,
		registry:    registry,
		cacheRoot:   os.TempDir(),
		identities:  make(map[string]*Identity),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// TrustAnchor returns the CA bundle path this store verifies against.
func (s *Store) TrustAnchor() string {
	return s.trustAnchor
}

// Identity returns the record for a uid, if present.
func (s *Store) Identity(uid string) (*Identity, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.identities[uid]
	return id, ok
}

// UIDs returns every identity name currently in the store, sorted.
func (s *Store) UIDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	uids := make([]string, 0, len(s.identities))
	for uid := range s.identities {
		uids = append(uids, uid)
	}
	sort.Strings(uids)
	return uids
}

// LoadCertificates populates the store from the connect map and/or a local
// certificate directory. Connector results are cached under a per-connector
// directory and loaded from there; the connector itself is only invoked when
// its cache is empty or noCache is set.
//
// A failure in one step aborts the load but does not roll back identities
// already merged: the command aborts at the top level anyway, and partial
// state can still be inspected.
func (s *Store) LoadCertificates(ctx context.Context, path string, connect map[string]map[string]interface{}, noCache bool) error {
	if len(connect) > 0 {
		if err := s.loadFromConnectors(ctx, connect, noCache); err != nil {
			return err
		}
	}
	if path != "" {
		if err := s.loadDirectory(path, artifactCertificate); err != nil {
			return err
		}
	}
	return nil
}

// loadFromConnectors runs connectors one at a time: cache-directory creation
// under a shared root would race if parallelized.
func (s *Store) loadFromConnectors(ctx context.Context, connect map[string]map[string]interface{}, noCache bool) error {
	names := make([]string, 0, len(connect))
	for name := range connect {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		dir := filepath.Join(s.cacheRoot, name)
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return pkerrors.FileOpenError{Path: dir, Err: err}
		}

		if noCache || dirEmpty(dir) {
			if err := s.refreshCache(ctx, name, connect[name], dir); err != nil {
				return err
			}
		} else {
			s.logger.Debug("Connector %s: using cached certificates in %s", name, dir)
		}

		if err := s.loadDirectory(dir, artifactCertificate); err != nil {
			return err
		}
	}
	return nil
}

// refreshCache invokes a connector and writes its results as <uid>.crt files.
// Connectors live only for this one refresh; those holding resources such as
// database handles are closed before returning.
func (s *Store) refreshCache(ctx context.Context, name string, params map[string]interface{}, dir string) error {
	conn, err := s.registry.Create(name, params)
	if err != nil {
		return err
	}
	if closer, ok := conn.(io.Closer); ok {
		defer closer.Close()
	}

	certs, err := conn.ListCertificates(ctx)
	if err != nil {
		return err
	}

	for uid, chain := range certs {
		target := filepath.Join(dir, uid+certificateExtensions[1])
		if err := os.WriteFile(target, []byte(strings.Join(chain, "\n")+"\n"), 0o600); err != nil {
			return pkerrors.ConnectorError{Connector: name, Op: "cache", Err: err}
		}
	}
	s.logger.Debug("Connector %s: cached %d certificate(s) in %s", name, len(certs), dir)
	return nil
}

// LoadKeys loads private-key paths from a local directory. A missing
// directory is deliberately not an error: key material may live on a
// smartcard rather than the filesystem.
func (s *Store) LoadKeys(path string) error {
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		return nil
	}
	return s.loadDirectory(path, artifactKey)
}

// loadDirectory scans one directory for artifacts of the given kind and
// upserts an identity per matching file.
func (s *Store) loadDirectory(path string, kind artifactKind) error {
	entries, err := os.ReadDir(path)
	if err != nil {
		return pkerrors.FileOpenError{Path: path, Err: err}
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		ext := matchExtension(name, kind)
		if ext == "" {
			continue
		}
		uid := strings.TrimSuffix(name, ext)
		s.upsert(uid, filepath.Join(path, name), kind)
	}
	return nil
}

func matchExtension(name string, kind artifactKind) string {
	switch kind {
	case artifactCertificate:
		for _, ext := range certificateExtensions {
			if strings.HasSuffix(name, ext) {
				return ext
			}
		}
	case artifactKey:
		if strings.HasSuffix(name, keyExtension) {
			return keyExtension
		}
	}
	return ""
}

// upsert creates or updates the identity record for uid as one atomic step.
// A later load wins over an earlier one for the same artifact kind; that is
// load-order dependent, so it gets a warning rather than silence.
func (s *Store) upsert(uid, path string, kind artifactKind) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.identities[uid]
	if !ok {
		id = &Identity{UID: uid}
		s.identities[uid] = id
	}

	switch kind {
	case artifactCertificate:
		if id.CertificatePath != "" && id.CertificatePath != path {
			s.logger.Warn("Identity %s: certificate path %s overrides %s", uid, path, id.CertificatePath)
		}
		id.CertificatePath = path
	case artifactKey:
		if id.KeyPath != "" && id.KeyPath != path {
			s.logger.Warn("Identity %s: key path %s overrides %s", uid, path, id.KeyPath)
		}
		id.KeyPath = path
	}
}

// VerifyIdentity validates every certificate in uid's certificate file
// against the trust anchor and replaces the identity's certificate records
// with freshly derived ones. Re-running it on an unchanged file yields the
// same records.
func (s *Store) VerifyIdentity(uid string) error {
	s.mu.RLock()
	id, ok := s.identities[uid]
	s.mu.RUnlock()
	if !ok || id.CertificatePath == "" {
		return pkerrors.UnknownIdentityError{UID: uid}
	}

	blob, err := os.ReadFile(id.CertificatePath)
	if err != nil {
		return pkerrors.FileOpenError{Path: id.CertificatePath, Err: err}
	}

	records := make([]CertificateRecord, 0, 1)
	rest := blob
	for {
		var block *pem.Block
		block, rest = pem.Decode(rest)
		if block == nil {
			break
		}
		if block.Type != "CERTIFICATE" {
			continue
		}
		records = append(records, s.deriveRecord(block.Bytes))
	}

	// Only this identity's fields are written, so concurrent verification
	// of other identities cannot race with this update.
	id.TrustAnchor = s.trustAnchor
	id.Certificates = records
	return nil
}

func (s *Store) deriveRecord(der []byte) CertificateRecord {
	return CertificateRecord{
		Raw:         der,
		Verified:    s.crypto.VerifyChain(der, s.trustAnchor),
		Fingerprint: s.crypto.Fingerprint(der),
		Subject:     s.crypto.Subject(der),
		Issuer:      s.crypto.Issuer(der),
		SubjectHash: s.crypto.SubjectHash(der),
		IssuerHash:  s.crypto.IssuerHash(der),
		NotAfter:    s.crypto.NotAfter(der),
	}
}

// VerifyAll verifies every identity concurrently and waits for all workers
// before returning. One identity's failure does not stop the others; the
// first error is reported after the join, and each identity's Verified
// flags remain meaningful regardless of the overall result.
func (s *Store) VerifyAll(ctx context.Context) error {
	uids := s.UIDs()

	var g errgroup.Group
	for _, uid := range uids {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			return s.VerifyIdentity(uid)
		})
	}
	return g.Wait()
}

func dirEmpty(dir string) bool {
	entries, err := os.ReadDir(dir)
	return err == nil && len(entries) == 0
}
