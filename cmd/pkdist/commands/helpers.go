package commands

import (
	"bytes"
	"context"
	goerrors "errors"
	"fmt"
	"io"
	"os"
	"time"

	"golang.org/x/term"

	"github.com/systmms/pkdist/internal/access"
	"github.com/systmms/pkdist/internal/config"
	"github.com/systmms/pkdist/internal/connectors"
	pkerrors "github.com/systmms/pkdist/internal/errors"
	"github.com/systmms/pkdist/internal/identity"
	"github.com/systmms/pkdist/internal/recipients"
	"github.com/systmms/pkdist/internal/secure"
	"github.com/systmms/pkdist/pkg/crypto"
	"github.com/systmms/pkdist/pkg/passstore"
)

// session is the shared command setup: resolved recipients, a loaded and
// validated trust store, and the crypto provider the command will encrypt
// or decrypt with. Every password command goes through newSession before
// touching the store.
type session struct {
	cfg        *config.Config
	store      *identity.Store
	recipients []string
	provider   crypto.Provider
	passwords  *passstore.Store
}

// newSession runs the common pipeline: configuration → recipient
// resolution → certificate/key loading → (optional) bulk verification →
// access validation. The access gate runs before the caller can reach any
// cryptographic operation.
func newSession(ctx context.Context, cfg *config.Config, verifyOnLoad bool) (*session, error) {
	if err := cfg.Load(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	recips, err := recipients.Resolve(cfg)
	if err != nil {
		return nil, err
	}

	cacheRoot, connect, err := cfg.ConnectMap()
	if err != nil {
		return nil, err
	}

	var opts []identity.Option
	if cacheRoot != "" {
		opts = append(opts, identity.WithCacheRoot(cacheRoot))
	}

	provider := crypto.NewX509Provider()
	store := identity.New(cfg.Settings.CABundle, provider, cfg.Logger, connectors.NewRegistry(), opts...)

	if err := store.LoadCertificates(ctx, cfg.Settings.CertPath, connect, cfg.Settings.NoCache); err != nil {
		return nil, err
	}
	if err := store.LoadKeys(cfg.Settings.KeyPath); err != nil {
		return nil, err
	}

	if verifyOnLoad && !cfg.Settings.NoVerify {
		if err := store.VerifyAll(ctx); err != nil {
			return nil, err
		}
	}

	if err := access.ValidateRecipients(recips, store, cfg.Settings.Identity); err != nil {
		return nil, err
	}

	return &session{
		cfg:        cfg,
		store:      store,
		recipients: recips,
		provider:   provider,
		passwords:  passstore.NewStore(cfg.Settings.PwStore),
	}, nil
}

// seal encrypts the secret to each named recipient's first certificate.
// Access validation only guarantees presence for the operator, so names not
// yet verified are verified here before their certificates are used.
func (s *session) seal(names []string, secret []byte) (map[string]passstore.Encrypted, error) {
	sealed := make(map[string]passstore.Encrypted, len(names))
	for _, name := range names {
		id, ok := s.store.Identity(name)
		if !ok {
			return nil, pkerrors.UnknownRecipientError{Recipient: name}
		}
		if len(id.Certificates) == 0 {
			if err := s.store.VerifyIdentity(name); err != nil {
				return nil, pkerrors.UnknownRecipientError{Recipient: name}
			}
			id, _ = s.store.Identity(name)
		}
		if len(id.Certificates) == 0 {
			return nil, pkerrors.UnknownRecipientError{Recipient: name}
		}
		cert := id.Certificates[0]

		ciphertext, err := s.provider.Encrypt(cert.Raw, secret)
		if err != nil {
			return nil, fmt.Errorf("encrypt for %s: %w", name, err)
		}
		sealed[name] = passstore.Encrypted{
			Blob:        passstore.EncodeBlob(ciphertext),
			Fingerprint: cert.Fingerprint,
			Distributor: s.cfg.Settings.Identity,
			Timestamp:   time.Now(),
		}
	}
	return sealed, nil
}

// unseal decrypts the acting identity's entry of a record.
func (s *session) unseal(rec *passstore.Record) ([]byte, error) {
	operator := s.cfg.Settings.Identity
	entry, ok := rec.Recipients[operator]
	if !ok {
		return nil, pkerrors.UserError{
			Message:    fmt.Sprintf("Password '%s' is not shared with '%s'", rec.Metadata.Name, operator),
			Suggestion: "Ask the record's creator to distribute it to you",
		}
	}

	blob, err := passstore.DecodeBlob(entry.Blob)
	if err != nil {
		return nil, pkerrors.PasswordIOError{Name: rec.Metadata.Name, Err: err}
	}

	id, ok := s.store.Identity(operator)
	if !ok || id.KeyPath == "" {
		return nil, pkerrors.UserError{
			Message:    fmt.Sprintf("No private key found for '%s' in %s", operator, s.cfg.Settings.KeyPath),
			Suggestion: "Check --keypath, or use your hardware token tooling to extract the secret",
		}
	}

	pass, err := obtainPassphrase(s.cfg)
	if err != nil {
		return nil, err
	}
	var passBytes []byte
	if pass != nil {
		locked, err := pass.Open()
		if err != nil {
			return nil, err
		}
		defer locked.Destroy()
		passBytes = locked.Bytes()
	}

	return s.provider.Decrypt(id.KeyPath, blob, passBytes)
}

// obtainPassphrase returns the operator's passphrase: from the OS keyring
// when cached, otherwise prompted. nil with --nopassphrase.
func obtainPassphrase(cfg *config.Config) (*secure.Passphrase, error) {
	if cfg.Settings.NoPassphrase {
		return nil, nil
	}

	if cached, ok, err := secure.CachedPassphrase(cfg.Settings.Identity); err == nil && ok {
		cfg.Logger.Debug("Using cached passphrase from OS keyring")
		return cached, nil
	}

	raw, err := promptHidden("Enter PIN/Passphrase: ")
	if err != nil {
		return nil, err
	}
	return secure.NewPassphrase(raw), nil
}

// promptHidden reads a line from the terminal without echo. When stdin is
// not a terminal (tests, pipes), it falls back to an unbuffered line read
// that consumes exactly one line, so consecutive prompts keep working.
func promptHidden(prompt string) ([]byte, error) {
	fmt.Fprint(os.Stderr, prompt)
	defer fmt.Fprintln(os.Stderr)

	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		return term.ReadPassword(fd)
	}

	var line []byte
	buf := make([]byte, 1)
	for {
		n, err := os.Stdin.Read(buf)
		if n > 0 {
			if buf[0] == '\n' {
				break
			}
			line = append(line, buf[0])
		}
		if err != nil {
			if goerrors.Is(err, io.EOF) && len(line) > 0 {
				break
			}
			return nil, err
		}
	}
	return bytes.TrimRight(line, "\r"), nil
}

// dedupe removes duplicate names while preserving first-seen order.
func dedupe(names []string) []string {
	seen := make(map[string]bool, len(names))
	out := make([]string, 0, len(names))
	for _, name := range names {
		if !seen[name] {
			seen[name] = true
			out = append(out, name)
		}
	}
	return out
}

func existingRecordError(name string) error {
	return pkerrors.UserError{
		Message:    fmt.Sprintf("Password '%s' already exists", name),
		Suggestion: "Pass --overwrite to replace it",
	}
}

// promptSecret reads a new secret twice and insists the entries match.
func promptSecret() ([]byte, error) {
	first, err := promptHidden("Enter password: ")
	if err != nil {
		return nil, err
	}
	second, err := promptHidden("Re-enter password: ")
	if err != nil {
		return nil, err
	}
	if string(first) != string(second) {
		return nil, pkerrors.UserError{
			Message:    "Passwords do not match",
			Suggestion: "Run the command again and enter the same value twice",
		}
	}
	return first, nil
}
