package access_test

import (
	"context"
	"encoding/pem"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/systmms/pkdist/internal/access"
	pkerrors "github.com/systmms/pkdist/internal/errors"
	"github.com/systmms/pkdist/internal/identity"
	"github.com/systmms/pkdist/internal/logging"
	"github.com/systmms/pkdist/pkg/connector"
	"github.com/systmms/pkdist/pkg/crypto"
)

func storeWithIdentities(t *testing.T, fake *crypto.Fake, uids ...string) *identity.Store {
	t.Helper()
	dir := t.TempDir()
	for _, uid := range uids {
		blob := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: []byte(uid + "-der")})
		require.NoError(t, os.WriteFile(filepath.Join(dir, uid+".crt"), blob, 0o600))
	}
	store := identity.New("bundle", fake, logging.New(false, true), connector.NewRegistry())
	require.NoError(t, store.LoadCertificates(context.Background(), dir, nil, false))
	return store
}

func TestValidateRecipientsAllKnown(t *testing.T) {
	t.Parallel()

	store := storeWithIdentities(t, crypto.NewFake(), "alice", "bob")
	require.NoError(t, access.ValidateRecipients([]string{"alice", "bob"}, store, "alice"))

	// Validation verifies on the spot, so records are ready for sealing.
	alice, _ := store.Identity("alice")
	assert.NotEmpty(t, alice.Certificates)
}

func TestValidateRecipientsUnknownRecipient(t *testing.T) {
	t.Parallel()

	fake := crypto.NewFake()
	store := storeWithIdentities(t, fake, "alice")

	err := access.ValidateRecipients([]string{"alice", "ghost"}, store, "alice")
	var unknown pkerrors.UnknownRecipientError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "ghost", unknown.Recipient)

	// The gate fires before any sealing happens.
	assert.Zero(t, fake.EncryptCalls())
}

func TestValidateRecipientsKeyOnlyIdentity(t *testing.T) {
	t.Parallel()

	store := storeWithIdentities(t, crypto.NewFake(), "alice")

	keyDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(keyDir, "carol.key"), []byte("key"), 0o600))
	require.NoError(t, store.LoadKeys(keyDir))

	// carol is in the store but has no certificate, so she cannot be
	// encrypted to.
	err := access.ValidateRecipients([]string{"carol"}, store, "alice")
	var unknown pkerrors.UnknownRecipientError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "carol", unknown.Recipient)
}

func TestValidateRecipientsUnknownOperator(t *testing.T) {
	t.Parallel()

	store := storeWithIdentities(t, crypto.NewFake(), "alice")

	err := access.ValidateRecipients([]string{"alice"}, store, "ghost")
	var unknown pkerrors.UnknownIdentityError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "ghost", unknown.UID)
}
