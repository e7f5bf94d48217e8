package passstore_test

import (
	"errors"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	pkerrors "github.com/systmms/pkdist/internal/errors"
	"github.com/systmms/pkdist/pkg/passstore"
)

func sampleRecord(name string) *passstore.Record {
	return &passstore.Record{
		Metadata: passstore.Metadata{
			Name:      name,
			Creator:   "alice",
			CreatedAt: time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
		},
		Recipients: map[string]passstore.Encrypted{
			"alice": {
				Blob:        passstore.EncodeBlob([]byte("ciphertext")),
				Fingerprint: "AA:BB",
				Distributor: "alice",
				Timestamp:   time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
			},
		},
	}
}

func TestWriteAndRead(t *testing.T) {
	t.Parallel()

	store := passstore.NewStore(t.TempDir())
	require.NoError(t, store.Write(sampleRecord("db-root"), false))

	rec, err := store.Read("db-root")
	require.NoError(t, err)
	assert.Equal(t, "db-root", rec.Metadata.Name)
	assert.Equal(t, "alice", rec.Metadata.Creator)

	blob, err := passstore.DecodeBlob(rec.Recipients["alice"].Blob)
	require.NoError(t, err)
	assert.Equal(t, []byte("ciphertext"), blob)
}

func TestWriteRefusesToClobber(t *testing.T) {
	t.Parallel()

	store := passstore.NewStore(t.TempDir())
	require.NoError(t, store.Write(sampleRecord("db-root"), false))

	err := store.Write(sampleRecord("db-root"), false)
	var ioErr pkerrors.PasswordIOError
	require.ErrorAs(t, err, &ioErr)
	assert.True(t, errors.Is(err, os.ErrExist))

	assert.NoError(t, store.Write(sampleRecord("db-root"), true))
}

func TestReadMissing(t *testing.T) {
	t.Parallel()

	store := passstore.NewStore(t.TempDir())
	_, err := store.Read("nothing")
	var ioErr pkerrors.PasswordIOError
	require.ErrorAs(t, err, &ioErr)
	assert.Equal(t, "nothing", ioErr.Name)
}

func TestRenameRewritesMetadata(t *testing.T) {
	t.Parallel()

	store := passstore.NewStore(t.TempDir())
	require.NoError(t, store.Write(sampleRecord("old"), false))
	require.NoError(t, store.Rename("old", "new"))

	_, err := store.Read("old")
	assert.Error(t, err)

	rec, err := store.Read("new")
	require.NoError(t, err)
	assert.Equal(t, "new", rec.Metadata.Name)
	assert.Contains(t, rec.Recipients, "alice", "recipients survive the rename")
}

func TestDeleteAndList(t *testing.T) {
	t.Parallel()

	store := passstore.NewStore(t.TempDir())
	require.NoError(t, store.Write(sampleRecord("b"), false))
	require.NoError(t, store.Write(sampleRecord("a"), false))

	names, err := store.List()
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, names)

	require.NoError(t, store.Delete("a"))
	names, err = store.List()
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, names)

	assert.Error(t, store.Delete("a"))
}
