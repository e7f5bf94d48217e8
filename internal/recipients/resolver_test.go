package recipients_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/systmms/pkdist/internal/config"
	pkerrors "github.com/systmms/pkdist/internal/errors"
	"github.com/systmms/pkdist/internal/logging"
	"github.com/systmms/pkdist/internal/recipients"
)

func configWithRC(t *testing.T, rc string) *config.Config {
	t.Helper()
	path := filepath.Join(t.TempDir(), ".pkdistrc")
	require.NoError(t, os.WriteFile(path, []byte(rc), 0o600))
	cfg := &config.Config{Path: path, Logger: logging.New(false, true)}
	require.NoError(t, cfg.Load())
	return cfg
}

func TestResolveDeduplicatesAndTrims(t *testing.T) {
	t.Parallel()

	cfg := &config.Config{Logger: logging.New(false, true)}
	cfg.Settings.Users = " alice , bob,alice"
	cfg.Settings.EscrowUsers = "carol"

	got, err := recipients.Resolve(cfg)
	require.NoError(t, err)
	assert.Equal(t, []string{"alice", "bob", "carol"}, got)
}

func TestResolveEmptyConfigurationYieldsEmptyList(t *testing.T) {
	t.Parallel()

	cfg := &config.Config{Logger: logging.New(false, true)}
	got, err := recipients.Resolve(cfg)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestResolveRejectsEmptyNames(t *testing.T) {
	t.Parallel()

	cfg := &config.Config{Logger: logging.New(false, true)}
	cfg.Settings.Users = ","

	_, err := recipients.Resolve(cfg)
	var nullErr pkerrors.NullRecipientError
	assert.ErrorAs(t, err, &nullErr)
}

func TestResolveExpandsGroups(t *testing.T) {
	t.Parallel()

	cfg := configWithRC(t, "security: alice,bob\noncall: carol\n")
	cfg.Settings.Groups = "security, oncall"
	cfg.Settings.Users = "dave"

	got, err := recipients.Resolve(cfg)
	require.NoError(t, err)
	assert.Equal(t, []string{"alice", "bob", "carol", "dave"}, got)
}

func TestResolveUndefinedGroup(t *testing.T) {
	t.Parallel()

	cfg := configWithRC(t, "security: alice\n")
	cfg.Settings.Groups = "platform"

	_, err := recipients.Resolve(cfg)
	var groupErr pkerrors.GroupDefinitionError
	require.ErrorAs(t, err, &groupErr)
	assert.Equal(t, "platform", groupErr.Group)
}

func TestResolveGroupMembersDeduplicateAgainstUsers(t *testing.T) {
	t.Parallel()

	cfg := configWithRC(t, "security: alice,bob\n")
	cfg.Settings.Groups = "security"
	cfg.Settings.Users = "bob"
	cfg.Settings.EscrowUsers = "alice"

	got, err := recipients.Resolve(cfg)
	require.NoError(t, err)
	assert.Equal(t, []string{"alice", "bob"}, got)
}
