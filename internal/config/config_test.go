package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/systmms/pkdist/internal/config"
	pkerrors "github.com/systmms/pkdist/internal/errors"
	"github.com/systmms/pkdist/internal/logging"
)

func newConfig(t *testing.T, rc string) *config.Config {
	t.Helper()
	cfg := &config.Config{
		Logger:   logging.New(false, true),
		Settings: config.DefaultSettings(),
	}
	if rc != "" {
		path := filepath.Join(t.TempDir(), ".pkdistrc")
		require.NoError(t, os.WriteFile(path, []byte(rc), 0o600))
		cfg.Path = path
	} else {
		cfg.Path = filepath.Join(t.TempDir(), "missing")
	}
	return cfg
}

func TestDefaults(t *testing.T) {
	t.Parallel()

	s := config.DefaultSettings()
	assert.Equal(t, "./private", s.KeyPath)
	assert.Equal(t, "./certs/ca-bundle", s.CABundle)
	assert.Equal(t, "./passwords", s.PwStore)
	assert.Empty(t, s.CertPath, "certificates may come from a connect map instead")
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	t.Parallel()

	cfg := newConfig(t, "")
	require.NoError(t, cfg.Load())
	assert.Equal(t, "./private", cfg.Settings.KeyPath)
}

func TestLoadInvalidYAML(t *testing.T) {
	t.Parallel()

	cfg := newConfig(t, "identity: [unclosed\n")
	err := cfg.Load()
	var cfgErr pkerrors.ConfigError
	assert.ErrorAs(t, err, &cfgErr)
}

func TestLoadMergesFileOverDefaults(t *testing.T) {
	t.Parallel()

	cfg := newConfig(t, `
identity: alice
certpath: /etc/pkdist/certs
escrow_users: carol,dave
security: bob,carol
`)
	require.NoError(t, cfg.Load())

	assert.Equal(t, "alice", cfg.Settings.Identity)
	assert.Equal(t, "/etc/pkdist/certs", cfg.Settings.CertPath)
	assert.Equal(t, "carol,dave", cfg.Settings.EscrowUsers)
	assert.Equal(t, "./private", cfg.Settings.KeyPath, "unset fields keep defaults")

	members, ok := cfg.Group("security")
	require.True(t, ok)
	assert.Equal(t, "bob,carol", members)

	_, ok = cfg.Group("platform")
	assert.False(t, ok)
}

func TestExplicitFlagsOutrankFile(t *testing.T) {
	t.Parallel()

	cfg := newConfig(t, "identity: fileuser\nkeypath: /file/keys\n")
	cfg.Settings.Identity = "flaguser"
	cfg.FlagChanged = func(name string) bool { return name == "identity" }

	require.NoError(t, cfg.Load())
	assert.Equal(t, "flaguser", cfg.Settings.Identity)
	assert.Equal(t, "/file/keys", cfg.Settings.KeyPath)
}

func TestValidateRequiresPaths(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	bundle := filepath.Join(dir, "ca-bundle")
	pwstore := filepath.Join(dir, "passwords")
	require.NoError(t, os.WriteFile(bundle, []byte("certs"), 0o600))
	require.NoError(t, os.Mkdir(pwstore, 0o700))

	cfg := newConfig(t, "")
	cfg.Settings.CABundle = bundle
	cfg.Settings.PwStore = pwstore
	cfg.Settings.CertPath = dir
	assert.NoError(t, cfg.Validate())

	cfg.Settings.CABundle = filepath.Join(dir, "missing")
	var fileErr pkerrors.FileOpenError
	assert.ErrorAs(t, cfg.Validate(), &fileErr)
}

func TestValidateRequiresCertificateSource(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	bundle := filepath.Join(dir, "ca-bundle")
	require.NoError(t, os.WriteFile(bundle, []byte("certs"), 0o600))

	cfg := newConfig(t, "")
	cfg.Settings.CABundle = bundle
	cfg.Settings.PwStore = dir
	cfg.Settings.CertPath = ""
	cfg.Settings.Connect = ""

	var cfgErr pkerrors.ConfigError
	require.ErrorAs(t, cfg.Validate(), &cfgErr)
	assert.Equal(t, "certpath", cfgErr.Field)

	cfg.Settings.Connect = `{"vault": {"address": "https://vault:8200"}}`
	assert.NoError(t, cfg.Validate())
}

func TestConnectMap(t *testing.T) {
	t.Parallel()

	cfg := newConfig(t, "")
	cfg.Settings.Connect = `{
		"base_directory": "/var/cache/pkdist",
		"vault": {"address": "https://vault:8200", "path": "secret/certs"},
		"sql": "postgres://inventory"
	}`

	baseDir, connect, err := cfg.ConnectMap()
	require.NoError(t, err)
	assert.Equal(t, "/var/cache/pkdist", baseDir)
	require.Len(t, connect, 2)
	assert.Equal(t, "https://vault:8200", connect["vault"]["address"])
	assert.Equal(t, "postgres://inventory", connect["sql"]["address"],
		"string entries are address shorthand")
}

func TestConnectMapEmpty(t *testing.T) {
	t.Parallel()

	cfg := newConfig(t, "")
	baseDir, connect, err := cfg.ConnectMap()
	require.NoError(t, err)
	assert.Empty(t, baseDir)
	assert.Nil(t, connect)
}

func TestConnectMapRejectsBadShapes(t *testing.T) {
	t.Parallel()

	cfg := newConfig(t, "")

	cfg.Settings.Connect = `{"vault": 42}`
	_, _, err := cfg.ConnectMap()
	var cfgErr pkerrors.ConfigError
	assert.ErrorAs(t, err, &cfgErr)

	cfg.Settings.Connect = `not json`
	_, _, err = cfg.ConnectMap()
	assert.Error(t, err)
}
