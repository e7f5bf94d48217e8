package connector_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	pkerrors "github.com/systmms/pkdist/internal/errors"
	"github.com/systmms/pkdist/pkg/connector"
)

func TestRegistryCreateIsCaseInsensitive(t *testing.T) {
	t.Parallel()

	fake := connector.NewFakeConnector("fake", map[string][]string{"alice": {"pem"}})
	registry := connector.NewRegistry()
	registry.Register("Vault", fake.Factory())

	assert.True(t, registry.IsSupported("vault"))
	assert.True(t, registry.IsSupported("VAULT"))
	assert.Equal(t, []string{"vault"}, registry.Supported())

	conn, err := registry.Create("vAuLt", nil)
	require.NoError(t, err)

	certs, err := conn.ListCertificates(context.Background())
	require.NoError(t, err)
	assert.Contains(t, certs, "alice")
}

func TestRegistryUnknownName(t *testing.T) {
	t.Parallel()

	registry := connector.NewRegistry()
	_, err := registry.Create("ldap", nil)

	var connErr pkerrors.ConnectorError
	require.ErrorAs(t, err, &connErr)
	assert.Equal(t, "ldap", connErr.Connector)
	assert.Equal(t, "create", connErr.Op)
}

func TestFakeConnectorFailure(t *testing.T) {
	t.Parallel()

	fake := connector.NewFakeConnector("fake", nil)
	fake.Fail = true

	_, err := fake.ListCertificates(context.Background())
	assert.Error(t, err)
	assert.Equal(t, 1, fake.Calls())
}
