package connectors

import (
	"context"
	"fmt"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/Azure/azure-sdk-for-go/sdk/security/keyvault/azsecrets"

	pkerrors "github.com/systmms/pkdist/internal/errors"
	"github.com/systmms/pkdist/pkg/connector"
)

// AzureKeyVaultConnector lists identity certificates stored as Key Vault
// secrets whose names carry a common prefix, one secret per identity.
// Key Vault secret names cannot contain '/', so the prefix is joined with
// '-' (e.g. pkdist-certificates-alice).
type AzureKeyVaultConnector struct {
	name   string
	client *azsecrets.Client
	prefix string
}

// NewAzureKeyVaultConnector builds a Key Vault connector from connect-map
// parameters: vault_url (required), name_prefix (default
// "pkdist-certificates-"), and optionally tenant_id/client_id/client_secret
// for service principal auth. Without explicit credentials the default
// Azure credential chain is used (environment, managed identity, CLI).
func NewAzureKeyVaultConnector(name string, params map[string]interface{}) (connector.Connector, error) {
	vaultURL := paramString(params, "vault_url")
	if vaultURL == "" {
		return nil, pkerrors.ConnectorError{
			Connector: name,
			Op:        "create",
			Err:       fmt.Errorf("'vault_url' parameter is required"),
		}
	}

	prefix := paramString(params, "name_prefix")
	if prefix == "" {
		prefix = "pkdist-certificates-"
	}

	cred, err := azureCredential(params)
	if err != nil {
		return nil, pkerrors.ConnectorError{Connector: name, Op: "create", Err: err}
	}

	client, err := azsecrets.NewClient(vaultURL, cred, nil)
	if err != nil {
		return nil, pkerrors.ConnectorError{Connector: name, Op: "create", Err: err}
	}

	return &AzureKeyVaultConnector{name: name, client: client, prefix: prefix}, nil
}

func azureCredential(params map[string]interface{}) (azcore.TokenCredential, error) {
	tenantID := paramString(params, "tenant_id")
	clientID := paramString(params, "client_id")
	clientSecret := paramString(params, "client_secret")

	if tenantID != "" && clientID != "" && clientSecret != "" {
		return azidentity.NewClientSecretCredential(tenantID, clientID, clientSecret, nil)
	}
	return azidentity.NewDefaultAzureCredential(nil)
}

func (c *AzureKeyVaultConnector) Name() string {
	return c.name
}

// ListCertificates pages through the vault's secrets and fetches every one
// matching the prefix.
func (c *AzureKeyVaultConnector) ListCertificates(ctx context.Context) (map[string][]string, error) {
	certs := make(map[string][]string)

	pager := c.client.NewListSecretPropertiesPager(nil)
	for pager.More() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return nil, pkerrors.ConnectorError{Connector: c.name, Op: "list", Err: err}
		}

		for _, item := range page.Value {
			if item.ID == nil {
				continue
			}
			secretName := item.ID.Name()
			if !strings.HasPrefix(secretName, c.prefix) {
				continue
			}

			resp, err := c.client.GetSecret(ctx, secretName, "", nil)
			if err != nil {
				return nil, pkerrors.ConnectorError{Connector: c.name, Op: "list", Err: err}
			}
			if resp.Value == nil {
				continue
			}

			uid := strings.TrimPrefix(secretName, c.prefix)
			if chain := splitPEM([]byte(*resp.Value)); len(chain) > 0 {
				certs[uid] = chain
			}
		}
	}
	return certs, nil
}
