package connectors

import (
	"context"
	"fmt"
	"strings"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	pkerrors "github.com/systmms/pkdist/internal/errors"
	"github.com/systmms/pkdist/pkg/connector"
)

// GCPSecretManagerConnector lists identity certificates stored as Google
// Secret Manager secrets with a common ID prefix, one secret per identity.
// Secret IDs cannot contain '/', so the prefix is joined with '-'
// (e.g. pkdist-certificates-alice).
type GCPSecretManagerConnector struct {
	name      string
	client    *secretmanager.Client
	projectID string
	prefix    string
}

// NewGCPSecretManagerConnector builds a Secret Manager connector from
// connect-map parameters: project_id (required), id_prefix (default
// "pkdist-certificates-"), and optionally service_account_key_path.
func NewGCPSecretManagerConnector(name string, params map[string]interface{}) (connector.Connector, error) {
	projectID := paramString(params, "project_id")
	if projectID == "" {
		return nil, pkerrors.ConnectorError{
			Connector: name,
			Op:        "create",
			Err:       fmt.Errorf("'project_id' parameter is required"),
		}
	}

	prefix := paramString(params, "id_prefix")
	if prefix == "" {
		prefix = "pkdist-certificates-"
	}

	var clientOpts []option.ClientOption
	if keyPath := paramString(params, "service_account_key_path"); keyPath != "" {
		clientOpts = append(clientOpts, option.WithCredentialsFile(keyPath))
	}

	client, err := secretmanager.NewClient(context.Background(), clientOpts...)
	if err != nil {
		return nil, pkerrors.ConnectorError{Connector: name, Op: "create", Err: err}
	}

	return &GCPSecretManagerConnector{
		name:      name,
		client:    client,
		projectID: projectID,
		prefix:    prefix,
	}, nil
}

func (c *GCPSecretManagerConnector) Name() string {
	return c.name
}

// ListCertificates iterates the project's secrets and reads the latest
// version of every one matching the prefix.
func (c *GCPSecretManagerConnector) ListCertificates(ctx context.Context) (map[string][]string, error) {
	certs := make(map[string][]string)

	it := c.client.ListSecrets(ctx, &secretmanagerpb.ListSecretsRequest{
		Parent: "projects/" + c.projectID,
	})
	for {
		secret, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, pkerrors.ConnectorError{Connector: c.name, Op: "list", Err: err}
		}

		secretID := baseName(secret.Name)
		if !strings.HasPrefix(secretID, c.prefix) {
			continue
		}

		version, err := c.client.AccessSecretVersion(ctx, &secretmanagerpb.AccessSecretVersionRequest{
			Name: secret.Name + "/versions/latest",
		})
		if err != nil {
			return nil, pkerrors.ConnectorError{Connector: c.name, Op: "list", Err: err}
		}

		uid := strings.TrimPrefix(secretID, c.prefix)
		if chain := splitPEM(version.Payload.GetData()); len(chain) > 0 {
			certs[uid] = chain
		}
	}
	return certs, nil
}
