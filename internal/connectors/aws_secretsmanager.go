package connectors

import (
	"context"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager/types"

	pkerrors "github.com/systmms/pkdist/internal/errors"
	"github.com/systmms/pkdist/pkg/connector"
)

// SecretsManagerClientAPI defines the interface for AWS Secrets Manager
// operations. This allows for mocking in tests
type SecretsManagerClientAPI interface {
	ListSecrets(ctx context.Context, params *secretsmanager.ListSecretsInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.ListSecretsOutput, error)
	GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
}

// AWSSecretsManagerConnector lists identity certificates stored as secrets
// under a name prefix, one secret per identity.
type AWSSecretsManagerConnector struct {
	name   string
	client SecretsManagerClientAPI
	prefix string
}

// SecretsManagerConnectorOption is a functional option for configuring
// Secrets Manager connectors.
type SecretsManagerConnectorOption func(*AWSSecretsManagerConnector)

// WithSecretsManagerClient sets a custom client (for testing).
func WithSecretsManagerClient(client SecretsManagerClientAPI) SecretsManagerConnectorOption {
	return func(c *AWSSecretsManagerConnector) {
		c.client = client
	}
}

// NewAWSSecretsManagerConnector builds a Secrets Manager connector from
// connect-map parameters: region, profile, and name_prefix
// (default "pkdist/certificates/").
func NewAWSSecretsManagerConnector(name string, params map[string]interface{}) (connector.Connector, error) {
	return newAWSSecretsManagerConnector(name, params)
}

func newAWSSecretsManagerConnector(name string, params map[string]interface{}, opts ...SecretsManagerConnectorOption) (*AWSSecretsManagerConnector, error) {
	c := &AWSSecretsManagerConnector{
		name:   name,
		prefix: "pkdist/certificates/",
	}
	if prefix := paramString(params, "name_prefix"); prefix != "" {
		c.prefix = prefix
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.client == nil {
		var configOpts []func(*awsconfig.LoadOptions) error
		if region := paramString(params, "region"); region != "" {
			configOpts = append(configOpts, awsconfig.WithRegion(region))
		}
		if profile := paramString(params, "profile"); profile != "" {
			configOpts = append(configOpts, awsconfig.WithSharedConfigProfile(profile))
		}

		cfg, err := awsconfig.LoadDefaultConfig(context.Background(), configOpts...)
		if err != nil {
			return nil, pkerrors.ConnectorError{Connector: name, Op: "create", Err: err}
		}
		c.client = secretsmanager.NewFromConfig(cfg)
	}
	return c, nil
}

func (c *AWSSecretsManagerConnector) Name() string {
	return c.name
}

// ListCertificates enumerates secrets under the prefix and fetches each
// value. The identity name is the secret name with the prefix stripped.
func (c *AWSSecretsManagerConnector) ListCertificates(ctx context.Context) (map[string][]string, error) {
	certs := make(map[string][]string)

	var nextToken *string
	for {
		out, err := c.client.ListSecrets(ctx, &secretsmanager.ListSecretsInput{
			Filters: []types.Filter{{
				Key:    types.FilterNameStringTypeName,
				Values: []string{c.prefix},
			}},
			NextToken: nextToken,
		})
		if err != nil {
			return nil, pkerrors.ConnectorError{Connector: c.name, Op: "list", Err: err}
		}

		for _, entry := range out.SecretList {
			if entry.Name == nil {
				continue
			}
			value, err := c.client.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
				SecretId: entry.Name,
			})
			if err != nil {
				return nil, pkerrors.ConnectorError{Connector: c.name, Op: "list", Err: err}
			}
			if value.SecretString == nil {
				continue
			}
			uid := strings.TrimPrefix(aws.ToString(entry.Name), c.prefix)
			if chain := splitPEM([]byte(*value.SecretString)); len(chain) > 0 {
				certs[uid] = chain
			}
		}

		if out.NextToken == nil {
			break
		}
		nextToken = out.NextToken
	}
	return certs, nil
}
