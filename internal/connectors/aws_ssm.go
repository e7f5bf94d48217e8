package connectors

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ssm"

	pkerrors "github.com/systmms/pkdist/internal/errors"
	"github.com/systmms/pkdist/pkg/connector"
)

// SSMClientAPI defines the interface for AWS SSM Parameter Store operations
// This allows for mocking in tests
type SSMClientAPI interface {
	GetParametersByPath(ctx context.Context, params *ssm.GetParametersByPathInput, optFns ...func(*ssm.Options)) (*ssm.GetParametersByPathOutput, error)
}

// AWSSSMConnector lists identity certificates stored as SecureString
// parameters under a path prefix, one parameter per identity.
type AWSSSMConnector struct {
	name   string
	client SSMClientAPI
	prefix string
}

// SSMConnectorOption is a functional option for configuring SSM connectors.
type SSMConnectorOption func(*AWSSSMConnector)

// WithSSMClient sets a custom SSM client (for testing).
func WithSSMClient(client SSMClientAPI) SSMConnectorOption {
	return func(c *AWSSSMConnector) {
		c.client = client
	}
}

// NewAWSSSMConnector builds an SSM connector from connect-map parameters:
// region, profile, and path_prefix (default "/pkdist/certificates").
func NewAWSSSMConnector(name string, params map[string]interface{}) (connector.Connector, error) {
	return newAWSSSMConnector(name, params)
}

func newAWSSSMConnector(name string, params map[string]interface{}, opts ...SSMConnectorOption) (*AWSSSMConnector, error) {
	c := &AWSSSMConnector{
		name:   name,
		prefix: "/pkdist/certificates",
	}
	if prefix := paramString(params, "path_prefix"); prefix != "" {
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
		c.client = ssm.NewFromConfig(cfg)
	}
	return c, nil
}

func (c *AWSSSMConnector) Name() string {
	return c.name
}

// ListCertificates pages through every parameter under the prefix. The
// identity name is the parameter's final path element.
func (c *AWSSSMConnector) ListCertificates(ctx context.Context) (map[string][]string, error) {
	certs := make(map[string][]string)

	var nextToken *string
	for {
		out, err := c.client.GetParametersByPath(ctx, &ssm.GetParametersByPathInput{
			Path:           aws.String(c.prefix),
			Recursive:      aws.Bool(true),
			WithDecryption: aws.Bool(true),
			NextToken:      nextToken,
		})
		if err != nil {
			return nil, pkerrors.ConnectorError{Connector: c.name, Op: "list", Err: err}
		}

		for _, param := range out.Parameters {
			if param.Name == nil || param.Value == nil {
				continue
			}
			if chain := splitPEM([]byte(*param.Value)); len(chain) > 0 {
				certs[baseName(*param.Name)] = chain
			}
		}

		if out.NextToken == nil {
			break
		}
		nextToken = out.NextToken
	}
	return certs, nil
}
