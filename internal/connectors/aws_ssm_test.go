package connectors

import (
	"context"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	ssmtypes "github.com/aws/aws-sdk-go-v2/service/ssm/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// pagedSSMClient serves fixed pages and records the requested path.
type pagedSSMClient struct {
	pages []ssm.GetParametersByPathOutput
	calls int
	path  string
}

func (m *pagedSSMClient) GetParametersByPath(ctx context.Context, params *ssm.GetParametersByPathInput, optFns ...func(*ssm.Options)) (*ssm.GetParametersByPathOutput, error) {
	m.path = aws.ToString(params.Path)
	out := m.pages[m.calls]
	m.calls++
	return &out, nil
}

func TestAWSSSMConnectorPagesThroughParameters(t *testing.T) {
	t.Parallel()

	client := &pagedSSMClient{
		pages: []ssm.GetParametersByPathOutput{
			{
				Parameters: []ssmtypes.Parameter{
					{Name: aws.String("/pkdist/certificates/alice"), Value: aws.String(testPEM("alice-der"))},
				},
				NextToken: aws.String("page2"),
			},
			{
				Parameters: []ssmtypes.Parameter{
					{Name: aws.String("/pkdist/certificates/bob"), Value: aws.String(testPEM("bob-der"))},
					{Name: aws.String("/pkdist/certificates/junk"), Value: aws.String("not a certificate")},
				},
			},
		},
	}

	conn, err := newAWSSSMConnector("aws.ssm", map[string]interface{}{}, WithSSMClient(client))
	require.NoError(t, err)
	assert.Equal(t, "aws.ssm", conn.Name())

	certs, err := conn.ListCertificates(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, client.calls, "should follow NextToken")
	assert.Equal(t, "/pkdist/certificates", client.path)
	require.Len(t, certs, 2)
	assert.Contains(t, certs, "alice")
	assert.Contains(t, certs, "bob")
}

func TestAWSSSMConnectorCustomPrefix(t *testing.T) {
	t.Parallel()

	client := &pagedSSMClient{pages: []ssm.GetParametersByPathOutput{{}}}
	conn, err := newAWSSSMConnector("aws.ssm",
		map[string]interface{}{"path_prefix": "/corp/pki"}, WithSSMClient(client))
	require.NoError(t, err)

	_, err = conn.ListCertificates(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "/corp/pki", client.path)
}

type failingSSMClient struct{}

func (failingSSMClient) GetParametersByPath(ctx context.Context, params *ssm.GetParametersByPathInput, optFns ...func(*ssm.Options)) (*ssm.GetParametersByPathOutput, error) {
	return nil, assert.AnError
}

func TestAWSSSMConnectorListError(t *testing.T) {
	t.Parallel()

	conn, err := newAWSSSMConnector("aws.ssm", map[string]interface{}{}, WithSSMClient(failingSSMClient{}))
	require.NoError(t, err)

	_, err = conn.ListCertificates(context.Background())
	assert.ErrorContains(t, err, "aws.ssm")
}
