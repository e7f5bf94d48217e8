// Package connectors provides the built-in connector implementations and
// the registry pre-populated with them.
//
// Each connector adapts one external secret or parameter store into the
// pkg/connector contract: a mapping from identity name to the PEM
// certificate chain the source holds for it.
package connectors

import (
	"encoding/pem"
	"strings"

	"github.com/systmms/pkdist/pkg/connector"
)

// NewRegistry returns a registry with every built-in connector registered.
func NewRegistry() *connector.Registry {
	registry := connector.NewRegistry()

	registry.Register("vault", NewVaultConnector)
	registry.Register("sql", NewSQLConnector)
	registry.Register("aws.ssm", NewAWSSSMConnector)
	registry.Register("aws.secretsmanager", NewAWSSecretsManagerConnector)
	registry.Register("azure.keyvault", NewAzureKeyVaultConnector)
	registry.Register("gcp.secretmanager", NewGCPSecretManagerConnector)

	return registry
}

// splitPEM splits a blob into its individual PEM certificate blocks,
// preserving order. Non-certificate blocks are dropped.
func splitPEM(blob []byte) []string {
	var blocks []string
	rest := blob
	for {
		var block *pem.Block
		block, rest = pem.Decode(rest)
		if block == nil {
			break
		}
		if block.Type != "CERTIFICATE" {
			continue
		}
		blocks = append(blocks, strings.TrimSpace(string(pem.EncodeToMemory(block))))
	}
	return blocks
}

// paramString pulls an optional string parameter from a connect-map entry.
func paramString(params map[string]interface{}, key string) string {
	if value, ok := params[key].(string); ok {
		return value
	}
	return ""
}

// paramBool pulls an optional bool parameter from a connect-map entry.
func paramBool(params map[string]interface{}, key string) bool {
	if value, ok := params[key].(bool); ok {
		return value
	}
	return false
}

// baseName returns the final element of a /-separated path.
func baseName(path string) string {
	if i := strings.LastIndex(path, "/"); i >= 0 {
		return path[i+1:]
	}
	return path
}
