package connectors

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	pkerrors "github.com/systmms/pkdist/internal/errors"
	"github.com/systmms/pkdist/pkg/connector"
)

// VaultConnector reads identity certificates from a HashiCorp Vault KV
// mount. Each key under the configured path is an identity name whose
// "certificate" field holds the PEM chain.
type VaultConnector struct {
	name   string
	client *http.Client
	config vaultConfig
}

type vaultConfig struct {
	Address       string
	Token         string
	Namespace     string
	Path          string
	TLSSkipVerify bool
}

// NewVaultConnector builds a Vault connector from connect-map parameters:
// address (required), path (required), token (defaults to $VAULT_TOKEN),
// namespace, tls_skip_verify.
func NewVaultConnector(name string, params map[string]interface{}) (connector.Connector, error) {
	cfg := vaultConfig{
		Address:       paramString(params, "address"),
		Token:         paramString(params, "token"),
		Namespace:     paramString(params, "namespace"),
		Path:          paramString(params, "path"),
		TLSSkipVerify: paramBool(params, "tls_skip_verify"),
	}

	if cfg.Token == "" {
		cfg.Token = os.Getenv("VAULT_TOKEN")
	}
	if cfg.Address == "" {
		return nil, pkerrors.ConnectorError{
			Connector: name,
			Op:        "create",
			Err:       fmt.Errorf("'address' parameter is required"),
		}
	}
	if cfg.Path == "" {
		cfg.Path = "secret/certificates"
	}

	transport := &http.Transport{}
	if cfg.TLSSkipVerify {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} // #nosec G402 - operator opt-in
	}

	return &VaultConnector{
		name:   name,
		client: &http.Client{Timeout: 30 * time.Second, Transport: transport},
		config: cfg,
	}, nil
}

func (c *VaultConnector) Name() string {
	return c.name
}

// ListCertificates lists the keys under the configured path and reads each
// one's certificate field.
func (c *VaultConnector) ListCertificates(ctx context.Context) (map[string][]string, error) {
	names, err := c.list(ctx)
	if err != nil {
		return nil, pkerrors.ConnectorError{Connector: c.name, Op: "list", Err: err}
	}

	certs := make(map[string][]string, len(names))
	for _, uid := range names {
		chain, err := c.read(ctx, uid)
		if err != nil {
			return nil, pkerrors.ConnectorError{Connector: c.name, Op: "list", Err: err}
		}
		if len(chain) > 0 {
			certs[uid] = chain
		}
	}
	return certs, nil
}

func (c *VaultConnector) request(ctx context.Context, method, path string) (*http.Request, error) {
	url := strings.TrimSuffix(c.config.Address, "/") + "/v1/" + strings.TrimPrefix(path, "/")
	req, err := http.NewRequestWithContext(ctx, method, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-Vault-Token", c.config.Token)
	if c.config.Namespace != "" {
		req.Header.Set("X-Vault-Namespace", c.config.Namespace)
	}
	return req, nil
}

func (c *VaultConnector) list(ctx context.Context) ([]string, error) {
	req, err := c.request(ctx, "GET", c.config.Path+"?list=true")
	if err != nil {
		return nil, err
	}

	var body struct {
		Data struct {
			Keys []string `json:"keys"`
		} `json:"data"`
	}
	if err := c.do(req, &body); err != nil {
		return nil, err
	}
	return body.Data.Keys, nil
}

func (c *VaultConnector) read(ctx context.Context, uid string) ([]string, error) {
	req, err := c.request(ctx, "GET", c.config.Path+"/"+uid)
	if err != nil {
		return nil, err
	}

	var body struct {
		Data map[string]interface{} `json:"data"`
	}
	if err := c.do(req, &body); err != nil {
		return nil, err
	}

	// KV v2 nests the fields one level deeper than v1.
	fields := body.Data
	if nested, ok := fields["data"].(map[string]interface{}); ok {
		fields = nested
	}
	if raw, ok := fields["certificate"].(string); ok {
		return splitPEM([]byte(raw)), nil
	}
	return nil, nil
}

func (c *VaultConnector) do(req *http.Request, out interface{}) error {
	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("vault returned %d: %s", resp.StatusCode, strings.TrimSpace(string(payload)))
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
