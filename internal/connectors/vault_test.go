package connectors_test

import (
	"context"
	"encoding/json"
	"encoding/pem"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/systmms/pkdist/internal/connectors"
)

func pemCert(der string) string {
	return string(pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: []byte(der)}))
}

func newVaultServer(t *testing.T, kv2 bool) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Vault-Token") != "test-token" {
			w.WriteHeader(http.StatusForbidden)
			return
		}

		switch {
		case r.URL.Path == "/v1/secret/certificates" && r.URL.Query().Get("list") == "true":
			json.NewEncoder(w).Encode(map[string]interface{}{
				"data": map[string]interface{}{"keys": []string{"alice", "bob"}},
			})
		case r.URL.Path == "/v1/secret/certificates/alice":
			fields := map[string]interface{}{"certificate": pemCert("alice-der")}
			if kv2 {
				fields = map[string]interface{}{"data": fields}
			}
			json.NewEncoder(w).Encode(map[string]interface{}{"data": fields})
		case r.URL.Path == "/v1/secret/certificates/bob":
			fields := map[string]interface{}{"certificate": pemCert("bob-leaf") + pemCert("bob-ca")}
			if kv2 {
				fields = map[string]interface{}{"data": fields}
			}
			json.NewEncoder(w).Encode(map[string]interface{}{"data": fields})
		default:
			http.NotFound(w, r)
		}
	}))
}

func TestVaultConnectorListsCertificates(t *testing.T) {
	t.Parallel()

	for _, kv2 := range []bool{false, true} {
		server := newVaultServer(t, kv2)
		defer server.Close()

		conn, err := connectors.NewVaultConnector("vault", map[string]interface{}{
			"address": server.URL,
			"token":   "test-token",
		})
		require.NoError(t, err)
		assert.Equal(t, "vault", conn.Name())

		certs, err := conn.ListCertificates(context.Background())
		require.NoError(t, err)
		require.Len(t, certs, 2)
		assert.Len(t, certs["alice"], 1)
		assert.Len(t, certs["bob"], 2, "chains keep every certificate block")
	}
}

func TestVaultConnectorRequiresAddress(t *testing.T) {
	t.Parallel()

	_, err := connectors.NewVaultConnector("vault", map[string]interface{}{})
	assert.ErrorContains(t, err, "address")
}

func TestVaultConnectorBadToken(t *testing.T) {
	t.Parallel()

	server := newVaultServer(t, false)
	defer server.Close()

	conn, err := connectors.NewVaultConnector("vault", map[string]interface{}{
		"address": server.URL,
		"token":   "wrong",
	})
	require.NoError(t, err)

	_, err = conn.ListCertificates(context.Background())
	assert.ErrorContains(t, err, "vault")
}
