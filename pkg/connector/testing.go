package connector

import (
	"context"
	"sync"

	pkerrors "github.com/systmms/pkdist/internal/errors"
)

// FakeConnector is an in-memory Connector for tests. It serves a fixed
// certificate map and counts invocations so cache behavior can be asserted.
type FakeConnector struct {
	ConnectorName string
	Certificates  map[string][]string
	Fail          bool

	mu    sync.Mutex
	calls int
}

// NewFakeConnector returns a fake serving the given uid → PEM-chain map.
func NewFakeConnector(name string, certs map[string][]string) *FakeConnector {
	return &FakeConnector{ConnectorName: name, Certificates: certs}
}

func (f *FakeConnector) Name() string {
	return f.ConnectorName
}

func (f *FakeConnector) ListCertificates(ctx context.Context) (map[string][]string, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()

	if f.Fail {
		return nil, pkerrors.ConnectorError{Connector: f.ConnectorName, Op: "list"}
	}

	out := make(map[string][]string, len(f.Certificates))
	for uid, chain := range f.Certificates {
		out[uid] = append([]string(nil), chain...)
	}
	return out, nil
}

// Calls reports how many times ListCertificates has been invoked.
func (f *FakeConnector) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// Factory returns a Factory that always yields this fake, regardless of
// parameters. Useful for wiring fakes into a Registry under any name.
func (f *FakeConnector) Factory() Factory {
	return func(name string, params map[string]interface{}) (Connector, error) {
		return f, nil
	}
}
