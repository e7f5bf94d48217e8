package connectors

import (
	"context"
	"database/sql"
	"fmt"

	// Drivers register themselves with database/sql.
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"

	pkerrors "github.com/systmms/pkdist/internal/errors"
	"github.com/systmms/pkdist/pkg/connector"
)

// SQLConnector reads identity certificates from a relational table. Teams
// that already track issued certificates in an inventory database point
// pkdist at it instead of standing up a separate store.
type SQLConnector struct {
	name  string
	db    *sql.DB
	query string
	owned bool // whether Close should close the handle
}

const defaultCertQuery = "SELECT uid, certificate FROM identity_certificates"

// SQLConnectorOption configures a SQLConnector.
type SQLConnectorOption func(*SQLConnector)

// WithDB injects an existing database handle (for testing).
func WithDB(db *sql.DB) SQLConnectorOption {
	return func(c *SQLConnector) {
		c.db = db
		c.owned = false
	}
}

// NewSQLConnector builds a SQL connector from connect-map parameters:
// driver ("postgres" or "mysql"), dsn, and optionally query, a statement
// returning (uid, certificate PEM) rows.
func NewSQLConnector(name string, params map[string]interface{}) (connector.Connector, error) {
	return newSQLConnector(name, params)
}

func newSQLConnector(name string, params map[string]interface{}, opts ...SQLConnectorOption) (*SQLConnector, error) {
	c := &SQLConnector{
		name:  name,
		query: defaultCertQuery,
		owned: true,
	}
	if q := paramString(params, "query"); q != "" {
		c.query = q
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.db == nil {
		driver := paramString(params, "driver")
		dsn := paramString(params, "dsn")
		if driver == "" || dsn == "" {
			return nil, pkerrors.ConnectorError{
				Connector: name,
				Op:        "create",
				Err:       fmt.Errorf("'driver' and 'dsn' parameters are required"),
			}
		}
		db, err := sql.Open(driver, dsn)
		if err != nil {
			return nil, pkerrors.ConnectorError{Connector: name, Op: "create", Err: err}
		}
		c.db = db
	}
	return c, nil
}

func (c *SQLConnector) Name() string {
	return c.name
}

// ListCertificates runs the configured query and splits each row's PEM blob
// into its chain.
func (c *SQLConnector) ListCertificates(ctx context.Context) (map[string][]string, error) {
	rows, err := c.db.QueryContext(ctx, c.query)
	if err != nil {
		return nil, pkerrors.ConnectorError{Connector: c.name, Op: "list", Err: err}
	}
	defer rows.Close()

	certs := make(map[string][]string)
	for rows.Next() {
		var uid, blob string
		if err := rows.Scan(&uid, &blob); err != nil {
			return nil, pkerrors.ConnectorError{Connector: c.name, Op: "list", Err: err}
		}
		if chain := splitPEM([]byte(blob)); len(chain) > 0 {
			certs[uid] = chain
		}
	}
	if err := rows.Err(); err != nil {
		return nil, pkerrors.ConnectorError{Connector: c.name, Op: "list", Err: err}
	}
	return certs, nil
}

// Close releases the database handle if this connector opened it.
func (c *SQLConnector) Close() error {
	if c.owned && c.db != nil {
		return c.db.Close()
	}
	return nil
}
