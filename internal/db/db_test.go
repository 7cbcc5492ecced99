package db

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSchemaStatementsAreIdempotent(t *testing.T) {
	assert.NotEmpty(t, schemaStatements)
	for _, stmt := range schemaStatements {
		assert.Contains(t, stmt, "CREATE TABLE IF NOT EXISTS",
			"schema statements must be safe to run on every start")
	}
}

func TestSchemaCoversAllTables(t *testing.T) {
	schema := strings.Join(schemaStatements, "\n")

	for _, table := range []string{"inventory", "posts", "stickers", "run_events", "run_lease"} {
		assert.Contains(t, schema, "CREATE TABLE IF NOT EXISTS "+table)
	}
}

func TestRunLeaseTableShape(t *testing.T) {
	var leaseStmt string
	for _, stmt := range schemaStatements {
		if strings.Contains(stmt, "run_lease") {
			leaseStmt = stmt
		}
	}

	assert.NotEmpty(t, leaseStmt)
	assert.Contains(t, leaseStmt, "id         INT PRIMARY KEY")
	assert.Contains(t, leaseStmt, "holder")
	assert.Contains(t, leaseStmt, "expires_at")
}

func TestAcquireLeaseSQLShape(t *testing.T) {
	// The upsert must only steal the lease when it is expired or already ours.
	assert.Contains(t, acquireLeaseSQL, "ON CONFLICT (id) DO UPDATE")
	assert.Contains(t, acquireLeaseSQL, "run_lease.expires_at < NOW()")
	assert.Contains(t, acquireLeaseSQL, "run_lease.holder = $2")
	assert.Contains(t, acquireLeaseSQL, "make_interval(secs => $3)")
}

func TestReleaseLeaseSQLShape(t *testing.T) {
	assert.Contains(t, releaseLeaseSQL, "DELETE FROM run_lease")
	assert.Contains(t, releaseLeaseSQL, "holder = $2")
}

func TestLeaseUsesSingleRow(t *testing.T) {
	assert.Equal(t, 1, leaseID)
}

func TestCloseWithoutPool(t *testing.T) {
	db := &DB{}
	assert.NotPanics(t, func() { db.Close() })
}
